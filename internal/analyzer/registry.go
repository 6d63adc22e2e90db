package analyzer

import "fmt"

// NewRemover creates a background remover for the specified variant
func NewRemover(variant string) (Remover, error) {
	switch variant {
	case "corner", "":
		return NewCornerRemover(), nil
	case "edge":
		return NewEdgeRemover(), nil
	case "segment":
		return nil, fmt.Errorf("segmentation remover not yet implemented")
	default:
		return nil, fmt.Errorf("unknown remover variant: %s", variant)
	}
}
