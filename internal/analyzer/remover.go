// Package analyzer separates a subject from its background. Strategies are
// heuristics over the pixel buffer, not semantic segmentation.
package analyzer

import "github.com/ivlev/studio3d/internal/pixel"

// Remover makes background pixels transparent. It returns a new buffer and
// never modifies its input.
type Remover interface {
	Remove(buf *pixel.Buffer) (*pixel.Buffer, error)
}
