package vision

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/ivlev/studio3d/internal/scene"
)

const (
	MinDepth     = 10
	MaxDepth     = 100
	DefaultDepth = 30
)

// Result is the normalized answer of the vision model. Depth is in UI
// units (10..100).
type Result struct {
	Subject           string         `json:"subject"`
	Description       string         `json:"description"`
	HasBackground     bool           `json:"hasBackground"`
	SuggestedDepth    float64        `json:"suggestedDepth"`
	SuggestedLighting scene.Lighting `json:"suggestedLighting"`
	Confidence        float64        `json:"confidence"`
	Objects           []string       `json:"objects"`
}

// Fallback is returned whenever the service cannot produce a usable answer.
func Fallback() Result {
	return Result{
		Subject:           "generic object",
		Description:       "image could not be analyzed",
		HasBackground:     true,
		SuggestedDepth:    DefaultDepth,
		SuggestedLighting: scene.LightingNatural,
		Confidence:        0,
		Objects:           []string{},
	}
}

var jsonSpan = regexp.MustCompile(`(?s)\{.*\}`)

var errNoJSON = errors.New("vision: no JSON object in response")

// Parse extracts the JSON object embedded in free-form model output and
// normalizes it.
func Parse(text string) (Result, error) {
	span := jsonSpan.FindString(text)
	if span == "" {
		return Result{}, errNoJSON
	}

	var raw struct {
		Subject           string   `json:"subject"`
		Description       string   `json:"description"`
		HasBackground     *bool    `json:"hasBackground"`
		SuggestedDepth    *float64 `json:"suggestedDepth"`
		SuggestedLighting string   `json:"suggestedLighting"`
		Confidence        *float64 `json:"confidence"`
		Objects           []any    `json:"objects"`
	}
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		return Result{}, err
	}

	r := Fallback()
	if s := strings.TrimSpace(raw.Subject); s != "" {
		r.Subject = s
	}
	r.Description = strings.TrimSpace(raw.Description)
	if raw.HasBackground != nil {
		r.HasBackground = *raw.HasBackground
	}
	if raw.SuggestedDepth != nil {
		r.SuggestedDepth = max(MinDepth, min(MaxDepth, *raw.SuggestedDepth))
	}
	if l := scene.Lighting(strings.ToLower(strings.TrimSpace(raw.SuggestedLighting))); l.Valid() {
		r.SuggestedLighting = l
	}
	if raw.Confidence != nil {
		r.Confidence = max(0, min(1, *raw.Confidence))
	}
	for _, o := range raw.Objects {
		if s, ok := o.(string); ok && strings.TrimSpace(s) != "" {
			r.Objects = append(r.Objects, strings.TrimSpace(s))
		}
	}
	return r, nil
}
