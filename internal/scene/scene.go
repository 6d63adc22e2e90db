// Package scene describes how the generated mesh is lit, shaded, posed and
// animated. It is pure data: a renderer consumes it, nothing here draws.
package scene

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/ivlev/studio3d/internal/mathutil"
)

// LightType is one of the supported light kinds.
type LightType string

const (
	Ambient     LightType = "ambient"
	Directional LightType = "directional"
	Point       LightType = "point"
	Spot        LightType = "spot"
)

// Valid reports whether t is a known light kind.
func (t LightType) Valid() bool {
	switch t {
	case Ambient, Directional, Point, Spot:
		return true
	}
	return false
}

func (t *LightType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("light type: %w", err)
	}
	lt := LightType(s)
	if !lt.Valid() {
		return fmt.Errorf("unknown light type %q", s)
	}
	*t = lt
	return nil
}

// Light is a single light source. Position is ignored for ambient lights.
type Light struct {
	Type      LightType      `json:"type"`
	Intensity float64        `json:"intensity"`
	Position  *mathutil.Vec3 `json:"position,omitempty"`
	Color     string         `json:"color,omitempty"`
}

type Material struct {
	Metalness         float64 `json:"metalness"`
	Roughness         float64 `json:"roughness"`
	Color             string  `json:"color,omitempty"`
	Emissive          string  `json:"emissive,omitempty"`
	EmissiveIntensity float64 `json:"emissiveIntensity,omitempty"`
}

// Transform is the rest pose. Scale components are expected to be positive.
type Transform struct {
	Rotation mathutil.Vec3 `json:"rotation"` // radians
	Scale    mathutil.Vec3 `json:"scale"`
	Position mathutil.Vec3 `json:"position"`
}

type Animation struct {
	Enabled         bool          `json:"enabled"`
	RotationSpeed   mathutil.Vec3 `json:"rotationSpeed"` // radians per frame
	BounceAmplitude float64       `json:"bounceAmplitude"`
	BounceSpeed     float64       `json:"bounceSpeed"`
}

// Config is a complete renderable scene description.
type Config struct {
	Lights     []Light   `json:"lights"`
	Material   Material  `json:"material"`
	Transform  Transform `json:"transform"`
	Animation  Animation `json:"animation"`
	Background string    `json:"background"`
}

// Default returns the scene used when nothing else has been applied.
func Default() Config {
	return Config{
		Lights: []Light{
			{Type: Ambient, Intensity: 0.5, Color: "#ffffff"},
			{Type: Directional, Intensity: 1, Position: mathutil.V3(10, 10, 5).Ptr(), Color: "#ffffff"},
			{Type: Point, Intensity: 0.5, Position: mathutil.V3(-10, -10, -5).Ptr(), Color: "#4488ff"},
		},
		Material: Material{Metalness: 0.3, Roughness: 0.7, Color: "#ffffff"},
		Transform: Transform{
			Rotation: mathutil.V3(-math.Pi/4, 0, 0),
			Scale:    mathutil.V3(1, 1, 1),
		},
		Animation: Animation{
			Enabled:       true,
			RotationSpeed: mathutil.V3(0, 0.01, 0),
			BounceSpeed:   1,
		},
		Background: "#000000",
	}
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	out := c
	out.Lights = make([]Light, len(c.Lights))
	for i, l := range c.Lights {
		if l.Position != nil {
			l.Position = l.Position.Ptr()
		}
		out.Lights[i] = l
	}
	return out
}

// Validate checks ranges and enums. Scale is not checked: a collapsed scale
// is the caller's business.
func (c Config) Validate() error {
	for i, l := range c.Lights {
		if !l.Type.Valid() {
			return fmt.Errorf("lights[%d]: unknown type %q", i, l.Type)
		}
		if l.Intensity < 0 {
			return fmt.Errorf("lights[%d]: negative intensity %g", i, l.Intensity)
		}
		if err := checkColor(l.Color); err != nil {
			return fmt.Errorf("lights[%d].color: %w", i, err)
		}
	}
	m := c.Material
	if m.Metalness < 0 || m.Metalness > 1 {
		return fmt.Errorf("material.metalness %g out of [0,1]", m.Metalness)
	}
	if m.Roughness < 0 || m.Roughness > 1 {
		return fmt.Errorf("material.roughness %g out of [0,1]", m.Roughness)
	}
	if m.EmissiveIntensity < 0 {
		return fmt.Errorf("material.emissiveIntensity %g is negative", m.EmissiveIntensity)
	}
	if err := checkColor(m.Color); err != nil {
		return fmt.Errorf("material.color: %w", err)
	}
	if err := checkColor(m.Emissive); err != nil {
		return fmt.Errorf("material.emissive: %w", err)
	}
	if c.Animation.BounceAmplitude < 0 {
		return fmt.Errorf("animation.bounceAmplitude %g is negative", c.Animation.BounceAmplitude)
	}
	return checkColor(c.Background)
}

func checkColor(s string) error {
	if s == "" {
		return nil
	}
	_, _, _, err := ParseColor(s)
	return err
}
