package scene

import (
	"fmt"
	"sort"

	"github.com/ivlev/studio3d/internal/mathutil"
)

// Lighting is a named light rig suggested by image analysis.
type Lighting string

const (
	LightingDramatic Lighting = "dramatic"
	LightingNatural  Lighting = "natural"
	LightingSoft     Lighting = "soft"
)

func (l Lighting) Valid() bool {
	return l == LightingDramatic || l == LightingNatural || l == LightingSoft
}

var presets = map[string]func() Config{
	"cinematic": func() Config {
		c := Default()
		c.Lights = LightingRig(LightingDramatic)
		c.Material = Material{Metalness: 0.9, Roughness: 0.1}
		c.Background = "#0f0f1e"
		return c
	},
	"natural": func() Config {
		c := Default()
		c.Lights = LightingRig(LightingNatural)
		c.Material = Material{Metalness: 0.2, Roughness: 0.8}
		c.Background = "#74b9ff"
		return c
	},
	"neon": func() Config {
		c := Default()
		c.Lights = []Light{
			{Type: Ambient, Intensity: 0.1, Color: "#000000"},
			{Type: Point, Intensity: 2, Position: mathutil.V3(5, 5, 5).Ptr(), Color: "#ff00ff"},
			{Type: Point, Intensity: 2, Position: mathutil.V3(-5, 5, -5).Ptr(), Color: "#00ffff"},
			{Type: Point, Intensity: 2, Position: mathutil.V3(0, -5, 0).Ptr(), Color: "#ffff00"},
		}
		c.Material = Material{Metalness: 0.9, Roughness: 0.1, Emissive: "#ff00ff", EmissiveIntensity: 0.5}
		c.Background = "#000000"
		return c
	},
}

// Preset returns a fresh copy of the named scene preset.
func Preset(name string) (Config, error) {
	p, ok := presets[name]
	if !ok {
		return Config{}, fmt.Errorf("scene: unknown preset %q", name)
	}
	return p(), nil
}

// PresetNames lists scene presets in alphabetical order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LightingRig returns the lights for a lighting style. Unknown styles get
// the natural rig.
func LightingRig(l Lighting) []Light {
	switch l {
	case LightingDramatic:
		return []Light{
			{Type: Ambient, Intensity: 0.2, Color: "#1a1a2e"},
			{Type: Directional, Intensity: 2, Position: mathutil.V3(5, 10, 5).Ptr(), Color: "#ff6b6b"},
			{Type: Point, Intensity: 1.5, Position: mathutil.V3(-5, 5, -5).Ptr(), Color: "#4ecdc4"},
		}
	case LightingSoft:
		return []Light{
			{Type: Ambient, Intensity: 0.8, Color: "#fff5e6"},
			{Type: Directional, Intensity: 0.6, Position: mathutil.V3(5, 10, 10).Ptr(), Color: "#ffffff"},
		}
	default:
		return []Light{
			{Type: Ambient, Intensity: 0.6, Color: "#ffeaa7"},
			{Type: Directional, Intensity: 1.2, Position: mathutil.V3(10, 15, 10).Ptr(), Color: "#fdcb6e"},
		}
	}
}
