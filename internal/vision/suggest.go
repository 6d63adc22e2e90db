package vision

import (
	"strings"

	"github.com/ivlev/studio3d/internal/analyzer"
	"github.com/ivlev/studio3d/internal/mathutil"
	"github.com/ivlev/studio3d/internal/pixel"
	"github.com/ivlev/studio3d/internal/scene"
)

// Suggestion is the scene patch derived from an analysis.
type Suggestion struct {
	Depth         float64 // UI units, 10..100
	Lighting      scene.Lighting
	Metalness     float64
	Roughness     float64
	RotationSpeed mathutil.Vec3
}

var (
	organicWords = []string{"person", "face", "persona"}
	metalWords   = []string{"metal", "metallo"}
)

// Suggest maps an analysis onto material, lighting and animation values.
// Object names are matched case-insensitively by substring.
func Suggest(r Result) Suggestion {
	s := Suggestion{
		Depth:         r.SuggestedDepth,
		Lighting:      r.SuggestedLighting,
		Metalness:     0.3,
		Roughness:     0.7,
		RotationSpeed: mathutil.V3(0, 0.005, 0),
	}
	if !s.Lighting.Valid() {
		s.Lighting = scene.LightingNatural
	}
	if anyContains(r.Objects, organicWords) {
		s.Metalness, s.Roughness = 0.1, 0.9
		s.Lighting = scene.LightingSoft
	}
	if anyContains(r.Objects, metalWords) {
		s.Metalness, s.Roughness = 0.9, 0.2
	}
	return s
}

// Apply returns a copy of c with the suggestion applied. Material colors
// and the transform are kept.
func (s Suggestion) Apply(c scene.Config) scene.Config {
	out := c.Clone()
	out.Material.Metalness = s.Metalness
	out.Material.Roughness = s.Roughness
	out.Lights = scene.LightingRig(s.Lighting)
	out.Animation.Enabled = true
	out.Animation.RotationSpeed = s.RotationSpeed
	return out
}

// RemoveBackground returns buf unchanged when the analysis found no
// background, otherwise the remover's output. A nil remover means the
// corner heuristic.
func RemoveBackground(buf *pixel.Buffer, r Result, remover analyzer.Remover) (*pixel.Buffer, error) {
	if !r.HasBackground {
		return buf, nil
	}
	if remover == nil {
		remover = analyzer.NewCornerRemover()
	}
	return remover.Remove(buf)
}

func anyContains(objects, words []string) bool {
	for _, o := range objects {
		lo := strings.ToLower(o)
		for _, w := range words {
			if strings.Contains(lo, w) {
				return true
			}
		}
	}
	return false
}
