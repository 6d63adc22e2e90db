package scene

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/studio3d/internal/mathutil"
)

func TestDefaultAndPresetsRoundTrip(t *testing.T) {
	configs := map[string]Config{"default": Default()}
	for _, name := range PresetNames() {
		p, err := Preset(name)
		require.NoError(t, err)
		configs[name] = p
	}

	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, cfg.Validate())
			data, err := json.Marshal(cfg)
			require.NoError(t, err)

			var back Config
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, cfg, back)
		})
	}
}

func TestPresetNames(t *testing.T) {
	assert.Equal(t, []string{"cinematic", "natural", "neon"}, PresetNames())

	_, err := Preset("missing")
	assert.Error(t, err)
}

func TestPresetIsFreshCopy(t *testing.T) {
	a, _ := Preset("neon")
	a.Lights[1].Position[0] = 100

	b, _ := Preset("neon")
	assert.Equal(t, 5.0, b.Lights[1].Position[0])
}

func TestLightTypeRejectsUnknown(t *testing.T) {
	var l Light
	err := json.Unmarshal([]byte(`{"type":"laser","intensity":1}`), &l)
	assert.Error(t, err)

	require.NoError(t, json.Unmarshal([]byte(`{"type":"spot","intensity":1,"position":[1,2,3]}`), &l))
	assert.Equal(t, Spot, l.Type)
	assert.Equal(t, mathutil.V3(1, 2, 3), *l.Position)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"metalness above one", func(c *Config) { c.Material.Metalness = 1.5 }},
		{"negative roughness", func(c *Config) { c.Material.Roughness = -0.1 }},
		{"negative intensity", func(c *Config) { c.Lights[0].Intensity = -1 }},
		{"bad background", func(c *Config) { c.Background = "blue" }},
		{"negative bounce", func(c *Config) { c.Animation.BounceAmplitude = -1 }},
		{"negative emissive intensity", func(c *Config) { c.Material.EmissiveIntensity = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}

	empty := Default()
	empty.Lights = nil
	assert.NoError(t, empty.Validate(), "an unlit scene is allowed")
}

func TestCloneIsDeep(t *testing.T) {
	a := Default()
	b := a.Clone()
	b.Lights[1].Position[0] = 42
	b.Lights = append(b.Lights, Light{Type: Spot})

	assert.Equal(t, 10.0, a.Lights[1].Position[0])
	assert.Len(t, a.Lights, 3)
}

func TestParseColor(t *testing.T) {
	r, g, b, err := ParseColor("#ff8000")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r, 1e-9)
	assert.InDelta(t, 128.0/255, g, 1e-9)
	assert.InDelta(t, 0.0, b, 1e-9)

	r, _, _, err = ParseColor("#f00")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r, 1e-9)

	_, _, _, err = ParseColor("#12345")
	assert.Error(t, err)
	_, _, _, err = ParseColor("#gggggg")
	assert.Error(t, err)
}

func TestAnimate(t *testing.T) {
	c := Default()
	c.Animation.BounceAmplitude = 0.2
	c.Animation.BounceSpeed = 2

	pose := Animate(c, 10, math.Pi/4)
	assert.InDelta(t, 0.1, pose.Rotation[1], 1e-12)
	assert.InDelta(t, -math.Pi/4, pose.Rotation[0], 1e-12)
	assert.InDelta(t, 0.2, pose.Position[1], 1e-12)

	c.Animation.Enabled = false
	assert.Equal(t, c.Transform, Animate(c, 10, 1))
}

func TestLightingRigFallsBackToNatural(t *testing.T) {
	assert.Equal(t, LightingRig(LightingNatural), LightingRig("unknown"))
	assert.True(t, LightingSoft.Valid())
	assert.False(t, Lighting("harsh").Valid())
}
