package studio

import (
	"fmt"
	"math"

	"github.com/ivlev/studio3d/internal/audio"
	"github.com/ivlev/studio3d/internal/mathutil"
	"github.com/ivlev/studio3d/internal/scene"
)

var presets = map[string]func() UnifiedConfig{
	"cinematic": func() UnifiedConfig {
		c := Default()
		c.Scene.Lights = scene.LightingRig(scene.LightingDramatic)
		c.Scene.Material = scene.Material{Metalness: 0.9, Roughness: 0.1}
		c.Scene.Animation.RotationSpeed = mathutil.V3(0, 0.005, 0)
		c.Scene.Background = "#0f0f1e"

		c.Audio, _ = c.Audio.WithMusicPreset("cinematic")
		c.Audio.Dialogues.VoiceSettings = &audio.VoiceSettings{Pitch: 0.9, Rate: 0.9, Volume: 1}
		return c
	},
	"natural": func() UnifiedConfig {
		c := Default()
		c.Scene.Lights = []scene.Light{
			{Type: scene.Ambient, Intensity: 0.6, Color: "#ffeaa7"},
			{Type: scene.Directional, Intensity: 1.2, Position: mathutil.V3(10, 15, 10).Ptr(), Color: "#fdcb6e"},
		}
		c.Scene.Material = scene.Material{Metalness: 0.2, Roughness: 0.8}
		c.Scene.Animation = scene.Animation{
			Enabled:         true,
			RotationSpeed:   mathutil.V3(0, 0.003, 0),
			BounceAmplitude: 0.1,
			BounceSpeed:     0.8,
		}
		c.Scene.Background = "#74b9ff"

		c.Audio.Music = audio.Music{
			Enabled: true,
			Tracks: []audio.MusicTrack{{
				ID: "nature-1", Name: "Nature Sounds",
				URL:    "https://www.soundhelix.com/examples/mp3/SoundHelix-Song-4.mp3",
				Volume: 0.5, Loop: true,
			}},
			MasterVolume: 0.5,
		}
		welcome, _ := audio.DialoguePreset("motivational")
		c.Audio.Dialogues.Enabled = true
		c.Audio.Dialogues.Lines = welcome[:1]
		return c
	},
	"vitigni": func() UnifiedConfig {
		c := Default()
		c.Scene.Lights = []scene.Light{
			{Type: scene.Ambient, Intensity: 0.5, Color: "#ffeaa7"},
			{Type: scene.Directional, Intensity: 1.2, Position: mathutil.V3(10, 15, 10).Ptr(), Color: "#fdcb6e"},
		}
		c.Scene.Material = scene.Material{Metalness: 0.4, Roughness: 0.6, Color: "#8B4789"}
		c.Scene.Transform = scene.Transform{
			Rotation: mathutil.V3(-math.Pi/6, math.Pi/4, 0),
			Scale:    mathutil.V3(1.2, 1.2, 1.2),
		}
		c.Scene.Animation = scene.Animation{
			Enabled:         true,
			RotationSpeed:   mathutil.V3(0, 0.01, 0),
			BounceAmplitude: 0.2,
			BounceSpeed:     1.5,
		}
		c.Scene.Background = "#2d1b2e"

		c.Audio, _ = c.Audio.WithMusicPreset("relaxing")
		c.Audio.Music.Tracks[0].Name = "Ambient Wine"
		c.Audio.Music.MasterVolume = 0.4
		c.Audio, _ = c.Audio.WithDialoguePreset("vitigni")
		c.Audio.Dialogues.Lines = c.Audio.Dialogues.Lines[:2]
		c.Audio.Dialogues.AutoPlay = true
		c.Audio.Dialogues.VoiceSettings = &audio.VoiceSettings{Pitch: 1.1, Rate: 0.95, Volume: 1}
		c.Audio.SpatialAudio.ListenerPosition = mathutil.V3(0, 0, 5)
		return c
	},
}

// Preset returns a fresh copy of the named unified preset.
func Preset(name string) (UnifiedConfig, error) {
	p, ok := presets[name]
	if !ok {
		return UnifiedConfig{}, fmt.Errorf("studio: unknown preset %q", name)
	}
	return p(), nil
}

func PresetNames() []string {
	return []string{"cinematic", "natural", "vitigni"}
}
