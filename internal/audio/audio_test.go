package audio

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRoundTrip(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	var back Config
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, cfg, back)
}

func TestEffectiveTiming(t *testing.T) {
	line := DialogueLine{ID: "a", Text: "hi"}
	assert.Equal(t, DefaultLineDuration, line.EffectiveDuration())
	assert.Equal(t, 0.0, line.EffectiveDelay())

	line.Duration = seconds(4)
	line.Delay = seconds(2.5)
	assert.Equal(t, 4.0, line.EffectiveDuration())
	assert.Equal(t, 2.5, line.EffectiveDelay())
}

func TestTrackNavigationWraps(t *testing.T) {
	m := Music{Tracks: []MusicTrack{{ID: "a"}, {ID: "b"}, {ID: "c"}}}

	m = m.NextTrack().NextTrack()
	assert.Equal(t, 2, m.CurrentTrackIndex)
	m = m.NextTrack()
	assert.Equal(t, 0, m.CurrentTrackIndex)
	m = m.PreviousTrack()
	assert.Equal(t, 2, m.CurrentTrackIndex)

	track, ok := m.CurrentTrack()
	require.True(t, ok)
	assert.Equal(t, "c", track.ID)

	_, ok = Music{}.CurrentTrack()
	assert.False(t, ok)
	assert.Equal(t, 0, Music{}.NextTrack().CurrentTrackIndex)
}

func TestPresetsApply(t *testing.T) {
	base := Default()

	withMusic, err := base.WithMusicPreset("relaxing")
	require.NoError(t, err)
	assert.True(t, withMusic.Music.Enabled)
	assert.Equal(t, "ambient-1", withMusic.Music.Tracks[0].ID)
	assert.False(t, base.Music.Enabled, "source config untouched")

	withLines, err := withMusic.WithDialoguePreset("vitigni")
	require.NoError(t, err)
	assert.True(t, withLines.Dialogues.Enabled)
	require.Len(t, withLines.Dialogues.Lines, 4)
	assert.Equal(t, 11.0, withLines.Dialogues.Lines[2].EffectiveDelay())
	require.NoError(t, withLines.Validate())

	_, err = base.WithMusicPreset("polka")
	assert.Error(t, err)
	_, err = base.WithDialoguePreset("polka")
	assert.Error(t, err)

	assert.Equal(t, []string{"cinematic", "electronic", "relaxing"}, MusicPresetNames())
	assert.Equal(t, []string{"motivational", "vitigni"}, DialoguePresetNames())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"master volume", func(c *Config) { c.Music.MasterVolume = 2 }},
		{"track volume", func(c *Config) { c.Music.Tracks = []MusicTrack{{ID: "a", Volume: -1}} }},
		{"track index", func(c *Config) {
			c.Music.Tracks = []MusicTrack{{ID: "a"}}
			c.Music.CurrentTrackIndex = 3
		}},
		{"empty text", func(c *Config) { c.Dialogues.Lines = []DialogueLine{{ID: "a", Text: "  "}} }},
		{"duplicate line id", func(c *Config) {
			c.Dialogues.Lines = []DialogueLine{{ID: "a", Text: "x"}, {ID: "a", Text: "y"}}
		}},
		{"negative delay", func(c *Config) {
			c.Dialogues.Lines = []DialogueLine{{ID: "a", Text: "x", Delay: seconds(-1)}}
		}},
		{"pitch", func(c *Config) { c.Dialogues.VoiceSettings.Pitch = 3 }},
		{"rate", func(c *Config) { c.Dialogues.VoiceSettings.Rate = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestNewLineIDsAreUnique(t *testing.T) {
	a := NewDialogueLine("one", "")
	b := NewDialogueLine("two", "Merlot")
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "Merlot", b.Speaker)

	tr := NewTrack("Song", "https://example.com/a.mp3")
	assert.NotEmpty(t, tr.ID)
	assert.True(t, tr.Loop)
}

func TestCloneIsDeep(t *testing.T) {
	a, err := Default().WithDialoguePreset("motivational")
	require.NoError(t, err)
	b := a.Clone()
	*b.Dialogues.Lines[1].Delay = 99
	b.Dialogues.VoiceSettings.Pitch = 2

	assert.Equal(t, 5.0, *a.Dialogues.Lines[1].Delay)
	assert.Equal(t, 1.0, a.Dialogues.VoiceSettings.Pitch)
	assert.Equal(t, DefaultVoice(), Dialogues{}.Voice())
}
