package audio

import (
	"fmt"
	"sort"
)

var musicPresets = map[string]func() []MusicTrack{
	"cinematic": func() []MusicTrack {
		return []MusicTrack{{
			ID: "cinematic-1", Name: "Epic Orchestral",
			URL:    "https://www.soundhelix.com/examples/mp3/SoundHelix-Song-1.mp3",
			Volume: 0.6, Loop: true,
		}}
	},
	"relaxing": func() []MusicTrack {
		return []MusicTrack{{
			ID: "ambient-1", Name: "Ambient Space",
			URL:    "https://www.soundhelix.com/examples/mp3/SoundHelix-Song-2.mp3",
			Volume: 0.4, Loop: true,
		}}
	},
	"electronic": func() []MusicTrack {
		return []MusicTrack{{
			ID: "electronic-1", Name: "Synthwave",
			URL:    "https://www.soundhelix.com/examples/mp3/SoundHelix-Song-3.mp3",
			Volume: 0.5, Loop: true,
		}}
	},
}

var dialoguePresets = map[string]func() []DialogueLine{
	"vitigni": func() []DialogueLine {
		return []DialogueLine{
			{ID: "merlot-1", Speaker: "Merlot", Duration: seconds(4),
				Text: "Together we are stronger! Let us unite to save the Lands of the Vines."},
			{ID: "pinot-1", Speaker: "Pinot Noir", Duration: seconds(5), Delay: seconds(5),
				Text: "Beauty lies in fragility... every terroir tells a story of its own."},
			{ID: "chardonnay-1", Speaker: "Chardonnay", Duration: seconds(5), Delay: seconds(11),
				Text: "Art is evolution. I can turn every element into something precious."},
			{ID: "sauvignon-1", Speaker: "Sauvignon Blanc", Duration: seconds(4), Delay: seconds(17),
				Text: "Life is an adventure! I cannot stay in one place."},
		}
	},
	"motivational": func() []DialogueLine {
		return []DialogueLine{
			{ID: "welcome", Duration: seconds(4),
				Text: "Welcome to the 3D world! Explore and customize your scene."},
			{ID: "tip-1", Duration: seconds(4), Delay: seconds(5),
				Text: "Drag to rotate the view. Scroll to zoom."},
			{ID: "tip-2", Duration: seconds(5), Delay: seconds(10),
				Text: "Try the presets in the configuration panel for different lighting."},
		}
	},
}

// MusicPreset returns the tracks of a named music preset.
func MusicPreset(name string) ([]MusicTrack, error) {
	p, ok := musicPresets[name]
	if !ok {
		return nil, fmt.Errorf("audio: unknown music preset %q", name)
	}
	return p(), nil
}

// DialoguePreset returns the lines of a named dialogue preset.
func DialoguePreset(name string) ([]DialogueLine, error) {
	p, ok := dialoguePresets[name]
	if !ok {
		return nil, fmt.Errorf("audio: unknown dialogue preset %q", name)
	}
	return p(), nil
}

func MusicPresetNames() []string    { return sortedKeys(musicPresets) }
func DialoguePresetNames() []string { return sortedKeys(dialoguePresets) }

// WithMusicPreset replaces the track list, selects the first track and
// enables music.
func (c Config) WithMusicPreset(name string) (Config, error) {
	tracks, err := MusicPreset(name)
	if err != nil {
		return c, err
	}
	out := c.Clone()
	out.Music.Tracks = tracks
	out.Music.CurrentTrackIndex = 0
	out.Music.Enabled = true
	return out, nil
}

// WithDialoguePreset replaces the dialogue lines and enables dialogue.
func (c Config) WithDialoguePreset(name string) (Config, error) {
	lines, err := DialoguePreset(name)
	if err != nil {
		return c, err
	}
	out := c.Clone()
	out.Dialogues.Lines = lines
	out.Dialogues.Enabled = true
	return out, nil
}

func sortedKeys[T any](m map[string]T) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
