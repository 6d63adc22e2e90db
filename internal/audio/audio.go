// Package audio describes background music, spoken dialogue and the
// (declared but unused) spatial audio settings of a scene.
package audio

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ivlev/studio3d/internal/mathutil"
)

// DefaultLineDuration applies to dialogue lines that declare no duration.
const DefaultLineDuration = 3.0

type MusicTrack struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	URL    string  `json:"url"`
	Volume float64 `json:"volume"`
	Loop   bool    `json:"loop"`
}

// DialogueLine is one spoken unit. AudioURL, when set, is played instead of
// synthesizing Text. Duration and Delay are seconds.
type DialogueLine struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Speaker  string   `json:"speaker,omitempty"`
	AudioURL string   `json:"audioUrl,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
	Delay    *float64 `json:"delay,omitempty"`
}

// EffectiveDuration is the declared duration or DefaultLineDuration.
func (l DialogueLine) EffectiveDuration() float64 {
	if l.Duration == nil {
		return DefaultLineDuration
	}
	return *l.Duration
}

// EffectiveDelay is the declared delay or zero.
func (l DialogueLine) EffectiveDelay() float64 {
	if l.Delay == nil {
		return 0
	}
	return *l.Delay
}

type VoiceSettings struct {
	Pitch  float64 `json:"pitch"`  // 0.5 - 2.0
	Rate   float64 `json:"rate"`   // 0.1 - 10
	Volume float64 `json:"volume"` // 0 - 1
	Voice  string  `json:"voice,omitempty"`
}

// DefaultVoice is the neutral voice used when a config carries none.
func DefaultVoice() VoiceSettings {
	return VoiceSettings{Pitch: 1, Rate: 1, Volume: 1}
}

type Music struct {
	Enabled           bool         `json:"enabled"`
	Tracks            []MusicTrack `json:"tracks"`
	CurrentTrackIndex int          `json:"currentTrackIndex"`
	MasterVolume      float64      `json:"masterVolume"`
}

// CurrentTrack returns the selected track; ok is false without tracks.
func (m Music) CurrentTrack() (MusicTrack, bool) {
	if len(m.Tracks) == 0 || m.CurrentTrackIndex < 0 || m.CurrentTrackIndex >= len(m.Tracks) {
		return MusicTrack{}, false
	}
	return m.Tracks[m.CurrentTrackIndex], true
}

// NextTrack returns a copy selecting the following track, wrapping around.
func (m Music) NextTrack() Music {
	if len(m.Tracks) == 0 {
		return m
	}
	m.CurrentTrackIndex = (m.CurrentTrackIndex + 1) % len(m.Tracks)
	return m
}

// PreviousTrack returns a copy selecting the preceding track, wrapping around.
func (m Music) PreviousTrack() Music {
	if len(m.Tracks) == 0 {
		return m
	}
	if m.CurrentTrackIndex <= 0 {
		m.CurrentTrackIndex = len(m.Tracks) - 1
	} else {
		m.CurrentTrackIndex--
	}
	return m
}

type Dialogues struct {
	Enabled       bool           `json:"enabled"`
	Lines         []DialogueLine `json:"lines"`
	AutoPlay      bool           `json:"autoPlay"`
	VoiceSettings *VoiceSettings `json:"voiceSettings,omitempty"`
}

// Voice returns the configured voice settings or DefaultVoice.
func (d Dialogues) Voice() VoiceSettings {
	if d.VoiceSettings == nil {
		return DefaultVoice()
	}
	return *d.VoiceSettings
}

// SpatialAudio is carried in the config but no playback path reads it.
type SpatialAudio struct {
	Enabled          bool          `json:"enabled"`
	ListenerPosition mathutil.Vec3 `json:"listenerPosition"`
}

type Config struct {
	Music        Music        `json:"music"`
	Dialogues    Dialogues    `json:"dialogues"`
	SpatialAudio SpatialAudio `json:"spatialAudio"`
}

// Default returns audio with music and dialogue switched off.
func Default() Config {
	v := DefaultVoice()
	return Config{
		Music: Music{
			Tracks:       []MusicTrack{},
			MasterVolume: 0.5,
		},
		Dialogues: Dialogues{
			Lines:         []DialogueLine{},
			VoiceSettings: &v,
		},
	}
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	out := c
	if c.Music.Tracks != nil {
		out.Music.Tracks = append(make([]MusicTrack, 0, len(c.Music.Tracks)), c.Music.Tracks...)
	}
	if c.Dialogues.Lines != nil {
		out.Dialogues.Lines = make([]DialogueLine, len(c.Dialogues.Lines))
	}
	for i, l := range c.Dialogues.Lines {
		if l.Duration != nil {
			l.Duration = seconds(*l.Duration)
		}
		if l.Delay != nil {
			l.Delay = seconds(*l.Delay)
		}
		out.Dialogues.Lines[i] = l
	}
	if c.Dialogues.VoiceSettings != nil {
		v := *c.Dialogues.VoiceSettings
		out.Dialogues.VoiceSettings = &v
	}
	return out
}

// NewTrack creates a looping track with a random id.
func NewTrack(name, url string) MusicTrack {
	return MusicTrack{ID: uuid.NewString(), Name: name, URL: url, Volume: 0.5, Loop: true}
}

// NewDialogueLine creates a line with a random id and default timing.
func NewDialogueLine(text, speaker string) DialogueLine {
	return DialogueLine{ID: uuid.NewString(), Text: text, Speaker: speaker}
}

// Validate checks ranges, non-empty dialogue text and id uniqueness.
func (c Config) Validate() error {
	m := c.Music
	if m.MasterVolume < 0 || m.MasterVolume > 1 {
		return fmt.Errorf("music.masterVolume %g out of [0,1]", m.MasterVolume)
	}
	if len(m.Tracks) > 0 && (m.CurrentTrackIndex < 0 || m.CurrentTrackIndex >= len(m.Tracks)) {
		return fmt.Errorf("music.currentTrackIndex %d out of range for %d tracks", m.CurrentTrackIndex, len(m.Tracks))
	}
	ids := make(map[string]bool)
	for i, t := range m.Tracks {
		if t.Volume < 0 || t.Volume > 1 {
			return fmt.Errorf("music.tracks[%d].volume %g out of [0,1]", i, t.Volume)
		}
		if ids[t.ID] {
			return fmt.Errorf("music.tracks[%d]: duplicate id %q", i, t.ID)
		}
		ids[t.ID] = true
	}

	d := c.Dialogues
	ids = make(map[string]bool)
	for i, l := range d.Lines {
		if strings.TrimSpace(l.Text) == "" {
			return fmt.Errorf("dialogues.lines[%d]: empty text", i)
		}
		if ids[l.ID] {
			return fmt.Errorf("dialogues.lines[%d]: duplicate id %q", i, l.ID)
		}
		ids[l.ID] = true
		if l.Duration != nil && *l.Duration < 0 {
			return fmt.Errorf("dialogues.lines[%d]: negative duration", i)
		}
		if l.Delay != nil && *l.Delay < 0 {
			return fmt.Errorf("dialogues.lines[%d]: negative delay", i)
		}
	}
	if v := d.VoiceSettings; v != nil {
		if v.Pitch < 0.5 || v.Pitch > 2 {
			return fmt.Errorf("dialogues.voiceSettings.pitch %g out of [0.5,2]", v.Pitch)
		}
		if v.Rate < 0.1 || v.Rate > 10 {
			return fmt.Errorf("dialogues.voiceSettings.rate %g out of [0.1,10]", v.Rate)
		}
		if v.Volume < 0 || v.Volume > 1 {
			return fmt.Errorf("dialogues.voiceSettings.volume %g out of [0,1]", v.Volume)
		}
	}
	return nil
}

func seconds(s float64) *float64 {
	return &s
}
