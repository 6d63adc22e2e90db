package vision

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

type Mood struct {
	Mood           string `json:"mood"` // calm, dramatic or energetic
	SuggestedMusic string `json:"suggestedMusic"`
}

func fallbackMood() Mood {
	return Mood{Mood: "calm", SuggestedMusic: "ambient"}
}

// ParseMood maps a free-form one-word answer onto a Mood. Anything that is
// neither calm nor dramatic counts as energetic.
func ParseMood(text string) Mood {
	t := strings.ToLower(strings.TrimSpace(text))
	switch {
	case strings.Contains(t, "calm"):
		return Mood{Mood: "calm", SuggestedMusic: "ambient"}
	case strings.Contains(t, "dramatic"):
		return Mood{Mood: "dramatic", SuggestedMusic: "orchestral"}
	default:
		return Mood{Mood: "energetic", SuggestedMusic: "upbeat"}
	}
}

// MusicPreset names the audio music preset matching the mood.
func (m Mood) MusicPreset() string {
	switch m.Mood {
	case "dramatic":
		return "cinematic"
	case "energetic":
		return "electronic"
	default:
		return "relaxing"
	}
}

// AnalyzeMood asks a text model for a soundtrack mood.
func (c *Client) AnalyzeMood(ctx context.Context, model string) Mood {
	if model == "" {
		model = DefaultTextModel
	}
	text, err := c.generate(ctx, generateRequest{Model: model, Prompt: moodPrompt})
	if err != nil {
		c.logger.Warn("mood analysis failed", zap.String("model", model), zap.Error(err))
		return fallbackMood()
	}
	return ParseMood(text)
}
