// Package studio combines the scene and audio models into the single
// document users edit, share and persist.
package studio

import (
	"encoding/json"
	"fmt"

	"github.com/ivlev/studio3d/internal/audio"
	"github.com/ivlev/studio3d/internal/scene"
)

type UnifiedConfig struct {
	Scene scene.Config `json:"scene"`
	Audio audio.Config `json:"audio"`
}

func Default() UnifiedConfig {
	return UnifiedConfig{Scene: scene.Default(), Audio: audio.Default()}
}

func (c UnifiedConfig) Clone() UnifiedConfig {
	return UnifiedConfig{Scene: c.Scene.Clone(), Audio: c.Audio.Clone()}
}

func (c UnifiedConfig) Validate() error {
	if err := c.Scene.Validate(); err != nil {
		return fmt.Errorf("scene: %w", err)
	}
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	return nil
}

// ConfigParseError reports malformed or invalid configuration text. Scope
// is "unified", "scene" or "audio".
type ConfigParseError struct {
	Scope string
	Err   error
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("parse %s config: %v", e.Scope, e.Err)
}

func (e *ConfigParseError) Unwrap() error { return e.Err }

// Parse decodes a complete unified document. Missing sections are an error:
// the document replaces the whole configuration.
func Parse(data []byte) (UnifiedConfig, error) {
	var raw struct {
		Scene *scene.Config `json:"scene"`
		Audio *audio.Config `json:"audio"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return UnifiedConfig{}, &ConfigParseError{Scope: "unified", Err: err}
	}
	if raw.Scene == nil || raw.Audio == nil {
		return UnifiedConfig{}, &ConfigParseError{Scope: "unified", Err: fmt.Errorf("both scene and audio are required")}
	}
	c := UnifiedConfig{Scene: *raw.Scene, Audio: *raw.Audio}
	if err := c.Validate(); err != nil {
		return UnifiedConfig{}, &ConfigParseError{Scope: "unified", Err: err}
	}
	return c, nil
}

func ParseScene(data []byte) (scene.Config, error) {
	var c scene.Config
	if err := json.Unmarshal(data, &c); err != nil {
		return scene.Config{}, &ConfigParseError{Scope: "scene", Err: err}
	}
	if err := c.Validate(); err != nil {
		return scene.Config{}, &ConfigParseError{Scope: "scene", Err: err}
	}
	return c, nil
}

func ParseAudio(data []byte) (audio.Config, error) {
	var c audio.Config
	if err := json.Unmarshal(data, &c); err != nil {
		return audio.Config{}, &ConfigParseError{Scope: "audio", Err: err}
	}
	if err := c.Validate(); err != nil {
		return audio.Config{}, &ConfigParseError{Scope: "audio", Err: err}
	}
	return c, nil
}

// Marshal renders the document as indented JSON, the format users edit.
func Marshal(c UnifiedConfig) ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
