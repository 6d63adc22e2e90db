package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDepth      = 30
	DefaultResolution = 50
	DefaultStateDir   = ".studio3d"
	DefaultVisionURL  = "http://localhost:11434"
)

// Config is the run configuration of the CLI. Depth is in UI units
// (0..100); the mesh generator works with MeshDepth.
type Config struct {
	InputPath  string  `yaml:"input"`
	OutputPath string  `yaml:"output"`
	Depth      float64 `yaml:"depth"`
	Resolution int     `yaml:"resolution"`
	Frame      int     `yaml:"frame"`
	Page       int     `yaml:"page"`
	Workers    int     `yaml:"workers"`

	StateDir string `yaml:"state_dir"`
	Storage  string `yaml:"storage"` // file, sqlite, memory
	Preset   string `yaml:"preset"`

	VisionURL   string `yaml:"vision_url"`
	VisionModel string `yaml:"vision_model"`
	TextModel   string `yaml:"text_model"`
	AutoTune    bool   `yaml:"auto_tune"`
	Background  string `yaml:"background"` // "", corner, edge
	// ExtractAudio records the soundtrack when the input is a video.
	ExtractAudio bool `yaml:"extract_audio"`

	ShowStats    bool   `yaml:"show_stats"`
	Debug        bool   `yaml:"debug"`
	BuildVersion string `yaml:"-"`
}

// Load reads a YAML config file. Fields not set in the file keep their
// zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Flags holds CLI flag values that override config file settings. Zero
// values and false mean "not given". Depth is a pointer because 0 is a
// valid depth.
type Flags struct {
	Input, Output string
	Depth         *float64
	Resolution    int
	Frame, Page   int
	Workers       int
	StateDir      string
	Storage       string
	Preset        string
	VisionURL     string
	VisionModel   string
	AutoTune      bool
	Background    string
	ExtractAudio  bool
	ShowStats     bool
	Debug         bool
}

// Resolve applies flags on top of the file values and fills defaults.
func (c *Config) Resolve(f Flags) {
	setString(&c.InputPath, f.Input)
	setString(&c.OutputPath, f.Output)
	setString(&c.StateDir, f.StateDir)
	setString(&c.Storage, f.Storage)
	setString(&c.Preset, f.Preset)
	setString(&c.VisionURL, f.VisionURL)
	setString(&c.VisionModel, f.VisionModel)
	setString(&c.Background, f.Background)
	if f.Resolution > 0 {
		c.Resolution = f.Resolution
	}
	if f.Frame > 0 {
		c.Frame = f.Frame
	}
	if f.Page > 0 {
		c.Page = f.Page
	}
	if f.Workers > 0 {
		c.Workers = f.Workers
	}
	c.AutoTune = c.AutoTune || f.AutoTune
	c.ExtractAudio = c.ExtractAudio || f.ExtractAudio
	c.ShowStats = c.ShowStats || f.ShowStats
	c.Debug = c.Debug || f.Debug

	switch {
	case f.Depth != nil:
		c.Depth = *f.Depth
	case c.Depth <= 0:
		c.Depth = DefaultDepth
	}
	if c.Resolution <= 0 {
		c.Resolution = DefaultResolution
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.StateDir == "" {
		c.StateDir = DefaultStateDir
	}
	if c.Storage == "" {
		c.Storage = "file"
	}
	if c.VisionURL == "" {
		c.VisionURL = DefaultVisionURL
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Depth < 0 || c.Depth > 100 {
		errs = append(errs, fmt.Errorf("depth %g out of [0,100]", c.Depth))
	}
	if c.Resolution < 2 || c.Resolution > 1000 {
		errs = append(errs, fmt.Errorf("resolution %d out of [2,1000]", c.Resolution))
	}
	if c.Frame < 0 || c.Page < 0 {
		errs = append(errs, errors.New("frame and page must not be negative"))
	}
	switch c.Background {
	case "", "corner", "edge":
	default:
		errs = append(errs, fmt.Errorf("unknown background strategy %q", c.Background))
	}
	return errors.Join(errs...)
}

// MeshDepth is the displacement scale handed to the mesh generator.
func (c Config) MeshDepth() float64 {
	return c.Depth / 100
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
