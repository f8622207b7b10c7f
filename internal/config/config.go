package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ScenePaths   []string `yaml:"scenes"`
	OutputVideo  string   `yaml:"output"`
	OutputDir    string   `yaml:"output_dir"`
	FPS          int      `yaml:"fps"`
	Width        int      `yaml:"width"`  // 0 = take from the scene script
	Height       int      `yaml:"height"` // 0 = take from the scene script
	Workers      int      `yaml:"workers"`
	FadeIn       float64  `yaml:"fade_in"` // Seconds
	FadeOut      float64  `yaml:"fade_out"` // Seconds
	VideoEncoder string   `yaml:"encoder"` // "auto" probes for a hardware encoder
	Quality      int      `yaml:"quality"` // 0 = per-encoder default
	AssetDPI     int      `yaml:"asset_dpi"`
	PreviewScale float64  `yaml:"preview_scale"`
	Debug        bool     `yaml:"debug"`
	ShowStats    bool     `yaml:"stats"`
	LibraryPath  string   `yaml:"library"`
	BuildVersion string   `yaml:"-"`
	Mqtt         Mqtt     `yaml:"mqtt"`
}

// Mqtt configures the live pose stream
type Mqtt struct {
	URL      string `yaml:"url"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
}

// Enabled reports whether a broker is configured
func (m Mqtt) Enabled() bool {
	return m.URL != ""
}

// ExportParams describes one export run
type ExportParams struct {
	Width, Height int
	FPS           int
	TotalFrames   int
	FadeIn        float64
	FadeOut       float64
	Filter        string
	Debug         bool
	Index         int
}

// Duration returns the length of the export in seconds
func (p ExportParams) Duration() float64 {
	if p.FPS <= 0 {
		return 0
	}
	return float64(p.TotalFrames) / float64(p.FPS)
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		OutputDir:    "output",
		FPS:          60,
		Workers:      0,
		VideoEncoder: "auto",
		Quality:      0,
		AssetDPI:     150,
		PreviewScale: 1.0,
		Mqtt: Mqtt{
			ClientID: "animstage",
			Topic:    "animstage/poses",
		},
	}
}

// Load reads a YAML config file on top of the defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("invalid size %dx%d", c.Width, c.Height)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.FadeIn < 0 || c.FadeOut < 0 {
		return fmt.Errorf("fade durations must not be negative")
	}
	if c.PreviewScale <= 0 {
		return fmt.Errorf("preview scale must be positive, got %f", c.PreviewScale)
	}
	return nil
}
