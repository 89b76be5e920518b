package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/anicontrol/internal/anim"
)

// Config is the full anicontrol configuration. Values come from Default,
// then an optional YAML file, then command line flags.
type Config struct {
	InputPath    string         `yaml:"input"`
	InputDir     string         `yaml:"input_dir"` // searched when InputPath is empty
	Workers      int            `yaml:"workers"`   // parallel APNG frame decodes
	Speed        float64        `yaml:"speed"`
	TickInterval time.Duration  `yaml:"tick_interval"`
	Display      DisplayConfig  `yaml:"display"`
	Analysis     AnalysisConfig `yaml:"analysis"`
	Export       ExportConfig   `yaml:"export"`
	MQTT         MQTTConfig     `yaml:"mqtt"`
	ShowStats    bool           `yaml:"show_stats"`
	LogLevel     string         `yaml:"log_level"` // debug, info, warn, error
	BuildVersion string         `yaml:"-"`
}

// DisplayConfig describes the surface frames are rendered into.
type DisplayConfig struct {
	Surface    string `yaml:"surface"` // none, png, mqtt
	Width      int    `yaml:"width"`   // 0 = animation size
	Height     int    `yaml:"height"`
	Background string `yaml:"background"` // hex colour, e.g. #000000
	Scale      bool   `yaml:"scale"`      // fit frames larger than the surface
	Dir        string `yaml:"dir"`        // output of the png surface
}

// AnalysisConfig configures the frame description collaborator.
type AnalysisConfig struct {
	Variant   string        `yaml:"variant"` // motion, gemini
	Model     string        `yaml:"model"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Prompt    string        `yaml:"prompt"`
	Frames    int           `yaml:"frames"`
	Timeout   time.Duration `yaml:"timeout"`
}

// ExportConfig configures PNG frame export.
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// MQTTConfig contains MQTT broker settings for the mqtt surface.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	QoS      byte   `yaml:"qos"`
}

// DefaultPrompt is sent with the sampled frames when none is configured.
const DefaultPrompt = "Summarize what happens in this animation."

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		InputDir:     "input",
		Workers:      4,
		Speed:        1.0,
		TickInterval: 16 * time.Millisecond,
		Display: DisplayConfig{
			Surface:    "none",
			Background: "#000000",
			Dir:        "output/display",
		},
		Analysis: AnalysisConfig{
			Variant:   "motion",
			Model:     "gemini-3-flash-preview",
			APIKeyEnv: "API_KEY",
			Prompt:    DefaultPrompt,
			Frames:    4,
			Timeout:   60 * time.Second,
		},
		Export: ExportConfig{Dir: "output"},
		MQTT: MQTTConfig{
			Topic:    "anicontrol/frame",
			ClientID: "anicontrol",
		},
		LogLevel: "info",
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration and fills in derived defaults.
func Validate(cfg *Config) error {
	if cfg.Speed < anim.MinSpeed || cfg.Speed > anim.MaxSpeed {
		return fmt.Errorf("speed must be within %.1f-%.1f, got %.2f", anim.MinSpeed, anim.MaxSpeed, cfg.Speed)
	}
	if cfg.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be > 0")
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("workers must be >= 0")
	}
	if cfg.Display.Width < 0 || cfg.Display.Height < 0 {
		return fmt.Errorf("display size must be >= 0")
	}

	switch cfg.Display.Surface {
	case "", "none":
		cfg.Display.Surface = "none"
	case "png":
		if cfg.Display.Dir == "" {
			return fmt.Errorf("display.dir is required for the png surface")
		}
	case "mqtt":
		if cfg.MQTT.Broker == "" {
			return fmt.Errorf("mqtt.broker is required for the mqtt surface")
		}
		if cfg.MQTT.Topic == "" {
			cfg.MQTT.Topic = "anicontrol/frame"
		}
		if cfg.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt.qos must be 0, 1 or 2")
		}
	default:
		return fmt.Errorf("unknown display surface: %s", cfg.Display.Surface)
	}

	if cfg.Analysis.Frames <= 0 {
		cfg.Analysis.Frames = 4
	}
	if cfg.Analysis.Prompt == "" {
		cfg.Analysis.Prompt = DefaultPrompt
	}
	if cfg.Analysis.Timeout <= 0 {
		cfg.Analysis.Timeout = 60 * time.Second
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	case "":
		cfg.LogLevel = "info"
	default:
		return fmt.Errorf("unknown log_level: %s", cfg.LogLevel)
	}

	return nil
}
