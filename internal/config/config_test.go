package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("Default config is invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anicontrol.yaml")
	data := []byte(`
speed: 2
tick_interval: 10ms
display:
  surface: png
  width: 320
  height: 240
  background: "#1e1e1e"
analysis:
  variant: gemini
  frames: 0
log_level: debug
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Speed != 2 {
		t.Errorf("Expected speed 2, got %v", cfg.Speed)
	}
	if cfg.TickInterval != 10*time.Millisecond {
		t.Errorf("Expected 10ms tick, got %v", cfg.TickInterval)
	}
	if cfg.Display.Width != 320 || cfg.Display.Background != "#1e1e1e" {
		t.Errorf("Unexpected display config: %+v", cfg.Display)
	}
	// Unset keys keep their defaults.
	if cfg.Display.Dir != "output/display" {
		t.Errorf("Expected default display dir, got %q", cfg.Display.Dir)
	}
	if cfg.Analysis.Frames != 4 {
		t.Errorf("Expected frames to fall back to 4, got %d", cfg.Analysis.Frames)
	}
	if cfg.Analysis.Variant != "gemini" {
		t.Errorf("Expected gemini variant, got %q", cfg.Analysis.Variant)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"speed too low", func(c *Config) { c.Speed = 0.05 }, true},
		{"speed too high", func(c *Config) { c.Speed = 4.5 }, true},
		{"zero tick", func(c *Config) { c.TickInterval = 0 }, true},
		{"unknown surface", func(c *Config) { c.Display.Surface = "hdmi" }, true},
		{"mqtt without broker", func(c *Config) { c.Display.Surface = "mqtt" }, true},
		{"mqtt with broker", func(c *Config) {
			c.Display.Surface = "mqtt"
			c.MQTT.Broker = "tcp://localhost:1883"
		}, false},
		{"bad qos", func(c *Config) {
			c.Display.Surface = "mqtt"
			c.MQTT.Broker = "tcp://localhost:1883"
			c.MQTT.QoS = 3
		}, true},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}
