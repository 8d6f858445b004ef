package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lixenwraith/keysynth/audio"
	"github.com/lixenwraith/keysynth/parameter"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keysynth.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected defaults to validate, got %v", err)
	}
	if cfg.Audio.SampleRate != parameter.AudioSampleRate {
		t.Errorf("Expected sample rate %d, got %d", parameter.AudioSampleRate, cfg.Audio.SampleRate)
	}
	if cfg.Input.HoldTimeout.Duration != parameter.HoldTimeout {
		t.Errorf("Expected hold timeout %v, got %v", parameter.HoldTimeout, cfg.Input.HoldTimeout.Duration)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
debug = true

[audio]
backend = "null"
sample_rate = 48000
buffer = "20ms"
master_volume = 0.5

[input]
hold_timeout = "400ms"
mouse = false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Audio.Backend != audio.BackendNull {
		t.Errorf("Expected backend null, got %q", cfg.Audio.Backend)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("Expected 48000, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Buffer.Duration != 20*time.Millisecond {
		t.Errorf("Expected 20ms buffer, got %v", cfg.Audio.Buffer.Duration)
	}
	if cfg.Audio.MasterVolume != 0.5 {
		t.Errorf("Expected volume 0.5, got %v", cfg.Audio.MasterVolume)
	}
	if cfg.Input.HoldTimeout.Duration != 400*time.Millisecond {
		t.Errorf("Expected 400ms hold, got %v", cfg.Input.HoldTimeout.Duration)
	}
	if cfg.Input.Mouse {
		t.Error("Expected mouse disabled")
	}
	if !cfg.Debug {
		t.Error("Expected debug enabled")
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := writeFile(t, "[audio]\nmuted = true\nunknown = 1\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Audio.Muted {
		t.Error("Expected muted")
	}
	if cfg.Audio.Backend != audio.BackendAuto {
		t.Errorf("Expected default backend, got %q", cfg.Audio.Backend)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Expected missing file to yield defaults, got %v", err)
	}
	if cfg.Audio.Backend != audio.BackendAuto {
		t.Errorf("Expected defaults, got backend %q", cfg.Audio.Backend)
	}

	cfg, err = Load("")
	if err != nil || cfg == nil {
		t.Fatalf("Expected empty path to yield defaults, got %v", err)
	}
}

func TestLoadMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", "[audio\nbackend = "},
		{"duration", "[input]\nhold_timeout = \"soon\"\n"},
		{"type", "[audio]\nsample_rate = \"fast\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvBackend, "PIPE")
	t.Setenv(EnvSampleRate, "22050")
	t.Setenv(EnvMasterVolume, "150")
	t.Setenv(EnvMuted, "true")
	t.Setenv(EnvHoldTimeout, "250ms")
	t.Setenv(EnvDebug, "1")

	cfg := Default()
	cfg.ApplyEnv()

	if cfg.Audio.Backend != audio.BackendPipe {
		t.Errorf("Expected backend pipe, got %q", cfg.Audio.Backend)
	}
	if cfg.Audio.SampleRate != 22050 {
		t.Errorf("Expected 22050, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.MasterVolume != 1 {
		t.Errorf("Expected volume clamped to 1, got %v", cfg.Audio.MasterVolume)
	}
	if !cfg.Audio.Muted {
		t.Error("Expected muted")
	}
	if cfg.Input.HoldTimeout.Duration != 250*time.Millisecond {
		t.Errorf("Expected 250ms, got %v", cfg.Input.HoldTimeout.Duration)
	}
	if !cfg.Debug {
		t.Error("Expected debug")
	}
}

func TestApplyEnvIgnoresGarbage(t *testing.T) {
	t.Setenv(EnvSampleRate, "lots")
	t.Setenv(EnvMasterVolume, "loud")
	t.Setenv(EnvHoldTimeout, "forever")

	cfg := Default()
	cfg.ApplyEnv()

	if cfg.Audio.SampleRate != parameter.AudioSampleRate {
		t.Errorf("Expected default sample rate kept, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.MasterVolume != parameter.AudioMasterVolume {
		t.Errorf("Expected default volume kept, got %v", cfg.Audio.MasterVolume)
	}
	if cfg.Input.HoldTimeout.Duration != parameter.HoldTimeout {
		t.Errorf("Expected default hold kept, got %v", cfg.Input.HoldTimeout.Duration)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"backend", func(c *Config) { c.Audio.Backend = "alsa" }},
		{"rate low", func(c *Config) { c.Audio.SampleRate = 100 }},
		{"rate high", func(c *Config) { c.Audio.SampleRate = 1 << 20 }},
		{"buffer", func(c *Config) { c.Audio.Buffer.Duration = 0 }},
		{"volume", func(c *Config) { c.Audio.MasterVolume = -0.1 }},
		{"hold", func(c *Config) { c.Input.HoldTimeout.Duration = time.Millisecond }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestAudioConfig(t *testing.T) {
	cfg := Default()
	cfg.Audio.Backend = audio.BackendOto
	cfg.Audio.MasterVolume = 0.3

	ac := cfg.AudioConfig()
	if ac.Backend != audio.BackendOto || ac.MasterVolume != 0.3 {
		t.Errorf("Unexpected audio config %+v", ac)
	}
	if ac.SampleRate != cfg.Audio.SampleRate || ac.BufferDuration != cfg.Audio.Buffer.Duration {
		t.Errorf("Unexpected audio config %+v", ac)
	}
}
