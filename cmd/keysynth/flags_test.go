package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lixenwraith/keysynth/audio"
	"github.com/lixenwraith/keysynth/config"
)

func TestFlagsOverrideFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keysynth.toml")
	body := "[audio]\nbackend = \"pipe\"\nsample_rate = 22050\n\n[input]\nhold_timeout = \"400ms\"\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvMuted, "true")

	opts, err := parseFlags([]string{"-config", path, "-backend", "NULL", "-volume", "40", "-hold", "300ms", "-no-mouse"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	cfg, err := resolveConfig(opts)
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}

	if cfg.Audio.Backend != audio.BackendNull {
		t.Errorf("Expected flag backend null, got %q", cfg.Audio.Backend)
	}
	if cfg.Audio.SampleRate != 22050 {
		t.Errorf("Expected file sample rate kept, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.MasterVolume != 0.4 {
		t.Errorf("Expected volume 0.4, got %v", cfg.Audio.MasterVolume)
	}
	if !cfg.Audio.Muted {
		t.Error("Expected env mute kept")
	}
	if cfg.Input.HoldTimeout.Duration != 300*time.Millisecond {
		t.Errorf("Expected flag hold 300ms, got %v", cfg.Input.HoldTimeout.Duration)
	}
	if cfg.Input.Mouse {
		t.Error("Expected mouse disabled")
	}
}

func TestUnsetFlagsKeepConfig(t *testing.T) {
	opts, err := parseFlags([]string{"-config", filepath.Join(t.TempDir(), "none.toml")})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	cfg, err := resolveConfig(opts)
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}
	def := config.Default()
	if cfg.Audio != def.Audio || cfg.Input != def.Input {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
}

func TestInvalidFlags(t *testing.T) {
	if _, err := parseFlags([]string{"extra"}); err == nil {
		t.Error("Expected error for positional arguments")
	}

	opts, err := parseFlags([]string{"-config", "", "-backend", "jack"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if _, err := resolveConfig(opts); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}
