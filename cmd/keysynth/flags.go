package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/lixenwraith/keysynth/audio"
	"github.com/lixenwraith/keysynth/config"
)

// options holds raw command-line values; only flags the user set override the config
type options struct {
	configPath string
	backend    string
	sampleRate int
	volume     int // 0-100
	muted      bool
	hold       time.Duration
	noMouse    bool
	debug      bool

	set map[string]bool
}

func parseFlags(args []string) (*options, error) {
	o := &options{set: make(map[string]bool)}
	fs := flag.NewFlagSet("keysynth", flag.ContinueOnError)

	fs.StringVar(&o.configPath, "config", "keysynth.toml", "Config file path")
	fs.StringVar(&o.backend, "backend", audio.BackendAuto, "Audio backend: "+strings.Join(audio.BackendNames, ", "))
	fs.IntVar(&o.sampleRate, "rate", 0, "Sample rate in Hz")
	fs.IntVar(&o.volume, "volume", 100, "Master volume 0-100")
	fs.BoolVar(&o.muted, "muted", false, "Start muted")
	fs.DurationVar(&o.hold, "hold", 0, "Key release delay when no key repeat arrives")
	fs.BoolVar(&o.noMouse, "no-mouse", false, "Disable mouse input")
	fs.BoolVar(&o.debug, "debug", false, "Write logs to logs/keysynth.log")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// resolveConfig layers defaults, file, environment and flags, then validates
func resolveConfig(o *options) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	if o.set["backend"] {
		cfg.Audio.Backend = strings.ToLower(o.backend)
	}
	if o.set["rate"] {
		cfg.Audio.SampleRate = o.sampleRate
	}
	if o.set["volume"] {
		cfg.Audio.MasterVolume = min(max(float64(o.volume)/100.0, 0), 1)
	}
	if o.set["muted"] {
		cfg.Audio.Muted = o.muted
	}
	if o.set["hold"] {
		cfg.Input.HoldTimeout.Duration = o.hold
	}
	if o.set["no-mouse"] {
		cfg.Input.Mouse = !o.noMouse
	}
	if o.set["debug"] {
		cfg.Debug = o.debug
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
