// Package config resolves runtime settings from defaults, a TOML file, environment and flags
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lixenwraith/keysynth/audio"
	"github.com/lixenwraith/keysynth/parameter"
)

// ErrInvalidConfig is returned by Validate and Load
var ErrInvalidConfig = errors.New("invalid config")

// Environment variables, applied after the file and before flags
const (
	EnvBackend      = "KEYSYNTH_BACKEND"
	EnvSampleRate   = "KEYSYNTH_SAMPLE_RATE"
	EnvMasterVolume = "KEYSYNTH_MASTER_VOLUME" // 0-100
	EnvMuted        = "KEYSYNTH_MUTED"
	EnvHoldTimeout  = "KEYSYNTH_HOLD_TIMEOUT"
	EnvDebug        = "KEYSYNTH_DEBUG"
)

// Duration decodes TOML strings like "600ms"
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// AudioSection configures the output backend
type AudioSection struct {
	Backend      string   `toml:"backend"`
	SampleRate   int      `toml:"sample_rate"`
	Buffer       Duration `toml:"buffer"`
	MasterVolume float64  `toml:"master_volume"` // 0.0 to 1.0
	Muted        bool     `toml:"muted"`
}

// InputSection configures the terminal front-end
type InputSection struct {
	HoldTimeout Duration `toml:"hold_timeout"`
	Mouse       bool     `toml:"mouse"`
}

// Config is the complete runtime configuration
type Config struct {
	Audio AudioSection `toml:"audio"`
	Input InputSection `toml:"input"`
	Debug bool         `toml:"debug"`
}

// Default returns sensible defaults
func Default() *Config {
	return &Config{
		Audio: AudioSection{
			Backend:      audio.BackendAuto,
			SampleRate:   parameter.AudioSampleRate,
			Buffer:       Duration{parameter.AudioBufferDuration},
			MasterVolume: parameter.AudioMasterVolume,
		},
		Input: InputSection{
			HoldTimeout: Duration{parameter.HoldTimeout},
			Mouse:       true,
		},
	}
}

// Load reads path over the defaults
// A missing file is not an error; unknown keys are logged and ignored
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	for _, key := range md.Undecoded() {
		log.Printf("config: %s: unknown key %q", path, key.String())
	}
	return cfg, nil
}

// ApplyEnv overrides fields from KEYSYNTH_* variables
// Unparseable values are logged and ignored
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvBackend); v != "" {
		c.Audio.Backend = strings.ToLower(v)
	}

	if v := os.Getenv(EnvSampleRate); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			c.Audio.SampleRate = val
		} else {
			log.Printf("config: ignoring %s=%q", EnvSampleRate, v)
		}
	}

	// Master volume (0-100 converted to 0.0-1.0)
	if v := os.Getenv(EnvMasterVolume); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			c.Audio.MasterVolume = min(max(float64(val)/100.0, 0), 1)
		} else {
			log.Printf("config: ignoring %s=%q", EnvMasterVolume, v)
		}
	}

	if v := os.Getenv(EnvMuted); v != "" {
		if val, err := strconv.ParseBool(v); err == nil {
			c.Audio.Muted = val
		} else {
			log.Printf("config: ignoring %s=%q", EnvMuted, v)
		}
	}

	if v := os.Getenv(EnvHoldTimeout); v != "" {
		if val, err := time.ParseDuration(v); err == nil {
			c.Input.HoldTimeout.Duration = val
		} else {
			log.Printf("config: ignoring %s=%q", EnvHoldTimeout, v)
		}
	}

	if v := os.Getenv(EnvDebug); v != "" {
		if val, err := strconv.ParseBool(v); err == nil {
			c.Debug = val
		}
	}
}

// Validate rejects values the audio and input layers cannot honor
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(audio.BackendNames, c.Audio.Backend) {
		errs = append(errs, fmt.Errorf("audio.backend %q not one of %s", c.Audio.Backend, strings.Join(audio.BackendNames, ", ")))
	}
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d outside 8000-192000", c.Audio.SampleRate))
	}
	if c.Audio.Buffer.Duration < time.Millisecond || c.Audio.Buffer.Duration > time.Second {
		errs = append(errs, fmt.Errorf("audio.buffer %v outside 1ms-1s", c.Audio.Buffer.Duration))
	}
	if c.Audio.MasterVolume < 0 || c.Audio.MasterVolume > 1 {
		errs = append(errs, fmt.Errorf("audio.master_volume %v outside 0-1", c.Audio.MasterVolume))
	}
	if c.Input.HoldTimeout.Duration < 50*time.Millisecond {
		errs = append(errs, fmt.Errorf("input.hold_timeout %v below 50ms", c.Input.HoldTimeout.Duration))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// AudioConfig converts the audio section for audio.Open
func (c *Config) AudioConfig() *audio.AudioConfig {
	return &audio.AudioConfig{
		Backend:        c.Audio.Backend,
		SampleRate:     c.Audio.SampleRate,
		BufferDuration: c.Audio.Buffer.Duration,
		MasterVolume:   c.Audio.MasterVolume,
	}
}
