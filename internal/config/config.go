// Package config loads and hot-reloads the daemon's TOML configuration,
// and computes the effective buffer length / hotkey for a given application
// by layering its per-app overrides over the global defaults.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/ring"
)

const (
	DefaultBufferLengthSecs = 15
	DefaultHotkey           = "F8"
	DefaultClipOutputDir    = `%USERPROFILE%\Videos\Peaking`
)

// GlobalConfig holds the defaults every ApplicationConfig layers its
// overrides on top of.
type GlobalConfig struct {
	BufferLengthSecs int    `toml:"buffer_length_secs"`
	Hotkey           string `toml:"hotkey"`
	ClipOutputDir    string `toml:"clip_output_dir"`
}

// ApplicationConfig names one game/app to watch for, plus optional
// per-app overrides of the global buffer length and hotkey.
type ApplicationConfig struct {
	DisplayName      string  `toml:"display_name"`
	ExecutableName   string  `toml:"executable_name"`
	BufferLengthSecs *int    `toml:"buffer_length_secs,omitempty"`
	Hotkey           *string `toml:"hotkey,omitempty"`
}

// EffectiveBufferLength returns the app's buffer length override if set,
// else the global default, clamped to [ring.MinCapacitySecs,
// ring.MaxCapacitySecs] either way.
func (a ApplicationConfig) EffectiveBufferLength(global GlobalConfig) int {
	secs := global.BufferLengthSecs
	if a.BufferLengthSecs != nil {
		secs = *a.BufferLengthSecs
	}
	switch {
	case secs < ring.MinCapacitySecs:
		return ring.MinCapacitySecs
	case secs > ring.MaxCapacitySecs:
		return ring.MaxCapacitySecs
	default:
		return secs
	}
}

// EffectiveHotkey returns the app's hotkey override if set, else the
// global default.
func (a ApplicationConfig) EffectiveHotkey(global GlobalConfig) string {
	if a.Hotkey != nil {
		return *a.Hotkey
	}
	return global.Hotkey
}

// Config is the full parsed contents of config.toml.
type Config struct {
	Global       GlobalConfig        `toml:"global"`
	Applications []ApplicationConfig `toml:"applications"`
}

// Default returns the configuration used when no config file exists yet.
func Default() Config {
	return Config{
		Global: GlobalConfig{
			BufferLengthSecs: DefaultBufferLengthSecs,
			Hotkey:           DefaultHotkey,
			ClipOutputDir:    DefaultClipOutputDir,
		},
	}
}

// LoadOrDefault reads and parses path. A missing file yields Default() with
// a nil error, matching the original daemon's forgiving startup behavior.
// Any other read or parse error is returned to the caller, who is expected
// to keep running on the previously-active config (a parse error
// must not crash the daemon).
func LoadOrDefault(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if _, err := toml.Decode(string(raw), &cfg); err != nil {
		return Config{}, err
	}

	// Fields absent from [global] fall back to their documented defaults
	// individually, so a minimal file that only lists applications still
	// records with a sane buffer, hotkey, and output directory.
	if cfg.Global.BufferLengthSecs == 0 {
		cfg.Global.BufferLengthSecs = DefaultBufferLengthSecs
	}
	if cfg.Global.Hotkey == "" {
		cfg.Global.Hotkey = DefaultHotkey
	}
	if cfg.Global.ClipOutputDir == "" {
		cfg.Global.ClipOutputDir = DefaultClipOutputDir
	}
	return cfg, nil
}

// FindApplication returns the first ApplicationConfig whose ExecutableName
// matches name case-insensitively, and whether one was found. Ties between
// multiple configured apps are broken by config list order.
func (c Config) FindApplication(name string) (ApplicationConfig, bool) {
	for _, app := range c.Applications {
		if strings.EqualFold(app.ExecutableName, name) {
			return app, true
		}
	}
	return ApplicationConfig{}, false
}
