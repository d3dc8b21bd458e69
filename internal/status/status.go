// Package status writes the daemon's TOML status file, the one-way channel
// by which the (out-of-scope) GUI observes daemon state.
package status

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

// State is the daemon's current operational state.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StateFlushing  State = "flushing"
)

// Version is the daemon build version written to the status file. It is
// "dev" unless overridden at link time (e.g. with -ldflags -X).
var Version = "dev"

// Status is the full contents of status.toml. Optional fields are omitted
// from the serialized TOML when empty, matching the Rust original's
// `skip_serializing_if = "Option::is_none"` annotations.
type Status struct {
	Version           string `toml:"version"`
	State             State  `toml:"state"`
	ActiveApplication string `toml:"active_application,omitempty"`
	LastClipPath      string `toml:"last_clip_path,omitempty"`
	LastClipTimestamp string `toml:"last_clip_timestamp,omitempty"`
	Error             string `toml:"error,omitempty"`
}

// New returns the initial idle status written at daemon startup.
func New() Status {
	return Status{Version: Version, State: StateIdle}
}

// Write serializes status to TOML and writes it to path, creating the
// parent directory if necessary. A status write failure is logged and
// swallowed — it must never crash the daemon.
func Write(log zerolog.Logger, path string, s Status) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error().Err(err).Str("dir", dir).Msg("status: failed to create directory")
			return
		}
	}

	// atomic write: write to tmp then rename
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		log.Error().Err(err).Str("path", tmp).Msg("status: failed to open status file")
		return
	}
	if err := toml.NewEncoder(f).Encode(s); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		log.Error().Err(err).Msg("status: failed to serialize status")
		return
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		log.Error().Err(err).Str("path", tmp).Msg("status: failed to close status file")
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		log.Error().Err(err).Str("path", path).Msg("status: failed to replace status file")
	}
}
