package status

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsIdleWithVersion(t *testing.T) {
	s := New()
	assert.Equal(t, StateIdle, s.State)
	assert.Equal(t, Version, s.Version)
}

func TestWriteCreatesParentDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "status.toml")
	Write(zerolog.Nop(), path, New())
	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestWriteOmitsEmptyOptionalFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "status.toml")
	Write(zerolog.Nop(), path, New())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(raw)
	assert.NotContains(t, body, "active_application")
	assert.NotContains(t, body, "last_clip_path")
	assert.NotContains(t, body, "last_clip_timestamp")
	assert.NotContains(t, body, "error")
}

func TestWriteIncludesSetOptionalFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "status.toml")
	s := Status{
		Version:           "1.2.3",
		State:             StateRecording,
		ActiveApplication: "game.exe",
	}
	Write(zerolog.Nop(), path, s)

	var got Status
	_, err := toml.DecodeFile(path, &got)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestWriteRoundTripsFlushingStateWithClipInfo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "status.toml")
	s := Status{
		Version:           Version,
		State:             StateFlushing,
		ActiveApplication: "game.exe",
		LastClipPath:      `C:\Users\Test\Videos\Peaking\game.exe\2026-07-31_12-00-00.mp4`,
		LastClipTimestamp: "2026-07-31T12:00:00+02:00",
	}
	Write(zerolog.Nop(), path, s)

	var got Status
	_, err := toml.DecodeFile(path, &got)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestWriteDoesNotPanicOnUnwritablePath(t *testing.T) {
	// A file used as a directory component is not writable; Write must log
	// and return rather than panic.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	assert.NotPanics(t, func() {
		Write(zerolog.Nop(), filepath.Join(blocker, "nested", "status.toml"), New())
	})
}

func TestStateConstantsSerializeLowercase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "status.toml")
	Write(zerolog.Nop(), path, Status{Version: "dev", State: StateRecording})

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `state = "recording"`)
}
