// Package flush implements the atomic flush-to-container operation:
// building the output clip path and muxing a ring snapshot into a
// single self-contained MP4 file.
package flush

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// envVars are the environment variables recognized inside clip_output_dir
// templates, matching the reference daemon's expansion list exactly.
var envVars = []string{"USERPROFILE", "APPDATA", "LOCALAPPDATA", "TEMP", "TMP"}

// ExpandEnv replaces %VAR% placeholders for the recognized Windows
// environment variables with their current values. Unrecognized
// placeholders are left untouched.
func ExpandEnv(s string) string {
	for _, name := range envVars {
		val := os.Getenv(name)
		s = strings.ReplaceAll(s, "%"+name+"%", val)
	}
	return s
}

// sanitizeChars are the Windows-reserved filename characters; each is
// replaced with an underscore.
const sanitizeChars = `<>:"/\|?*`

// SanitizeDirname replaces characters illegal in a Windows path component
// with underscores, so a free-form display_name can be used as a
// subdirectory name.
func SanitizeDirname(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if strings.ContainsRune(sanitizeChars, r) {
			b.WriteByte('_')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// timestampLayout matches the reference daemon's "%Y-%m-%d_%H-%M-%S".
const timestampLayout = "2006-01-02_15-04-05"

// LocalTimestamp formats t using the clip filename's timestamp layout.
func LocalTimestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// BuildOutputPath returns <clipDir>/<sanitized display name>/<timestamp>.mp4
// and ensures the directory exists.
func BuildOutputPath(clipDir, displayName string, at time.Time) (string, error) {
	dir := filepath.Join(ExpandEnv(clipDir), SanitizeDirname(displayName))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("flush: creating clip directory %q: %w", dir, err)
	}
	return filepath.Join(dir, LocalTimestamp(at)+".mp4"), nil
}
