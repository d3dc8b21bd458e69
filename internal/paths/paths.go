// Package paths resolves the canonical on-disk locations for Peaking's
// config and status files, mirroring the %APPDATA%\Peaking\ layout the GUI
// and daemon agree on.
package paths

import (
	"os"
	"path/filepath"
)

const (
	appDirName     = "Peaking"
	ConfigFileName = "config.toml"
	StatusFileName = "status.toml"
)

// AppDataDir returns %APPDATA%\Peaking. It panics if APPDATA is unset, the
// same as the original daemon's expect() on startup — the caller (main) is
// expected to treat a missing app data directory as fatal at startup.
func AppDataDir() string {
	appdata := os.Getenv("APPDATA")
	if appdata == "" {
		panic("APPDATA environment variable not set")
	}
	return filepath.Join(appdata, appDirName)
}

// ConfigFilePath returns %APPDATA%\Peaking\config.toml.
func ConfigFilePath() string {
	return filepath.Join(AppDataDir(), ConfigFileName)
}

// StatusFilePath returns %APPDATA%\Peaking\status.toml.
func StatusFilePath() string {
	return filepath.Join(AppDataDir(), StatusFileName)
}
