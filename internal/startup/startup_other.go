//go:build !windows

package startup

// No autostart mechanism outside Windows; both operations are no-ops so
// the package still builds for cross-platform tooling.
func registerPlatform(exePath string) error { return nil }

func unregisterPlatform() error { return nil }
