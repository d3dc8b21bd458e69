// Package startup registers and unregisters the daemon under the current
// user's login-autostart mechanism. Both operations are idempotent.
package startup

const valueName = "Peaking"

// Register adds (or overwrites) the autostart entry pointing at exePath.
func Register(exePath string) error {
	return registerPlatform(exePath)
}

// Unregister removes the autostart entry if present. Not an error if it
// was already absent.
func Unregister() error {
	return unregisterPlatform()
}
