//go:build !windows

package encoder

import "fmt"

// newPlatformEncoder has no implementation outside Windows: the daemon is
// Windows-only (display/audio capture, hotkey hook, and autostart all rely
// on Win32 APIs), so non-Windows builds exist only to keep `go vet`/editors
// happy and always fail fast here.
func newPlatformEncoder(cfg Config) (Encoder, error) {
	return nil, fmt.Errorf("encoder: %w: platform-native H.264/AAC codecs require Windows", ErrEncoderUnavailable)
}
