//go:build !windows

package flush

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/ring"
)

// ToMP4 has no implementation outside Windows; see the encoder package's
// equivalent stub for why.
func ToMP4(log zerolog.Logger, snap ring.Snapshot, outputPath string) error {
	return fmt.Errorf("flush: MP4 muxing requires Windows")
}
