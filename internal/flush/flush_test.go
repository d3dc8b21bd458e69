package flush

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/ring"
)

// Flushing an empty ring is rejected before any file is
// touched.
func TestToDiskRejectsEmptySnapshot(t *testing.T) {
	dir := t.TempDir()
	req := Request{
		Snapshot:    ring.Snapshot{},
		ClipDir:     dir,
		DisplayName: "Some Game",
		At:          time.Now(),
	}
	_, err := ToDisk(zerolog.Nop(), req)
	assert.ErrorContains(t, err, "empty")
}
