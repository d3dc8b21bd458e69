package flush

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/ring"
)

// Request is everything ToDisk needs to produce one clip.
type Request struct {
	Snapshot    ring.Snapshot
	ClipDir     string
	DisplayName string
	At          time.Time
}

// ToDisk builds the output path and muxes the snapshot into it, without
// ever draining the ring itself — recording continues uninterrupted while
// this runs; the ring is snapshotted, never drained.
// Returns the written path on success.
func ToDisk(log zerolog.Logger, req Request) (string, error) {
	if len(req.Snapshot.Segments) == 0 {
		return "", fmt.Errorf("flush: ring buffer is empty, nothing to write")
	}

	path, err := BuildOutputPath(req.ClipDir, req.DisplayName, req.At)
	if err != nil {
		return "", err
	}

	if err := ToMP4(log, req.Snapshot, path); err != nil {
		return "", err
	}
	return path, nil
}
