// Package capture defines the raw-frame/raw-audio source contracts the
// daemon consumes (display capture and system-audio loopback are external
// collaborators — only their interfaces are specified here) and
// implements the one capture-adjacent piece that is in scope: the
// process-presence monitor.
package capture

import "context"

// VideoSource pushes tightly packed BGRA frames of a fixed resolution into
// frames until ctx is cancelled, then closes frames and returns. A full
// channel is a drop signal: implementations must not block the capture
// device waiting for room.
type VideoSource interface {
	Run(ctx context.Context, frames chan<- []byte) error
}

// AudioSource pushes interleaved f32 PCM at the device's native sample
// rate into samples until ctx is cancelled, then closes samples and
// returns. A full channel is a block signal (audio must not be dropped).
type AudioSource interface {
	Run(ctx context.Context, samples chan<- []float32) error
}
