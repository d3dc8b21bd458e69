// Package encoder implements the segmenting encoder: it accepts
// raw BGRA video frames and interleaved f32 PCM audio, runs them through
// an H.264 encoder (hardware-accelerated where available, software
// otherwise) and an AAC encoder, and emits EncodedSegments
// whose boundaries land on IDR frames.
package encoder

import (
	"errors"

	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/ring"
)

// ErrEncoderUnavailable is returned by New when neither a hardware nor a
// software H.264 encoder, or no AAC encoder, can be opened.
var ErrEncoderUnavailable = errors.New("encoder: no suitable codec available")

// Config describes the fixed encode parameters for one recording session.
// Input video frames must match Width/Height exactly.
type Config struct {
	Width, Height        int
	FPS                  int
	SampleRate, Channels int
	VideoBitrate         int64
	AudioBitrate         int64
}

// DefaultConfig mirrors the reference daemon's defaults: 1080p60, 48kHz
// stereo, 8Mbps video / 192kbps audio.
func DefaultConfig() Config {
	return Config{
		Width:        1920,
		Height:       1080,
		FPS:          60,
		SampleRate:   48000,
		Channels:     2,
		VideoBitrate: 8_000_000,
		AudioBitrate: 192_000,
	}
}

// Encoder feeds raw frames/samples into hardware or software codecs and
// yields complete EncodedSegments at IDR boundaries. Implementations are
// not safe for concurrent use — the pipeline's encoder loop is the sole
// caller.
type Encoder interface {
	// PushVideoFrame encodes one tightly packed BGRA frame of size
	// Width*Height*4. It returns a completed segment whenever the newly
	// drained packets begin with a key packet and a prior segment had
	// already accumulated data.
	PushVideoFrame(frame []byte) (*ring.Segment, error)
	// PushAudio appends interleaved f32 PCM samples and drains whole
	// encoder frames as they become available.
	PushAudio(pcm []float32) error
	// Flush signals EOF to both encoders and returns any residual
	// packets as a final partial segment, or nil if nothing remains.
	Flush() (*ring.Segment, error)
	VideoParams() ring.VideoParams
	AudioParams() ring.AudioParams
	Close()
}

// New opens an Encoder for cfg using the platform's available codecs.
func New(cfg Config) (Encoder, error) {
	return newPlatformEncoder(cfg)
}
