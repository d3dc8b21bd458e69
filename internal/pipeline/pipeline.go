// Package pipeline spawns and supervises one recording session's capture
// sources and encoder loop.
package pipeline

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/capture"
	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/encoder"
	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/ring"
)

const (
	videoQueueCapacity = 8
	audioQueueCapacity = 32
)

// Pipeline runs one recording session: video capture, audio capture, and
// the segmenting encoder, all feeding a shared ring buffer.
type Pipeline struct {
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// Start opens an encoder for encCfg and launches the three cooperative
// tasks. EncoderUnavailable is fatal for the session: Start returns the
// error without spawning anything.
func Start(parent context.Context, video capture.VideoSource, audio capture.AudioSource, encCfg encoder.Config, rb *ring.Buffer, log zerolog.Logger) (*Pipeline, error) {
	enc, err := encoder.New(encCfg)
	if err != nil {
		return nil, err
	}
	return StartWithEncoder(parent, video, audio, enc, rb, log), nil
}

// StartWithEncoder is Start with an already-opened Encoder, split out so
// tests can supply a fake encoder instead of requiring real codecs.
func StartWithEncoder(parent context.Context, video capture.VideoSource, audio capture.AudioSource, enc encoder.Encoder, rb *ring.Buffer, log zerolog.Logger) *Pipeline {
	ctx, cancel := context.WithCancel(parent)
	p := &Pipeline{cancel: cancel}

	rb.SetVideoParams(enc.VideoParams())
	rb.SetAudioParams(enc.AudioParams())

	frames := make(chan []byte, videoQueueCapacity)
	samples := make(chan []float32, audioQueueCapacity)

	p.wg.Add(3)
	go func() {
		defer p.wg.Done()
		if err := video.Run(ctx, frames); err != nil {
			log.Error().Err(err).Msg("pipeline: video capture stopped")
		}
	}()
	go func() {
		defer p.wg.Done()
		if err := audio.Run(ctx, samples); err != nil {
			log.Error().Err(err).Msg("pipeline: audio capture stopped")
		}
	}()
	go func() {
		defer p.wg.Done()
		runEncoderLoop(ctx, enc, frames, samples, rb, log)
	}()

	return p
}

func runEncoderLoop(ctx context.Context, enc encoder.Encoder, frames <-chan []byte, samples <-chan []float32, rb *ring.Buffer, log zerolog.Logger) {
	defer enc.Close()

	open := 2
	for open > 0 {
		select {
		case <-ctx.Done():
			open = 0
		case f, ok := <-frames:
			if !ok {
				frames = nil
				open--
				continue
			}
			seg, err := enc.PushVideoFrame(f)
			if err != nil {
				log.Error().Err(err).Msg("pipeline: video encode error")
				continue
			}
			if seg != nil {
				rb.Push(*seg)
			}
		case s, ok := <-samples:
			if !ok {
				samples = nil
				open--
				continue
			}
			if err := enc.PushAudio(s); err != nil {
				log.Error().Err(err).Msg("pipeline: audio encode error")
			}
		}
	}

	seg, err := enc.Flush()
	if err != nil {
		log.Error().Err(err).Msg("pipeline: flush error")
		return
	}
	if seg != nil {
		rb.Push(*seg)
	}
}

// Stop cancels all three tasks and waits for them to exit. Idempotent and
// safe to call even if a task has already exited on its own.
func (p *Pipeline) Stop() {
	p.stopOnce.Do(p.cancel)
	p.wg.Wait()
}
