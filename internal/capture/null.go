package capture

import "context"

// NullVideoSource and NullAudioSource satisfy VideoSource/AudioSource
// without producing any data. The real display-capture and system-audio
// loopback sources are external collaborators (only their contracts are
// specified); these placeholders let the daemon start and exercise its
// full lifecycle end to end before a real capture backend is wired in.
type NullVideoSource struct{}

func (NullVideoSource) Run(ctx context.Context, frames chan<- []byte) error {
	defer close(frames)
	<-ctx.Done()
	return nil
}

type NullAudioSource struct{}

func (NullAudioSource) Run(ctx context.Context, samples chan<- []float32) error {
	defer close(samples)
	<-ctx.Done()
	return nil
}
