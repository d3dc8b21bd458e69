package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/capture"
	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/config"
	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/encoder"
	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/pipeline"
	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/ring"
	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/status"
)

type fakeVideo struct{}

func (fakeVideo) Run(ctx context.Context, out chan<- []byte) error {
	defer close(out)
	<-ctx.Done()
	return nil
}

type fakeAudio struct{}

func (fakeAudio) Run(ctx context.Context, out chan<- []float32) error {
	defer close(out)
	<-ctx.Done()
	return nil
}

type fakeEncoder struct{}

func (fakeEncoder) PushVideoFrame(frame []byte) (*ring.Segment, error) { return nil, nil }
func (fakeEncoder) PushAudio(pcm []float32) error                      { return nil }
func (fakeEncoder) Flush() (*ring.Segment, error)                      { return nil, nil }
func (fakeEncoder) VideoParams() ring.VideoParams                      { return ring.VideoParams{} }
func (fakeEncoder) AudioParams() ring.AudioParams                      { return ring.AudioParams{} }
func (fakeEncoder) Close()                                             {}

func fakeStartPipe(ctx context.Context, video capture.VideoSource, audio capture.AudioSource, cfg encoder.Config, rb *ring.Buffer, log zerolog.Logger) (*pipeline.Pipeline, error) {
	return pipeline.StartWithEncoder(ctx, video, audio, fakeEncoder{}, rb, log), nil
}

func newTestDaemon(t *testing.T) (*Daemon, string) {
	t.Helper()
	dir := t.TempDir()
	statusPath := filepath.Join(dir, "status.toml")
	cfg := config.Default()
	d := New(cfg, fakeVideo{}, fakeAudio{}, statusPath, zerolog.Nop())
	d.startPipe = fakeStartPipe
	t.Cleanup(func() { d.hotkeyHandle.Stop() })
	return d, statusPath
}

func readStatus(t *testing.T, path string) status.Status {
	t.Helper()
	var s status.Status
	_, err := toml.DecodeFile(path, &s)
	require.NoError(t, err)
	return s
}

func TestProcessStartedStartsPipelineAndPublishesRecording(t *testing.T) {
	d, statusPath := newTestDaemon(t)
	app := config.ApplicationConfig{DisplayName: "Some Game", ExecutableName: "somegame.exe"}

	d.handleProcessStarted(app)
	defer d.stopPipeline()

	assert.NotNil(t, d.pipeline)
	require.NotNil(t, d.activeApp)
	assert.Equal(t, "Some Game", d.activeApp.DisplayName)

	s := readStatus(t, statusPath)
	assert.Equal(t, status.StateRecording, s.State)
	assert.Equal(t, "Some Game", s.ActiveApplication)
}

func TestProcessStartedResizesRingToEffectiveBufferLength(t *testing.T) {
	d, _ := newTestDaemon(t)
	override := 30
	app := config.ApplicationConfig{DisplayName: "Some Game", ExecutableName: "somegame.exe", BufferLengthSecs: &override}

	d.handleProcessStarted(app)
	defer d.stopPipeline()

	assert.Equal(t, 30, d.ring.Capacity())
}

func TestProcessStoppedClearsActiveAppRestoresHotkeyPublishesIdle(t *testing.T) {
	d, statusPath := newTestDaemon(t)
	app := config.ApplicationConfig{DisplayName: "Some Game", ExecutableName: "somegame.exe"}
	d.handleProcessStarted(app)

	d.handleProcessStopped()

	assert.Nil(t, d.pipeline)
	assert.Nil(t, d.activeApp)
	assert.Equal(t, uint32(0x77), d.hotkeyHandle.CurrentVK()) // default F8

	s := readStatus(t, statusPath)
	assert.Equal(t, status.StateIdle, s.State)
}

// ConfigReloaded re-resolves effective buffer/hotkey
// relative to the still-active app.
func TestConfigReloadedRecomputesRelativeToActiveApp(t *testing.T) {
	d, _ := newTestDaemon(t)
	app := config.ApplicationConfig{DisplayName: "Some Game", ExecutableName: "somegame.exe"}
	d.handleProcessStarted(app)
	defer d.stopPipeline()

	override := 999
	newHotkey := "F9"
	newCfg := config.Config{
		Global: config.GlobalConfig{BufferLengthSecs: 20, Hotkey: "F8", ClipOutputDir: config.DefaultClipOutputDir},
		Applications: []config.ApplicationConfig{
			{DisplayName: "Some Game", ExecutableName: "somegame.exe", BufferLengthSecs: &override, Hotkey: &newHotkey},
		},
	}

	d.handleConfigReloaded(newCfg)

	assert.Equal(t, uint32(0x78), d.hotkeyHandle.CurrentVK()) // F9
}

func TestFlushRequestedNoopWithNoActivePipeline(t *testing.T) {
	d, statusPath := newTestDaemon(t)
	before, _ := os.Stat(statusPath)

	d.handleFlushRequested()

	_, err := os.Stat(statusPath)
	if before == nil {
		assert.True(t, os.IsNotExist(err))
	}
}

func TestFlushRequestedPublishesFlushingThenRecording(t *testing.T) {
	d, statusPath := newTestDaemon(t)
	d.cfg.Global.ClipOutputDir = t.TempDir()
	app := config.ApplicationConfig{DisplayName: "Some Game", ExecutableName: "somegame.exe"}
	d.handleProcessStarted(app)
	defer d.stopPipeline()

	// Seed the ring so the flush has something to (attempt to) write.
	d.ring.Push(ring.Segment{VideoPackets: []ring.Packet{{IsKey: true}}})

	d.handleFlushRequested()

	// The flush worker fails on this platform (no real muxer) and the
	// handler waits for it, so by the time it returns the status is back
	// to Recording with the error recorded.
	s := readStatus(t, statusPath)
	assert.Equal(t, status.StateRecording, s.State)
	assert.NotEmpty(t, s.Error)
}

func TestFlushRequestedSkipsBeforeCodecParamsPublished(t *testing.T) {
	d, statusPath := newTestDaemon(t)
	app := config.ApplicationConfig{DisplayName: "Some Game", ExecutableName: "somegame.exe"}
	d.handleProcessStarted(app)
	defer d.stopPipeline()

	// A ring with no codec params stands in for the window between
	// pipeline start and the first publish.
	d.ring = ring.New(10)
	d.handleFlushRequested()

	s := readStatus(t, statusPath)
	assert.Equal(t, status.StateRecording, s.State)
	assert.Empty(t, s.Error)
}

func TestProcessTransitionClearsLastError(t *testing.T) {
	d, statusPath := newTestDaemon(t)
	d.lastError = "flush: ring buffer is empty, nothing to write"

	d.handleProcessStopped()

	s := readStatus(t, statusPath)
	assert.Empty(t, s.Error)
}

func TestShutdownStopsPipelineAndPublishesIdle(t *testing.T) {
	d, statusPath := newTestDaemon(t)
	app := config.ApplicationConfig{DisplayName: "Some Game", ExecutableName: "somegame.exe"}
	d.handleProcessStarted(app)

	d.handleShutdown()

	assert.Nil(t, d.pipeline)
	s := readStatus(t, statusPath)
	assert.Equal(t, status.StateIdle, s.State)
}
