// Package daemon implements the event bus and main loop: a
// single-consumer queue that serializes every lifecycle transition and
// owns the ring buffer and the currently-active pipeline.
package daemon

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/capture"
	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/config"
	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/encoder"
	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/flush"
	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/hotkey"
	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/pipeline"
	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/ring"
	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/status"
)

// eventQueueCapacity bounds the event channel. The hotkey listener drops
// a press when the queue is full, logging a warning (it must never block
// the OS hook);
// everything else submits with a blocking send since none of those
// sources are latency sensitive at this timescale.
const eventQueueCapacity = 16

// EventKind tags a DaemonEvent variant.
type EventKind int

const (
	EventProcessStarted EventKind = iota
	EventProcessStopped
	EventConfigReloaded
	EventFlushRequested
	EventShutdown
)

// Event is the tagged union of lifecycle messages the main loop consumes.
type Event struct {
	Kind   EventKind
	App    config.ApplicationConfig // ProcessStarted
	Config config.Config            // ConfigReloaded
}

// pipelineStarter matches pipeline.Start's signature; overridable in tests
// so they don't need real capture sources or real codecs.
type pipelineStarter func(ctx context.Context, video capture.VideoSource, audio capture.AudioSource, cfg encoder.Config, rb *ring.Buffer, log zerolog.Logger) (*pipeline.Pipeline, error)

// Daemon owns the ring, the active pipeline, and the hotkey binding, and
// serializes all transitions between them through a single event queue.
type Daemon struct {
	events chan Event

	cfg       config.Config
	activeApp *config.ApplicationConfig
	ring      *ring.Buffer
	pipeline  *pipeline.Pipeline

	video capture.VideoSource
	audio capture.AudioSource

	hotkeyHandle *hotkey.Handle
	startPipe    pipelineStarter

	// Status state is only ever touched from the event loop goroutine, so
	// it needs no locking and the status file has a single writer.
	statusPath   string
	lastClipPath string
	lastClipTime string
	lastError    string

	log zerolog.Logger
}

// New constructs a Daemon in the idle state, bound to the global hotkey,
// with a ring sized to the global default buffer length.
func New(initial config.Config, video capture.VideoSource, audio capture.AudioSource, statusPath string, log zerolog.Logger) *Daemon {
	d := &Daemon{
		events:     make(chan Event, eventQueueCapacity),
		cfg:        initial,
		ring:       ring.New(initial.Global.BufferLengthSecs),
		video:      video,
		audio:      audio,
		startPipe:  pipeline.Start,
		statusPath: statusPath,
		log:        log,
	}
	d.hotkeyHandle = hotkey.Start(initial.Global.Hotkey, d.fireFlush)
	return d
}

func (d *Daemon) fireFlush() {
	select {
	case d.events <- Event{Kind: EventFlushRequested}:
	default:
		d.log.Warn().Msg("daemon: event queue full, dropped hotkey press")
	}
}

// Submit enqueues an event from an external source (process monitor,
// config watcher). Blocks if the queue is
// momentarily full; none of these sources are hook-latency sensitive.
func (d *Daemon) Submit(ev Event) {
	d.events <- ev
}

// Run consumes events until ctx is cancelled or a Shutdown event arrives,
// publishing an Idle status and tearing down the hotkey hook on exit.
func (d *Daemon) Run(ctx context.Context) {
	defer d.hotkeyHandle.Stop()
	d.publishStatus(status.StateIdle, "")

	for {
		select {
		case <-ctx.Done():
			d.handleShutdown()
			return
		case ev := <-d.events:
			switch ev.Kind {
			case EventProcessStarted:
				d.handleProcessStarted(ev.App)
			case EventProcessStopped:
				d.handleProcessStopped()
			case EventConfigReloaded:
				d.handleConfigReloaded(ev.Config)
			case EventFlushRequested:
				d.handleFlushRequested()
			case EventShutdown:
				d.handleShutdown()
				return
			}
		}
	}
}

func (d *Daemon) stopPipeline() {
	if d.pipeline != nil {
		d.pipeline.Stop()
		d.pipeline = nil
	}
}

func (d *Daemon) handleProcessStarted(app config.ApplicationConfig) {
	d.stopPipeline()
	d.lastError = ""
	d.ring.Clear()
	d.ring.Resize(app.EffectiveBufferLength(d.cfg.Global))
	d.hotkeyHandle.UpdateKey(app.EffectiveHotkey(d.cfg.Global))

	p, err := d.startPipe(context.Background(), d.video, d.audio, encoder.DefaultConfig(), d.ring, d.log)
	if err != nil {
		d.log.Error().Err(err).Str("app", app.DisplayName).Msg("daemon: failed to start pipeline")
		d.activeApp = nil
		d.lastError = err.Error()
		d.publishStatus(status.StateIdle, "")
		return
	}

	d.pipeline = p
	d.activeApp = &app
	d.publishStatus(status.StateRecording, app.DisplayName)
}

func (d *Daemon) handleProcessStopped() {
	d.stopPipeline()
	d.activeApp = nil
	d.lastError = ""
	d.hotkeyHandle.UpdateKey(d.cfg.Global.Hotkey)
	d.publishStatus(status.StateIdle, "")
}

func (d *Daemon) handleConfigReloaded(newCfg config.Config) {
	d.cfg = newCfg

	var bufLen int
	var hotkeyName string
	if d.activeApp != nil {
		app, ok := newCfg.FindApplication(d.activeApp.ExecutableName)
		if !ok {
			app = *d.activeApp
		}
		d.activeApp = &app
		bufLen = app.EffectiveBufferLength(newCfg.Global)
		hotkeyName = app.EffectiveHotkey(newCfg.Global)
	} else {
		bufLen = newCfg.Global.BufferLengthSecs
		hotkeyName = newCfg.Global.Hotkey
	}

	d.ring.Resize(bufLen)
	d.hotkeyHandle.UpdateKey(hotkeyName)
}

type flushResult struct {
	path string
	err  error
}

func (d *Daemon) handleFlushRequested() {
	if d.pipeline == nil || d.activeApp == nil {
		return
	}

	// Snapshot without draining so recording continues to accumulate
	// while the MP4 is written.
	snap := d.ring.Snapshot()
	if snap.VideoParams == nil || snap.AudioParams == nil {
		d.log.Warn().Msg("daemon: codec params not yet available, skipping flush")
		return
	}

	clipDir := d.cfg.Global.ClipOutputDir
	displayName := d.activeApp.DisplayName
	at := time.Now()
	d.publishStatus(status.StateFlushing, displayName)

	// The mux call is synchronous, so it runs on its own goroutine; the
	// event loop waits for it here while further events (including
	// Shutdown) queue on the buffered channel. Waiting inline keeps the
	// status file single-writer.
	done := make(chan flushResult, 1)
	go func() {
		path, err := flush.ToDisk(d.log, flush.Request{
			Snapshot:    snap,
			ClipDir:     clipDir,
			DisplayName: displayName,
			At:          at,
		})
		done <- flushResult{path: path, err: err}
	}()
	res := <-done

	if res.err != nil {
		d.log.Error().Err(res.err).Msg("daemon: flush failed")
		d.lastError = res.err.Error()
	} else {
		d.log.Info().Str("path", res.path).Msg("daemon: clip saved")
		d.lastClipPath = res.path
		d.lastClipTime = at.Format(time.RFC3339)
		d.lastError = ""
	}
	d.publishStatus(status.StateRecording, displayName)
}

func (d *Daemon) handleShutdown() {
	d.stopPipeline()
	d.activeApp = nil
	d.lastError = ""
	d.publishStatus(status.StateIdle, "")
}

func (d *Daemon) publishStatus(state status.State, activeApp string) {
	status.Write(d.log, d.statusPath, status.Status{
		Version:           status.Version,
		State:             state,
		ActiveApplication: activeApp,
		LastClipPath:      d.lastClipPath,
		LastClipTimestamp: d.lastClipTime,
		Error:             d.lastError,
	})
}
