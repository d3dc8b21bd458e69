// Command peakingd is the Peaking background recording daemon: it watches
// for a configured application, records the last N seconds of display and
// system audio while it runs, and on a hotkey press writes that window to
// an MP4 clip.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/capture"
	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/config"
	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/daemon"
	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/paths"
	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/startup"
	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/status"
)

func main() {
	unregister := flag.Bool("unregister-startup", false, "remove the autostart registration and exit")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if *unregister {
		if err := startup.Unregister(); err != nil {
			logger.Fatal().Err(err).Msg("failed to unregister autostart")
		}
		logger.Info().Msg("autostart registration removed")
		return
	}

	if err := os.MkdirAll(paths.AppDataDir(), 0o755); err != nil {
		logger.Fatal().Err(err).Str("dir", paths.AppDataDir()).Msg("failed to create app data directory")
	}

	// Publish an idle status immediately so the GUI has a file to read
	// even before the event loop's first turn.
	status.Write(logger, paths.StatusFilePath(), status.New())

	initialCfg, err := config.LoadOrDefault(paths.ConfigFilePath())
	if err != nil {
		logger.Error().Err(err).Msg("failed to parse config, starting with defaults")
		initialCfg = config.Default()
	}

	if exePath, err := os.Executable(); err != nil {
		logger.Warn().Err(err).Msg("could not resolve executable path; skipping autostart registration")
	} else if err := startup.Register(exePath); err != nil {
		logger.Warn().Err(err).Msg("failed to register autostart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := daemon.New(initialCfg, capture.NullVideoSource{}, capture.NullAudioSource{}, paths.StatusFilePath(), logger)

	var cfgMu sync.Mutex
	liveCfg := initialCfg

	watcher, err := config.Watch(paths.ConfigFilePath(), logger, func(c config.Config) {
		cfgMu.Lock()
		liveCfg = c
		cfgMu.Unlock()
		d.Submit(daemon.Event{Kind: daemon.EventConfigReloaded, Config: c})
	})
	if err != nil {
		logger.Warn().Err(err).Msg("config hot-reload disabled")
	} else {
		defer watcher.Stop()
	}

	monitor := capture.NewProcessMonitor()
	go monitor.Run(
		ctx,
		func() config.Config {
			cfgMu.Lock()
			defer cfgMu.Unlock()
			return liveCfg
		},
		func(app config.ApplicationConfig) { d.Submit(daemon.Event{Kind: daemon.EventProcessStarted, App: app}) },
		func() { d.Submit(daemon.Event{Kind: daemon.EventProcessStopped}) },
	)

	logger.Info().Str("status_file", paths.StatusFilePath()).Msg("peaking daemon started")
	d.Run(ctx)
	logger.Info().Msg("peaking daemon stopped")
}
