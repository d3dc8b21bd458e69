package capture

import (
	"context"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/config"
)

// ProcessPollInterval is how often the OS process list is polled.
const ProcessPollInterval = 2 * time.Second

// processLister returns the names of currently running processes. Exists
// as a seam so ProcessMonitor can be driven by a fake list in tests
// instead of the real OS process table.
type processLister func() ([]string, error)

func listRunningProcessNames() ([]string, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// ProcessMonitor polls the OS process list and tracks which single
// configured application, if any, is currently running. Only one
// application is ever considered active at a time; ties among
// simultaneously-running configured executables are broken by config list
// order.
type ProcessMonitor struct {
	list         processLister
	pollInterval time.Duration

	active string // currently-active executable name; empty if none
}

// NewProcessMonitor returns a monitor backed by the real OS process list.
func NewProcessMonitor() *ProcessMonitor {
	return &ProcessMonitor{list: listRunningProcessNames, pollInterval: ProcessPollInterval}
}

// Run polls until ctx is cancelled. cfg is called on every tick so
// configuration changes take effect without restarting the monitor.
// onStarted fires when a configured executable newly appears while no
// other application is active; onStopped fires when the active executable
// disappears from the process list.
func (m *ProcessMonitor) Run(ctx context.Context, cfg func() config.Config, onStarted func(config.ApplicationConfig), onStopped func()) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.poll(cfg(), onStarted, onStopped)
		}
	}
}

func (m *ProcessMonitor) poll(c config.Config, onStarted func(config.ApplicationConfig), onStopped func()) {
	names, err := m.list()
	if err != nil {
		return
	}

	if m.active != "" && !processNamed(names, m.active) {
		m.active = ""
		onStopped()
	}

	if m.active != "" {
		return
	}

	for _, app := range c.Applications {
		if processNamed(names, app.ExecutableName) {
			m.active = app.ExecutableName
			onStarted(app)
			return
		}
	}
}

// processNamed reports whether exeName appears (case-insensitively) among
// running. Factored out for direct unit testing, mirroring the reference
// daemon's isolated exe-presence check.
func processNamed(running []string, exeName string) bool {
	for _, r := range running {
		if strings.EqualFold(r, exeName) {
			return true
		}
	}
	return false
}
