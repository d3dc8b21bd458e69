package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher watches a config file's parent directory (not the file itself —
// editors and atomic-rename saves replace the inode, which a direct watch
// on the file would miss) and invokes onReload with the freshly parsed
// Config whenever that exact path is created or written.
type Watcher struct {
	fsw  *fsnotify.Watcher
	path string
}

// Watch starts watching path's parent directory. The returned Watcher must
// be closed with Stop when no longer needed.
func Watch(path string, log zerolog.Logger, onReload func(Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{fsw: fsw, path: path}

	go func() {
		for {
			select {
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if !(ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write)) {
					continue
				}
				cfg, err := LoadOrDefault(path)
				if err != nil {
					log.Error().Err(err).Str("path", path).Msg("config: reload failed, keeping previous config")
					continue
				}
				onReload(cfg)
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				log.Error().Err(err).Msg("config: watcher error")
			}
		}
	}()

	return w, nil
}

// Stop releases the underlying filesystem watch.
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}
