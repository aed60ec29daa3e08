// Package watch reports changes to a single file so a sealed file can be
// re-verified as soon as it is touched.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ppiankov/wise/internal/logging"
)

// DefaultDebounce coalesces the burst of events a single save produces.
const DefaultDebounce = 200 * time.Millisecond

// DefaultPollInterval is used by PollWatcher when no interval is given.
const DefaultPollInterval = 2 * time.Second

// FileWatcher calls onChange after the target file is written, created,
// renamed or removed. It watches the parent directory, so editors that
// save by renaming a temp file over the target are still seen.
type FileWatcher struct {
	path     string
	onChange func()
	debounce time.Duration
	log      *slog.Logger
}

// NewFileWatcher returns a watcher for path. A zero debounce uses
// DefaultDebounce.
func NewFileWatcher(path string, debounce time.Duration, logger *slog.Logger, onChange func()) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &FileWatcher{
		path:     abs,
		onChange: onChange,
		debounce: debounce,
		log:      logging.OrNop(logger),
	}, nil
}

// Run blocks until ctx is cancelled.
func (w *FileWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	// Single debounce timer, started by the first relevant event.
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-timer.C:
			w.onChange()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			w.log.Debug("file event", "path", event.Name, "op", event.Op.String())

			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

// PollWatcher detects changes by comparing size and mtime on an interval.
// Used where fsnotify is unavailable, e.g. network filesystems.
type PollWatcher struct {
	path     string
	onChange func()
	interval time.Duration
	last     snapshot
}

type snapshot struct {
	exists bool
	size   int64
	mtime  int64
}

// NewPollWatcher returns a polling watcher for path.
func NewPollWatcher(path string, interval time.Duration, onChange func()) *PollWatcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &PollWatcher{
		path:     path,
		onChange: onChange,
		interval: interval,
		last:     stat(path),
	}
}

// Run polls until ctx is cancelled.
func (w *PollWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.scan()
		}
	}
}

func (w *PollWatcher) scan() {
	cur := stat(w.path)
	if cur == w.last {
		return
	}
	w.last = cur
	w.onChange()
}

func stat(path string) snapshot {
	info, err := os.Stat(path)
	if err != nil {
		return snapshot{}
	}
	return snapshot{exists: true, size: info.Size(), mtime: info.ModTime().UnixNano()}
}
