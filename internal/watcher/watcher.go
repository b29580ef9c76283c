// Package watcher keeps static asset hashes current while the server runs,
// so edited CSS and JS get fresh cache-busting URLs without a restart.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sydlexius/sprout/internal/event"
)

// Rescanner rehashes the static directory and returns the file count.
type Rescanner interface {
	Rescan() int
}

// Service watches the static directory tree and rescans assets after
// changes settle. When fsnotify does not work for the directory it polls
// file stamps instead.
type Service struct {
	dir          string
	assets       Rescanner
	events       event.Publisher
	logger       *slog.Logger
	debounce     time.Duration
	pollInterval time.Duration
	checkTimeout time.Duration

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	watching map[string]bool
	last     map[string]fileStamp
}

// NewService creates a watcher for dir.
func NewService(dir string, assets Rescanner, events event.Publisher, logger *slog.Logger) *Service {
	return &Service{
		dir:          dir,
		assets:       assets,
		events:       events,
		logger:       logger.With("component", "static-watcher"),
		debounce:     500 * time.Millisecond,
		pollInterval: 30 * time.Second,
		checkTimeout: 2 * time.Second,
		watching:     make(map[string]bool),
	}
}

// SetDebounce overrides the default debounce interval (for testing).
func (s *Service) SetDebounce(d time.Duration) {
	s.debounce = d
}

// SetPollInterval overrides the polling fallback interval (for testing).
func (s *Service) SetPollInterval(d time.Duration) {
	s.pollInterval = d
}

// Start blocks until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	var eventCh <-chan fsnotify.Event
	var errCh <-chan error
	var pollCh <-chan time.Time

	if FSNotifyWorks(s.dir, s.checkTimeout) {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			s.logger.Warn("fsnotify unavailable, polling instead", "error", err)
		} else {
			defer w.Close() //nolint:errcheck
			s.mu.Lock()
			s.watcher = w
			s.mu.Unlock()
			s.addTree(s.dir)
			eventCh, errCh = w.Events, w.Errors
		}
	} else {
		s.logger.Info("fsnotify not supported for static dir, polling instead", "dir", s.dir)
	}
	if eventCh == nil {
		s.last = snapshot(s.dir)
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		pollCh = ticker.C
	}

	s.logger.Info("static watcher starting", "dir", s.dir)

	// Debounce timer coalescing bursts of writes into one rescan. Starts
	// stopped.
	debounceTimer := time.NewTimer(0)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	pending := false
	arm := func() {
		if !debounceTimer.Stop() {
			select {
			case <-debounceTimer.C:
			default:
			}
		}
		debounceTimer.Reset(s.debounce)
		pending = true
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("static watcher stopping")
			return

		case ev, ok := <-eventCh:
			if !ok {
				return
			}
			if s.relevant(ev) {
				arm()
			}

		case err, ok := <-errCh:
			if !ok {
				return
			}
			s.logger.Error("fsnotify error", "error", err)

		case <-pollCh:
			if s.pollChanged() {
				arm()
			}

		case <-debounceTimer.C:
			if pending {
				pending = false
				s.rescan()
			}
		}
	}
}

// relevant reports whether ev changes served content. New directories are
// added to the watch set.
func (s *Service) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			s.addTree(ev.Name)
		}
	}
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		s.mu.Lock()
		delete(s.watching, ev.Name)
		s.mu.Unlock()
	}
	return true
}

// addTree watches root and every directory below it.
func (s *Service) addTree(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.watching[path] {
			return nil
		}
		if err := s.watcher.Add(path); err != nil {
			s.logger.Warn("failed to watch directory", "path", path, "error", err)
			return nil
		}
		s.watching[path] = true
		return nil
	})
}

func (s *Service) pollChanged() bool {
	current := snapshot(s.dir)
	if sameSnapshot(s.last, current) {
		return false
	}
	s.last = current
	return true
}

func (s *Service) rescan() {
	files := s.assets.Rescan()
	s.logger.Info("static assets changed, rescanned", "files", files)
	if s.events != nil {
		s.events.Publish(event.Event{
			Type: event.StaticChanged,
			Data: map[string]any{"dir": s.dir, "files": files},
		})
	}
}
