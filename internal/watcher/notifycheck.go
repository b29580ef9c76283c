package watcher

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FSNotifyWorks tests whether fsnotify delivers events for path. Bind
// mounts and network filesystems often accept a watch but never report
// changes. It creates a temporary directory inside path and reports whether
// the Create event arrives within timeout.
func FSNotifyWorks(path string, timeout time.Duration) bool {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return false
	}
	defer w.Close() //nolint:errcheck

	if err := w.Add(path); err != nil {
		return false
	}

	markerName := fmt.Sprintf(".sprout_notify_check_%d", rand.Int63()) //nolint:gosec // G404: not security-sensitive
	markerDir := filepath.Join(path, markerName)
	if err := os.Mkdir(markerDir, 0o750); err != nil { //nolint:gosec // G301: marker dir is temporary
		return false
	}
	defer os.Remove(markerDir) //nolint:errcheck

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return false
			}
			if ev.Has(fsnotify.Create) && filepath.Base(ev.Name) == markerName {
				return true
			}
		case <-w.Errors:
			return false
		case <-timer.C:
			return false
		}
	}
}

type fileStamp struct {
	size    int64
	modTime time.Time
}

// snapshot records size and mtime for every file under dir.
func snapshot(dir string) map[string]fileStamp {
	out := make(map[string]fileStamp)
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		out[path] = fileStamp{size: info.Size(), modTime: info.ModTime()}
		return nil
	})
	return out
}

func sameSnapshot(a, b map[string]fileStamp) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || w.size != v.size || !w.modTime.Equal(v.modTime) {
			return false
		}
	}
	return true
}
