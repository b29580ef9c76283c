package api

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// StaticAssets serves the static directory with content-hash cache busting.
// Path returns URLs carrying a ?v= hash; requests whose hash matches the
// current file are cached as immutable.
type StaticAssets struct {
	mu       sync.RWMutex
	hashes   map[string]string // "/css/styles.css" -> sha256 hex
	dir      string
	basePath string
	logger   *slog.Logger
}

// NewStaticAssets scans dir and returns an asset manager serving it under
// basePath+"/static/".
func NewStaticAssets(dir, basePath string, logger *slog.Logger) *StaticAssets {
	sa := &StaticAssets{
		hashes:   make(map[string]string),
		dir:      dir,
		basePath: basePath,
		logger:   logger.With(slog.String("component", "static")),
	}
	sa.Rescan()
	return sa
}

// Dir returns the directory being served.
func (sa *StaticAssets) Dir() string {
	return sa.dir
}

// Path returns a cache-busted URL for a static file, e.g.
// Path("/css/styles.css") returns "/static/css/styles.css?v=a1b2c3d4e5f6".
func (sa *StaticAssets) Path(filePath string) string {
	sa.mu.RLock()
	hash, ok := sa.hashes[filePath]
	sa.mu.RUnlock()

	url := sa.basePath + "/static" + filePath
	if !ok {
		return url
	}
	return url + "?v=" + hash[:12]
}

// Hash returns the full content hash of a file, or "" if unknown.
func (sa *StaticAssets) Hash(filePath string) string {
	sa.mu.RLock()
	defer sa.mu.RUnlock()
	return sa.hashes[filePath]
}

// Handler serves static files with cache headers that depend on whether
// the request's version matches the current content.
func (sa *StaticAssets) Handler() http.Handler {
	prefix := sa.basePath + "/static"
	stripped := http.StripPrefix(prefix+"/", http.FileServer(http.Dir(sa.dir)))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch v := r.URL.Query().Get("v"); {
		case v == "":
			w.Header().Set("Cache-Control", "public, max-age=300")
		case strings.HasPrefix(sa.Hash(strings.TrimPrefix(r.URL.Path, prefix)), v):
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		default:
			w.Header().Set("Cache-Control", "public, max-age=3600")
		}
		stripped.ServeHTTP(w, r)
	})
}

// Rescan rehashes every file in the directory and returns the file count.
func (sa *StaticAssets) Rescan() int {
	hashes := make(map[string]string)

	err := filepath.WalkDir(sa.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path) //nolint:gosec // walking our own static dir
		if err != nil {
			sa.logger.Warn("failed to hash static file", "path", path, "error", err)
			return nil
		}
		rel, err := filepath.Rel(sa.dir, path)
		if err != nil {
			return nil
		}
		h := sha256.Sum256(data)
		hashes["/"+filepath.ToSlash(rel)] = hex.EncodeToString(h[:])
		return nil
	})
	if err != nil {
		sa.logger.Warn("walking static dir", "dir", sa.dir, "error", err)
	}

	sa.mu.Lock()
	sa.hashes = hashes
	sa.mu.Unlock()

	sa.logger.Debug("static assets scanned", slog.Int("files", len(hashes)))
	return len(hashes)
}
