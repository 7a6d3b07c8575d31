package snapshot

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DirSink stores snapshots as files in a local directory, with a JSON
// sidecar holding their Meta.
type DirSink struct {
	dir     string
	maxSize int64

	mu    sync.RWMutex
	metas map[string]Meta
}

// NewDirSink creates a DirSink rooted at dir.
//
// Parameters:
//   - dir: directory to write snapshots to, created on first Put
//   - maxSize: maximum payload size in bytes (0 = no limit)
func NewDirSink(dir string, maxSize int64) *DirSink {
	return &DirSink{
		dir:     dir,
		maxSize: maxSize,
		metas:   make(map[string]Meta),
	}
}

// Put writes data to <dir>/<key>.json.
func (s *DirSink) Put(ctx context.Context, meta Meta, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return ErrTooLarge
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	path := s.path(meta.Key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}

	s.mu.Lock()
	s.metas[meta.Key] = meta
	s.mu.Unlock()

	return s.saveMeta(meta)
}

// Get returns a stored snapshot and its metadata.
func (s *DirSink) Get(key string) ([]byte, Meta, error) {
	s.mu.RLock()
	meta, ok := s.metas[key]
	s.mu.RUnlock()

	if !ok {
		var err error
		meta, err = s.loadMeta(key)
		if err != nil {
			return nil, Meta{}, ErrNotFound
		}
	}

	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, Meta{}, ErrNotFound
	}
	if err != nil {
		return nil, Meta{}, err
	}
	return data, meta, nil
}

// Cleanup removes snapshots older than maxAge.
func (s *DirSink) Cleanup(maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, meta := range s.metas {
		if meta.CreatedAt.Before(cutoff) {
			delete(s.metas, key)
		}
	}

	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(s.dir, entry.Name()))
		}
	}
	return nil
}

func (s *DirSink) path(key string) string {
	return filepath.Join(s.dir, safeKey(key)+".json")
}

func (s *DirSink) metaPath(key string) string {
	return filepath.Join(s.dir, safeKey(key)+".meta")
}

func (s *DirSink) saveMeta(meta Meta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(s.metaPath(meta.Key), data, 0644)
}

func (s *DirSink) loadMeta(key string) (Meta, error) {
	var meta Meta
	data, err := os.ReadFile(s.metaPath(key))
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(data, &meta)
	return meta, err
}

// safeKey keeps keys inside the sink directory.
func safeKey(key string) string {
	key = strings.ReplaceAll(key, "..", "_")
	return strings.NewReplacer("/", "_", "\\", "_").Replace(key)
}
