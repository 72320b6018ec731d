// Package blob keeps binary backend responses in memory behind opaque
// handles, the way a browser keeps object URLs. A handle stays valid until
// it is released; released bytes are dropped immediately.
package blob

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrReleased is returned for unknown or already released handles.
var ErrReleased = errors.New("artifact handle released or unknown")

// Handle addresses one artifact in a Store.
type Handle struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

type entry struct {
	h    Handle
	data []byte
}

// Store holds acquired artifacts. It is safe for concurrent use; the artifact
// viewer reads while workflows acquire and release.
type Store struct {
	mu    sync.RWMutex
	items map[string]entry
	log   *zap.Logger
}

// NewStore returns an empty Store.
func NewStore(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{items: make(map[string]entry), log: log}
}

// Acquire stores data and returns its handle. An empty contentType is
// sniffed from the bytes.
func (s *Store) Acquire(data []byte, contentType, filename string) Handle {
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}
	h := Handle{
		ID:          uuid.NewString(),
		Filename:    filename,
		ContentType: contentType,
		Size:        len(data),
		CreatedAt:   time.Now(),
	}

	s.mu.Lock()
	s.items[h.ID] = entry{h: h, data: data}
	s.mu.Unlock()

	s.log.Debug("artifact acquired", zap.String("id", h.ID), zap.String("filename", filename), zap.Int("size", h.Size))
	return h
}

// Open returns the handle and bytes for id.
func (s *Store) Open(id string) (Handle, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[id]
	if !ok {
		return Handle{}, nil, ErrReleased
	}
	return e.h, e.data, nil
}

// Release drops the bytes behind h. Releasing twice is a no-op; the return
// value reports whether anything was dropped.
func (s *Store) Release(h Handle) bool {
	s.mu.Lock()
	_, ok := s.items[h.ID]
	delete(s.items, h.ID)
	s.mu.Unlock()

	if ok {
		s.log.Debug("artifact released", zap.String("id", h.ID))
	}
	return ok
}

// ReleaseAll drops every artifact.
func (s *Store) ReleaseAll() {
	s.mu.Lock()
	s.items = make(map[string]entry)
	s.mu.Unlock()
}

// List returns live handles, oldest first.
func (s *Store) List() []Handle {
	s.mu.RLock()
	out := make([]Handle, 0, len(s.items))
	for _, e := range s.items {
		out = append(out, e.h)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Len is the number of live handles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// SaveTo writes the artifact into dir under its default filename and
// returns the written path.
func (s *Store) SaveTo(id, dir string) (string, error) {
	h, data, err := s.Open(id)
	if err != nil {
		return "", err
	}
	name := h.Filename
	if name == "" {
		name = h.ID
		if m := mimetype.Lookup(h.ContentType); m != nil {
			name += m.Extension()
		}
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("save artifact %s: %w", h.ID, err)
	}
	return path, nil
}
