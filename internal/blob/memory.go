package blob

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

type memObject struct {
	contentType string
	data        []byte
}

// MemoryStore keeps blobs in process memory and serves them under baseURL
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]memObject
}

// NewMemory creates an empty store whose URLs are baseURL + "/" + key
func NewMemory(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]memObject),
	}
}

func (s *MemoryStore) Upload(ctx context.Context, key, contentType string, r io.Reader) (Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Object{}, fmt.Errorf("read blob %s: %w", key, err)
	}
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}

	s.mu.Lock()
	s.objects[key] = memObject{contentType: contentType, data: data}
	s.mu.Unlock()

	return Object{Key: key, URL: s.baseURL + "/" + key}, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; !ok {
		return ErrNotFound
	}
	delete(s.objects, key)
	return nil
}

// Get returns the content type and bytes stored under key
func (s *MemoryStore) Get(key string) (string, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return "", nil, ErrNotFound
	}
	return obj.contentType, obj.data, nil
}

// Len reports how many blobs are stored
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
