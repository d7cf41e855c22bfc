package booking

import (
	"context"
	"sync"
)

// MemoryBlobStore is an in-process blob store for tests and local
// development.
type MemoryBlobStore struct {
	mu   sync.RWMutex
	data []byte
	set  bool
}

// NewMemoryBlobStore creates an empty in-memory blob store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{}
}

// Read returns the stored blob or ErrBlobNotFound before the first write.
func (s *MemoryBlobStore) Read(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set {
		return nil, ErrBlobNotFound
	}
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out, nil
}

// Write replaces the stored blob.
func (s *MemoryBlobStore) Write(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make([]byte, len(data))
	copy(s.data, data)
	s.set = true
	return nil
}

var _ BlobStore = (*MemoryBlobStore)(nil)
