package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/storefront/internal/cartstore"
)

type StoreMock struct {
	mu      sync.Mutex
	data    map[string][]byte
	saves   int
	loads   int
	saveErr error
	loadErr error
	block   chan struct{} // when set, Save waits on it
}

func newStoreMock() *StoreMock {
	return &StoreMock{data: make(map[string][]byte)}
}

func (s *StoreMock) Save(ctx context.Context, key string, data []byte) error {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data[key] = append([]byte(nil), data...)
	return nil
}

func (s *StoreMock) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	data, ok := s.data[key]
	if !ok {
		return nil, cartstore.ErrMiss
	}
	return data, nil
}

func (s *StoreMock) get(key string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key]
}

func (s *StoreMock) put(key string, data string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = []byte(data)
}

func (s *StoreMock) counts() (saves, loads int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves, s.loads
}

var errStoreDown = errors.New("store down")
