package cart

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/cartstore"
	"golang.org/x/sync/singleflight"
)

const cleanupInterval = time.Minute

// Sessions keeps one Engine per shopper session. The first access for a
// session restores its cart from the store; engines idle for longer than the
// configured TTL are dropped from memory and restored again on next use.
type Sessions struct {
	store   Store
	idleTTL time.Duration
	opts    []Option

	mu      sync.Mutex
	engines map[string]*Engine
	sfg     singleflight.Group // collapses concurrent restores of one session

	stopCleanup chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// NewSessions starts the idle sweeper when idleTTL is positive. Call Close to
// stop it.
func NewSessions(store Store, idleTTL time.Duration, opts ...Option) *Sessions {
	s := &Sessions{
		store:       store,
		idleTTL:     idleTTL,
		opts:        opts,
		engines:     make(map[string]*Engine),
		stopCleanup: make(chan struct{}),
	}
	if idleTTL > 0 {
		s.wg.Add(1)
		go s.cleanupLoop()
	}
	return s
}

// Get returns the engine for sessionID, restoring it on first use.
func (s *Sessions) Get(ctx context.Context, sessionID string) (*Engine, error) {
	if e := s.lookup(sessionID); e != nil {
		e.touch()
		return e, nil
	}

	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		if e := s.lookup(sessionID); e != nil {
			return e, nil
		}
		e := NewEngine(cartstore.Key(sessionID), s.store, s.opts...)
		if err := e.Restore(ctx); err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.engines[sessionID] = e
		s.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Engine), nil
}

// Len reports how many sessions are held in memory.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.engines)
}

func (s *Sessions) lookup(sessionID string) *Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engines[sessionID]
}

func (s *Sessions) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictIdle(time.Now())
		case <-s.stopCleanup:
			return
		}
	}
}

// evictIdle drops engines not used since now-idleTTL. Engines with saves
// still in flight are kept until a later sweep, so a restore after eviction
// always sees the last write.
func (s *Sessions) evictIdle(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-s.idleTTL)
	evicted := 0
	for id, e := range s.engines {
		if e.evictable(cutoff) {
			delete(s.engines, id)
			evicted++
		}
	}
	return evicted
}

// Close stops the sweeper and waits for pending saves of every held engine.
func (s *Sessions) Close(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCleanup) })
	s.wg.Wait()

	s.mu.Lock()
	engines := make([]*Engine, 0, len(s.engines))
	for _, e := range s.engines {
		engines = append(engines, e)
	}
	s.mu.Unlock()

	for _, e := range engines {
		if err := e.Flush(ctx); err != nil {
			return err
		}
	}
	return nil
}
