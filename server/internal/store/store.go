package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/carepulse/carepulse/pkg/types"
)

// Store is a thread-safe in-memory store of analysis runs. Runs expire TTL
// after they were received; at most max runs are held, oldest dropped first.
type Store struct {
	mu    sync.RWMutex
	runs  map[string]*types.Run
	order []string // run ids, oldest first
	ttl   time.Duration
	max   int
	now   func() time.Time // injectable for tests
}

// New returns an empty Store.
func New(ttl time.Duration, max int) *Store {
	if max <= 0 {
		max = 1
	}
	return &Store{
		runs: make(map[string]*types.Run),
		ttl:  ttl,
		max:  max,
		now:  time.Now,
	}
}

// Put records run, assigning a fresh id and the receive time. The stored
// run is returned.
func (s *Store) Put(run *types.Run) *types.Run {
	s.mu.Lock()
	defer s.mu.Unlock()

	run.ID = uuid.NewString()
	run.ReceivedAt = s.now().UTC()
	s.runs[run.ID] = run
	s.order = append(s.order, run.ID)

	for len(s.order) > s.max {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
	return run
}

// Get returns the run with id if it exists and has not expired.
func (s *Store) Get(id string) (*types.Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok || !s.live(r, s.now()) {
		return nil, false
	}
	return r, true
}

// Latest returns the most recently received live run.
func (s *Store) Latest() (*types.Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.order) == 0 {
		return nil, false
	}
	r := s.runs[s.order[len(s.order)-1]]
	if !s.live(r, s.now()) {
		return nil, false
	}
	return r, true
}

// List returns live runs, newest first.
func (s *Store) List() []*types.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	out := make([]*types.Run, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		r := s.runs[s.order[i]]
		if s.live(r, now) {
			out = append(out, r)
		}
	}
	return out
}

// Count returns the number of held runs, including expired ones not yet evicted.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// Evict removes runs that expired before now and returns how many were removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.order[:0]
	removed := 0
	for _, id := range s.order {
		if s.live(s.runs[id], now) {
			kept = append(kept, id)
			continue
		}
		delete(s.runs, id)
		removed++
	}
	s.order = kept
	return removed
}

// Run evicts expired runs every ttl/2 until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			if n := s.Evict(t); n > 0 {
				log.Debug().Int("count", n).Msg("store: evicted expired runs")
			}
		}
	}
}

func (s *Store) live(r *types.Run, now time.Time) bool {
	return now.Sub(r.ReceivedAt) <= s.ttl
}
