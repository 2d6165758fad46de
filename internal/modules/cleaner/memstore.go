// README: In-memory cleaner store for unit tests.
package cleaner

import (
	"context"
	"sort"
	"sync"

	"sweeply/internal/types"
)

type MemStore struct {
	mu       sync.Mutex
	profiles map[types.ID]*Profile
}

func NewMemStore() *MemStore {
	return &MemStore{profiles: make(map[types.ID]*Profile)}
}

// Put seeds or replaces a profile snapshot.
func (s *MemStore) Put(p *Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
}

func (s *MemStore) Get(_ context.Context, id types.ID) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *MemStore) ListActive(_ context.Context) ([]*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
