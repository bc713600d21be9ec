package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/kosarica/price-aggregator/internal/location"
	"github.com/kosarica/price-aggregator/internal/optimizer"
)

// MemoryStore keeps everything in process. It backs tests and single-node
// development runs.
type MemoryStore struct {
	mu          sync.RWMutex
	searches    []SearchHistory
	comparisons []PriceComparison
	locations   map[string]UserLocation
	carts       map[string]Cart
	now         func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		locations: make(map[string]UserLocation),
		carts:     make(map[string]Cart),
		now:       time.Now,
	}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) SaveSearchHistory(_ context.Context, h *SearchHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches = append(s.searches, *h)
	return nil
}

func (s *MemoryStore) SavePriceComparison(_ context.Context, c *PriceComparison) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comparisons = append(s.comparisons, *c)
	return nil
}

func (s *MemoryStore) SaveLocation(_ context.Context, userID string, loc location.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := UserKey(userID)
	s.locations[key] = UserLocation{UserID: key, Location: loc, UpdatedAt: s.now()}
	return nil
}

func (s *MemoryStore) GetLocation(_ context.Context, userID string) (*UserLocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.locations[UserKey(userID)]
	if !ok {
		return nil, ErrNotFound
	}
	return &l, nil
}

func (s *MemoryStore) SaveCart(_ context.Context, userID string, items []optimizer.PersistedCartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := UserKey(userID)
	c := s.carts[key]
	c.UserID = key
	c.Items = append([]optimizer.PersistedCartItem(nil), items...)
	c.UpdatedAt = s.now()
	s.carts[key] = c
	return nil
}

func (s *MemoryStore) ApplyOptimization(_ context.Context, userID string, optimization map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := UserKey(userID)
	c := s.carts[key]
	now := s.now()
	c.UserID = key
	c.Optimization = optimization
	c.OptimizedAt = &now
	c.UpdatedAt = now
	s.carts[key] = c
	return nil
}

func (s *MemoryStore) GetCart(_ context.Context, userID string) (*Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.carts[UserKey(userID)]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) Purge(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	keptSearches := s.searches[:0]
	for _, h := range s.searches {
		if h.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		keptSearches = append(keptSearches, h)
	}
	s.searches = keptSearches

	keptComparisons := s.comparisons[:0]
	for _, c := range s.comparisons {
		if c.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		keptComparisons = append(keptComparisons, c)
	}
	s.comparisons = keptComparisons
	return removed, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close(context.Context) error { return nil }

// Searches returns a copy of the stored search history.
func (s *MemoryStore) Searches() []SearchHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]SearchHistory(nil), s.searches...)
}

// Comparisons returns a copy of the stored price comparisons.
func (s *MemoryStore) Comparisons() []PriceComparison {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PriceComparison(nil), s.comparisons...)
}
