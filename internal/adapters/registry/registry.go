package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kosarica/price-aggregator/internal/adapters/base"
	"github.com/kosarica/price-aggregator/internal/adapters/config"
	"github.com/kosarica/price-aggregator/internal/adapters/platforms"
	"github.com/kosarica/price-aggregator/internal/browser"
)

// Registry manages platform adapter registration and retrieval
type Registry struct {
	mu       sync.RWMutex
	adapters map[config.PlatformID]base.Adapter
}

// NewRegistry creates a new platform registry
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[config.PlatformID]base.Adapter),
	}
}

// Register registers an adapter for a given platform ID
func (r *Registry) Register(id config.PlatformID, adapter base.Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[id] = adapter
}

// Get retrieves an adapter by platform ID
func (r *Registry) Get(id config.PlatformID) (base.Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[id]
	return adapter, ok
}

// ForCategory returns the registered adapters of a category in dispatch order.
// Platforms without a registered adapter are skipped.
func (r *Registry) ForCategory(category config.Category) ([]base.Adapter, error) {
	ids, ok := config.CategoryPlatforms[category]
	if !ok {
		return nil, fmt.Errorf("unknown category %q", category)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]base.Adapter, 0, len(ids))
	for _, id := range ids {
		if a, ok := r.adapters[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// List returns all registered platform IDs, sorted
func (r *Registry) List() []config.PlatformID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]config.PlatformID, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IsRegistered checks if a platform is registered
func (r *Registry) IsRegistered(id config.PlatformID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.adapters[id]
	return ok
}

// Unregister removes an adapter from the registry
func (r *Registry) Unregister(id config.PlatformID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.adapters, id)
}

// InitializeDefaultAdapters registers every built-in platform. Platforms that
// render server side use pageFetcher's cheaper sibling httpFetcher when given.
func InitializeDefaultAdapters(r *Registry, pageFetcher, httpFetcher browser.PageFetcher) error {
	for _, id := range config.PlatformIDs {
		fetcher := pageFetcher
		if cfg, _ := config.GetPlatformConfig(id); !cfg.NeedsBrowser && httpFetcher != nil {
			fetcher = httpFetcher
		}
		adapter, err := platforms.Constructors[id](fetcher)
		if err != nil {
			return fmt.Errorf("failed to initialize %s adapter: %w", id, err)
		}
		r.Register(id, adapter)
	}
	return nil
}
