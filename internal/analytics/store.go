// Package analytics persists search history, price comparisons, user
// locations and carts. Every write is optional: a failing store never
// affects a price search.
package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/kosarica/price-aggregator/internal/location"
	"github.com/kosarica/price-aggregator/internal/optimizer"
	"github.com/kosarica/price-aggregator/internal/types"
)

// ErrNotFound is returned when a user has no stored document.
var ErrNotFound = errors.New("analytics: not found")

// AnonymousUserID keys documents of users without an id.
const AnonymousUserID = "anonymous"

// SearchHistory is one search a user ran.
type SearchHistory struct {
	ID          string    `json:"id" bson:"_id"`
	UserID      string    `json:"userId" bson:"user_id"`
	Query       string    `json:"query" bson:"query"`
	Category    string    `json:"category" bson:"category"`
	Location    string    `json:"location" bson:"location"`
	ResultCount int       `json:"resultCount" bson:"result_count"`
	DataSource  string    `json:"dataSource" bson:"data_source"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
}

// PriceComparison is the result set a user was shown.
type PriceComparison struct {
	ID        string              `json:"id" bson:"_id"`
	UserID    string              `json:"userId" bson:"user_id"`
	Query     string              `json:"query" bson:"query"`
	Category  string              `json:"category" bson:"category"`
	Location  string              `json:"location" bson:"location"`
	Results   []types.PriceRecord `json:"results" bson:"results"`
	Cheapest  string              `json:"cheapestPlatform,omitempty" bson:"cheapest_platform,omitempty"`
	CreatedAt time.Time           `json:"createdAt" bson:"created_at"`
}

// UserLocation is the last location a user picked.
type UserLocation struct {
	UserID    string            `json:"userId" bson:"_id"`
	Location  location.Location `json:"location" bson:"location"`
	UpdatedAt time.Time         `json:"updatedAt" bson:"updated_at"`
}

// Cart is a user's persisted cart and the last optimization applied to it.
type Cart struct {
	UserID       string                        `json:"userId" bson:"_id"`
	Items        []optimizer.PersistedCartItem `json:"items" bson:"items"`
	Optimization map[string]any                `json:"optimization,omitempty" bson:"optimization,omitempty"`
	OptimizedAt  *time.Time                    `json:"optimizedAt,omitempty" bson:"optimized_at,omitempty"`
	UpdatedAt    time.Time                     `json:"updatedAt" bson:"updated_at"`
}

// Store persists analytics and user state.
type Store interface {
	Name() string
	SaveSearchHistory(ctx context.Context, h *SearchHistory) error
	SavePriceComparison(ctx context.Context, c *PriceComparison) error
	SaveLocation(ctx context.Context, userID string, loc location.Location) error
	GetLocation(ctx context.Context, userID string) (*UserLocation, error)
	SaveCart(ctx context.Context, userID string, items []optimizer.PersistedCartItem) error
	ApplyOptimization(ctx context.Context, userID string, optimization map[string]any) error
	GetCart(ctx context.Context, userID string) (*Cart, error)
	// Purge deletes search history and comparisons created before cutoff.
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// UserKey maps an empty user id onto AnonymousUserID.
func UserKey(userID string) string {
	if userID == "" {
		return AnonymousUserID
	}
	return userID
}

// NopStore accepts every write and finds nothing.
type NopStore struct{}

func (NopStore) Name() string { return "nop" }

func (NopStore) SaveSearchHistory(context.Context, *SearchHistory) error { return nil }

func (NopStore) SavePriceComparison(context.Context, *PriceComparison) error { return nil }

func (NopStore) SaveLocation(context.Context, string, location.Location) error { return nil }

func (NopStore) GetLocation(context.Context, string) (*UserLocation, error) { return nil, ErrNotFound }

func (NopStore) SaveCart(context.Context, string, []optimizer.PersistedCartItem) error { return nil }

func (NopStore) ApplyOptimization(context.Context, string, map[string]any) error { return nil }

func (NopStore) GetCart(context.Context, string) (*Cart, error) { return nil, ErrNotFound }

func (NopStore) Purge(context.Context, time.Time) (int64, error) { return 0, nil }

func (NopStore) Ping(context.Context) error { return nil }

func (NopStore) Close(context.Context) error { return nil }
