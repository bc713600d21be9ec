package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/price-aggregator/internal/location"
	"github.com/kosarica/price-aggregator/internal/optimizer"
)

func TestMemoryStore_LocationAndCart(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.GetLocation(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SaveLocation(ctx, "u1", location.Location{City: "Mumbai", Pincode: "400001"}))
	got, err := s.GetLocation(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", got.Location.City)

	require.NoError(t, s.SaveLocation(ctx, "", location.Location{City: "Pune", Pincode: "411001"}))
	anon, err := s.GetLocation(ctx, AnonymousUserID)
	require.NoError(t, err)
	assert.Equal(t, "Pune", anon.Location.City)

	items := []optimizer.PersistedCartItem{{Name: "milk", Quantity: 2}}
	require.NoError(t, s.SaveCart(ctx, "u1", items))
	require.NoError(t, s.ApplyOptimization(ctx, "u1", map[string]any{"totalSavings": 20.0}))

	cart, err := s.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, items, cart.Items)
	assert.Equal(t, 20.0, cart.Optimization["totalSavings"])
	require.NotNil(t, cart.OptimizedAt)
}

func TestMemoryStore_Purge(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveSearchHistory(ctx, &SearchHistory{ID: "old", CreatedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, s.SaveSearchHistory(ctx, &SearchHistory{ID: "new", CreatedAt: now}))
	require.NoError(t, s.SavePriceComparison(ctx, &PriceComparison{ID: "old", CreatedAt: now.Add(-48 * time.Hour)}))

	n, err := s.Purge(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.Len(t, s.Searches(), 1)
	assert.Equal(t, "new", s.Searches()[0].ID)
	assert.Empty(t, s.Comparisons())
}

func TestAsyncRecorder_WritesInBackground(t *testing.T) {
	store := NewMemoryStore()
	r := NewAsyncRecorder(store, RecorderConfig{QueueSize: 8, NumWorkers: 2})
	r.Start()

	for i := 0; i < 5; i++ {
		assert.True(t, r.RecordSearch(SearchHistory{Query: "milk"}, &PriceComparison{Query: "milk"}))
	}
	r.Stop()

	assert.Len(t, store.Searches(), 5)
	assert.Len(t, store.Comparisons(), 5)
	assert.Zero(t, r.Dropped())
}

type blockingStore struct {
	NopStore
	release chan struct{}
	once    sync.Once
	started chan struct{}
}

func (b *blockingStore) SaveSearchHistory(ctx context.Context, _ *SearchHistory) error {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return nil
}

func TestAsyncRecorder_DropsWhenFull(t *testing.T) {
	store := &blockingStore{release: make(chan struct{}), started: make(chan struct{})}
	r := NewAsyncRecorder(store, RecorderConfig{QueueSize: 1, NumWorkers: 1})
	r.Start()

	require.True(t, r.RecordSearch(SearchHistory{}, nil))
	<-store.started
	require.True(t, r.RecordSearch(SearchHistory{}, nil))

	done := make(chan bool)
	go func() { done <- r.RecordSearch(SearchHistory{}, nil) }()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}
	assert.Equal(t, int64(1), r.Dropped())

	close(store.release)
	r.Stop()
	assert.False(t, r.RecordSearch(SearchHistory{}, nil))
}

type failingStore struct{ NopStore }

func (failingStore) SaveSearchHistory(context.Context, *SearchHistory) error {
	return errors.New("connection refused")
}

func TestAsyncRecorder_FailuresAreCounted(t *testing.T) {
	r := NewAsyncRecorder(failingStore{}, RecorderConfig{})
	r.Start()
	r.RecordSearch(SearchHistory{}, nil)
	r.Stop()
	assert.Equal(t, int64(1), r.Failed())
}
