package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kosarica/price-aggregator/internal/database"
	"github.com/kosarica/price-aggregator/internal/location"
	"github.com/kosarica/price-aggregator/internal/optimizer"
)

// PostgresStore writes analytics rows to PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	owned  bool
	logger zerolog.Logger
}

// NewPostgresStore connects a dedicated pool and applies the schema.
func NewPostgresStore(ctx context.Context, cfg database.PoolConfig) (*PostgresStore, error) {
	p, err := database.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := NewPostgresStoreFromPool(p)
	s.owned = true
	if err := database.Migrate(ctx, database.PoolExec(p)); err != nil {
		p.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreFromPool wraps an existing pool. The caller keeps ownership
// of the pool and of the schema.
func NewPostgresStoreFromPool(p *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool:   p,
		logger: log.With().Str("component", "postgres_store").Logger(),
	}
}

func (s *PostgresStore) Name() string { return "postgres" }

func (s *PostgresStore) SaveSearchHistory(ctx context.Context, h *SearchHistory) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO search_history (id, user_id, query, category, location, result_count, data_source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		h.ID, UserKey(h.UserID), h.Query, h.Category, h.Location, h.ResultCount, h.DataSource, h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert search history: %w", err)
	}
	return nil
}

func (s *PostgresStore) SavePriceComparison(ctx context.Context, c *PriceComparison) error {
	results, err := json.Marshal(c.Results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO price_comparisons (id, user_id, query, category, location, results, cheapest_platform, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, NULLIF($7, ''), $8)
		ON CONFLICT (id) DO NOTHING`,
		c.ID, UserKey(c.UserID), c.Query, c.Category, c.Location, string(results), c.Cheapest, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert price comparison: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveLocation(ctx context.Context, userID string, loc location.Location) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_locations (user_id, city, pincode, area, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), now())
		ON CONFLICT (user_id) DO UPDATE SET
			city = EXCLUDED.city,
			pincode = EXCLUDED.pincode,
			area = EXCLUDED.area,
			updated_at = EXCLUDED.updated_at`,
		UserKey(userID), loc.City, loc.Pincode, loc.Area,
	)
	if err != nil {
		return fmt.Errorf("save location: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetLocation(ctx context.Context, userID string) (*UserLocation, error) {
	out := UserLocation{UserID: UserKey(userID)}
	var area *string
	err := s.pool.QueryRow(ctx, `
		SELECT city, pincode, area, updated_at FROM user_locations WHERE user_id = $1`,
		out.UserID,
	).Scan(&out.Location.City, &out.Location.Pincode, &area, &out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	if area != nil {
		out.Location.Area = *area
	}
	return &out, nil
}

func (s *PostgresStore) SaveCart(ctx context.Context, userID string, items []optimizer.PersistedCartItem) error {
	if items == nil {
		items = []optimizer.PersistedCartItem{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO carts (user_id, items, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (user_id) DO UPDATE SET
			items = EXCLUDED.items,
			updated_at = EXCLUDED.updated_at`,
		UserKey(userID), string(encoded),
	)
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *PostgresStore) ApplyOptimization(ctx context.Context, userID string, optimization map[string]any) error {
	encoded, err := json.Marshal(optimization)
	if err != nil {
		return fmt.Errorf("encode optimization: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO carts (user_id, optimization, optimized_at, updated_at)
		VALUES ($1, $2::jsonb, now(), now())
		ON CONFLICT (user_id) DO UPDATE SET
			optimization = EXCLUDED.optimization,
			optimized_at = EXCLUDED.optimized_at,
			updated_at = EXCLUDED.updated_at`,
		UserKey(userID), string(encoded),
	)
	if err != nil {
		return fmt.Errorf("apply optimization: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetCart(ctx context.Context, userID string) (*Cart, error) {
	out := Cart{UserID: UserKey(userID)}
	var items, optimization []byte
	err := s.pool.QueryRow(ctx, `
		SELECT items, optimization, optimized_at, updated_at FROM carts WHERE user_id = $1`,
		out.UserID,
	).Scan(&items, &optimization, &out.OptimizedAt, &out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &out.Items); err != nil {
			return nil, fmt.Errorf("decode cart items: %w", err)
		}
	}
	if len(optimization) > 0 {
		if err := json.Unmarshal(optimization, &out.Optimization); err != nil {
			return nil, fmt.Errorf("decode optimization: %w", err)
		}
	}
	return &out, nil
}

func (s *PostgresStore) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64
	for _, table := range []string{"search_history", "price_comparisons"} {
		tag, err := s.pool.Exec(ctx, "DELETE FROM "+table+" WHERE created_at < $1", cutoff)
		if err != nil {
			return total, fmt.Errorf("purge %s: %w", table, err)
		}
		total += tag.RowsAffected()
	}
	s.logger.Debug().Int64("deleted", total).Time("cutoff", cutoff).Msg("Purged analytics")
	return total, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close(context.Context) error {
	if s.owned {
		s.pool.Close()
	}
	return nil
}
