package fallback

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kosarica/price-aggregator/internal/availability"
	"github.com/kosarica/price-aggregator/internal/location"
	"github.com/kosarica/price-aggregator/internal/types"
)

// Runner re-runs platform dispatch for a substitute location and returns the
// flattened raw records.
type Runner func(ctx context.Context, loc location.Location) []types.RawRecord

// Result is what the chain settled on.
type Result struct {
	Raw    []types.RawRecord
	City   string
	Source types.DataSource
}

// Options toggles the individual strategies.
type Options struct {
	NearbyRetry bool
	Synthetic   bool
}

// Chain applies the degraded strategies in order: nearby-city retry, then
// synthetic data.
type Chain struct {
	table  *NearbyTable
	opts   Options
	logger zerolog.Logger
}

// NewChain creates a fallback chain. A nil table uses DefaultNearby.
func NewChain(table *NearbyTable, opts Options) *Chain {
	if table == nil {
		table = DefaultNearby()
	}
	return &Chain{
		table:  table,
		opts:   opts,
		logger: log.With().Str("component", "fallback").Logger(),
	}
}

// Table returns the nearby-city table.
func (c *Chain) Table() *NearbyTable {
	return c.table
}

// Run retries nearby cities one at a time, stopping at the first that yields
// records. Cities listed in tried are skipped. When every candidate comes up
// empty the synthetic generator is used, if enabled.
func (c *Chain) Run(ctx context.Context, item, category string, loc location.Location, tried []string, run Runner) Result {
	seen := make(map[string]bool, len(tried)+1)
	seen[availability.NormalizeCity(loc.City)] = true
	for _, city := range tried {
		seen[availability.NormalizeCity(city)] = true
	}

	candidates := c.table.Candidates(loc.City)
	if !c.opts.NearbyRetry {
		candidates = nil
	}
	for _, city := range candidates {
		if ctx.Err() != nil {
			c.logger.Warn().Err(ctx.Err()).Msg("Nearby-city retry cancelled")
			break
		}
		key := availability.NormalizeCity(city)
		if seen[key] {
			continue
		}
		seen[key] = true

		raw := run(ctx, loc.WithCity(city))
		c.logger.Info().
			Str("item", item).
			Str("from_city", loc.City).
			Str("to_city", city).
			Int("records", len(raw)).
			Msg("Nearby-city retry")
		if len(raw) > 0 {
			return Result{Raw: raw, City: city, Source: types.SourceFallbackCity}
		}
	}

	if !c.opts.Synthetic {
		return Result{City: loc.City, Source: types.SourceLive}
	}
	c.logger.Warn().
		Str("item", item).
		Str("category", category).
		Str("city", loc.City).
		Msg("No live data found, serving synthetic records")
	return Result{Raw: Synthetic(item, category, loc.City), City: loc.City, Source: types.SourceSynthetic}
}
