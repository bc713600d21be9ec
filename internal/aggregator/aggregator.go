// Package aggregator fans a search out to every platform available at a
// location and merges what comes back into normalized price records.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/kosarica/price-aggregator/internal/adapters/base"
	"github.com/kosarica/price-aggregator/internal/adapters/config"
	"github.com/kosarica/price-aggregator/internal/availability"
	"github.com/kosarica/price-aggregator/internal/fallback"
	"github.com/kosarica/price-aggregator/internal/location"
	"github.com/kosarica/price-aggregator/internal/normalize"
	"github.com/kosarica/price-aggregator/internal/telemetry"
	"github.com/kosarica/price-aggregator/internal/types"
)

var (
	// ErrUnsupportedCategory is returned for a category outside groceries, food and medicines.
	ErrUnsupportedCategory = errors.New("unsupported category")

	// ErrEmptyItem is returned when the search term is blank.
	ErrEmptyItem = errors.New("item is required")
)

// Outcome classifies how one adapter call settled.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeEmpty       Outcome = "empty"
	OutcomeError       Outcome = "error"
	OutcomeTimeout     Outcome = "timeout"
	OutcomePanic       Outcome = "panic"
	OutcomeCircuitOpen Outcome = "circuit_open"
	OutcomeCancelled   Outcome = "cancelled"
)

// PlatformOutcome reports one adapter call.
type PlatformOutcome struct {
	Platform   string  `json:"platform"`
	City       string  `json:"city"`
	Outcome    Outcome `json:"outcome"`
	Records    int     `json:"records"`
	DurationMs int64   `json:"durationMs"`
	Error      string  `json:"error,omitempty"`
}

// Result is the outcome of one aggregation.
type Result struct {
	Item     string
	Category config.Category
	Location location.Location
	Records  []types.PriceRecord
	Source   types.DataSource
	// City is the city the records were actually fetched for.
	City     string
	Outcomes []PlatformOutcome
	Duration time.Duration
}

// AdapterSource resolves the adapters of a category in dispatch order.
type AdapterSource interface {
	ForCategory(category config.Category) ([]base.Adapter, error)
}

// Availability decides whether a platform serves a location.
type Availability interface {
	IsAvailable(platform, city, pincode string) bool
}

// Orchestrator runs the aggregation pipeline. It is safe for concurrent use.
type Orchestrator struct {
	adapters     AdapterSource
	availability Availability
	chain        *fallback.Chain
	config       *Config
	metrics      *MetricsRecorder
	tracer       trace.Tracer
	logger       zerolog.Logger

	mu       sync.Mutex
	breakers map[config.PlatformID]*CircuitBreaker
}

// NewOrchestrator creates an orchestrator. A nil availability uses the
// built-in registry and a nil cfg uses Defaults.
func NewOrchestrator(adapters AdapterSource, avail Availability, table *fallback.NearbyTable, cfg *Config) *Orchestrator {
	if cfg == nil {
		cfg = Defaults()
	}
	if avail == nil {
		avail = availability.Default()
	}
	return &Orchestrator{
		adapters:     adapters,
		availability: avail,
		chain: fallback.NewChain(table, fallback.Options{
			NearbyRetry: cfg.NearbyRetry,
			Synthetic:   cfg.SyntheticFallback,
		}),
		config:   cfg,
		metrics:  NewMetricsRecorder(),
		tracer:   telemetry.Tracer("aggregator"),
		logger:   log.With().Str("component", "aggregator").Logger(),
		breakers: make(map[config.PlatformID]*CircuitBreaker),
	}
}

// Aggregate returns normalized price records for item in category at loc.
// An invalid location yields an empty result without calling any adapter.
func (o *Orchestrator) Aggregate(ctx context.Context, item, category string, loc location.Location) (*Result, error) {
	start := time.Now()
	cat := config.Category(strings.ToLower(strings.TrimSpace(category)))
	res := &Result{
		Item:     strings.TrimSpace(item),
		Category: cat,
		Location: loc,
		Records:  []types.PriceRecord{},
		Source:   types.SourceLive,
		City:     loc.City,
	}

	if err := location.Check(loc); err != nil {
		o.metrics.RecordInvalidLocation()
		o.logger.Debug().Err(err).Str("city", loc.City).Str("pincode", loc.Pincode).Msg("Skipping aggregation for invalid location")
		return res, nil
	}
	if !config.IsValidCategory(string(cat)) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCategory, category)
	}
	if res.Item == "" {
		return nil, ErrEmptyItem
	}

	ctx, span := o.tracer.Start(ctx, "aggregator.Aggregate", trace.WithAttributes(
		attribute.String("item", res.Item),
		attribute.String("category", string(cat)),
		attribute.String("city", loc.City),
	))
	defer span.End()

	raw, outcomes, selected := o.dispatch(ctx, res.Item, cat, loc)
	res.Outcomes = append(res.Outcomes, outcomes...)
	tried := []string{loc.City}

	if selected == 0 && o.config.CityFallback {
		if major := o.chain.Table().MajorCity(loc.City); major != "" && availability.NormalizeCity(major) != availability.NormalizeCity(loc.City) {
			o.metrics.RecordFallback("major_city")
			sub := loc.WithCity(major)
			o.logger.Info().
				Str("city", loc.City).
				Str("major_city", major).
				Msg("No platform serves city, retrying with major city")
			raw, outcomes, _ = o.dispatch(ctx, res.Item, cat, sub)
			res.Outcomes = append(res.Outcomes, outcomes...)
			tried = append(tried, major)
			if len(raw) > 0 {
				res.City = major
				res.Source = types.SourceFallbackCity
			}
		}
	}

	if err := ctx.Err(); err != nil && len(raw) == 0 {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregation aborted")
		res.Duration = time.Since(start)
		return res, fmt.Errorf("aggregation aborted: %w", err)
	}

	if len(raw) == 0 {
		fb := o.chain.Run(ctx, res.Item, string(cat), loc, tried, func(ctx context.Context, l location.Location) []types.RawRecord {
			r, outs, _ := o.dispatch(ctx, res.Item, cat, l)
			res.Outcomes = append(res.Outcomes, outs...)
			return r
		})
		raw = fb.Raw
		res.City = fb.City
		res.Source = fb.Source
		switch fb.Source {
		case types.SourceFallbackCity:
			o.metrics.RecordFallback("nearby_city")
		case types.SourceSynthetic:
			o.metrics.RecordFallback("synthetic")
		}
	}

	res.Records = normalize.Normalize(raw, res.Item, string(cat), res.Source)
	res.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("records", len(res.Records)),
		attribute.String("data_source", string(res.Source)),
	)
	o.metrics.RecordAggregation(string(cat), string(res.Source), res.Duration)
	o.logger.Info().
		Str("request_id", telemetry.RequestID(ctx)).
		Str("item", res.Item).
		Str("category", string(cat)).
		Str("city", loc.City).
		Str("served_city", res.City).
		Str("source", string(res.Source)).
		Int("records", len(res.Records)).
		Dur("duration", res.Duration).
		Msg("Aggregation complete")
	return res, nil
}

// dispatch runs every adapter of category that serves loc and returns their
// records flattened in dispatch order, one outcome per adapter and the number
// of adapters selected.
func (o *Orchestrator) dispatch(ctx context.Context, item string, cat config.Category, loc location.Location) ([]types.RawRecord, []PlatformOutcome, int) {
	all, err := o.adapters.ForCategory(cat)
	if err != nil {
		o.logger.Error().Err(err).Str("category", string(cat)).Msg("Failed to resolve adapters")
		return nil, nil, 0
	}

	selected := make([]base.Adapter, 0, len(all))
	for _, a := range all {
		if o.availability.IsAvailable(string(a.ID()), loc.City, loc.Pincode) {
			selected = append(selected, a)
		}
	}
	if len(selected) == 0 {
		return nil, nil, 0
	}

	q := base.Query{Item: item, City: loc.City, Pincode: loc.Pincode}
	results := make([][]types.RawRecord, len(selected))
	outcomes := make([]PlatformOutcome, len(selected))

	var g errgroup.Group
	if o.config.MaxConcurrency > 0 {
		g.SetLimit(o.config.MaxConcurrency)
	}
	for i, a := range selected {
		g.Go(func() error {
			results[i], outcomes[i] = o.invoke(ctx, a, q)
			return nil
		})
	}
	_ = g.Wait()

	var flat []types.RawRecord
	for _, r := range results {
		flat = append(flat, r...)
	}
	return flat, outcomes, len(selected)
}

type fetchResult struct {
	records []types.RawRecord
	err     error
}

// invoke calls one adapter under the breaker and the per-adapter timeout.
// It never returns an error: every failure is reported as zero records.
func (o *Orchestrator) invoke(ctx context.Context, a base.Adapter, q base.Query) ([]types.RawRecord, PlatformOutcome) {
	platform := string(a.ID())
	out := PlatformOutcome{Platform: platform, City: q.City}
	start := time.Now()

	cb := o.breaker(a.ID())
	if !cb.Allow(ctx) {
		out.Outcome = OutcomeCircuitOpen
		o.metrics.RecordAdapterCall(platform, out.Outcome, 0, 0)
		return nil, out
	}

	ctx, span := o.tracer.Start(ctx, "adapter.Fetch", trace.WithAttributes(
		attribute.String("platform", platform),
		attribute.String("city", q.City),
	))
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, o.config.AdapterTimeout)
	defer cancel()

	// Buffered so an abandoned adapter can still finish and exit.
	done := make(chan fetchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fetchResult{err: fmt.Errorf("%w: %v", base.ErrAdapterPanic, r)}
			}
		}()
		records, err := a.Fetch(callCtx, q)
		done <- fetchResult{records: records, err: err}
	}()

	var records []types.RawRecord
	var err error
	select {
	case r := <-done:
		records, err = r.records, r.err
	case <-callCtx.Done():
		err = fmt.Errorf("adapter %s: %w", platform, callCtx.Err())
	}

	switch {
	case err == nil && len(records) == 0:
		out.Outcome = OutcomeEmpty
		records = nil
	case err == nil:
		out.Outcome = OutcomeOK
	case errors.Is(err, base.ErrAdapterPanic):
		out.Outcome = OutcomePanic
	case ctx.Err() != nil:
		// The caller gave up; the platform itself did not fail.
		out.Outcome = OutcomeCancelled
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		out.Outcome = OutcomeTimeout
	default:
		out.Outcome = OutcomeError
	}

	if err != nil {
		records = nil
		out.Error = err.Error()
		if out.Outcome != OutcomeCancelled {
			cb.RecordFailure(err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, string(out.Outcome))
		o.logger.Warn().
			Err(err).
			Str("request_id", telemetry.RequestID(ctx)).
			Str("platform", platform).
			Str("outcome", string(out.Outcome)).
			Msg("Adapter contributed no records")
	} else {
		cb.RecordSuccess()
	}

	if limit := o.config.MaxResultsPerPlatform; limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	// Adapters may hand back a shared slice.
	records = append([]types.RawRecord(nil), records...)
	for i := range records {
		if records[i].Platform == "" {
			records[i].Platform = platform
		}
	}

	out.Records = len(records)
	out.DurationMs = time.Since(start).Milliseconds()
	span.SetAttributes(attribute.Int("records", out.Records), attribute.String("outcome", string(out.Outcome)))
	o.metrics.RecordAdapterCall(platform, out.Outcome, time.Since(start), out.Records)
	return records, out
}

func (o *Orchestrator) breaker(id config.PlatformID) *CircuitBreaker {
	o.mu.Lock()
	defer o.mu.Unlock()
	cb, ok := o.breakers[id]
	if !ok {
		logger := o.logger.With().Str("platform", string(id)).Logger()
		cb = NewCircuitBreaker(string(id), o.config.Breaker, o.metrics, &logger)
		o.breakers[id] = cb
	}
	return cb
}

// Breakers returns a snapshot of every breaker created so far, in platform order.
func (o *Orchestrator) Breakers() []BreakerSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]BreakerSnapshot, 0, len(o.breakers))
	for _, id := range config.PlatformIDs {
		if cb, ok := o.breakers[id]; ok {
			out = append(out, cb.Snapshot())
		}
	}
	return out
}

// ResetBreaker closes the breaker of a platform. It reports false when the
// platform has no breaker yet.
func (o *Orchestrator) ResetBreaker(id config.PlatformID) bool {
	o.mu.Lock()
	cb, ok := o.breakers[id]
	o.mu.Unlock()
	if ok {
		cb.Reset()
	}
	return ok
}

// Config returns the orchestrator configuration.
func (o *Orchestrator) Config() *Config {
	return o.config
}
