package base

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kosarica/price-aggregator/internal/adapters/config"
	"github.com/kosarica/price-aggregator/internal/browser"
	"github.com/kosarica/price-aggregator/internal/types"
)

// DefaultMaxResults caps the number of records one adapter call returns.
const DefaultMaxResults = 5

// ErrAdapterPanic marks an AdapterError produced by a recovered panic.
var ErrAdapterPanic = errors.New("adapter panicked")

// Query is what a platform is asked for.
type Query struct {
	Item    string
	City    string
	Pincode string
}

// Adapter is the contract every platform implements. The returned error is
// informational: callers treat any error as zero records.
type Adapter interface {
	ID() config.PlatformID
	Name() string
	Fetch(ctx context.Context, q Query) ([]types.RawRecord, error)
}

// AdapterError wraps a failure inside one platform adapter.
type AdapterError struct {
	Platform config.PlatformID
	Op       string
	Err      error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Platform, e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// AdapterConfig declares one platform's search surface.
type AdapterConfig struct {
	Platform      config.PlatformConfig
	Selectors     SelectorSet
	WaitSelector  string
	LocationInput string
	MaxResults    int
	Fetcher       browser.PageFetcher
}

// BaseAdapter implements Fetch for selector-driven platforms. Platform files
// only declare their URLs and selector chains.
type BaseAdapter struct {
	platform      config.PlatformConfig
	selectors     SelectorSet
	waitSelector  string
	locationInput string
	maxResults    int
	fetcher       browser.PageFetcher
	baseURL       *url.URL
	logger        zerolog.Logger
}

// NewBaseAdapter creates a new base adapter
func NewBaseAdapter(cfg AdapterConfig) (*BaseAdapter, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("%s: fetcher is required", cfg.Platform.ID)
	}
	if len(cfg.Selectors.Card) == 0 {
		return nil, fmt.Errorf("%s: at least one card selector is required", cfg.Platform.ID)
	}
	if !strings.Contains(cfg.Platform.SearchURL, "%s") {
		return nil, fmt.Errorf("%s: search URL must contain a %%s placeholder", cfg.Platform.ID)
	}
	baseURL, err := url.Parse(cfg.Platform.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid base URL: %w", cfg.Platform.ID, err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	return &BaseAdapter{
		platform:      cfg.Platform,
		selectors:     cfg.Selectors,
		waitSelector:  cfg.WaitSelector,
		locationInput: cfg.LocationInput,
		maxResults:    maxResults,
		fetcher:       cfg.Fetcher,
		baseURL:       baseURL,
		logger: log.With().
			Str("component", "adapter").
			Str("platform", string(cfg.Platform.ID)).
			Logger(),
	}, nil
}

// ID returns the platform id
func (a *BaseAdapter) ID() config.PlatformID {
	return a.platform.ID
}

// Name returns the platform display name
func (a *BaseAdapter) Name() string {
	return a.platform.Name
}

// SearchURL builds the search page URL for an item.
func (a *BaseAdapter) SearchURL(item string) string {
	return fmt.Sprintf(a.platform.SearchURL, url.QueryEscape(strings.TrimSpace(item)))
}

// Fetch loads the platform's search page and extracts up to MaxResults cards.
// Panics are recovered and reported as an AdapterError wrapping ErrAdapterPanic.
func (a *BaseAdapter) Fetch(ctx context.Context, q Query) (records []types.RawRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error().Interface("panic", r).Str("item", q.Item).Msg("Adapter panicked")
			records = nil
			err = &AdapterError{Platform: a.platform.ID, Op: "fetch", Err: fmt.Errorf("%w: %v", ErrAdapterPanic, r)}
		}
	}()

	searchURL := a.SearchURL(q.Item)
	html, err := a.fetcher.Fetch(ctx, browser.Request{
		URL:           searchURL,
		WaitSelector:  a.waitSelector,
		LocationInput: a.locationInput,
		Pincode:       q.Pincode,
	})
	if err != nil {
		a.logger.Warn().Err(err).Str("url", searchURL).Msg("Failed to load search page")
		return nil, &AdapterError{Platform: a.platform.ID, Op: "navigate", Err: err}
	}

	records = a.Parse(html)
	a.logger.Debug().
		Str("item", q.Item).
		Str("city", q.City).
		Int("records", len(records)).
		Msg("Search page parsed")
	return records, nil
}

// Parse extracts records from a rendered search page: CSS card selectors
// first, schema.org JSON-LD when no card matched.
func (a *BaseAdapter) Parse(html string) []types.RawRecord {
	records, err := ParseCards(html, a.selectors, a.maxResults)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Failed to parse search page")
	}
	if len(records) == 0 {
		ld, err := ExtractJSONLD(html, a.maxResults)
		if err != nil {
			a.logger.Debug().Err(err).Msg("No JSON-LD products")
		}
		records = ld
	}

	for i := range records {
		records[i].Platform = string(a.platform.ID)
		records[i].Link = a.resolve(records[i].Link)
		records[i].Image = a.resolve(records[i].Image)
	}
	return records
}

func (a *BaseAdapter) resolve(ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return a.baseURL.ResolveReference(u).String()
}
