// Package app wires configuration into the runtime components shared by the
// server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/kosarica/price-aggregator/config"
	"github.com/kosarica/price-aggregator/internal/adapters/registry"
	"github.com/kosarica/price-aggregator/internal/aggregator"
	"github.com/kosarica/price-aggregator/internal/analytics"
	"github.com/kosarica/price-aggregator/internal/availability"
	"github.com/kosarica/price-aggregator/internal/browser"
	httpclient "github.com/kosarica/price-aggregator/internal/http"
)

// Pipeline is the aggregation side of the service.
type Pipeline struct {
	Orchestrator *aggregator.Orchestrator
	Availability *availability.Registry
	Adapters     *registry.Registry
	Fetcher      browser.PageFetcher
}

// BuildPipeline creates the HTTP client, page fetchers, adapters and
// availability registry described by cfg.
func BuildPipeline(cfg *config.Config) (*Pipeline, error) {
	client := httpclient.NewClient(cfg.HTTPClient.Config, cfg.HTTPClient.Timeout)

	pageFetcher, err := browser.New(cfg.Browser, client)
	if err != nil {
		return nil, err
	}

	adapters := registry.NewRegistry()
	if err := registry.InitializeDefaultAdapters(adapters, pageFetcher, browser.NewHTTPFetcher(client)); err != nil {
		return nil, err
	}

	avail, nearby, err := cfg.LoadRegistry()
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		Orchestrator: aggregator.NewOrchestrator(adapters, avail, nearby, &cfg.Aggregator),
		Availability: avail,
		Adapters:     adapters,
		Fetcher:      pageFetcher,
	}, nil
}

// OpenStore opens the analytics backend named by storage.backend.
func OpenStore(ctx context.Context, cfg *config.Config) (analytics.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		s, err := analytics.NewPostgresStore(ctx, cfg.Database.Pool())
		if err != nil {
			return nil, fmt.Errorf("postgres store: %w", err)
		}
		return s, nil
	case config.BackendMongo:
		s, err := analytics.NewMongoStore(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("mongodb store: %w", err)
		}
		return s, nil
	case config.BackendNone:
		return analytics.NopStore{}, nil
	case config.BackendMemory, "":
		return analytics.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
