package browser

import (
	"context"
	"fmt"
	"time"

	httpclient "github.com/kosarica/price-aggregator/internal/http"
)

// Driver names accepted in configuration.
const (
	DriverRod      = "rod"
	DriverChromedp = "chromedp"
	DriverHTTP     = "http"
)

// Request describes one page to load.
type Request struct {
	URL string
	// WaitSelector, when set, is awaited after navigation. A miss is not an error.
	WaitSelector string
	// LocationInput is the CSS selector of the site's own pincode box. Typing
	// Pincode into it is best effort and never aborts the fetch.
	LocationInput string
	Pincode       string
}

// PageFetcher loads a page and returns its rendered HTML. Implementations
// must release every resource they acquired before returning, whether the
// call succeeded, failed or its context was cancelled.
type PageFetcher interface {
	Name() string
	Fetch(ctx context.Context, req Request) (string, error)
}

// Config holds headless browser settings.
type Config struct {
	Driver              string        `mapstructure:"driver"`
	Headless            bool          `mapstructure:"headless"`
	NoSandbox           bool          `mapstructure:"no_sandbox"`
	BinPath             string        `mapstructure:"bin_path"`
	UserAgent           string        `mapstructure:"user_agent"`
	NavigationTimeout   time.Duration `mapstructure:"navigation_timeout"`
	StableWait          time.Duration `mapstructure:"stable_wait"`
	LocationStepTimeout time.Duration `mapstructure:"location_step_timeout"`
}

// DefaultConfig returns the default browser configuration.
func DefaultConfig() Config {
	return Config{
		Driver:              DriverRod,
		Headless:            true,
		NoSandbox:           true,
		UserAgent:           httpclient.DefaultUserAgent,
		NavigationTimeout:   45 * time.Second,
		StableWait:          500 * time.Millisecond,
		LocationStepTimeout: 5 * time.Second,
	}
}

// New returns the fetcher selected by cfg.Driver. The HTTP client is only
// used by the http driver.
func New(cfg Config, client *httpclient.Client) (PageFetcher, error) {
	switch cfg.Driver {
	case DriverRod, "":
		return NewRodFetcher(cfg), nil
	case DriverChromedp:
		return NewChromedpFetcher(cfg), nil
	case DriverHTTP:
		if client == nil {
			client = httpclient.NewClientDefault()
		}
		return NewHTTPFetcher(client), nil
	default:
		return nil, fmt.Errorf("unknown browser driver %q", cfg.Driver)
	}
}
