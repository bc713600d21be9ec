package browser

import (
	"context"

	httpclient "github.com/kosarica/price-aggregator/internal/http"
)

// HTTPFetcher loads pages without a browser. It suits platforms whose search
// results are rendered server side. The location step is not supported.
type HTTPFetcher struct {
	client *httpclient.Client
}

// NewHTTPFetcher creates a plain HTTP fetcher.
func NewHTTPFetcher(client *httpclient.Client) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

// Name returns the driver name.
func (f *HTTPFetcher) Name() string {
	return DriverHTTP
}

// Fetch downloads req.URL and returns the body transcoded to UTF-8.
func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) (string, error) {
	return f.client.GetText(ctx, req.URL)
}
