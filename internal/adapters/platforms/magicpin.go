package platforms

import (
	"github.com/kosarica/price-aggregator/internal/adapters/base"
	"github.com/kosarica/price-aggregator/internal/adapters/config"
	"github.com/kosarica/price-aggregator/internal/browser"
)

var magicpin = spec{
	selectors: base.SelectorSet{
		Card:  []string{"article.merchant-card", `div[class*="merchant-card"]`},
		Name:  []string{".merchant-name", "h2"},
		Price: []string{".merchant-cost", `span[class*="price"]`},
		Image: []string{"img"},
		Link:  []string{"a.merchant-link", "a"},
		Offer: []string{".merchant-offer"},
	},
}

// NewMagicpinAdapter creates the Magicpin adapter
func NewMagicpinAdapter(fetcher browser.PageFetcher) (*base.BaseAdapter, error) {
	return newAdapter(config.PlatformMagicpin, fetcher, magicpin)
}
