package platforms

import (
	"github.com/kosarica/price-aggregator/internal/adapters/base"
	"github.com/kosarica/price-aggregator/internal/adapters/config"
	"github.com/kosarica/price-aggregator/internal/browser"
)

var instamart = spec{
	selectors: base.SelectorSet{
		Card:          []string{`div[data-testid="default_container_ux4"]`, `div[data-testid="ItemWidgetContainer"]`},
		Name:          []string{`div[class*="novMV"]`, `div[class*="item-name"]`},
		Price:         []string{`div[data-testid="item-offer-price"]`, `div[data-testid="itemMRPPrice"]`},
		OriginalPrice: []string{`div[data-testid="item-mrp-price"]`},
		Image:         []string{"img"},
		DeliveryTime:  []string{`div[class*="GOJ8s"]`},
		OutOfStock:    []string{`div[data-testid="sold-out"]`},
	},
	waitSelector:  `div[data-testid="ItemWidgetContainer"]`,
	locationInput: `input[placeholder*="Enter area"]`,
}

// NewInstamartAdapter creates the Swiggy Instamart adapter
func NewInstamartAdapter(fetcher browser.PageFetcher) (*base.BaseAdapter, error) {
	return newAdapter(config.PlatformInstamart, fetcher, instamart)
}
