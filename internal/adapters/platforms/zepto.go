package platforms

import (
	"github.com/kosarica/price-aggregator/internal/adapters/base"
	"github.com/kosarica/price-aggregator/internal/adapters/config"
	"github.com/kosarica/price-aggregator/internal/browser"
)

var zepto = spec{
	selectors: base.SelectorSet{
		Card:          []string{`[data-testid="product-card"]`, `a[href*="/pn/"]`},
		Name:          []string{`[data-testid="product-card-name"]`, "h5", "h4"},
		Price:         []string{`[data-testid="product-card-price"]`, `h4[class*="price"]`, `span[class*="price"]`},
		OriginalPrice: []string{`p[class*="line-through"]`, "del"},
		Image:         []string{"img"},
		Link:          []string{`a[href*="/pn/"]`},
		DeliveryTime:  []string{`[data-testid="eta"]`},
		OutOfStock:    []string{`[data-testid="out-of-stock"]`},
	},
	waitSelector:  `[data-testid="product-card"]`,
	locationInput: `input[placeholder*="Search a new address"]`,
}

// NewZeptoAdapter creates the Zepto adapter
func NewZeptoAdapter(fetcher browser.PageFetcher) (*base.BaseAdapter, error) {
	return newAdapter(config.PlatformZepto, fetcher, zepto)
}
