package platforms

import (
	"github.com/kosarica/price-aggregator/internal/adapters/base"
	"github.com/kosarica/price-aggregator/internal/adapters/config"
	"github.com/kosarica/price-aggregator/internal/browser"
)

var oneMg = spec{
	selectors: base.SelectorSet{
		Card:          []string{`div[class*="style__product-box"]`, `div[class*="style__horizontal-card"]`},
		Name:          []string{`div[class*="style__pro-title"]`, `span[class*="style__pro-title"]`},
		Price:         []string{`div[class*="style__price-tag"]`, `span[class*="style__price-tag"]`},
		OriginalPrice: []string{`span[class*="style__discount-price"]`},
		Image:         []string{"img"},
		Link:          []string{"a"},
		OutOfStock:    []string{`div[class*="style__out-of-stock"]`},
	},
}

// New1mgAdapter creates the Tata 1mg adapter
func New1mgAdapter(fetcher browser.PageFetcher) (*base.BaseAdapter, error) {
	return newAdapter(config.Platform1mg, fetcher, oneMg)
}
