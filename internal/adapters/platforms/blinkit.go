package platforms

import (
	"github.com/kosarica/price-aggregator/internal/adapters/base"
	"github.com/kosarica/price-aggregator/internal/adapters/config"
	"github.com/kosarica/price-aggregator/internal/browser"
)

var blinkit = spec{
	selectors: base.SelectorSet{
		Card:          []string{`div[data-pf="reset"][role="button"]`, `div[class*="Product__Container"]`, `a[data-test-id="plp-product"]`},
		Name:          []string{`div[class*="line-clamp-2"]`, `div[class*="Product__ProductName"]`},
		Price:         []string{`div[class*="text-[12px] font-semibold"]`, `div[class*="Product__Price"]`},
		OriginalPrice: []string{`div[class*="line-through"]`},
		Image:         []string{"img"},
		Link:          []string{"a"},
		DeliveryTime:  []string{`div[class*="eta"]`, `div[class*="uppercase"]`},
		OutOfStock:    []string{`div[class*="out-of-stock"]`},
	},
	waitSelector:  `div[role="button"]`,
	locationInput: `input[name="select-locality"]`,
}

// NewBlinkitAdapter creates the Blinkit adapter
func NewBlinkitAdapter(fetcher browser.PageFetcher) (*base.BaseAdapter, error) {
	return newAdapter(config.PlatformBlinkit, fetcher, blinkit)
}
