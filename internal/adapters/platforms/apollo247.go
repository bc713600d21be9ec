package platforms

import (
	"github.com/kosarica/price-aggregator/internal/adapters/base"
	"github.com/kosarica/price-aggregator/internal/adapters/config"
	"github.com/kosarica/price-aggregator/internal/browser"
)

var apollo247 = spec{
	selectors: base.SelectorSet{
		Card:          []string{`div[class*="ProductCard_productCard"]`, `div[class*="ProductCard"]`},
		Name:          []string{`h2[class*="ProductCard_productName"]`, "h2"},
		Price:         []string{`p[class*="ProductCard_priceGroup"] span`, `span[class*="price"]`},
		OriginalPrice: []string{`span[class*="strike"]`},
		Image:         []string{"img"},
		Link:          []string{"a"},
		DeliveryTime:  []string{`div[class*="delivery"]`},
		OutOfStock:    []string{`span[class*="outOfStock"]`},
	},
	waitSelector:  `div[class*="ProductCard"]`,
	locationInput: `input[placeholder*="pincode"]`,
}

// NewApollo247Adapter creates the Apollo 24|7 adapter
func NewApollo247Adapter(fetcher browser.PageFetcher) (*base.BaseAdapter, error) {
	return newAdapter(config.PlatformApollo247, fetcher, apollo247)
}
