package platforms

import (
	"github.com/kosarica/price-aggregator/internal/adapters/base"
	"github.com/kosarica/price-aggregator/internal/adapters/config"
	"github.com/kosarica/price-aggregator/internal/browser"
)

var bigBasket = spec{
	selectors: base.SelectorSet{
		Card:          []string{`li[class*="PaginateItems"]`, `div[qa="product"]`},
		Name:          []string{"h3", `a[qa="product_name"]`},
		Price:         []string{`span[class*="Pricing___StyledLabel-"]`, `span[class*="discnt-price"]`},
		OriginalPrice: []string{`span[class*="Pricing___StyledLabel2"]`, `span[class*="mp-price"]`},
		Image:         []string{"img"},
		Link:          []string{`a[href*="/pd/"]`, "a"},
		Offer:         []string{`span[class*="Offers"]`},
		OutOfStock:    []string{`button[class*="NotifyMe"]`},
	},
	waitSelector:  `li[class*="PaginateItems"]`,
	locationInput: `input[placeholder*="area"]`,
}

// NewBigBasketAdapter creates the BigBasket adapter
func NewBigBasketAdapter(fetcher browser.PageFetcher) (*base.BaseAdapter, error) {
	return newAdapter(config.PlatformBigBasket, fetcher, bigBasket)
}
