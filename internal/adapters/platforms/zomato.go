package platforms

import (
	"github.com/kosarica/price-aggregator/internal/adapters/base"
	"github.com/kosarica/price-aggregator/internal/adapters/config"
	"github.com/kosarica/price-aggregator/internal/browser"
)

// Zomato lists restaurants rather than products; the dish price shown on a
// card is usually "₹250 for one", which still parses to a numeric value.
var zomato = spec{
	selectors: base.SelectorSet{
		Card:         []string{`div[class*="jumbo-tracker"]`, `div[class*="sc-1mo3ldo"]`},
		Name:         []string{"h4", `a[class*="name"]`},
		Price:        []string{`p[class*="cost"]`, `p:contains("for one")`},
		Image:        []string{"img"},
		Link:         []string{"a"},
		DeliveryTime: []string{`div[class*="min"]`},
		Offer:        []string{`p[class*="offer"]`},
	},
	waitSelector:  `div[class*="jumbo-tracker"]`,
	locationInput: `input[placeholder*="Search for area"]`,
}

// NewZomatoAdapter creates the Zomato adapter
func NewZomatoAdapter(fetcher browser.PageFetcher) (*base.BaseAdapter, error) {
	return newAdapter(config.PlatformZomato, fetcher, zomato)
}
