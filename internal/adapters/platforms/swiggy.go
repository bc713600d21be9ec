package platforms

import (
	"github.com/kosarica/price-aggregator/internal/adapters/base"
	"github.com/kosarica/price-aggregator/internal/adapters/config"
	"github.com/kosarica/price-aggregator/internal/browser"
)

var swiggy = spec{
	selectors: base.SelectorSet{
		Card:         []string{`div[data-testid="normal-dish-item"]`, `div[data-testid="resturant-card-name"]`},
		Name:         []string{`div[aria-hidden="true"][class*="dish-name"]`, "h3", `div[class*="name"]`},
		Price:        []string{`span[class*="rupee"]`, `div[class*="price"]`},
		Image:        []string{"img"},
		Link:         []string{"a"},
		DeliveryTime: []string{`div[class*="sla"]`},
		Offer:        []string{`div[class*="offer"]`},
	},
	waitSelector:  `div[data-testid="normal-dish-item"]`,
	locationInput: `input[name="location"]`,
}

// NewSwiggyAdapter creates the Swiggy food adapter
func NewSwiggyAdapter(fetcher browser.PageFetcher) (*base.BaseAdapter, error) {
	return newAdapter(config.PlatformSwiggy, fetcher, swiggy)
}
