package platforms

import (
	"github.com/kosarica/price-aggregator/internal/adapters/base"
	"github.com/kosarica/price-aggregator/internal/adapters/config"
	"github.com/kosarica/price-aggregator/internal/browser"
)

var pharmEasy = spec{
	selectors: base.SelectorSet{
		Card:          []string{`div[class*="ProductCard_medicineUnitWrapper"]`, `div[class*="Search_medicineLists"] > div`},
		Name:          []string{`h1[class*="ProductCard_medicineName"]`, "h1"},
		Price:         []string{`div[class*="ProductCard_ourPrice"]`, `span[class*="ProductCard_gcdDiscountContainer"] span`},
		OriginalPrice: []string{`span[class*="ProductCard_striked"]`},
		Image:         []string{"img"},
		Link:          []string{"a"},
		OutOfStock:    []string{`div[class*="ProductCard_outOfStock"]`},
	},
}

// NewPharmEasyAdapter creates the PharmEasy adapter
func NewPharmEasyAdapter(fetcher browser.PageFetcher) (*base.BaseAdapter, error) {
	return newAdapter(config.PlatformPharmEasy, fetcher, pharmEasy)
}
