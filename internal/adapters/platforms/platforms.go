package platforms

import (
	"fmt"

	"github.com/kosarica/price-aggregator/internal/adapters/base"
	"github.com/kosarica/price-aggregator/internal/adapters/config"
	"github.com/kosarica/price-aggregator/internal/browser"
)

// Constructor builds one platform adapter on top of a page fetcher.
type Constructor func(fetcher browser.PageFetcher) (*base.BaseAdapter, error)

// Constructors maps every platform to its adapter constructor.
var Constructors = map[config.PlatformID]Constructor{
	config.PlatformZepto:     NewZeptoAdapter,
	config.PlatformBlinkit:   NewBlinkitAdapter,
	config.PlatformBigBasket: NewBigBasketAdapter,
	config.PlatformInstamart: NewInstamartAdapter,
	config.PlatformZomato:    NewZomatoAdapter,
	config.PlatformSwiggy:    NewSwiggyAdapter,
	config.PlatformMagicpin:  NewMagicpinAdapter,
	config.Platform1mg:       New1mgAdapter,
	config.PlatformApollo247: NewApollo247Adapter,
	config.PlatformPharmEasy: NewPharmEasyAdapter,
}

type spec struct {
	selectors     base.SelectorSet
	waitSelector  string
	locationInput string
}

func newAdapter(id config.PlatformID, fetcher browser.PageFetcher, s spec) (*base.BaseAdapter, error) {
	cfg, ok := config.GetPlatformConfig(id)
	if !ok {
		return nil, fmt.Errorf("no configuration for platform %s", id)
	}
	return base.NewBaseAdapter(base.AdapterConfig{
		Platform:      cfg,
		Selectors:     s.selectors,
		WaitSelector:  s.waitSelector,
		LocationInput: s.locationInput,
		MaxResults:    base.DefaultMaxResults,
		Fetcher:       fetcher,
	})
}
