package optimizer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/price-aggregator/internal/types"
)

func rec(platform, item string, price, fee float64) types.PriceRecord {
	return types.PriceRecord{
		Platform:    platform,
		PlatformID:  platform,
		Item:        item,
		Price:       price,
		PriceStatus: types.PriceParsed,
		DeliveryFee: fee,
		InStock:     true,
	}
}

func assertAdditive(t *testing.T, res Result) {
	t.Helper()
	sum := 0.0
	for _, g := range res.Breakdown {
		sum += g.Subtotal + g.DeliveryFee
	}
	assert.Equal(t, sum, res.Total)
	assert.GreaterOrEqual(t, res.Savings, 0.0)
}

func TestOptimize_SplitAcrossPlatforms(t *testing.T) {
	items := []CartItem{{Name: "milk"}, {Name: "bread"}}
	prices := []types.PriceRecord{
		rec("X", "milk", 50, 20),
		rec("Y", "bread", 30, 25),
		rec("Z", "milk", 60, 40),
		rec("Z", "bread", 40, 40),
	}

	res := Optimize(items, prices)
	assertAdditive(t, res)

	require.Len(t, res.Breakdown, 2)
	assert.Equal(t, Group{Platform: "X", Items: []string{"milk"}, Subtotal: 50, DeliveryFee: 20}, res.Breakdown[0])
	assert.Equal(t, Group{Platform: "Y", Items: []string{"bread"}, Subtotal: 30, DeliveryFee: 25}, res.Breakdown[1])
	assert.Equal(t, 125.0, res.Total)

	require.NotNil(t, res.BaselineTotal)
	assert.Equal(t, 140.0, *res.BaselineTotal)
	assert.Equal(t, "Z", res.BaselinePlatform)
	assert.Equal(t, 15.0, res.Savings)
	assert.Equal(t, BaselineWholeCart, res.Baseline)
	assert.Equal(t, "Buy 1 item from X and 1 item from Y, total ₹125 (save ₹15 compared to buying all from one platform).", res.Message)
	assert.False(t, res.Partial)
}

func TestOptimize_SplitNeverNegative(t *testing.T) {
	items := []CartItem{{Name: "milk"}, {Name: "bread"}}
	prices := []types.PriceRecord{
		rec("X", "milk", 50, 20),
		rec("Y", "bread", 30, 25),
		rec("Z", "milk", 60, 5),
		rec("Z", "bread", 40, 5),
	}

	res := Optimize(items, prices)
	assertAdditive(t, res)
	assert.Equal(t, 125.0, res.Total)
	assert.Equal(t, 105.0, *res.BaselineTotal)
	assert.Equal(t, 0.0, res.Savings)
}

func TestOptimize_DroppedItem(t *testing.T) {
	items := []CartItem{{Name: "milk"}, {Name: "caviar"}}
	prices := []types.PriceRecord{
		rec("X", "milk", 50, 20),
		rec("Y", "milk", 45, 30),
	}

	res := Optimize(items, prices)
	assertAdditive(t, res)

	require.Len(t, res.Breakdown, 1)
	assert.Equal(t, "Y", res.Breakdown[0].Platform)
	assert.Equal(t, []string{"caviar"}, res.DroppedItems)
	assert.True(t, res.Partial)
	assert.Nil(t, res.BaselineTotal)
	assert.Equal(t, 0.0, res.Savings)
	assert.Equal(t, "Buy all from Y: total ₹75.", res.Message)
}

func TestOptimize_SinglePlatformHasNoSavings(t *testing.T) {
	items := []CartItem{{Name: "milk"}, {Name: "eggs"}}
	prices := []types.PriceRecord{
		rec("X", "milk", 50, 20),
		rec("X", "eggs", 70, 20),
		rec("Y", "milk", 55, 10),
		rec("Y", "eggs", 90, 10),
	}

	res := Optimize(items, prices)
	assertAdditive(t, res)
	require.Len(t, res.Breakdown, 1)
	assert.Equal(t, 140.0, res.Total)
	assert.Equal(t, 0.0, res.Savings)
	assert.Equal(t, "Buy all from X: total ₹140.", res.Message)
}

func TestOptimize_CheapestByPriceNotDelivery(t *testing.T) {
	res := Optimize([]CartItem{{Name: "milk"}}, []types.PriceRecord{
		rec("X", "milk", 50, 100),
		rec("Y", "milk", 51, 0),
	})
	require.Len(t, res.Breakdown, 1)
	assert.Equal(t, "X", res.Breakdown[0].Platform)
	assert.Equal(t, 150.0, res.Total)
}

func TestOptimize_TieKeepsFirstSeen(t *testing.T) {
	res := Optimize([]CartItem{{Name: "milk"}}, []types.PriceRecord{
		rec("X", "milk", 50, 10),
		rec("Y", "milk", 50, 0),
	})
	assert.Equal(t, "X", res.Breakdown[0].Platform)
}

func TestOptimize_QuantityAndMatching(t *testing.T) {
	items := []CartItem{{Name: " Milk ", Quantity: 3}}
	res := Optimize(items, []types.PriceRecord{rec("X", "milk", 20, 10)})
	assertAdditive(t, res)
	assert.Equal(t, 60.0, res.Breakdown[0].Subtotal)
	assert.Equal(t, 70.0, res.Total)
	assert.Equal(t, 70.0, *res.BaselineTotal)
}

func TestOptimize_SkipsUnparsedAndOutOfStock(t *testing.T) {
	unparsed := rec("X", "milk", 0, 10)
	unparsed.PriceStatus = types.PriceUnparsed
	gone := rec("Y", "milk", 5, 10)
	gone.InStock = false

	res := Optimize([]CartItem{{Name: "milk"}}, []types.PriceRecord{unparsed, gone, rec("Z", "milk", 40, 10)})
	require.Len(t, res.Breakdown, 1)
	assert.Equal(t, "Z", res.Breakdown[0].Platform)

	cfg := Defaults()
	cfg.IncludeOutOfStock = true
	res = optimize(cfg, []CartItem{{Name: "milk"}}, []types.PriceRecord{unparsed, gone, rec("Z", "milk", 40, 10)})
	assert.Equal(t, "Y", res.Breakdown[0].Platform)
}

func TestOptimize_Empty(t *testing.T) {
	res := Optimize(nil, nil)
	assert.Empty(t, res.Breakdown)
	assert.Equal(t, 0.0, res.Total)
	assert.Equal(t, 0.0, res.Savings)
	assert.Equal(t, "No prices found for the requested items.", res.Message)
}

func TestPlan_FirstAvailableBaseline(t *testing.T) {
	items := []PersistedCartItem{
		{Name: "milk", Quantity: 2, Platforms: OfferList{
			{Platform: "Zepto", Price: 30, DeliveryCharge: 20, Available: true},
			{Platform: "Blinkit", Price: 25, DeliveryCharge: 10, Available: true},
		}},
		{Name: "bread", Platforms: OfferList{
			{Platform: "BigBasket", Price: 10, DeliveryCharge: 0, Available: false},
			{Platform: "Zepto", Price: 40, DeliveryCharge: 20, Available: true},
		}},
		{Name: "butter", Platforms: OfferList{
			{Platform: "Zepto", Price: 50, DeliveryCharge: 20, Available: false},
		}},
	}

	res := Plan(items)
	assert.Equal(t, BaselineFirstAvailable, res.Baseline)
	assert.Equal(t, []string{"butter"}, res.DroppedItems)

	require.Len(t, res.Suggestions, 2)
	// milk: Zepto 80 first, Blinkit 60 cheapest -> saves 20.
	assert.Equal(t, Suggestion{Platform: "Blinkit", Items: []string{"milk"}, TotalCost: 60, Savings: 20, TotalSavings: 20}, res.Suggestions[0])
	// bread: only Zepto available, first and cheapest.
	assert.Equal(t, Suggestion{Platform: "Zepto", Items: []string{"bread"}, TotalCost: 60, Savings: 0, TotalSavings: 20}, res.Suggestions[1])
	assert.Equal(t, 120.0, res.TotalCost)
	assert.Equal(t, 20.0, res.TotalSavings)
}

func TestPlan_FreeFirstOfferIsStillTheBaseline(t *testing.T) {
	res := Plan([]PersistedCartItem{{Name: "sample", Platforms: OfferList{
		{Platform: "A", Price: 0, DeliveryCharge: 0, Available: true},
		{Platform: "B", Price: 0, DeliveryCharge: 0, Available: true},
	}}})
	require.Len(t, res.Suggestions, 1)
	assert.Equal(t, "A", res.Suggestions[0].Platform)
	assert.Equal(t, 0.0, res.TotalSavings)
}

func TestOfferList_UnmarshalJSON(t *testing.T) {
	var item PersistedCartItem
	require.NoError(t, json.Unmarshal([]byte(`{
		"name": "milk",
		"quantity": 1,
		"platforms": {
			"Zepto": {"price": 30, "deliveryCharge": 20, "available": true},
			"Blinkit": {"price": 25, "deliveryCharge": 10, "coupon": "SAVE5", "available": true}
		}
	}`), &item))
	require.Len(t, item.Platforms, 2)
	assert.Equal(t, "Zepto", item.Platforms[0].Platform)
	assert.Equal(t, "Blinkit", item.Platforms[1].Platform)
	assert.Equal(t, "SAVE5", item.Platforms[1].Coupon)

	require.NoError(t, json.Unmarshal([]byte(`{"name":"milk","platforms":[{"platform":"Zepto","price":30,"available":true}]}`), &item))
	require.Len(t, item.Platforms, 1)
	assert.Equal(t, 30.0, item.Platforms[0].Price)

	assert.Error(t, json.Unmarshal([]byte(`{"name":"milk","platforms":"zepto"}`), &item))
}

func TestService_Validation(t *testing.T) {
	s := NewService(nil)
	ctx := context.Background()

	_, err := s.Optimize(ctx, nil, nil)
	var reqErr ErrInvalidRequest
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "items", reqErr.Field)

	_, err = s.Optimize(ctx, []CartItem{{Name: "milk"}, {Name: " "}}, nil)
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, 1, reqErr.Index)

	_, err = s.Plan(ctx, []PersistedCartItem{{Name: "milk", Quantity: 1000}})
	require.ErrorAs(t, err, &reqErr)

	res, err := s.Optimize(ctx, []CartItem{{Name: "milk"}}, []types.PriceRecord{rec("X", "milk", 10, 5)})
	require.NoError(t, err)
	assert.Equal(t, 15.0, res.Total)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Plan(cancelled, []PersistedCartItem{{Name: "milk"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, Defaults().Validate())

	cfg := Defaults()
	cfg.MaxCartItems = 0
	assert.Error(t, cfg.Validate())
}
