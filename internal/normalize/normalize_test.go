package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/price-aggregator/internal/adapters/config"
	"github.com/kosarica/price-aggregator/internal/types"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in         string
		wantValue  float64
		wantStatus types.PriceStatus
	}{
		{"₹1,299", 1299, types.PriceParsed},
		{"Rs. 45.50", 45.5, types.PriceParsed},
		{"₹ 120 ₹150", 120, types.PriceParsed},
		{"१२०", 120, types.PriceParsed},
		{"₹४५", 45, types.PriceParsed},
		{"৩০০", 300, types.PriceParsed},
		{"１９９", 199, types.PriceParsed},
		{"٣٤٫٥", 34.5, types.PriceParsed},
		{"0", 0, types.PriceParsed},
		{"See Menu", 0, types.PriceUnparsed},
		{"", 0, types.PriceUnparsed},
		{"₹", 0, types.PriceUnparsed},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParsePrice(tt.in)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.InDelta(t, tt.wantValue, got.Value, 0.0001)
		})
	}
}

// TestParsePrice_FreeIsDistinctFromUnparsed verifies a genuine zero price is
// never confused with text that carried no number.
func TestParsePrice_FreeIsDistinctFromUnparsed(t *testing.T) {
	free := ParsePrice("₹0")
	missing := ParsePrice("Price on request")

	assert.Equal(t, free.Value, missing.Value)
	assert.True(t, free.Parsed())
	assert.False(t, missing.Parsed())
}

func TestRecord_Defaults(t *testing.T) {
	rec := Record(types.RawRecord{Platform: "zepto", Name: " Amul Milk 500ml ", Price: "₹28"}, "milk", "groceries", types.SourceLive)

	assert.Equal(t, "Zepto", rec.Platform)
	assert.Equal(t, "zepto", rec.PlatformID)
	assert.Equal(t, "milk", rec.Item)
	assert.Equal(t, "Amul Milk 500ml", rec.ProductName)
	assert.Equal(t, 28.0, rec.Price)
	assert.Equal(t, types.PriceParsed, rec.PriceStatus)
	assert.Equal(t, DefaultDeliveryFee, rec.DeliveryFee)
	assert.Equal(t, DefaultOffer, rec.Offer)
	assert.Equal(t, DefaultRating, rec.Rating)
	assert.Equal(t, DefaultDeliveryTime, rec.DeliveryTimeLabel)
	assert.True(t, rec.InStock)
	assert.Equal(t, DefaultLink, rec.Link)
	assert.Equal(t, DefaultImage, rec.Image)
	assert.Equal(t, config.LogoFor("zepto"), rec.Logo)
	assert.Equal(t, types.SourceLive, rec.DataSource)
	assert.Nil(t, rec.OriginalPrice)
}

func TestRecord_SuppliedFields(t *testing.T) {
	fee := 0.0
	rating := 4.6
	inStock := false
	rec := Record(types.RawRecord{
		Platform:      "Corner Shop",
		Name:          "Bread",
		Price:         "₹40",
		OriginalPrice: "₹50",
		Image:         "https://img/bread.png",
		Link:          "https://shop/bread",
		DeliveryFee:   &fee,
		Offer:         "Buy 1 get 1",
		Rating:        &rating,
		DeliveryTime:  "10 mins",
		InStock:       &inStock,
	}, "bread", "groceries", types.SourceFallbackCity)

	assert.Equal(t, "Corner Shop", rec.Platform)
	assert.Empty(t, rec.PlatformID)
	assert.Equal(t, config.PlaceholderLogo, rec.Logo)
	assert.Equal(t, 0.0, rec.DeliveryFee)
	assert.Equal(t, 4.6, rec.Rating)
	assert.False(t, rec.InStock)
	assert.Equal(t, "Buy 1 get 1", rec.Offer)
	assert.Equal(t, "10 mins", rec.DeliveryTimeLabel)
	assert.Equal(t, "https://shop/bread", rec.Link)
	require.NotNil(t, rec.OriginalPrice)
	assert.Equal(t, 50.0, *rec.OriginalPrice)
	assert.Equal(t, types.SourceFallbackCity, rec.DataSource)
}

func TestNormalize_MarksExactlyOneCheapest(t *testing.T) {
	fee10 := 10.0
	raw := []types.RawRecord{
		{Platform: "zepto", Price: "₹100"},                      // 130
		{Platform: "blinkit", Price: "₹115", DeliveryFee: &fee10}, // 125
		{Platform: "bigbasket", Price: "₹95"},                   // 125, later tie
		{Platform: "instamart", Price: "See price"},             // unparsed, 30
	}

	records := Normalize(raw, "milk", "groceries", types.SourceLive)
	require.Len(t, records, 4)

	cheapest := 0
	for _, r := range records {
		if r.IsCheapest {
			cheapest++
		}
	}
	assert.Equal(t, 1, cheapest)
	assert.True(t, records[1].IsCheapest, "first of the tied records wins")
	assert.Equal(t, types.PriceUnparsed, records[3].PriceStatus)
	assert.False(t, records[3].IsCheapest, "unparsed prices never win against parsed ones")
}

func TestNormalize_Empty(t *testing.T) {
	assert.Empty(t, Normalize(nil, "milk", "groceries", types.SourceLive))
	assert.Equal(t, -1, Cheapest(nil))
}

func TestCheapest_AllUnparsed(t *testing.T) {
	records := Normalize([]types.RawRecord{
		{Platform: "zomato", Price: "See Menu"},
		{Platform: "swiggy", Price: "Closed"},
	}, "biryani", "food", types.SourceLive)

	assert.True(t, records[0].IsCheapest)
	assert.False(t, records[1].IsCheapest)
}

func TestMarkCheapest_ClearsStaleFlags(t *testing.T) {
	records := []types.PriceRecord{
		{Platform: "A", Price: 50, DeliveryFee: 30, PriceStatus: types.PriceParsed, IsCheapest: true},
		{Platform: "B", Price: 40, DeliveryFee: 30, PriceStatus: types.PriceParsed, IsCheapest: true},
	}
	MarkCheapest(records)
	assert.False(t, records[0].IsCheapest)
	assert.True(t, records[1].IsCheapest)
}

func TestSummarize(t *testing.T) {
	records := []types.PriceRecord{
		{Platform: "Zepto", Price: 120, PriceStatus: types.PriceParsed},
		{Platform: "Blinkit", Price: 150, PriceStatus: types.PriceParsed},
		{Platform: "BigBasket", Price: 101, PriceStatus: types.PriceParsed},
		{Platform: "Zepto", Price: 0, PriceStatus: types.PriceUnparsed},
	}

	pr := Summarize(records)
	require.NotNil(t, pr)
	assert.Equal(t, 101.0, pr.Min)
	assert.Equal(t, 150.0, pr.Max)
	assert.Equal(t, 124.0, pr.Average)

	assert.Nil(t, Summarize(records[3:]))
	assert.Equal(t, []string{"Zepto", "Blinkit", "BigBasket"}, Platforms(records))
}
