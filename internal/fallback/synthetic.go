package fallback

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"github.com/kosarica/price-aggregator/internal/adapters/config"
	"github.com/kosarica/price-aggregator/internal/types"
)

type syntheticSlot struct {
	platform     config.PlatformID
	deliveryFee  float64
	offer        string
	rating       float64
	deliveryTime string
}

type priceRange struct {
	min, max float64
}

var syntheticSlots = map[config.Category][]syntheticSlot{
	config.CategoryGroceries: {
		{config.PlatformZepto, 30, "10% off on first order", 4.5, "30-60 minutes"},
		{config.PlatformBlinkit, 25, "Free delivery on first order", 4.0, "45-75 minutes"},
		{config.PlatformBigBasket, 40, "20% off on groceries", 4.8, "30-60 minutes"},
	},
	config.CategoryFood: {
		{config.PlatformZomato, 35, "Flat ₹100 off above ₹399", 4.2, "35-45 minutes"},
		{config.PlatformSwiggy, 30, "Free delivery above ₹199", 4.1, "30-40 minutes"},
		{config.PlatformMagicpin, 20, "Extra 10% magicpin cashback", 3.9, "40-50 minutes"},
	},
	config.CategoryMedicines: {
		{config.Platform1mg, 25, "Flat 15% off on medicines", 4.4, "1-2 days"},
		{config.PlatformApollo247, 0, "Free delivery above ₹300", 4.3, "2-4 hours"},
		{config.PlatformPharmEasy, 30, "Up to 20% off with code SAVE20", 4.2, "1-2 days"},
	},
}

var syntheticPrices = map[config.Category]priceRange{
	config.CategoryGroceries: {80, 200},
	config.CategoryFood:      {150, 450},
	config.CategoryMedicines: {20, 300},
}

// Synthetic produces plausible sample records for a category. The output is a
// pure function of (item, category, city), so repeated calls agree.
func Synthetic(item, category, city string) []types.RawRecord {
	cat := config.Category(category)
	slots, ok := syntheticSlots[cat]
	if !ok {
		return nil
	}
	pr := syntheticPrices[cat]

	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s", strings.ToLower(strings.TrimSpace(item)), cat, strings.ToLower(strings.TrimSpace(city)))
	seed := h.Sum64()

	name := strings.TrimSpace(item)
	span := uint64(pr.max - pr.min)

	records := make([]types.RawRecord, 0, len(slots))
	for i, s := range slots {
		// 16 bits of the seed per slot.
		price := pr.min + float64((seed>>(uint(i)*16))%(span+1))
		original := math.Round(price * 1.1)
		fee := s.deliveryFee
		rating := s.rating
		inStock := true
		records = append(records, types.RawRecord{
			Platform:      string(s.platform),
			Name:          name,
			Price:         fmt.Sprintf("₹%.0f", price),
			OriginalPrice: fmt.Sprintf("₹%.0f", original),
			DeliveryFee:   &fee,
			Offer:         s.offer,
			Rating:        &rating,
			DeliveryTime:  s.deliveryTime,
			InStock:       &inStock,
		})
	}
	return records
}
