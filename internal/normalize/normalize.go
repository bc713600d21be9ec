package normalize

import (
	"math"
	"strings"

	"github.com/kosarica/price-aggregator/internal/adapters/config"
	"github.com/kosarica/price-aggregator/internal/types"
)

// Defaults applied when a platform does not expose a field.
const (
	DefaultDeliveryFee  = 30.0
	DefaultOffer        = "Check platform for offers"
	DefaultRating       = 4.0
	DefaultDeliveryTime = "30-60 minutes"
	DefaultLink         = "#"
	DefaultImage        = "https://images.unsplash.com/photo-1550583724-b2692b85b150?w=200&h=200&fit=crop"
)

// Normalize maps raw scrape output onto the canonical record and marks the
// cheapest one. Input order is preserved.
func Normalize(raw []types.RawRecord, item, category string, source types.DataSource) []types.PriceRecord {
	records := make([]types.PriceRecord, 0, len(raw))
	for _, r := range raw {
		records = append(records, Record(r, item, category, source))
	}
	MarkCheapest(records)
	return records
}

// Record normalizes a single raw record. IsCheapest is left false.
func Record(r types.RawRecord, item, category string, source types.DataSource) types.PriceRecord {
	price := ParsePrice(r.Price)

	rec := types.PriceRecord{
		Platform:          config.DisplayName(r.Platform),
		Item:              item,
		ProductName:       strings.TrimSpace(r.Name),
		Price:             price.Value,
		PriceStatus:       price.Status,
		DeliveryFee:       DefaultDeliveryFee,
		Offer:             orDefault(r.Offer, DefaultOffer),
		Rating:            DefaultRating,
		DeliveryTimeLabel: orDefault(r.DeliveryTime, DefaultDeliveryTime),
		InStock:           true,
		Category:          category,
		Link:              orDefault(r.Link, DefaultLink),
		Image:             orDefault(r.Image, DefaultImage),
		Logo:              config.LogoFor(r.Platform),
		DataSource:        source,
	}
	if cfg, ok := config.Resolve(r.Platform); ok {
		rec.PlatformID = string(cfg.ID)
	}
	if r.DeliveryFee != nil && *r.DeliveryFee >= 0 && !math.IsNaN(*r.DeliveryFee) {
		rec.DeliveryFee = *r.DeliveryFee
	}
	if r.Rating != nil && *r.Rating > 0 {
		rec.Rating = *r.Rating
	}
	if r.InStock != nil {
		rec.InStock = *r.InStock
	}
	if r.OriginalPrice != "" {
		if op := ParsePrice(r.OriginalPrice); op.Parsed() && op.Value > price.Value {
			v := op.Value
			rec.OriginalPrice = &v
		}
	}
	return rec
}

// Cheapest returns the index of the record with the lowest price plus
// delivery, or -1 for an empty slice. Ties resolve to the earliest record.
// Unparsed prices are only considered when no record has a parsed price.
func Cheapest(records []types.PriceRecord) int {
	best := -1
	for i := range records {
		if !records[i].Priced() {
			continue
		}
		if best == -1 || records[i].TotalCost() < records[best].TotalCost() {
			best = i
		}
	}
	if best != -1 {
		return best
	}
	for i := range records {
		if best == -1 || records[i].TotalCost() < records[best].TotalCost() {
			best = i
		}
	}
	return best
}

// MarkCheapest sets IsCheapest on exactly one record and clears it on the rest.
func MarkCheapest(records []types.PriceRecord) {
	best := Cheapest(records)
	for i := range records {
		records[i].IsCheapest = i == best
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
