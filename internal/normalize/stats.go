package normalize

import (
	"math"

	"github.com/kosarica/price-aggregator/internal/types"
)

// PriceRange summarizes the item prices of a result set.
type PriceRange struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
}

// Summarize computes the price range over parsed records. It returns nil
// when no record carries a parsed price.
func Summarize(records []types.PriceRecord) *PriceRange {
	var (
		pr    PriceRange
		sum   float64
		count int
	)
	for _, r := range records {
		if !r.Priced() {
			continue
		}
		if count == 0 || r.Price < pr.Min {
			pr.Min = r.Price
		}
		if count == 0 || r.Price > pr.Max {
			pr.Max = r.Price
		}
		sum += r.Price
		count++
	}
	if count == 0 {
		return nil
	}
	pr.Average = math.Round(sum / float64(count))
	return &pr
}

// Platforms lists the distinct platform names of records in first-seen order.
func Platforms(records []types.PriceRecord) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, r := range records {
		if seen[r.Platform] {
			continue
		}
		seen[r.Platform] = true
		out = append(out, r.Platform)
	}
	return out
}
