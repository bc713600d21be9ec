// Package optimizer splits a cart across platforms so every item is bought
// where it is cheapest, and reports the savings against an explicit baseline.
package optimizer

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kosarica/price-aggregator/internal/types"
)

// Service validates optimization requests and runs both strategies.
type Service struct {
	config  *Config
	metrics *MetricsRecorder
	logger  zerolog.Logger
}

// NewService creates a new optimizer service. A nil cfg uses Defaults.
func NewService(cfg *Config) *Service {
	if cfg == nil {
		cfg = Defaults()
	}
	return &Service{
		config:  cfg,
		metrics: NewMetricsRecorder(),
		logger:  log.With().Str("component", "optimizer").Logger(),
	}
}

// Optimize assigns each cart line to its cheapest platform and measures
// savings against the cheapest platform that carries the whole cart.
func (s *Service) Optimize(ctx context.Context, items []CartItem, prices []types.PriceRecord) (*Result, error) {
	startTime := time.Now()
	defer func() {
		s.metrics.RecordOptimizationDuration(BaselineWholeCart, time.Since(startTime))
	}()

	if err := validateCart(s.config, len(items)); err != nil {
		s.metrics.RecordError(BaselineWholeCart)
		return nil, err
	}
	for i, it := range items {
		if err := validateLine(s.config, i, it.Name, it.Quantity); err != nil {
			s.metrics.RecordError(BaselineWholeCart)
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.metrics.RecordCartSize(len(items))

	res := optimize(s.config, items, prices)
	s.metrics.RecordOutcome(BaselineWholeCart, len(res.Breakdown), res.Savings, len(res.DroppedItems))
	s.logger.Debug().
		Int("items", len(items)).
		Int("prices", len(prices)).
		Int("platforms", len(res.Breakdown)).
		Float64("total", res.Total).
		Float64("savings", res.Savings).
		Strs("dropped", res.DroppedItems).
		Msg("Cart optimized")
	return &res, nil
}

// Plan picks the cheapest available offer of every persisted cart line and
// measures savings against the first available offer of that line.
func (s *Service) Plan(ctx context.Context, items []PersistedCartItem) (*PlanResult, error) {
	startTime := time.Now()
	defer func() {
		s.metrics.RecordOptimizationDuration(BaselineFirstAvailable, time.Since(startTime))
	}()

	if err := validateCart(s.config, len(items)); err != nil {
		s.metrics.RecordError(BaselineFirstAvailable)
		return nil, err
	}
	for i, it := range items {
		if err := validateLine(s.config, i, it.Name, it.Quantity); err != nil {
			s.metrics.RecordError(BaselineFirstAvailable)
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.metrics.RecordCartSize(len(items))

	res := Plan(items)
	s.metrics.RecordOutcome(BaselineFirstAvailable, len(res.Suggestions), res.TotalSavings, len(res.DroppedItems))
	return &res, nil
}

// Optimize runs the whole-cart strategy with the default configuration.
func Optimize(items []CartItem, prices []types.PriceRecord) Result {
	return optimize(Defaults(), items, prices)
}

type pick struct {
	item   CartItem
	record types.PriceRecord
}

func platformKey(r types.PriceRecord) string {
	if r.PlatformID != "" {
		return r.PlatformID
	}
	return strings.ToLower(r.Platform)
}

func optimize(cfg *Config, items []CartItem, prices []types.PriceRecord) Result {
	res := Result{
		Baseline:     BaselineWholeCart,
		Breakdown:    []Group{},
		DroppedItems: []string{},
	}

	usable := func(r types.PriceRecord) bool {
		return r.Priced() && (cfg.IncludeOutOfStock || r.InStock)
	}

	// item key -> candidate record indices in input order
	byItem := make(map[string][]int)
	// platform keys in first-seen order
	var platforms []string
	seenPlatform := make(map[string]bool)
	for i, r := range prices {
		if !usable(r) {
			continue
		}
		k := itemKey(r.Item)
		byItem[k] = append(byItem[k], i)
		if pk := platformKey(r); !seenPlatform[pk] {
			seenPlatform[pk] = true
			platforms = append(platforms, pk)
		}
	}

	picks := make([]pick, 0, len(items))
	for _, it := range items {
		idx := byItem[itemKey(it.Name)]
		if len(idx) == 0 {
			res.DroppedItems = append(res.DroppedItems, it.Name)
			continue
		}
		best := prices[idx[0]]
		for _, j := range idx[1:] {
			if prices[j].Price < best.Price {
				best = prices[j]
			}
		}
		picks = append(picks, pick{item: it, record: best})
	}
	res.Partial = len(res.DroppedItems) > 0

	groupIdx := make(map[string]int)
	for _, p := range picks {
		pk := platformKey(p.record)
		gi, ok := groupIdx[pk]
		if !ok {
			gi = len(res.Breakdown)
			groupIdx[pk] = gi
			res.Breakdown = append(res.Breakdown, Group{
				Platform:    p.record.Platform,
				Items:       []string{},
				DeliveryFee: p.record.DeliveryFee,
			})
		}
		res.Breakdown[gi].Items = append(res.Breakdown[gi].Items, p.item.Name)
		res.Breakdown[gi].Subtotal += p.record.Price * float64(p.item.qty())
	}
	for _, g := range res.Breakdown {
		res.Total += g.Subtotal + g.DeliveryFee
	}

	if len(items) > 0 {
		for _, pk := range platforms {
			total, name, ok := wholeCartAt(prices, byItem, items, pk)
			if !ok {
				continue
			}
			if res.BaselineTotal == nil || total < *res.BaselineTotal {
				t := total
				res.BaselineTotal = &t
				res.BaselinePlatform = name
			}
		}
	}
	if res.BaselineTotal != nil {
		res.Savings = math.Max(0, *res.BaselineTotal-res.Total)
	}

	res.Message = summarize(cfg.CurrencySymbol, res)
	return res
}

// wholeCartAt prices the entire cart on one platform, using that platform's
// cheapest record per item and a single delivery fee. ok is false when the
// platform lacks any item.
func wholeCartAt(prices []types.PriceRecord, byItem map[string][]int, items []CartItem, pk string) (total float64, name string, ok bool) {
	var deliveryFee float64
	for n, it := range items {
		found := -1
		for _, j := range byItem[itemKey(it.Name)] {
			if platformKey(prices[j]) != pk {
				continue
			}
			if found < 0 || prices[j].Price < prices[found].Price {
				found = j
			}
		}
		if found < 0 {
			return 0, "", false
		}
		if n == 0 {
			deliveryFee = prices[found].DeliveryFee
			name = prices[found].Platform
		}
		total += prices[found].Price * float64(it.qty())
	}
	return total + deliveryFee, name, true
}

func summarize(currency string, res Result) string {
	switch len(res.Breakdown) {
	case 0:
		return "No prices found for the requested items."
	case 1:
		return fmt.Sprintf("Buy all from %s: total %s%s.", res.Breakdown[0].Platform, currency, formatAmount(res.Total))
	}

	parts := make([]string, len(res.Breakdown))
	for i, g := range res.Breakdown {
		noun := "item"
		if len(g.Items) > 1 {
			noun = "items"
		}
		parts[i] = fmt.Sprintf("%d %s from %s", len(g.Items), noun, g.Platform)
	}
	return fmt.Sprintf("Buy %s, total %s%s (save %s%s compared to buying all from one platform).",
		strings.Join(parts, " and "), currency, formatAmount(res.Total), currency, formatAmount(res.Savings))
}

// formatAmount renders a rupee amount with at most two decimals.
func formatAmount(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

type linePlan struct {
	name     string
	platform string
	cost     float64
	savings  float64
}

// Plan runs the first-available strategy. Each line costs price*quantity
// plus the offer's delivery charge; lines with no available offer are dropped.
func Plan(items []PersistedCartItem) PlanResult {
	res := PlanResult{
		Baseline:     BaselineFirstAvailable,
		Suggestions:  []Suggestion{},
		DroppedItems: []string{},
	}

	lines := make([]linePlan, 0, len(items))
	for _, it := range items {
		q := float64(it.qty())
		var best *PlatformOffer
		bestCost := math.Inf(1)
		baseline, haveBaseline := 0.0, false
		for i := range it.Platforms {
			o := &it.Platforms[i]
			if !o.Available {
				continue
			}
			cost := o.Price*q + o.DeliveryCharge
			if cost < bestCost {
				bestCost = cost
				best = o
			}
			if !haveBaseline {
				baseline, haveBaseline = cost, true
			}
		}
		if best == nil {
			res.DroppedItems = append(res.DroppedItems, it.Name)
			continue
		}
		lines = append(lines, linePlan{
			name:     it.Name,
			platform: best.Platform,
			cost:     bestCost,
			savings:  baseline - bestCost,
		})
	}

	groupIdx := make(map[string]int)
	for _, l := range lines {
		gi, ok := groupIdx[l.platform]
		if !ok {
			gi = len(res.Suggestions)
			groupIdx[l.platform] = gi
			res.Suggestions = append(res.Suggestions, Suggestion{Platform: l.platform, Items: []string{}})
		}
		s := &res.Suggestions[gi]
		s.Items = append(s.Items, l.name)
		s.TotalCost += l.cost
		s.Savings += l.savings
		res.TotalCost += l.cost
		res.TotalSavings += l.savings
	}
	for i := range res.Suggestions {
		res.Suggestions[i].TotalSavings = res.TotalSavings
	}
	sort.SliceStable(res.Suggestions, func(i, j int) bool {
		return res.Suggestions[i].Savings > res.Suggestions[j].Savings
	})
	return res
}
