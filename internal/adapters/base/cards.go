package base

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kosarica/price-aggregator/internal/types"
)

// SelectorSet lists CSS selector fallback chains. For each field the first
// selector that yields a non-empty value wins.
type SelectorSet struct {
	Card          []string
	Name          []string
	Price         []string
	OriginalPrice []string
	Image         []string
	Link          []string
	DeliveryTime  []string
	Offer         []string
	// OutOfStock selectors mark a card as unavailable when they match anything.
	OutOfStock []string
}

// ParseCards extracts at most max product cards from html.
func ParseCards(html string, sel SelectorSet, max int) ([]types.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var cards *goquery.Selection
	for _, s := range sel.Card {
		if found := doc.Find(s); found.Length() > 0 {
			cards = found
			break
		}
	}
	if cards == nil {
		return nil, nil
	}

	records := make([]types.RawRecord, 0, max)
	cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
		name := firstText(card, sel.Name)
		if name == "" {
			return true
		}
		rec := types.RawRecord{
			Name:          name,
			Price:         firstText(card, sel.Price),
			OriginalPrice: firstText(card, sel.OriginalPrice),
			Image:         firstAttr(card, sel.Image, "src", "data-src", "srcset"),
			Link:          firstAttr(card, sel.Link, "href"),
			DeliveryTime:  firstText(card, sel.DeliveryTime),
			Offer:         firstText(card, sel.Offer),
		}
		if rec.Link == "" {
			rec.Link, _ = card.Attr("href")
		}
		if matchesAny(card, sel.OutOfStock) {
			inStock := false
			rec.InStock = &inStock
		}
		records = append(records, rec)
		return len(records) < max
	})
	return records, nil
}

func firstText(card *goquery.Selection, selectors []string) string {
	for _, s := range selectors {
		if t := strings.Join(strings.Fields(card.Find(s).First().Text()), " "); t != "" {
			return t
		}
	}
	return ""
}

func firstAttr(card *goquery.Selection, selectors []string, attrs ...string) string {
	for _, s := range selectors {
		node := card.Find(s).First()
		for _, attr := range attrs {
			if v, ok := node.Attr(attr); ok && strings.TrimSpace(v) != "" {
				if attr == "srcset" {
					v = strings.Fields(v)[0]
				}
				return strings.TrimSpace(v)
			}
		}
	}
	return ""
}

func matchesAny(card *goquery.Selection, selectors []string) bool {
	for _, s := range selectors {
		if card.Find(s).Length() > 0 {
			return true
		}
	}
	return false
}
