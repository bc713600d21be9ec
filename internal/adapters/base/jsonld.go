package base

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"

	"github.com/kosarica/price-aggregator/internal/types"
)

const jsonLDXPath = `//script[@type="application/ld+json"]`

// ExtractJSONLD reads schema.org Product entries from JSON-LD script blocks.
// ItemList and @graph containers are unwrapped.
func ExtractJSONLD(html string, max int) ([]types.RawRecord, error) {
	doc, err := htmlquery.Parse(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	nodes, err := htmlquery.QueryAll(doc, jsonLDXPath)
	if err != nil {
		return nil, fmt.Errorf("query json-ld: %w", err)
	}

	var records []types.RawRecord
	for _, node := range nodes {
		raw := strings.TrimSpace(htmlquery.InnerText(node))
		if raw == "" {
			continue
		}
		var data any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			continue
		}
		collectProducts(data, &records, max)
		if len(records) >= max {
			break
		}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no products in %d json-ld blocks", len(nodes))
	}
	return records, nil
}

func collectProducts(v any, out *[]types.RawRecord, max int) {
	if len(*out) >= max {
		return
	}
	switch t := v.(type) {
	case []any:
		for _, e := range t {
			collectProducts(e, out, max)
		}
	case map[string]any:
		if hasType(t, "Product") {
			if rec, ok := productRecord(t); ok {
				*out = append(*out, rec)
			}
			return
		}
		for _, key := range []string{"@graph", "itemListElement", "item"} {
			if inner, ok := t[key]; ok {
				collectProducts(inner, out, max)
			}
		}
	}
}

func hasType(obj map[string]any, want string) bool {
	switch t := obj["@type"].(type) {
	case string:
		return t == want
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

func productRecord(obj map[string]any) (types.RawRecord, bool) {
	name := stringOf(obj["name"])
	if name == "" {
		return types.RawRecord{}, false
	}
	rec := types.RawRecord{
		Name:  name,
		Image: firstString(obj["image"]),
		Link:  stringOf(obj["url"]),
	}

	offer := obj["offers"]
	if list, ok := offer.([]any); ok && len(list) > 0 {
		offer = list[0]
	}
	if o, ok := offer.(map[string]any); ok {
		price := stringOf(o["price"])
		if price == "" {
			price = stringOf(o["lowPrice"])
		}
		rec.Price = price
		if avail := stringOf(o["availability"]); strings.Contains(avail, "OutOfStock") {
			inStock := false
			rec.InStock = &inStock
		}
	}
	return rec, true
}

func stringOf(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func firstString(v any) string {
	if list, ok := v.([]any); ok {
		for _, e := range list {
			if s := stringOf(e); s != "" {
				return s
			}
			if m, ok := e.(map[string]any); ok {
				if s := stringOf(m["url"]); s != "" {
					return s
				}
			}
		}
		return ""
	}
	if m, ok := v.(map[string]any); ok {
		return stringOf(m["url"])
	}
	return stringOf(v)
}
