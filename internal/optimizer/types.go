package optimizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Baseline names the reference a result's savings are measured against.
type Baseline string

const (
	// BaselineWholeCart is the cheapest single platform that carries every item.
	BaselineWholeCart Baseline = "whole-cart-single-platform"

	// BaselineFirstAvailable is, per item, the first platform offering it.
	BaselineFirstAvailable Baseline = "first-available-platform"
)

// CartItem is one requested line of a cart.
type CartItem struct {
	Name     string `json:"name" jsonschema:"required,minLength=1"`
	Quantity int    `json:"requestedQuantity,omitempty" jsonschema:"minimum=0,description=Defaults to 1"`
}

// qty returns the effective quantity of the line.
func (c CartItem) qty() int {
	if c.Quantity <= 0 {
		return 1
	}
	return c.Quantity
}

// Group is the share of the cart bought from one platform.
type Group struct {
	Platform    string   `json:"platform"`
	Items       []string `json:"items"`
	Subtotal    float64  `json:"subtotal"`
	DeliveryFee float64  `json:"deliveryFee"`
}

// Result is the outcome of a whole-cart optimization.
type Result struct {
	Baseline  Baseline `json:"baseline"`
	Breakdown []Group  `json:"breakdown"`
	Total     float64  `json:"total"`
	Savings   float64  `json:"savings"`
	// BaselineTotal is nil when no single platform carries every item.
	BaselineTotal    *float64 `json:"baselineTotal"`
	BaselinePlatform string   `json:"baselinePlatform,omitempty"`
	Message          string   `json:"message"`
	DroppedItems     []string `json:"droppedItems"`
	Partial          bool     `json:"partial"`
}

// PlatformOffer is what one platform asks for one persisted cart item.
type PlatformOffer struct {
	Platform       string  `json:"platform"`
	Price          float64 `json:"price" jsonschema:"minimum=0"`
	DeliveryCharge float64 `json:"deliveryCharge" jsonschema:"minimum=0"`
	Coupon         string  `json:"coupon,omitempty"`
	Available      bool    `json:"available"`
}

// OfferList keeps offers in the order they were supplied. It decodes from a
// JSON array of offers or from an object keyed by platform name; object keys
// keep their document order.
type OfferList []PlatformOffer

// UnmarshalJSON implements json.Unmarshaler.
func (l *OfferList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}
	if trimmed[0] == '[' {
		var offers []PlatformOffer
		if err := json.Unmarshal(trimmed, &offers); err != nil {
			return err
		}
		*l = offers
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("platforms: expected array or object")
	}
	var out OfferList
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var offer PlatformOffer
		if err := dec.Decode(&offer); err != nil {
			return fmt.Errorf("platforms.%s: %w", key, err)
		}
		offer.Platform = key
		out = append(out, offer)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*l = out
	return nil
}

// PersistedCartItem is a saved cart line with its per-platform offers.
type PersistedCartItem struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name" jsonschema:"required,minLength=1"`
	Quantity  int       `json:"quantity,omitempty" jsonschema:"minimum=0,description=Defaults to 1"`
	Platforms OfferList `json:"platforms"`
}

func (c PersistedCartItem) qty() int {
	if c.Quantity <= 0 {
		return 1
	}
	return c.Quantity
}

// Suggestion groups the items whose cheapest offer is on one platform.
type Suggestion struct {
	Platform     string   `json:"platform"`
	Items        []string `json:"items"`
	TotalCost    float64  `json:"totalCost"`
	Savings      float64  `json:"savings"`
	TotalSavings float64  `json:"totalSavings"`
}

// PlanResult is the outcome of a persisted-cart optimization.
type PlanResult struct {
	Baseline     Baseline     `json:"baseline"`
	Suggestions  []Suggestion `json:"suggestions"`
	TotalCost    float64      `json:"totalCost"`
	TotalSavings float64      `json:"totalSavings"`
	DroppedItems []string     `json:"droppedItems"`
}

// itemKey is how cart lines are matched to price records.
func itemKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ErrInvalidRequest is returned when the optimization request is invalid.
type ErrInvalidRequest struct {
	Field  string
	Reason string
	Index  int
}

func (e ErrInvalidRequest) Error() string {
	return e.Field + ": " + e.Reason
}

func validateCart(cfg *Config, n int) error {
	if n < cfg.MinCartItems {
		return ErrInvalidRequest{Field: "items", Reason: "must have at least one item", Index: -1}
	}
	if n > cfg.MaxCartItems {
		return ErrInvalidRequest{Field: "items", Reason: "exceeds maximum allowed", Index: -1}
	}
	return nil
}

func validateLine(cfg *Config, i int, name string, qty int) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidRequest{Field: "items", Reason: fmt.Sprintf("item at index %d has no name", i), Index: i}
	}
	if qty < 0 || qty > cfg.MaxQuantity {
		return ErrInvalidRequest{Field: "items", Reason: fmt.Sprintf("item at index %d has invalid quantity", i), Index: i}
	}
	return nil
}
