package types

// PriceStatus records whether a free-text price could be read.
type PriceStatus string

const (
	PriceParsed   PriceStatus = "parsed"
	PriceUnparsed PriceStatus = "unparsed"
)

// DataSource records where a price record came from.
type DataSource string

const (
	SourceLive         DataSource = "live"
	SourceFallbackCity DataSource = "fallback-city"
	SourceSynthetic    DataSource = "synthetic"
)

// RawRecord is one product card as scraped from a platform, before normalization.
// Optional fields are nil or empty when the platform did not expose them.
type RawRecord struct {
	Platform      string   `json:"platform"`
	Name          string   `json:"name"`
	Price         string   `json:"price"` // free text, e.g. "₹1,299"
	OriginalPrice string   `json:"originalPrice,omitempty"`
	Image         string   `json:"image,omitempty"`
	Link          string   `json:"link,omitempty"`
	DeliveryFee   *float64 `json:"deliveryFee,omitempty"`
	Offer         string   `json:"offer,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
	DeliveryTime  string   `json:"deliveryTime,omitempty"`
	InStock       *bool    `json:"inStock,omitempty"`
}

// PriceRecord is the canonical price of one item on one platform.
type PriceRecord struct {
	Platform          string      `json:"platform"`
	PlatformID        string      `json:"platformId,omitempty"`
	Item              string      `json:"item"`
	ProductName       string      `json:"productName,omitempty"`
	Price             float64     `json:"price"`
	OriginalPrice     *float64    `json:"originalPrice,omitempty"`
	PriceStatus       PriceStatus `json:"priceStatus"`
	DeliveryFee       float64     `json:"deliveryFee"`
	Offer             string      `json:"offer,omitempty"`
	Rating            float64     `json:"rating,omitempty"`
	DeliveryTimeLabel string      `json:"deliveryTime,omitempty"`
	InStock           bool        `json:"inStock"`
	Category          string      `json:"category"`
	Link              string      `json:"link"`
	Image             string      `json:"image"`
	Logo              string      `json:"logo"`
	IsCheapest        bool        `json:"isCheapest"`
	DataSource        DataSource  `json:"dataSource"`
}

// TotalCost is the landed cost of the record: price plus delivery.
func (r PriceRecord) TotalCost() float64 {
	return r.Price + r.DeliveryFee
}

// Priced reports whether the record carries a readable price.
func (r PriceRecord) Priced() bool {
	return r.PriceStatus != PriceUnparsed
}
