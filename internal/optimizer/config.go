package optimizer

// Config holds the configuration for the cart optimizer.
// It is loaded from environment variables or a config file.
type Config struct {
	// Validation limits
	MaxCartItems int `mapstructure:"max_cart_items" env:"MAX_CART_ITEMS" default:"100"`
	MinCartItems int `mapstructure:"min_cart_items" env:"MIN_CART_ITEMS" default:"1"`

	// MaxQuantity bounds the requested quantity of one line.
	MaxQuantity int `mapstructure:"max_quantity" env:"MAX_QUANTITY" default:"99"`

	// IncludeOutOfStock lets out-of-stock records compete for the cheapest slot.
	IncludeOutOfStock bool `mapstructure:"include_out_of_stock" env:"INCLUDE_OUT_OF_STOCK" default:"false"`

	// Currency prefix used in summary messages.
	CurrencySymbol string `mapstructure:"currency_symbol" env:"CURRENCY_SYMBOL" default:"₹"`
}

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		MaxCartItems:      100,
		MinCartItems:      1,
		MaxQuantity:       99,
		IncludeOutOfStock: false,
		CurrencySymbol:    "₹",
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.MinCartItems < 1 {
		return ErrInvalidConfig{Field: "min_cart_items", Reason: "must be at least 1"}
	}
	if c.MaxCartItems < c.MinCartItems {
		return ErrInvalidConfig{Field: "max_cart_items", Reason: "must be >= min_cart_items"}
	}
	if c.MaxQuantity < 1 {
		return ErrInvalidConfig{Field: "max_quantity", Reason: "must be at least 1"}
	}
	return nil
}

// ErrInvalidConfig is returned when the configuration is invalid.
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e ErrInvalidConfig) Error() string {
	return e.Field + ": " + e.Reason
}
