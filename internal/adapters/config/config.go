package config

import "strings"

// PlatformID is the unique identifier of a commerce platform.
type PlatformID string

const (
	PlatformZepto     PlatformID = "zepto"
	PlatformBlinkit   PlatformID = "blinkit"
	PlatformBigBasket PlatformID = "bigbasket"
	PlatformInstamart PlatformID = "instamart"
	PlatformZomato    PlatformID = "zomato"
	PlatformSwiggy    PlatformID = "swiggy"
	PlatformMagicpin  PlatformID = "magicpin"
	Platform1mg       PlatformID = "1mg"
	PlatformApollo247 PlatformID = "apollo247"
	PlatformPharmEasy PlatformID = "pharmeasy"
)

// Category is a product vertical served by a group of platforms.
type Category string

const (
	CategoryGroceries Category = "groceries"
	CategoryFood      Category = "food"
	CategoryMedicines Category = "medicines"
)

// Categories lists every supported category in display order.
var Categories = []Category{CategoryGroceries, CategoryFood, CategoryMedicines}

// CategoryPlatforms is the fixed dispatch order per category.
var CategoryPlatforms = map[Category][]PlatformID{
	CategoryGroceries: {PlatformZepto, PlatformBlinkit, PlatformBigBasket, PlatformInstamart},
	CategoryFood:      {PlatformZomato, PlatformSwiggy, PlatformMagicpin},
	CategoryMedicines: {Platform1mg, PlatformApollo247, PlatformPharmEasy},
}

// PlatformIDs contains all platform IDs in category dispatch order.
var PlatformIDs = []PlatformID{
	PlatformZepto,
	PlatformBlinkit,
	PlatformBigBasket,
	PlatformInstamart,
	PlatformZomato,
	PlatformSwiggy,
	PlatformMagicpin,
	Platform1mg,
	PlatformApollo247,
	PlatformPharmEasy,
}

// PlaceholderLogo is served when a platform has no known logo.
const PlaceholderLogo = "/platform-placeholder.svg"

// PlatformConfig describes how to reach one platform's search surface.
type PlatformConfig struct {
	ID        PlatformID `json:"id"`
	Name      string     `json:"name"`
	Category  Category   `json:"category"`
	BaseURL   string     `json:"baseUrl"`
	SearchURL string     `json:"searchUrl"` // %s is replaced with the escaped query
	LogoURL   string     `json:"logoUrl"`
	// NeedsBrowser is false for platforms whose search page renders server side.
	NeedsBrowser bool `json:"needsBrowser"`
}

// PlatformConfigs contains all platform configurations
var PlatformConfigs = map[PlatformID]PlatformConfig{
	PlatformZepto: {
		ID:           PlatformZepto,
		Name:         "Zepto",
		Category:     CategoryGroceries,
		BaseURL:      "https://www.zeptonow.com",
		SearchURL:    "https://www.zeptonow.com/search?query=%s",
		LogoURL:      "https://upload.wikimedia.org/wikipedia/commons/thumb/7/7d/Zepto_Logo.svg/512px-Zepto_Logo.svg.png",
		NeedsBrowser: true,
	},
	PlatformBlinkit: {
		ID:           PlatformBlinkit,
		Name:         "Blinkit",
		Category:     CategoryGroceries,
		BaseURL:      "https://blinkit.com",
		SearchURL:    "https://blinkit.com/s/?q=%s",
		LogoURL:      "https://upload.wikimedia.org/wikipedia/commons/thumb/2/2e/Blinkit-yellow-app-icon.svg/512px-Blinkit-yellow-app-icon.svg.png",
		NeedsBrowser: true,
	},
	PlatformBigBasket: {
		ID:           PlatformBigBasket,
		Name:         "BigBasket",
		Category:     CategoryGroceries,
		BaseURL:      "https://www.bigbasket.com",
		SearchURL:    "https://www.bigbasket.com/ps/?q=%s",
		LogoURL:      "https://upload.wikimedia.org/wikipedia/commons/thumb/6/6e/BigBasket_Logo.svg/512px-BigBasket_Logo.svg.png",
		NeedsBrowser: true,
	},
	PlatformInstamart: {
		ID:           PlatformInstamart,
		Name:         "Instamart",
		Category:     CategoryGroceries,
		BaseURL:      "https://www.swiggy.com/instamart",
		SearchURL:    "https://www.swiggy.com/instamart/search?query=%s",
		LogoURL:      "https://upload.wikimedia.org/wikipedia/commons/thumb/1/13/Swiggy_logo.png/512px-Swiggy_logo.png",
		NeedsBrowser: true,
	},
	PlatformZomato: {
		ID:           PlatformZomato,
		Name:         "Zomato",
		Category:     CategoryFood,
		BaseURL:      "https://www.zomato.com",
		SearchURL:    "https://www.zomato.com/search?q=%s",
		LogoURL:      "https://upload.wikimedia.org/wikipedia/commons/thumb/7/75/Zomato_logo.png/512px-Zomato_logo.png",
		NeedsBrowser: true,
	},
	PlatformSwiggy: {
		ID:           PlatformSwiggy,
		Name:         "Swiggy",
		Category:     CategoryFood,
		BaseURL:      "https://www.swiggy.com",
		SearchURL:    "https://www.swiggy.com/search?query=%s",
		LogoURL:      "https://upload.wikimedia.org/wikipedia/commons/thumb/1/13/Swiggy_logo.png/512px-Swiggy_logo.png",
		NeedsBrowser: true,
	},
	PlatformMagicpin: {
		ID:           PlatformMagicpin,
		Name:         "Magicpin",
		Category:     CategoryFood,
		BaseURL:      "https://magicpin.in",
		SearchURL:    "https://magicpin.in/search/?q=%s",
		LogoURL:      "https://upload.wikimedia.org/wikipedia/commons/thumb/4/4a/Magicpin_logo.svg/512px-Magicpin_logo.svg.png",
		NeedsBrowser: false,
	},
	Platform1mg: {
		ID:           Platform1mg,
		Name:         "Tata 1mg",
		Category:     CategoryMedicines,
		BaseURL:      "https://www.1mg.com",
		SearchURL:    "https://www.1mg.com/search/all?name=%s",
		LogoURL:      "https://upload.wikimedia.org/wikipedia/commons/thumb/5/5a/Tata_1mg_Logo.svg/512px-Tata_1mg_Logo.svg.png",
		NeedsBrowser: false,
	},
	PlatformApollo247: {
		ID:           PlatformApollo247,
		Name:         "Apollo 24|7",
		Category:     CategoryMedicines,
		BaseURL:      "https://www.apollopharmacy.in",
		SearchURL:    "https://www.apollopharmacy.in/search-medicines/%s",
		LogoURL:      "https://upload.wikimedia.org/wikipedia/commons/thumb/b/b6/Apollo_Hospitals_Logo.svg/512px-Apollo_Hospitals_Logo.svg.png",
		NeedsBrowser: true,
	},
	PlatformPharmEasy: {
		ID:           PlatformPharmEasy,
		Name:         "PharmEasy",
		Category:     CategoryMedicines,
		BaseURL:      "https://pharmeasy.in",
		SearchURL:    "https://pharmeasy.in/search/all?name=%s",
		LogoURL:      "https://upload.wikimedia.org/wikipedia/commons/thumb/0/0c/PharmEasy_logo.svg/512px-PharmEasy_logo.svg.png",
		NeedsBrowser: false,
	},
}

// GetPlatformConfig returns the configuration for a platform
func GetPlatformConfig(id PlatformID) (PlatformConfig, bool) {
	cfg, ok := PlatformConfigs[id]
	return cfg, ok
}

// IsValidPlatformID checks if a string is a valid platform ID
func IsValidPlatformID(value string) bool {
	_, ok := PlatformConfigs[PlatformID(value)]
	return ok
}

// IsValidCategory checks if a string names a supported category
func IsValidCategory(value string) bool {
	_, ok := CategoryPlatforms[Category(value)]
	return ok
}

// ValidCategories returns the category names as plain strings.
func ValidCategories() []string {
	out := make([]string, len(Categories))
	for i, c := range Categories {
		out[i] = string(c)
	}
	return out
}

// LogoFor resolves a logo by platform id or display name, falling back to the placeholder.
func LogoFor(platform string) string {
	if cfg, ok := Resolve(platform); ok && cfg.LogoURL != "" {
		return cfg.LogoURL
	}
	return PlaceholderLogo
}

// DisplayName returns the platform's display name, or the input when unknown.
func DisplayName(platform string) string {
	if cfg, ok := Resolve(platform); ok {
		return cfg.Name
	}
	return platform
}

// Resolve finds a platform by id or display name, case-insensitively.
func Resolve(platform string) (PlatformConfig, bool) {
	key := strings.ToLower(strings.TrimSpace(platform))
	if cfg, ok := PlatformConfigs[PlatformID(key)]; ok {
		return cfg, true
	}
	for _, cfg := range PlatformConfigs {
		if strings.EqualFold(cfg.Name, platform) {
			return cfg, true
		}
	}
	return PlatformConfig{}, false
}
