package availability

import "github.com/kosarica/price-aggregator/internal/adapters/config"

// metroCities is the service footprint shared by the quick-commerce platforms.
var metroCities = []string{
	"Mumbai", "Delhi", "Bangalore", "Hyderabad", "Chennai",
	"Pune", "Kolkata", "Indore", "Bhopal", "Jaipur",
	"Ahmedabad", "Surat", "Vadodara", "Nagpur", "Thane",
	"Navi Mumbai", "Noida", "Gurgaon", "Faridabad", "Ghaziabad",
}

// foodDeliveryExtras are served by the large food-delivery networks on top of the metro footprint.
var foodDeliveryExtras = []string{"Lucknow", "Kanpur", "Patna", "Chandigarh"}

// DefaultEntries returns the built-in availability table, one entry per platform in dispatch order.
func DefaultEntries() []Entry {
	entries := make([]Entry, 0, len(config.PlatformIDs))
	for _, category := range config.Categories {
		for _, id := range config.CategoryPlatforms[category] {
			cities := append([]string(nil), metroCities...)
			if id == config.PlatformZomato || id == config.PlatformSwiggy {
				cities = append(cities, foodDeliveryExtras...)
			}
			entries = append(entries, Entry{
				Platform: string(id),
				Category: string(category),
				Cities:   cities,
			})
		}
	}
	return entries
}
