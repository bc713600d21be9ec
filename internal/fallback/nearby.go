package fallback

import (
	"sort"
	"strings"

	"github.com/kosarica/price-aggregator/internal/availability"
)

// DefaultCandidates is used for cities absent from the nearby table.
var DefaultCandidates = []string{"Mumbai", "Delhi", "Bangalore"}

// minKeyMatchLength keeps fragments like "pu" from matching "pune".
const minKeyMatchLength = 3

type nearbyEntry struct {
	key        string
	candidates []string
}

// NearbyTable maps a city onto an ordered list of related major cities.
// It is immutable and safe for concurrent use.
type NearbyTable struct {
	entries  []nearbyEntry
	defaults []string
}

// DefaultNearby returns the built-in nearby-city table in lookup order.
func DefaultNearby() *NearbyTable {
	return &NearbyTable{
		entries: []nearbyEntry{
			{"mumbai", []string{"Mumbai", "Thane", "Navi Mumbai", "Pune"}},
			{"delhi", []string{"Delhi", "Noida", "Gurgaon", "Faridabad"}},
			{"bangalore", []string{"Bangalore", "Mysore", "Chennai"}},
			{"hyderabad", []string{"Hyderabad", "Secunderabad", "Bangalore"}},
			{"chennai", []string{"Chennai", "Bangalore", "Hyderabad"}},
			{"pune", []string{"Pune", "Mumbai", "Nashik"}},
			{"kolkata", []string{"Kolkata", "Howrah", "Delhi"}},
			{"ahmedabad", []string{"Ahmedabad", "Mumbai", "Delhi"}},
			{"jaipur", []string{"Jaipur", "Delhi", "Mumbai"}},
		},
		defaults: DefaultCandidates,
	}
}

// NewNearbyTable builds a table from a city -> candidates map. Keys are
// normalized and looked up in sorted order.
func NewNearbyTable(m map[string][]string) *NearbyTable {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := &NearbyTable{defaults: DefaultCandidates}
	for _, k := range keys {
		n := availability.NormalizeCity(k)
		if n == "" || len(m[k]) == 0 {
			continue
		}
		t.entries = append(t.entries, nearbyEntry{key: n, candidates: append([]string(nil), m[k]...)})
	}
	return t
}

func (t *NearbyTable) lookup(city string) (nearbyEntry, bool) {
	n := availability.NormalizeCity(city)
	if len(n) < minKeyMatchLength {
		return nearbyEntry{}, false
	}
	for _, e := range t.entries {
		if strings.Contains(n, e.key) || strings.Contains(e.key, n) {
			return e, true
		}
	}
	return nearbyEntry{}, false
}

// Candidates returns the ordered nearby cities to retry for city.
func (t *NearbyTable) Candidates(city string) []string {
	if e, ok := t.lookup(city); ok {
		return append([]string(nil), e.candidates...)
	}
	return append([]string(nil), t.defaults...)
}

// MajorCity returns the major city whose name appears in city, or "" when
// city does not mention one.
func (t *NearbyTable) MajorCity(city string) string {
	n := availability.NormalizeCity(city)
	for _, e := range t.entries {
		if strings.Contains(n, e.key) {
			return e.candidates[0]
		}
	}
	return ""
}
