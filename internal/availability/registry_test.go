package availability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/price-aggregator/internal/location"
)

func TestNormalizeCity(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Mumbai", "mumbai"},
		{"  Navi   Mumbai (Maharashtra) ", "navi mumbai"},
		{"navi-mumbai", "navi mumbai"},
		{"Bengaluru", "bangalore"},
		{"New Delhi", "delhi"},
		{"Pondichéry", "pondichery"},
		{"Mumbai, Maharashtra", "mumbai maharashtra"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCity(tt.in))
		})
	}
}

func TestMatch_Tiers(t *testing.T) {
	r := Default()

	tests := []struct {
		name       string
		city       string
		wantTier   Tier
		wantServed string
	}{
		{"exact", "Mumbai", TierExact, "Mumbai"},
		{"exact after normalization", "NAVI MUMBAI (MH)", TierExact, "Navi Mumbai"},
		{"alias", "Gurugram", TierExact, "Gurgaon"},
		{"first word", "Mumbai, Maharashtra", TierToken, "Mumbai"},
		{"last word", "Greater Noida", TierToken, "Noida"},
		{"joined", "Navimumbai", TierToken, "Navi Mumbai"},
		{"containment", "Noidaextension", TierContainment, "Noida"},
		{"unserved", "Mysore", TierNone, ""},
		{"too short for containment", "Pu", TierNone, ""},
		{"empty", "", TierNone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := r.Match("zepto", tt.city)
			assert.Equal(t, tt.wantTier, m.Tier)
			assert.Equal(t, tt.wantServed, m.ServedCity)
		})
	}
}

func TestMatch_UnknownPlatform(t *testing.T) {
	m := Default().Match("corner-shop", "Mumbai")
	assert.False(t, m.Matched())
}

// TestIsAvailable_ExactMatchIgnoresPincode checks that an exactly served city is
// available for any pincode when the platform declares no prefixes.
func TestIsAvailable_ExactMatchIgnoresPincode(t *testing.T) {
	r := Default()
	for _, p := range r.Platforms() {
		for _, pin := range []string{"400001", "000000", "999999", ""} {
			assert.True(t, r.IsAvailable(p, "Mumbai", pin), "%s %s", p, pin)
		}
	}
}

func TestIsAvailable_PincodePrefixes(t *testing.T) {
	r := New([]Entry{{
		Platform:        "local",
		Category:        "groceries",
		Cities:          []string{"Mumbai"},
		PincodePrefixes: []string{"400", "401"},
	}})

	assert.True(t, r.IsAvailable("local", "Mumbai", "400001"))
	assert.True(t, r.IsAvailable("LOCAL", "mumbai", "401107"))
	assert.False(t, r.IsAvailable("local", "Mumbai", "110001"))
	assert.False(t, r.IsAvailable("local", "Delhi", "400001"))

	matches := r.Matches(location.Location{City: "Mumbai", Pincode: "110001"})
	require.Len(t, matches, 1)
	assert.Equal(t, TierNone, matches[0].Tier)
}

func TestSupportedPlatforms_Mumbai(t *testing.T) {
	r := Default()
	loc := location.Location{City: "Mumbai", Pincode: "400001"}

	platforms := r.SupportedPlatforms(loc)
	assert.Contains(t, platforms, "zepto")
	assert.Contains(t, platforms, "zomato")
	assert.Contains(t, platforms, "1mg")
	assert.Len(t, platforms, 10)

	byCategory := r.ByCategory(loc)
	assert.Equal(t, []string{"zepto", "blinkit", "bigbasket", "instamart"}, byCategory["groceries"])
	assert.Equal(t, []string{"zomato", "swiggy", "magicpin"}, byCategory["food"])
	assert.Equal(t, []string{"1mg", "apollo247", "pharmeasy"}, byCategory["medicines"])
}

func TestByCategory_FoodOnlyCity(t *testing.T) {
	byCategory := Default().ByCategory(location.Location{City: "Lucknow", Pincode: "226001"})

	assert.Equal(t, []string{"zomato", "swiggy"}, byCategory["food"])
	assert.Empty(t, byCategory["groceries"])
	assert.NotNil(t, byCategory["groceries"])
	assert.Empty(t, byCategory["medicines"])
}

func TestNew_LaterEntryReplacesEarlier(t *testing.T) {
	r := New([]Entry{
		{Platform: "zepto", Category: "groceries", Cities: []string{"Mumbai"}},
		{Platform: "blinkit", Category: "groceries", Cities: []string{"Delhi"}},
		{Platform: "zepto", Category: "groceries", Cities: []string{"Pune"}},
	})

	assert.Equal(t, []string{"zepto", "blinkit"}, r.Platforms())
	assert.False(t, r.IsAvailable("zepto", "Mumbai", "400001"))
	assert.True(t, r.IsAvailable("zepto", "Pune", "411001"))
}

func TestEntryAndCities(t *testing.T) {
	r := New([]Entry{
		{Platform: "zepto", Category: "groceries", Cities: []string{"Mumbai", "Pune"}},
		{Platform: "blinkit", Category: "groceries", Cities: []string{"mumbai", "Delhi"}},
	})

	e, ok := r.Entry("ZEPTO")
	require.True(t, ok)
	assert.Equal(t, "groceries", e.Category)
	assert.Equal(t, []string{"Mumbai", "Pune"}, e.Cities)

	_, ok = r.Entry("dunzo")
	assert.False(t, ok)

	assert.Equal(t, []string{"Delhi", "Mumbai", "Pune"}, r.Cities())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "availability.yaml")
	content := `platforms:
  - platform: zepto
    category: groceries
    cities: [Mumbai, Thane]
    pincode_prefixes: ["400"]
  - platform: zomato
    category: food
    cities: [Lucknow]
nearby:
  thane: [Mumbai, Pune]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, f.Platforms, 2)
	assert.Equal(t, []string{"400"}, f.Platforms[0].PincodePrefixes)
	assert.Equal(t, []string{"Mumbai", "Pune"}, f.Nearby["thane"])

	r := f.Registry()
	assert.True(t, r.IsAvailable("zepto", "Thane", "400601"))
	assert.False(t, r.IsAvailable("zepto", "Thane", "500001"))
	assert.True(t, r.IsAvailable("zomato", "Lucknow", "226001"))
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("nearby: {}\n"), 0o644))
	_, err = LoadFile(empty)
	assert.ErrorContains(t, err, "no platforms")

	noCategory := filepath.Join(dir, "nocat.yaml")
	require.NoError(t, os.WriteFile(noCategory, []byte("platforms:\n  - platform: zepto\n    cities: [Mumbai]\n"), 0o644))
	_, err = LoadFile(noCategory)
	assert.ErrorContains(t, err, "no category")
}

func TestTier_String(t *testing.T) {
	assert.Equal(t, "exact", TierExact.String())
	assert.Equal(t, "token", TierToken.String())
	assert.Equal(t, "containment", TierContainment.String())
	assert.Equal(t, "none", TierNone.String())
}
