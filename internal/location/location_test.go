package location

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		loc  Location
		want bool
	}{
		{"mumbai", Location{City: "Mumbai", Pincode: "400001"}, true},
		{"long pincode", Location{City: "Delhi", Pincode: "1100011"}, true},
		{"unknown placeholder", Location{City: "Unknown Location", Pincode: ""}, false},
		{"unknown with pincode", Location{City: "Unknown", Pincode: "400001"}, false},
		{"missing city", Location{Pincode: "400001"}, false},
		{"missing pincode", Location{City: "Mumbai"}, false},
		{"city too short", Location{City: "Mu", Pincode: "400001"}, false},
		{"three letter city", Location{City: "Goa", Pincode: "403001"}, true},
		{"short pincode", Location{City: "Mumbai", Pincode: "4000"}, false},
		{"lat long pair", Location{City: "Mumbai", Pincode: "19.07,72.87"}, false},
		{"non digit pincode", Location{City: "Mumbai", Pincode: "40000A"}, false},
		{"whitespace only", Location{City: "   ", Pincode: "400001"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.loc))
		})
	}
}

// TestCheck_ReportsField verifies the typed error names the offending field.
func TestCheck_ReportsField(t *testing.T) {
	err := Check(Location{City: "Mumbai", Pincode: "19.07,72.87"})
	require.Error(t, err)

	var invalid ErrInvalidLocation
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "pincode", invalid.Field)
	assert.Contains(t, err.Error(), "coordinate")

	err = Check(Location{City: "Unknown Location"})
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "pincode", invalid.Field, "missing pincode is reported before the placeholder city")
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Location
	}{
		{"Mumbai (400001)", Location{City: "Mumbai", Pincode: "400001"}},
		{"Navi Mumbai(400703)", Location{City: "Navi Mumbai", Pincode: "400703"}},
		{"Delhi, 110001", Location{City: "Delhi", Pincode: "110001"}},
		{"Pune - 411001", Location{City: "Pune", Pincode: "411001"}},
		{"  Bangalore  ", Location{City: "Bangalore"}},
		{"", Location{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in))
		})
	}
}

func TestFormatted(t *testing.T) {
	assert.Equal(t, "Mumbai (400001)", Location{City: "Mumbai", Pincode: "400001"}.Formatted())
	assert.Equal(t, "Mumbai (Andheri) - 400053", Location{City: "Mumbai", Area: "Andheri", Pincode: "400053"}.Formatted())
}

func TestWithCity(t *testing.T) {
	loc := Location{City: "Thane", Pincode: "400601", Area: "Naupada"}.WithCity("Mumbai")
	assert.Equal(t, Location{City: "Mumbai", Pincode: SentinelPincode}, loc)
	assert.True(t, Validate(loc))
}
