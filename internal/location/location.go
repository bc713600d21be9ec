package location

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// PlaceholderMarker is the literal a reverse-geocoding failure leaves in the city field.
const PlaceholderMarker = "Unknown"

// MinCityLength is the exclusive lower bound on city length, in runes.
const MinCityLength = 2

// MinPincodeLength is the minimum number of digits a pincode must carry.
const MinPincodeLength = 6

// SentinelPincode is used when a query is re-targeted to a city whose pincode is not known.
const SentinelPincode = "000000"

// Location is a user's delivery location.
type Location struct {
	City    string `json:"city" jsonschema:"minLength=3"`
	Pincode string `json:"pincode" jsonschema:"pattern=^[0-9]{6,}$"`
	Area    string `json:"area,omitempty"`
}

// ErrInvalidLocation describes why a location was rejected.
type ErrInvalidLocation struct {
	Field  string
	Reason string
}

func (e ErrInvalidLocation) Error() string {
	return fmt.Sprintf("invalid location %s: %s", e.Field, e.Reason)
}

// Check applies the location gate and returns the first violation found.
func Check(loc Location) error {
	city := strings.TrimSpace(loc.City)
	pincode := strings.TrimSpace(loc.Pincode)

	if city == "" {
		return ErrInvalidLocation{Field: "city", Reason: "is required"}
	}
	if pincode == "" {
		return ErrInvalidLocation{Field: "pincode", Reason: "is required"}
	}
	if strings.Contains(city, PlaceholderMarker) {
		return ErrInvalidLocation{Field: "city", Reason: "is a placeholder"}
	}
	if utf8.RuneCountInString(city) <= MinCityLength {
		return ErrInvalidLocation{Field: "city", Reason: "is too short"}
	}
	if strings.Contains(pincode, ",") {
		return ErrInvalidLocation{Field: "pincode", Reason: "looks like a coordinate pair"}
	}
	if len(pincode) < MinPincodeLength {
		return ErrInvalidLocation{Field: "pincode", Reason: "must have at least 6 digits"}
	}
	for _, r := range pincode {
		if r < '0' || r > '9' {
			return ErrInvalidLocation{Field: "pincode", Reason: "must contain digits only"}
		}
	}
	return nil
}

// Validate reports whether loc can be used for pricing queries.
func Validate(loc Location) bool {
	return Check(loc) == nil
}

var (
	parenPattern = regexp.MustCompile(`^(.+?)\s*\((\d+)\)$`)
	commaPattern = regexp.MustCompile(`^(.+?)\s*[,\-]\s*(\d+)$`)
)

// Parse reads a free-text location such as "Mumbai (400001)", "Mumbai, 400001"
// or "Mumbai - 400001". Anything else is taken as a bare city with no pincode.
func Parse(s string) Location {
	s = strings.TrimSpace(s)
	if m := parenPattern.FindStringSubmatch(s); m != nil {
		return Location{City: strings.TrimSpace(m[1]), Pincode: m[2]}
	}
	if m := commaPattern.FindStringSubmatch(s); m != nil {
		return Location{City: strings.TrimSpace(m[1]), Pincode: m[2]}
	}
	return Location{City: s}
}

// Formatted renders the location for display.
func (l Location) Formatted() string {
	if l.Area != "" {
		return fmt.Sprintf("%s (%s) - %s", l.City, l.Area, l.Pincode)
	}
	return fmt.Sprintf("%s (%s)", l.City, l.Pincode)
}

// WithCity returns a copy of l re-targeted to city with the sentinel pincode.
func (l Location) WithCity(city string) Location {
	return Location{City: city, Pincode: SentinelPincode}
}

func (l Location) String() string {
	return l.Formatted()
}
