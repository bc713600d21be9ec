package availability

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	parentheticalRe = regexp.MustCompile(`\([^)]*\)`)
	spaceRe         = regexp.MustCompile(`\s+`)
)

// cityAliases maps historical or alternate spellings onto the names used in the registry.
var cityAliases = map[string]string{
	"bengaluru":   "bangalore",
	"bombay":      "mumbai",
	"gurugram":    "gurgaon",
	"calcutta":    "kolkata",
	"madras":      "chennai",
	"new delhi":   "delhi",
	"new mumbai":  "navi mumbai",
	"poona":       "pune",
	"vizag":       "visakhapatnam",
	"baroda":      "vadodara",
	"trivandrum":  "thiruvananthapuram",
	"pondicherry": "puducherry",
}

// RemoveDiacritics strips combining marks after NFD decomposition.
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeCity canonicalizes a free-text city name for matching.
// "Navi Mumbai (Maharashtra)" and "navi-mumbai" both become "navi mumbai".
func NormalizeCity(city string) string {
	s := parentheticalRe.ReplaceAllString(city, " ")
	s = RemoveDiacritics(s)
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, s)
	s = strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
	if alias, ok := cityAliases[s]; ok {
		return alias
	}
	return s
}
