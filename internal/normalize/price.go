package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kosarica/price-aggregator/internal/types"
)

// ParsedPrice is the outcome of reading a free-text price.
type ParsedPrice struct {
	Value  float64
	Status types.PriceStatus
}

// Parsed reports whether a numeric value was found.
func (p ParsedPrice) Parsed() bool {
	return p.Status == types.PriceParsed
}

var numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// zero code points of the decimal digit blocks seen on Indian storefronts.
var digitZeros = []rune{
	0x0660, // Arabic-Indic
	0x06F0, // Extended Arabic-Indic
	0x0966, // Devanagari
	0x09E6, // Bengali
	0x0A66, // Gurmukhi
	0x0AE6, // Gujarati
	0x0B66, // Oriya
	0x0BE6, // Tamil
	0x0C66, // Telugu
	0x0CE6, // Kannada
	0x0D66, // Malayalam
	0xFF10, // Fullwidth
}

// FoldDigits rewrites localized decimal digits to ASCII.
func FoldDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x0660 {
			return r
		}
		switch r {
		case '٫': // Arabic decimal separator
			return '.'
		case '٬': // Arabic thousands separator
			return ','
		}
		for _, zero := range digitZeros {
			if r >= zero && r <= zero+9 {
				return '0' + (r - zero)
			}
		}
		return r
	}, s)
}

// ParsePrice reads the first numeric token of a free-text price such as
// "₹1,299" or "Rs. ४५". Text without digits yields an unparsed zero.
func ParsePrice(s string) ParsedPrice {
	s = strings.ReplaceAll(FoldDigits(s), ",", "")
	token := numberRe.FindString(s)
	if token == "" {
		return ParsedPrice{Status: types.PriceUnparsed}
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return ParsedPrice{Status: types.PriceUnparsed}
	}
	return ParsedPrice{Value: v, Status: types.PriceParsed}
}
