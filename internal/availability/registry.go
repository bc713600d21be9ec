package availability

import (
	"sort"
	"strings"

	"github.com/kosarica/price-aggregator/internal/adapters/config"
	"github.com/kosarica/price-aggregator/internal/location"
)

// Tier ranks how confidently a city matched a served city.
type Tier int

const (
	TierNone Tier = iota
	TierContainment
	TierToken
	TierExact
)

// String returns the string representation of the tier.
func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierToken:
		return "token"
	case TierContainment:
		return "containment"
	default:
		return "none"
	}
}

// MarshalText renders the tier by name in JSON.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// minContainmentLength keeps two-letter fragments from matching everything.
const minContainmentLength = 3

// Entry declares where one platform delivers.
type Entry struct {
	Platform        string   `mapstructure:"platform" json:"platform"`
	Category        string   `mapstructure:"category" json:"category"`
	Cities          []string `mapstructure:"cities" json:"cities"`
	PincodePrefixes []string `mapstructure:"pincode_prefixes" json:"pincodePrefixes,omitempty"`
}

// MatchResult explains an availability decision.
type MatchResult struct {
	Platform   string `json:"platform"`
	Tier       Tier   `json:"tier"`
	ServedCity string `json:"servedCity,omitempty"`
}

// Matched reports whether any tier matched.
func (m MatchResult) Matched() bool {
	return m.Tier != TierNone
}

type servedCity struct {
	display    string
	normalized string
	tokens     []string
}

type compiledEntry struct {
	Entry
	served []servedCity
}

// Registry answers platform availability questions. It is immutable after
// construction and safe for concurrent use.
type Registry struct {
	entries    []*compiledEntry
	byPlatform map[string]*compiledEntry
}

// New builds a registry from entries. Later entries for the same platform replace earlier ones.
func New(entries []Entry) *Registry {
	r := &Registry{byPlatform: make(map[string]*compiledEntry, len(entries))}
	for _, e := range entries {
		ce := &compiledEntry{Entry: e}
		for _, c := range e.Cities {
			n := NormalizeCity(c)
			if n == "" {
				continue
			}
			ce.served = append(ce.served, servedCity{display: c, normalized: n, tokens: strings.Fields(n)})
		}
		key := strings.ToLower(e.Platform)
		if prev, ok := r.byPlatform[key]; ok {
			*prev = *ce
			continue
		}
		r.byPlatform[key] = ce
		r.entries = append(r.entries, ce)
	}
	return r
}

// Default returns a registry over DefaultEntries.
func Default() *Registry {
	return New(DefaultEntries())
}

// Platforms lists registered platform ids in registration order.
func (r *Registry) Platforms() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Platform
	}
	return out
}

// Entry returns the declared entry for a platform.
func (r *Registry) Entry(platform string) (Entry, bool) {
	ce, ok := r.byPlatform[strings.ToLower(platform)]
	if !ok {
		return Entry{}, false
	}
	return ce.Entry, true
}

// Match scores city against the platform's served cities and returns the best tier found.
func (r *Registry) Match(platform, city string) MatchResult {
	ce, ok := r.byPlatform[strings.ToLower(platform)]
	if !ok {
		return MatchResult{Platform: platform}
	}
	tier, served := ce.match(NormalizeCity(city))
	return MatchResult{Platform: ce.Platform, Tier: tier, ServedCity: served}
}

func (ce *compiledEntry) match(city string) (Tier, string) {
	if city == "" {
		return TierNone, ""
	}

	for _, s := range ce.served {
		if s.normalized == city {
			return TierExact, s.display
		}
	}

	words := strings.Fields(city)
	candidates := []string{words[0], words[len(words)-1], strings.ReplaceAll(city, " ", "")}
	for _, s := range ce.served {
		joined := strings.ReplaceAll(s.normalized, " ", "")
		for _, c := range candidates {
			if c == s.normalized || c == joined {
				return TierToken, s.display
			}
			for _, tok := range s.tokens {
				if c == tok {
					return TierToken, s.display
				}
			}
		}
	}

	for _, s := range ce.served {
		shorter := len(city)
		if len(s.normalized) < shorter {
			shorter = len(s.normalized)
		}
		if shorter < minContainmentLength {
			continue
		}
		if strings.Contains(city, s.normalized) || strings.Contains(s.normalized, city) {
			return TierContainment, s.display
		}
	}

	return TierNone, ""
}

func (ce *compiledEntry) acceptsPincode(pincode string) bool {
	if len(ce.PincodePrefixes) == 0 || pincode == location.SentinelPincode {
		return true
	}
	for _, p := range ce.PincodePrefixes {
		if strings.HasPrefix(pincode, p) {
			return true
		}
	}
	return false
}

// IsAvailable reports whether platform serves the given city and pincode.
func (r *Registry) IsAvailable(platform, city, pincode string) bool {
	ce, ok := r.byPlatform[strings.ToLower(platform)]
	if !ok {
		return false
	}
	if tier, _ := ce.match(NormalizeCity(city)); tier == TierNone {
		return false
	}
	return ce.acceptsPincode(pincode)
}

// SupportedPlatforms lists every platform available at loc, in registration order.
func (r *Registry) SupportedPlatforms(loc location.Location) []string {
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		if r.IsAvailable(e.Platform, loc.City, loc.Pincode) {
			out = append(out, e.Platform)
		}
	}
	return out
}

// ByCategory groups the platforms available at loc by category. Every
// known category is present in the result, possibly with an empty list.
func (r *Registry) ByCategory(loc location.Location) map[string][]string {
	out := make(map[string][]string, len(config.Categories))
	for _, c := range config.Categories {
		out[string(c)] = []string{}
	}
	for _, p := range r.SupportedPlatforms(loc) {
		e := r.byPlatform[strings.ToLower(p)]
		out[e.Category] = append(out[e.Category], p)
	}
	return out
}

// Matches explains the decision for every registered platform.
func (r *Registry) Matches(loc location.Location) []MatchResult {
	out := make([]MatchResult, 0, len(r.entries))
	for _, e := range r.entries {
		m := r.Match(e.Platform, loc.City)
		if m.Matched() && !e.acceptsPincode(loc.Pincode) {
			m.Tier = TierNone
			m.ServedCity = ""
		}
		out = append(out, m)
	}
	return out
}

// Cities returns the union of served cities, sorted.
func (r *Registry) Cities() []string {
	seen := make(map[string]string)
	for _, e := range r.entries {
		for _, s := range e.served {
			if _, ok := seen[s.normalized]; !ok {
				seen[s.normalized] = s.display
			}
		}
	}
	out := make([]string, 0, len(seen))
	for _, d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
