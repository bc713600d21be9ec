// Package cuid2 generates short, prefixed, time-sortable identifiers for
// search history and price comparison records.
package cuid2

import (
	crypto_rand "crypto/rand"
	"strings"
	"time"
)

// Base62 alphabet: 0-9, A-Z, a-z (62 characters)
const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Record prefixes.
const (
	PrefixSearch     = "srch"
	PrefixComparison = "cmp"
)

// EncodeTimestamp encodes a Unix timestamp (seconds) as a 6-character base62
// string that sorts lexicographically in time order.
//
// Range: 0 to ~56 billion seconds (~1800 years from Unix epoch)
func EncodeTimestamp(timestampSeconds int64) string {
	n := timestampSeconds
	result := make([]byte, 6)
	for i := 5; i >= 0; i-- {
		result[i] = base62Alphabet[n%62]
		n = n / 62
	}
	return string(result)
}

// randomString returns length base62 characters from crypto/rand.
//
// Uses bit extraction with rejection sampling for uniform distribution:
// - Extracts 6 bits at a time (values 0-63)
// - Rejects values >= 62
func randomString(length int) string {
	bytes := make([]byte, (length*6)/8+4)
	if _, err := crypto_rand.Read(bytes); err != nil {
		panic("failed to read random bytes: " + err.Error())
	}

	var result strings.Builder
	result.Grow(length)
	bitBuffer := uint64(0)
	bitsInBuffer := uint(0)
	byteIndex := 0

	for result.Len() < length {
		if byteIndex >= len(bytes) && bitsInBuffer < 6 {
			if _, err := crypto_rand.Read(bytes); err != nil {
				panic("failed to read random bytes: " + err.Error())
			}
			byteIndex = 0
		}
		for bitsInBuffer < 6 && byteIndex < len(bytes) {
			bitBuffer = (bitBuffer << 8) | uint64(bytes[byteIndex])
			bitsInBuffer += 8
			byteIndex++
		}

		value := (bitBuffer >> (bitsInBuffer - 6)) & 0x3f
		bitsInBuffer -= 6
		if value < 62 {
			result.WriteByte(base62Alphabet[value])
		}
	}

	return result.String()
}

// Options tunes Generate.
type Options struct {
	// Unsorted drops the 6-char timestamp prefix.
	Unsorted bool
	// RandomLength of the random portion (default: 18 sorted, 24 unsorted).
	RandomLength int
	// Now overrides the clock.
	Now func() time.Time
}

// New returns a time-sortable id such as "srch_1rK5iqaB3cD5eF7gH9iJ1k".
func New(prefix string) string {
	return Generate(prefix, Options{})
}

// Generate returns a prefixed id shaped by opts.
func Generate(prefix string, opts Options) string {
	randomLength := opts.RandomLength
	if opts.Unsorted {
		if randomLength <= 0 {
			randomLength = 24
		}
		return prefix + "_" + randomString(randomLength)
	}

	if randomLength <= 0 {
		randomLength = 18
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	return prefix + "_" + EncodeTimestamp(now().Unix()) + randomString(randomLength)
}
