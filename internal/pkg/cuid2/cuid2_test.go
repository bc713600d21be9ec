package cuid2

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestEncodeTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		seconds  int64
		expected string
	}{
		{"Zero timestamp", 0, "000000"},
		{"One second", 1, "000001"},
		{"62 seconds", 62, "000010"},
		{"One minute", 60, "00000y"},
		{"One hour", 3600, "0000w4"},
		{"One day", 86400, "000MTY"},
		{"Unix epoch test", 1704067200, "1rK5iq"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncodeTimestamp(tt.seconds); got != tt.expected {
				t.Errorf("EncodeTimestamp(%d) = %s, want %s", tt.seconds, got, tt.expected)
			}
		})
	}
}

func TestRandomString(t *testing.T) {
	for _, length := range []int{1, 10, 24, 64} {
		id := randomString(length)
		if len(id) != length {
			t.Errorf("randomString(%d) length = %d", length, len(id))
		}
		for _, c := range id {
			if !strings.ContainsRune(base62Alphabet, c) {
				t.Errorf("non-base62 character %c in %s", c, id)
			}
		}
	}
}

func TestNew(t *testing.T) {
	id := New(PrefixSearch)
	matched, _ := regexp.MatchString(`^srch_[0-9A-Za-z]{24}$`, id)
	if !matched {
		t.Errorf("ID format doesn't match expected pattern: %s", id)
	}
}

func TestGenerate_Options(t *testing.T) {
	fixed := time.Unix(1704067200, 0)
	id := Generate(PrefixComparison, Options{Now: func() time.Time { return fixed }, RandomLength: 10})
	if !strings.HasPrefix(id, "cmp_1rK5iq") {
		t.Errorf("expected timestamp prefix, got %s", id)
	}
	if len(strings.TrimPrefix(id, "cmp_")) != 16 {
		t.Errorf("expected 6 timestamp + 10 random characters, got %s", id)
	}

	unsorted := Generate(PrefixSearch, Options{Unsorted: true})
	if len(strings.TrimPrefix(unsorted, "srch_")) != 24 {
		t.Errorf("unsorted id should carry 24 random characters: %s", unsorted)
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		for _, prefix := range []string{PrefixSearch, PrefixComparison} {
			id := New(prefix)
			if ids[id] {
				t.Errorf("Generated duplicate ID: %s", id)
			}
			ids[id] = true
		}
	}
}

func TestGenerate_TimeSortable(t *testing.T) {
	earlier := Generate("t", Options{Now: func() time.Time { return time.Unix(1000, 0) }})
	later := Generate("t", Options{Now: func() time.Time { return time.Unix(2000, 0) }})
	if earlier[:8] >= later[:8] {
		t.Errorf("timestamps not sorted: %s >= %s", earlier, later)
	}
}
