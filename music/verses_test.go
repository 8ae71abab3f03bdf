package music

import (
	"errors"
	"testing"
)

func TestParseVerses(t *testing.T) {
	tests := []struct {
		number   string
		expected Verses
		list     []int
	}{
		{"1", 1, []int{0}},
		{"2", 2, []int{1}},
		{"1,2", 3, []int{0, 1}},
		{"1, 3", 5, []int{0, 2}},
		{"2.", 2, []int{1}},
		{"64", 1 << 63, []int{63}},
	}

	for _, tt := range tests {
		verses, err := ParseVerses(tt.number)
		if err != nil {
			t.Errorf("ParseVerses(%q) failed: %v", tt.number, err)
			continue
		}
		if verses != tt.expected {
			t.Errorf("ParseVerses(%q): expected %b, got %b", tt.number, tt.expected, verses)
		}
		list := verses.List()
		if len(list) != len(tt.list) {
			t.Errorf("ParseVerses(%q).List(): expected %v, got %v", tt.number, tt.list, list)
			continue
		}
		for i := range list {
			if list[i] != tt.list[i] {
				t.Errorf("ParseVerses(%q).List(): expected %v, got %v", tt.number, tt.list, list)
				break
			}
		}
	}
}

func TestParseVersesInvalid(t *testing.T) {
	for _, number := range []string{"", "0", "65", "a", "1,,2", "-1"} {
		_, err := ParseVerses(number)
		if err == nil {
			t.Errorf("ParseVerses(%q) should fail", number)
			continue
		}
		if !errors.Is(err, ErrNumber) {
			t.Errorf("ParseVerses(%q): expected a number error, got %v", number, err)
		}
	}
}

func TestVersesSingle(t *testing.T) {
	if verse, ok := Verses(4).Single(); !ok || verse != 2 {
		t.Errorf("expected single verse 2, got %d %v", verse, ok)
	}
	if _, ok := Verses(5).Single(); ok {
		t.Error("two verses should not be single")
	}
	if _, ok := Verses(0).Single(); ok {
		t.Error("no verses should not be single")
	}
}

func TestVersesString(t *testing.T) {
	if s := Verses(0b10101).String(); s != "1,3,5" {
		t.Errorf("expected '1,3,5', got '%s'", s)
	}
}
