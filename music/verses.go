package music

import (
	"math/bits"
	"strconv"
	"strings"
)

// Verses is a set of zero based verse indexes, one bit per verse
type Verses uint64

// maxVerses bounds verse numbers in endings and lyrics
const maxVerses = 64

// ParseVerses reads an <ending number="1,2"> list of one based verse numbers
func ParseVerses(number string) (Verses, error) {
	var verses Verses
	for _, field := range strings.Split(number, ",") {
		field = strings.Trim(field, " .")
		n, err := strconv.Atoi(field)
		if err != nil || n < 1 || n > maxVerses {
			return 0, numberError("<ending number=%q>", number)
		}
		verses |= 1 << (n - 1)
	}
	return verses, nil
}

// Single returns the only verse in the set, or false when the set holds
// none or several verses
func (v Verses) Single() (int, bool) {
	if v == 0 || v&(v-1) != 0 {
		return 0, false
	}
	return bits.TrailingZeros64(uint64(v)), true
}

// List returns the verses in ascending order
func (v Verses) List() []int {
	list := make([]int, 0, bits.OnesCount64(uint64(v)))
	for v != 0 {
		verse := bits.TrailingZeros64(uint64(v))
		list = append(list, verse)
		v &^= 1 << verse
	}
	return list
}

// String formats the set the way it appears in the score, one based
func (v Verses) String() string {
	var numbers []string
	for _, verse := range v.List() {
		numbers = append(numbers, strconv.Itoa(verse+1))
	}
	return strings.Join(numbers, ",")
}
