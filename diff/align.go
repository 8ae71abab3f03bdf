package diff

import (
	"unicode/utf8"

	"github.com/leafo/lyriccheck/music"
	"github.com/leafo/lyriccheck/script"
	"github.com/sergi/go-diff/diffmatchpatch"
)

type side uint8

const (
	both side = iota
	scriptSide
	musicSide
)

// op is one step of an alignment, indexing the script tokens and score
// words it covers
type op struct {
	side   side
	script int
	music  int
}

// symbols hands out one rune per distinct key, skipping the surrogate
// range so every rune survives the round trip through a string
type symbols struct {
	next  rune
	runes map[string]rune
}

func (s *symbols) fresh() rune {
	s.next++
	if s.next >= 0xD800 && s.next <= 0xDFFF {
		s.next = 0xE000
	}
	return s.next
}

func (s *symbols) key(key string) rune {
	if r, ok := s.runes[key]; ok {
		return r
	}
	r := s.fresh()
	s.runes[key] = r
	return r
}

// align finds the longest common subsequence of script words and score
// words by Key. Headings and line numbers never match anything.
func align(tokens []script.Token, words []music.Word) []op {
	syms := &symbols{runes: make(map[string]rune)}
	left := make([]rune, len(tokens))
	for i, token := range tokens {
		if token.Kind == script.Word {
			left[i] = syms.key(Key(token.Text))
		} else {
			left[i] = syms.fresh()
		}
	}
	right := make([]rune, len(words))
	for i, word := range words {
		right[i] = syms.key(Key(word.Text))
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0

	ops := make([]op, 0, max(len(left), len(right)))
	s, m := 0, 0
	for _, d := range dmp.DiffMainRunes(left, right, false) {
		n := utf8.RuneCountInString(d.Text)
		for range n {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				ops = append(ops, op{side: both, script: s, music: m})
				s++
				m++
			case diffmatchpatch.DiffDelete:
				ops = append(ops, op{side: scriptSide, script: s})
				s++
			case diffmatchpatch.DiffInsert:
				ops = append(ops, op{side: musicSide, music: m})
				m++
			}
		}
	}
	return ops
}
