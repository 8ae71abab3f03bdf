package music

import (
	"strings"
)

// Word is a whole word, its syllables joined, on the absolute timeline
type Word struct {
	Start Tick   `json:"start" yaml:"start"`
	End   Tick   `json:"end" yaml:"end"`
	Text  string `json:"text" yaml:"text"`
}

// Phrase is a run of words sung as one line of lyrics
type Phrase struct {
	Start Tick   `json:"start" yaml:"start"`
	End   Tick   `json:"end" yaml:"end"`
	Words []Word `json:"words" yaml:"words"`
}

// Equal reports whether two phrases have the same timing and words
func (p Phrase) Equal(other Phrase) bool {
	if p.Start != other.Start || p.End != other.End || len(p.Words) != len(other.Words) {
		return false
	}
	for i := range p.Words {
		if p.Words[i] != other.Words[i] {
			return false
		}
	}
	return true
}

// Text returns the words of the phrase separated by spaces
func (p Phrase) Text() string {
	texts := make([]string, len(p.Words))
	for i, word := range p.Words {
		texts[i] = word.Text
	}
	return strings.Join(texts, " ")
}

// Part is the lyric timeline of one part, or several merged
type Part struct {
	Phrases []Phrase
}

// PhraseBuilder joins syllables into words and words into phrases.
// Build may only be called once.
type PhraseBuilder struct {
	phrases []Phrase
	phrase  Phrase
	word    *Word
	inGroup bool
	built   bool
}

func NewPhraseBuilder() *PhraseBuilder {
	return &PhraseBuilder{}
}

// Syllable adds the next syllable of the timeline. A Middle or End with no
// word in progress starts a word of its own.
func (b *PhraseBuilder) Syllable(s Syllable) {
	switch s.Kind {
	case Single:
		b.flushWord()
		b.addWord(Word{Start: s.Start, End: s.End, Text: s.Text})

	case Begin:
		b.flushWord()
		b.word = &Word{Start: s.Start, End: s.End, Text: s.Text}

	case Middle:
		if b.word != nil {
			b.word.End = s.End
			b.word.Text += s.Text
		} else {
			b.word = &Word{Start: s.Start, End: s.End, Text: s.Text}
		}

	case End:
		if b.word != nil {
			b.word.End = s.End
			b.word.Text += s.Text
			b.flushWord()
		} else {
			b.addWord(Word{Start: s.Start, End: s.End, Text: s.Text})
		}
	}
}

func (b *PhraseBuilder) flushWord() {
	if b.word == nil {
		return
	}
	word := *b.word
	b.word = nil
	b.addWord(word)
}

// addWord splits a word holding spaces into words a tick apart
func (b *PhraseBuilder) addWord(word Word) {
	for {
		left, right, found := strings.Cut(word.Text, " ")
		if !found {
			break
		}
		if left != "" {
			b.addSingle(Word{Start: word.Start, End: word.Start + 1, Text: left})
			word.Start++
		}
		word.Text = right
	}
	if word.Text == "" {
		return
	}
	word.End = max(word.End, word.Start)
	b.addSingle(word)
}

func (b *PhraseBuilder) addSingle(word Word) {
	groupStart := strings.HasPrefix(word.Text, "[")
	groupEnd := strings.HasSuffix(word.Text, "]")

	var isEnd bool
	if b.inGroup || groupStart {
		isEnd = groupEnd
	} else {
		isEnd = strings.HasSuffix(word.Text, ".") || strings.HasSuffix(word.Text, "!")
	}

	if len(b.phrase.Words) > 0 {
		newPhrase := false
		if !b.inGroup {
			// a capital letter after a rest, or any long rest
			restThenCapital := isCapital(word.Text) && word.Start > b.phrase.End
			bigRest := word.Start >= b.phrase.End+Minim
			newPhrase = restThenCapital || bigRest || groupStart
		}
		if newPhrase {
			b.flushPhrase()
		}
	}

	if len(b.phrase.Words) == 0 {
		b.phrase.Start = word.Start
	}
	b.phrase.End = word.End
	b.phrase.Words = append(b.phrase.Words, word)
	if isEnd {
		b.flushPhrase()
	}

	if groupStart {
		b.inGroup = true
	}
	if groupEnd {
		b.inGroup = false
	}
}

func (b *PhraseBuilder) flushPhrase() {
	if len(b.phrase.Words) == 0 {
		return
	}
	b.phrases = append(b.phrases, b.phrase)
	b.phrase = Phrase{}
}

// Build finishes the word and phrase in progress
func (b *PhraseBuilder) Build() (*Part, error) {
	if b.built {
		return nil, ErrBuilt
	}
	b.built = true
	b.flushWord()
	b.flushPhrase()
	return &Part{Phrases: b.phrases}, nil
}

// isCapital reports whether text starts with an upper case letter,
// possibly after an apostrophe
func isCapital(text string) bool {
	text = strings.TrimPrefix(text, "'")
	return text != "" && text[0] >= 'A' && text[0] <= 'Z'
}
