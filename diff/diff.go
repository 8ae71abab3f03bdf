// Package diff compares the words of a lyric script against the words of a
// score, down to single characters within a word.
//
// Words are aligned on their Key, so case and punctuation differences
// still line up, then each aligned pair is compared character by character.
// The result follows the layout of the script: sections under headings,
// lines under line numbers.
package diff

import (
	"fmt"
	"strings"

	"github.com/leafo/lyriccheck/music"
	"github.com/leafo/lyriccheck/script"
	"go.uber.org/zap"
)

type Kind uint8

const (
	// Same text in script and score
	Same Kind = iota
	// ScriptOnly text is missing from the score
	ScriptOnly
	// MusicOnly text is missing from the script
	MusicOnly
	// CaseOnly text differs in letter case only; Text is the score's
	CaseOnly
	// Replace has different text on each side
	Replace
)

func (k Kind) String() string {
	switch k {
	case Same:
		return "same"
	case ScriptOnly:
		return "script"
	case MusicOnly:
		return "music"
	case CaseOnly:
		return "case"
	case Replace:
		return "replace"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Diff is one run of text. Replace uses Script and Music, every other kind
// uses Text. Joined marks a run that continues the word of the run before
// it, rather than starting a new word.
type Diff struct {
	Kind   Kind   `json:"kind" yaml:"kind"`
	Text   string `json:"text,omitempty" yaml:"text,omitempty"`
	Script string `json:"script,omitempty" yaml:"script,omitempty"`
	Music  string `json:"music,omitempty" yaml:"music,omitempty"`
	Joined bool   `json:"joined,omitempty" yaml:"joined,omitempty"`
}

// Line is a numbered script line; Number is empty for words before the
// first line number of a section
type Line struct {
	Number string `json:"number,omitempty" yaml:"number,omitempty"`
	Diffs  []Diff `json:"diffs" yaml:"diffs"`
}

// Section is the run of lines under a script heading
type Section struct {
	Heading string `json:"heading,omitempty" yaml:"heading,omitempty"`
	Lines   []Line `json:"lines" yaml:"lines"`
}

// Key is the form words are aligned on: the ASCII letters of text in lower
// case. Text with no letters at all is its own key.
func Key(text string) string {
	var key strings.Builder
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c >= 'A' && c <= 'Z':
			key.WriteByte(c + 'a' - 'A')
		case c >= 'a' && c <= 'z':
			key.WriteByte(c)
		}
	}
	if key.Len() == 0 {
		return text
	}
	return key.String()
}

// Read tokenizes a script, reads a MusicXML score and compares the two
func Read(scriptText string, scoreXML []byte, logger *zap.Logger) ([]Section, error) {
	m, err := music.Read(scoreXML, logger)
	if err != nil {
		return nil, err
	}
	tokens := script.Tokenize(scriptText, logger)
	return Compare(tokens, m.Words()), nil
}

// Compare aligns the script tokens with the score's words
func Compare(tokens []script.Token, words []music.Word) []Section {
	b := &builder{}
	for _, op := range align(tokens, words) {
		switch op.side {
		case both:
			b.same(tokens[op.script].Text, words[op.music].Text)

		case scriptSide:
			token := tokens[op.script]
			switch token.Kind {
			case script.Heading:
				b.heading(token.Text)
			case script.LineNumber:
				b.lineNumber(token.Text)
			case script.Word:
				b.scripts = append(b.scripts, token.Text)
			}

		case musicSide:
			b.musics = append(b.musics, words[op.music].Text)
		}
	}
	return b.build()
}

// builder lays out aligned words as sections and lines. Unmatched words
// are buffered so that a run of them is reported as one diff.
type builder struct {
	sections []Section
	section  Section
	line     Line
	scripts  []string
	musics   []string
}

func (b *builder) heading(heading string) {
	b.flushDiff()
	b.flushLine()
	b.flushSection()
	b.section.Heading = heading
}

func (b *builder) lineNumber(number string) {
	b.flushDiff()
	b.flushLine()
	b.line.Number = number
}

func (b *builder) same(scriptText, musicText string) {
	b.flushDiff()
	b.line.Diffs = append(b.line.Diffs, Words(scriptText, musicText)...)
}

func (b *builder) flushDiff() {
	switch {
	case len(b.scripts) == 0 && len(b.musics) == 0:
		return
	case len(b.scripts) == 1 && len(b.musics) == 1:
		b.line.Diffs = append(b.line.Diffs, Words(b.scripts[0], b.musics[0])...)
	case len(b.musics) == 0:
		b.line.Diffs = append(b.line.Diffs, Diff{Kind: ScriptOnly, Text: strings.Join(b.scripts, " ")})
	case len(b.scripts) == 0:
		b.line.Diffs = append(b.line.Diffs, Diff{Kind: MusicOnly, Text: strings.Join(b.musics, " ")})
	default:
		b.line.Diffs = append(b.line.Diffs, Diff{
			Kind:   Replace,
			Script: strings.Join(b.scripts, " "),
			Music:  strings.Join(b.musics, " "),
		})
	}
	b.scripts = b.scripts[:0]
	b.musics = b.musics[:0]
}

func (b *builder) flushLine() {
	if b.line.Number == "" && len(b.line.Diffs) == 0 {
		return
	}
	b.section.Lines = append(b.section.Lines, b.line)
	b.line = Line{}
}

func (b *builder) flushSection() {
	if b.section.Heading == "" && len(b.section.Lines) == 0 {
		return
	}
	b.sections = append(b.sections, b.section)
	b.section = Section{}
}

func (b *builder) build() []Section {
	b.flushDiff()
	b.flushLine()
	b.flushSection()
	return b.sections
}

// Stats counts the diffs of a comparison by kind
type Stats struct {
	Sections   int `json:"sections" yaml:"sections"`
	Lines      int `json:"lines" yaml:"lines"`
	Same       int `json:"same" yaml:"same"`
	ScriptOnly int `json:"scriptOnly" yaml:"scriptOnly"`
	MusicOnly  int `json:"musicOnly" yaml:"musicOnly"`
	CaseOnly   int `json:"caseOnly" yaml:"caseOnly"`
	Replace    int `json:"replace" yaml:"replace"`
}

// Differences is the number of diffs that are not Same
func (s Stats) Differences() int {
	return s.ScriptOnly + s.MusicOnly + s.CaseOnly + s.Replace
}

func Summary(sections []Section) Stats {
	stats := Stats{Sections: len(sections)}
	for _, section := range sections {
		stats.Lines += len(section.Lines)
		for _, line := range section.Lines {
			for _, d := range line.Diffs {
				switch d.Kind {
				case Same:
					stats.Same++
				case ScriptOnly:
					stats.ScriptOnly++
				case MusicOnly:
					stats.MusicOnly++
				case CaseOnly:
					stats.CaseOnly++
				case Replace:
					stats.Replace++
				}
			}
		}
	}
	return stats
}
