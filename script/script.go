// Package script splits a plain text lyric script into headings, line
// numbers and words.
//
// A script looks like:
//
//	Verse 1
//	1. Amazing grace how sweet the sound
//	2. That saved a wretch like me
//
// Lines starting with digits and a full stop are lyric lines, any other
// non-blank line is a heading.
package script

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

type TokenKind uint8

const (
	Heading TokenKind = iota
	LineNumber
	Word
)

func (k TokenKind) String() string {
	switch k {
	case Heading:
		return "heading"
	case LineNumber:
		return "line"
	case Word:
		return "word"
	}
	return fmt.Sprintf("TokenKind(%d)", uint8(k))
}

func (k TokenKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Token is one heading, line number or word of the script
type Token struct {
	Kind TokenKind `json:"kind" yaml:"kind"`
	Text string    `json:"text" yaml:"text"`
}

var lineNumber = regexp.MustCompile(`^(\d+)\.`)

var normalize = strings.NewReplacer(
	"’", "'",
	"‘", "'",
	"…", "...",
)

// Tokenize splits text into tokens, line by line. Characters outside ASCII
// left after normalizing quotes and ellipses are logged as warnings, since
// they rarely match what a score exporter writes. A nil logger discards
// the warnings.
func Tokenize(text string, logger *zap.Logger) []Token {
	if logger == nil {
		logger = zap.NewNop()
	}
	var tokens []Token
	for n, line := range strings.Split(normalize.Replace(text), "\n") {
		line = strings.TrimRight(line, "\r")
		warnNonASCII(logger, n+1, line)

		if match := lineNumber.FindStringSubmatch(line); match != nil {
			tokens = append(tokens, Token{Kind: LineNumber, Text: match[1]})
			for _, word := range strings.Fields(line[len(match[0]):]) {
				tokens = append(tokens, Token{Kind: Word, Text: word})
			}
			continue
		}

		if heading := strings.TrimSpace(line); heading != "" {
			tokens = append(tokens, Token{Kind: Heading, Text: heading})
		}
	}
	return tokens
}

func warnNonASCII(logger *zap.Logger, line int, text string) {
	column := 0
	for _, r := range text {
		column++
		if r < utf8.RuneSelf {
			continue
		}
		logger.Warn("non-ASCII character in script",
			zap.Int("line", line),
			zap.Int("column", column),
			zap.String("char", string(r)),
			zap.String("code", fmt.Sprintf("U+%04X", r)),
		)
	}
}
