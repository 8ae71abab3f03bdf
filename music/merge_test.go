package music

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func phrase(start, end Tick, words ...string) Phrase {
	p := Phrase{Start: start, End: end}
	for i, text := range words {
		p.Words = append(p.Words, Word{Start: start + Tick(i), End: start + Tick(i) + 1, Text: text})
	}
	return p
}

func TestMergeDuplicate(t *testing.T) {
	part := &Part{Phrases: []Phrase{phrase(0, 100, "A"), phrase(200, 300, "B")}}
	next := part.Merge(phrase(200, 300, "B"), 0)
	assert.Equal(t, 1, next)
	assert.Len(t, part.Phrases, 2)
}

func TestMergeSameTimesDifferentWords(t *testing.T) {
	part := &Part{Phrases: []Phrase{phrase(0, 100, "A")}}
	next := part.Merge(phrase(0, 100, "Ah"), 0)
	assert.Equal(t, 2, next)
	assert.Equal(t, []string{"A", "Ah"}, phraseTexts(part.Phrases))
}

func TestMergeInsert(t *testing.T) {
	part := &Part{Phrases: []Phrase{phrase(0, 100, "A"), phrase(400, 500, "C")}}
	next := part.Merge(phrase(200, 300, "B"), 0)
	assert.Equal(t, 2, next)
	assert.Equal(t, []string{"A", "B", "C"}, phraseTexts(part.Phrases))
}

func TestMergeAppend(t *testing.T) {
	part := &Part{Phrases: []Phrase{phrase(0, 100, "A")}}
	next := part.Merge(phrase(200, 300, "B"), 0)
	assert.Equal(t, 2, next)
	assert.Equal(t, []string{"A", "B"}, phraseTexts(part.Phrases))
}

func TestMergeNeverLooksBehindCursor(t *testing.T) {
	part := &Part{Phrases: []Phrase{phrase(0, 100, "A"), phrase(400, 500, "C")}}
	next := part.Merge(phrase(200, 300, "B"), 2)
	assert.Equal(t, 3, next)
	assert.Equal(t, []string{"A", "C", "B"}, phraseTexts(part.Phrases))
}

func TestMergeParts(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	first := &Part{Phrases: []Phrase{
		phrase(0, 1024, "Hello", "world."),
		phrase(1024, 2048, "Goodbye", "moon."),
		phrase(2048, 3072, "Amen."),
	}}
	second := &Part{Phrases: []Phrase{
		phrase(0, 1024, "Ooh."),
		phrase(1024, 2048, "Ooh."),
		phrase(2048, 3072, "Amen."),
	}}

	merged := mergeParts([]*Part{first, second}, zap.New(core))
	assert.Equal(t,
		[]string{"Hello world.", "Ooh.", "Goodbye moon.", "Ooh.", "Amen."},
		phraseTexts(merged.Phrases))
	assert.Len(t, first.Phrases, 3, "the first part is left untouched")
	assert.Equal(t, 2, logs.FilterMessage("inserted phrase").Len())
}

func TestMergeNoParts(t *testing.T) {
	merged := mergeParts(nil, zap.NewNop())
	assert.Empty(t, merged.Phrases)
}
