package script

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTokenizeLine(t *testing.T) {
	tokens := Tokenize("3. Amazing grace how sweet", zap.NewNop())
	expected := []Token{
		{Kind: LineNumber, Text: "3"},
		{Kind: Word, Text: "Amazing"},
		{Kind: Word, Text: "grace"},
		{Kind: Word, Text: "how"},
		{Kind: Word, Text: "sweet"},
	}
	if diff := cmp.Diff(expected, tokens); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeScript(t *testing.T) {
	text := "Verse 1\r\n" +
		"1. Amazing grace\r\n" +
		"\r\n" +
		"  Chorus  \n" +
		"12.How  sweet\tthe sound\n" +
		"13.\n" +
		"   \n"

	expected := []Token{
		{Kind: Heading, Text: "Verse 1"},
		{Kind: LineNumber, Text: "1"},
		{Kind: Word, Text: "Amazing"},
		{Kind: Word, Text: "grace"},
		{Kind: Heading, Text: "Chorus"},
		{Kind: LineNumber, Text: "12"},
		{Kind: Word, Text: "How"},
		{Kind: Word, Text: "sweet"},
		{Kind: Word, Text: "the"},
		{Kind: Word, Text: "sound"},
		{Kind: LineNumber, Text: "13"},
	}
	if diff := cmp.Diff(expected, Tokenize(text, nil)); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeHeadingLookalikes(t *testing.T) {
	tests := []struct {
		line     string
		expected Token
	}{
		{" 1. indented", Token{Kind: Heading, Text: "1. indented"}},
		{"1 no stop", Token{Kind: Heading, Text: "1 no stop"}},
		{"V1. verse", Token{Kind: Heading, Text: "V1. verse"}},
	}
	for _, tt := range tests {
		tokens := Tokenize(tt.line, nil)
		if len(tokens) != 1 || tokens[0] != tt.expected {
			t.Errorf("Tokenize(%q): expected %v, got %v", tt.line, tt.expected, tokens)
		}
	}
}

func TestTokenizeNormalizesPunctuation(t *testing.T) {
	tokens := Tokenize("1. ‘Tis the Lord’s… way", nil)
	expected := []Token{
		{Kind: LineNumber, Text: "1"},
		{Kind: Word, Text: "'Tis"},
		{Kind: Word, Text: "the"},
		{Kind: Word, Text: "Lord's..."},
		{Kind: Word, Text: "way"},
	}
	if diff := cmp.Diff(expected, tokens); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeWarnsNonASCII(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	tokens := Tokenize("Verse\n1. café — bon’", zap.New(core))
	require.Len(t, tokens, 5)
	assert.Equal(t, "café", tokens[2].Text)

	entries := logs.FilterMessage("non-ASCII character in script").All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, int64(2), first["line"])
	assert.Equal(t, int64(7), first["column"])
	assert.Equal(t, "U+00E9", first["code"])

	second := entries[1].ContextMap()
	assert.Equal(t, int64(9), second["column"])
	assert.Equal(t, "U+2014", second["code"])
}

func TestTokenizeEmpty(t *testing.T) {
	assert.Empty(t, Tokenize("", nil))
	assert.Empty(t, Tokenize("\n\n  \n", nil))
}

func TestTokenJSON(t *testing.T) {
	data, err := json.Marshal(Token{Kind: LineNumber, Text: "4"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"line","text":"4"}`, string(data))
}
