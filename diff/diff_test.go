package diff

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leafo/lyriccheck/music"
	"github.com/leafo/lyriccheck/script"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"Hello,", "hello"},
		{"hello", "hello"},
		{"Don't", "dont"},
		{"...", "..."},
		{"café", "caf"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Key(tt.text); got != tt.expected {
			t.Errorf("Key(%q): expected %q, got %q", tt.text, tt.expected, got)
		}
	}
}

func TestWords(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		music    string
		expected []Diff
	}{
		{
			name:     "same",
			script:   "grace",
			music:    "grace",
			expected: []Diff{{Kind: Same, Text: "grace"}},
		},
		{
			name:     "case only",
			script:   "cat",
			music:    "Cat",
			expected: []Diff{{Kind: CaseOnly, Text: "Cat"}},
		},
		{
			name:     "nothing in common",
			script:   "cat",
			music:    "dog",
			expected: []Diff{{Kind: Replace, Script: "cat", Music: "dog"}},
		},
		{
			name:   "punctuation in the script",
			script: "grace,",
			music:  "grace",
			expected: []Diff{
				{Kind: Same, Text: "grace"},
				{Kind: ScriptOnly, Text: ",", Joined: true},
			},
		},
		{
			name:   "letter missing from the script",
			script: "word",
			music:  "world",
			expected: []Diff{
				{Kind: Same, Text: "wor"},
				{Kind: MusicOnly, Text: "l", Joined: true},
				{Kind: Same, Text: "d", Joined: true},
			},
		},
		{
			name:   "letter inside the word missing from the score",
			script: "colour",
			music:  "color",
			expected: []Diff{
				{Kind: Same, Text: "colo"},
				{Kind: ScriptOnly, Text: "u", Joined: true},
				{Kind: Same, Text: "r", Joined: true},
			},
		},
		{
			name:   "letter inside the word missing from the script",
			script: "color",
			music:  "colour",
			expected: []Diff{
				{Kind: Same, Text: "colo"},
				{Kind: MusicOnly, Text: "u", Joined: true},
				{Kind: Same, Text: "r", Joined: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.expected, Words(tt.script, tt.music)); diff != "" {
				t.Errorf("diffs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWordScanner(t *testing.T) {
	w := &wordScanner{}
	feed := func(op diffmatchpatch.Operation, text string) {
		for _, c := range text {
			w.char(op, c)
		}
	}
	feed(diffmatchpatch.DiffDelete, "L")
	feed(diffmatchpatch.DiffInsert, "l")
	feed(diffmatchpatch.DiffEqual, "or")
	feed(diffmatchpatch.DiffInsert, "a")
	feed(diffmatchpatch.DiffDelete, "e")
	feed(diffmatchpatch.DiffEqual, "d")
	feed(diffmatchpatch.DiffDelete, "!")

	expected := []Diff{
		{Kind: CaseOnly, Text: "l"},
		{Kind: Same, Text: "or"},
		{Kind: Replace, Script: "e", Music: "a"},
		{Kind: Same, Text: "d"},
		{Kind: ScriptOnly, Text: "!"},
	}
	if diff := cmp.Diff(expected, w.finish()); diff != "" {
		t.Errorf("diffs mismatch (-want +got):\n%s", diff)
	}
}

func musicWords(texts ...string) []music.Word {
	words := make([]music.Word, len(texts))
	for i, text := range texts {
		start := music.Tick(i) * music.Crotchet
		words[i] = music.Word{Start: start, End: start + music.Crotchet, Text: text}
	}
	return words
}

func same(texts ...string) []Diff {
	diffs := make([]Diff, len(texts))
	for i, text := range texts {
		diffs[i] = Diff{Kind: Same, Text: text}
	}
	return diffs
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		music    []music.Word
		expected []Section
	}{
		{
			name:   "identical",
			script: "3. Amazing grace how sweet",
			music:  musicWords("Amazing", "grace", "how", "sweet"),
			expected: []Section{{Lines: []Line{
				{Number: "3", Diffs: same("Amazing", "grace", "how", "sweet")},
			}}},
		},
		{
			name:   "sections and lines",
			script: "Verse 1\n1. Hello world\n2. Goodbye\n\nChorus\n3. Amen",
			music:  musicWords("Hello", "world", "Goodbye", "Amen"),
			expected: []Section{
				{Heading: "Verse 1", Lines: []Line{
					{Number: "1", Diffs: same("Hello", "world")},
					{Number: "2", Diffs: same("Goodbye")},
				}},
				{Heading: "Chorus", Lines: []Line{
					{Number: "3", Diffs: same("Amen")},
				}},
			},
		},
		{
			name:   "word missing from the score",
			script: "1. Hello big world",
			music:  musicWords("Hello", "world"),
			expected: []Section{{Lines: []Line{{Number: "1", Diffs: []Diff{
				{Kind: Same, Text: "Hello"},
				{Kind: ScriptOnly, Text: "big"},
				{Kind: Same, Text: "world"},
			}}}}},
		},
		{
			name:   "words missing from the script",
			script: "1. Hello world",
			music:  musicWords("Hello", "big", "wide", "world"),
			expected: []Section{{Lines: []Line{{Number: "1", Diffs: []Diff{
				{Kind: Same, Text: "Hello"},
				{Kind: MusicOnly, Text: "big wide"},
				{Kind: Same, Text: "world"},
			}}}}},
		},
		{
			name:   "one word for another",
			script: "1. Hello word",
			music:  musicWords("Hello", "world"),
			expected: []Section{{Lines: []Line{{Number: "1", Diffs: []Diff{
				{Kind: Same, Text: "Hello"},
				{Kind: Same, Text: "wor"},
				{Kind: MusicOnly, Text: "l", Joined: true},
				{Kind: Same, Text: "d", Joined: true},
			}}}}},
		},
		{
			name:   "several words for others",
			script: "1. one two three",
			music:  musicWords("four", "five"),
			expected: []Section{{Lines: []Line{{Number: "1", Diffs: []Diff{
				{Kind: Replace, Script: "one two three", Music: "four five"},
			}}}}},
		},
		{
			name:   "case and punctuation",
			script: "1. amazing Grace,",
			music:  musicWords("Amazing", "grace"),
			expected: []Section{{Lines: []Line{{Number: "1", Diffs: []Diff{
				{Kind: CaseOnly, Text: "Amazing"},
				{Kind: CaseOnly, Text: "g"},
				{Kind: Same, Text: "race", Joined: true},
				{Kind: ScriptOnly, Text: ",", Joined: true},
			}}}}},
		},
		{
			name:   "words before the first line number",
			script: "",
			music:  musicWords("Hello"),
			expected: []Section{{Lines: []Line{{Diffs: []Diff{
				{Kind: MusicOnly, Text: "Hello"},
			}}}}},
		},
		{
			name:   "heading only",
			script: "Intro",
			expected: []Section{
				{Heading: "Intro"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(script.Tokenize(tt.script, nil), tt.music)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("sections mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompareNothing(t *testing.T) {
	assert.Empty(t, Compare(nil, nil))
}

func TestCompareRoundTrip(t *testing.T) {
	texts := []string{"la", "la", "la,", "sing", "la", "la", "la."}
	tokens := []script.Token{{Kind: script.LineNumber, Text: "1"}}
	for _, text := range texts {
		tokens = append(tokens, script.Token{Kind: script.Word, Text: text})
	}

	sections := Compare(tokens, musicWords(texts...))
	require.Len(t, sections, 1)
	require.Len(t, sections[0].Lines, 1)
	assert.Equal(t, same(texts...), sections[0].Lines[0].Diffs)
}

const readScoreXML = `<score-partwise>
  <work><work-title>Test</work-title></work>
  <part id="P1">
    <measure number="1">
      <attributes><divisions>1</divisions></attributes>
      <note><duration>2</duration><voice>1</voice>
        <lyric number="1"><syllabic>begin</syllabic><text>A</text></lyric></note>
      <note><duration>2</duration><voice>1</voice>
        <lyric number="1"><syllabic>end</syllabic><text>men.</text></lyric></note>
    </measure>
  </part>
</score-partwise>`

func TestRead(t *testing.T) {
	sections, err := Read("Ending\n1. Amen", []byte(readScoreXML), nil)
	require.NoError(t, err)

	expected := []Section{{Heading: "Ending", Lines: []Line{{Number: "1", Diffs: []Diff{
		{Kind: Same, Text: "Amen"},
		{Kind: MusicOnly, Text: ".", Joined: true},
	}}}}}
	if diff := cmp.Diff(expected, sections); diff != "" {
		t.Errorf("sections mismatch (-want +got):\n%s", diff)
	}

	stats := Summary(sections)
	assert.Equal(t, Stats{Sections: 1, Lines: 1, Same: 1, MusicOnly: 1}, stats)
	assert.Equal(t, 1, stats.Differences())
}

func TestReadScoreError(t *testing.T) {
	_, err := Read("1. Amen", []byte(`<score-timewise/>`), nil)
	assert.ErrorIs(t, err, music.ErrStructure)
}

func TestSummary(t *testing.T) {
	sections := []Section{
		{Heading: "A", Lines: []Line{
			{Number: "1", Diffs: []Diff{
				{Kind: Same, Text: "x"},
				{Kind: CaseOnly, Text: "Y"},
				{Kind: Replace, Script: "a", Music: "b"},
			}},
			{Number: "2", Diffs: []Diff{{Kind: ScriptOnly, Text: "z"}}},
		}},
		{Heading: "B"},
	}
	expected := Stats{
		Sections:   2,
		Lines:      2,
		Same:       1,
		ScriptOnly: 1,
		CaseOnly:   1,
		Replace:    1,
	}
	stats := Summary(sections)
	assert.Equal(t, expected, stats)
	assert.Equal(t, 3, stats.Differences())
}
