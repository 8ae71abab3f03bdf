package diff

import (
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
	"golang.org/x/text/cases"
)

// Words compares a script word with the score word it was aligned to.
// Words differing only in letter case give a single CaseOnly diff, other
// differences are broken down into runs of same and changed characters.
func Words(scriptText, musicText string) []Diff {
	if scriptText == musicText {
		return []Diff{{Kind: Same, Text: scriptText}}
	}
	if caseEqual(scriptText, musicText) {
		return []Diff{{Kind: CaseOnly, Text: musicText}}
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0

	w := &wordScanner{}
	for _, d := range dmp.DiffMain(scriptText, musicText, false) {
		for _, c := range d.Text {
			w.char(d.Type, c)
		}
	}
	diffs := w.finish()
	for i := 1; i < len(diffs); i++ {
		diffs[i].Joined = true
	}
	return diffs
}

func caseEqual(a, b string) bool {
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}

type scanState uint8

const (
	scanEmpty scanState = iota
	scanSame
	scanDiff
)

// wordScanner collects a character diff into runs: equal characters into
// a Same run, characters on either side only into a changed run
type wordScanner struct {
	state  scanState
	same   strings.Builder
	script strings.Builder
	music  strings.Builder
	diffs  []Diff
}

func (w *wordScanner) char(op diffmatchpatch.Operation, c rune) {
	if op == diffmatchpatch.DiffEqual {
		if w.state == scanDiff {
			w.flushChanged()
		}
		w.state = scanSame
		w.same.WriteRune(c)
		return
	}

	if w.state == scanSame {
		w.flushSame()
	}
	w.state = scanDiff
	if op == diffmatchpatch.DiffDelete {
		w.script.WriteRune(c)
	} else {
		w.music.WriteRune(c)
	}
}

func (w *wordScanner) flushSame() {
	w.diffs = append(w.diffs, Diff{Kind: Same, Text: w.same.String()})
	w.same.Reset()
}

// flushChanged reports the changed run. A run with one side empty is text
// missing from the other side, and a single letter differing in case is
// CaseOnly.
func (w *wordScanner) flushChanged() {
	scriptText, musicText := w.script.String(), w.music.String()
	w.script.Reset()
	w.music.Reset()

	switch {
	case musicText == "":
		w.diffs = append(w.diffs, Diff{Kind: ScriptOnly, Text: scriptText})
	case scriptText == "":
		w.diffs = append(w.diffs, Diff{Kind: MusicOnly, Text: musicText})
	case utf8.RuneCountInString(scriptText) == 1 && utf8.RuneCountInString(musicText) == 1 &&
		caseEqual(scriptText, musicText):
		w.diffs = append(w.diffs, Diff{Kind: CaseOnly, Text: musicText})
	default:
		w.diffs = append(w.diffs, Diff{Kind: Replace, Script: scriptText, Music: musicText})
	}
}

func (w *wordScanner) finish() []Diff {
	switch w.state {
	case scanSame:
		w.flushSame()
	case scanDiff:
		w.flushChanged()
	}
	return w.diffs
}
