package music

import (
	"errors"
	"fmt"
)

// Tick is the score time unit, 256 ticks to the crotchet
type Tick uint32

const (
	Crotchet  Tick = 256
	Minim          = Crotchet + Crotchet
	Semibreve      = Minim + Minim
)

// Common is the verse tag of bars played through once, outside any repeat
const Common = -1

var (
	// ErrStructure reports a missing or unexpected element, attribute or root tag
	ErrStructure = errors.New("score structure")
	// ErrNumber reports a value that should be an integer and isn't
	ErrNumber = errors.New("score number")
	// ErrRepeat reports repeat barlines or ending brackets that can't be resolved
	ErrRepeat = errors.New("score repeat")
	// ErrBuilt is returned by a builder whose Build has already been called
	ErrBuilt = errors.New("builder already built")
)

func structureError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStructure, fmt.Sprintf(format, args...))
}

func numberError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNumber, fmt.Sprintf(format, args...))
}

func repeatError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRepeat, fmt.Sprintf(format, args...))
}

// SyllableKind is the position of a syllable within its word, from <syllabic>
type SyllableKind uint8

const (
	Single SyllableKind = iota
	Begin
	Middle
	End
)

// ParseSyllableKind reads a MusicXML <syllabic> value
func ParseSyllableKind(s string) (SyllableKind, error) {
	switch s {
	case "single":
		return Single, nil
	case "begin":
		return Begin, nil
	case "middle":
		return Middle, nil
	case "end":
		return End, nil
	}
	return Single, structureError("unknown syllabic kind %q", s)
}

func (k SyllableKind) String() string {
	switch k {
	case Single:
		return "single"
	case Begin:
		return "begin"
	case Middle:
		return "middle"
	case End:
		return "end"
	}
	return fmt.Sprintf("SyllableKind(%d)", uint8(k))
}

// Event is one primitive step read from a part of the score. The set of
// event types is closed: BarStart, Forward, Backward, RepeatStart,
// RepeatEnd, EndingStart, EndingEnd and Lyric.
type Event interface {
	event()
}

// BarStart opens the measure with the given number
type BarStart struct {
	Number int
}

// Forward advances the position within the bar
type Forward struct {
	Ticks Tick
}

// Backward moves the position within the bar back, to read another voice
type Backward struct {
	Ticks Tick
}

// RepeatStart is a forward repeat barline
type RepeatStart struct{}

// RepeatEnd is a backward repeat barline
type RepeatEnd struct{}

// EndingStart opens an ending bracket for the given verses
type EndingStart struct {
	Verses Verses
}

// EndingEnd closes an ending bracket. Final is set for a bracket with no
// closing jog, which is the last time through the repeat.
type EndingEnd struct {
	Verses Verses
	Final  bool
}

// Lyric is one syllable sung on a note lasting Ticks
type Lyric struct {
	Voice int
	Verse int
	Kind  SyllableKind
	Text  string
	Ticks Tick
}

func (BarStart) event()    {}
func (Forward) event()     {}
func (Backward) event()    {}
func (RepeatStart) event() {}
func (RepeatEnd) event()   {}
func (EndingStart) event() {}
func (EndingEnd) event()   {}
func (Lyric) event()       {}
