package music

import (
	"iter"
	"maps"
	"slices"
)

// BarRange is the half open range of bar indexes [Start, End)
type BarRange struct {
	Start int
	End   int
}

// Empty reports whether the range holds no bars
func (r BarRange) Empty() bool {
	return r.End <= r.Start
}

// Segment is a run of bars played once under a verse tag, or Common
type Segment struct {
	Verse int
	Bars  BarRange
}

// Repeats is the playback order of a score once its repeat barlines and
// ending brackets are resolved
type Repeats struct {
	firstNumber int
	durations   []Tick
	segments    []Segment
}

// FirstNumber is the measure number of bar index 0
func (r *Repeats) FirstNumber() int {
	return r.firstNumber
}

// BarCount is the number of bars in the reference part
func (r *Repeats) BarCount() int {
	return len(r.durations)
}

// Duration is the length of a bar, the widest voice read in it
func (r *Repeats) Duration(index int) Tick {
	return r.durations[index]
}

// Segments returns the playback order as a list of bar ranges
func (r *Repeats) Segments() []Segment {
	return slices.Clone(r.segments)
}

// Bar is one bar of the replay, with the absolute tick at which it starts
type Bar struct {
	Index int
	Verse int
	Tick  Tick
}

// Bars starts a new replay of the playback order
func (r *Repeats) Bars() *BarIterator {
	return &BarIterator{
		durations: r.durations,
		segments:  r.segments,
	}
}

// All returns the replay as a sequence; each range over it starts afresh
func (r *Repeats) All() iter.Seq[Bar] {
	return func(yield func(Bar) bool) {
		bars := r.Bars()
		for {
			bar, ok := bars.Next()
			if !ok || !yield(bar) {
				return
			}
		}
	}
}

// BarIterator walks the segments of a Repeats, bar by bar, keeping a
// running tick so the whole replay lies on one timeline
type BarIterator struct {
	durations []Tick
	segments  []Segment
	segment   int
	verse     int
	index     int
	end       int
	tick      Tick
}

// Next returns the next bar of the replay, or false once it is finished
func (it *BarIterator) Next() (Bar, bool) {
	for {
		if it.index < it.end {
			bar := Bar{
				Index: it.index,
				Verse: it.verse,
				Tick:  it.tick,
			}
			it.tick += it.durations[it.index]
			it.index++
			return bar, true
		}
		if it.segment >= len(it.segments) {
			return Bar{}, false
		}
		segment := it.segments[it.segment]
		it.segment++
		it.verse = segment.Verse
		it.index = segment.Bars.Start
		it.end = segment.Bars.End
	}
}

// repeatState is the position of the builder relative to repeat barlines.
// bar is the index from which the next segment will be emitted.
type repeatState interface {
	repeatState()
}

type stateNormal struct {
	bar int
}

type stateRepeatStart struct {
	bar int
}

type stateEndingStart struct {
	bar    int
	verses Verses
}

type stateEndingStop struct {
	bar    int
	verses Verses
}

type stateRepeatStop struct {
	bar int
}

func (stateNormal) repeatState()      {}
func (stateRepeatStart) repeatState() {}
func (stateEndingStart) repeatState() {}
func (stateEndingStop) repeatState()  {}
func (stateRepeatStop) repeatState()  {}

// RepeatsBuilder reads the bars and barlines of the reference part.
// Build may only be called once.
type RepeatsBuilder struct {
	firstNumber int
	bar         int
	durations   []Tick
	position    Tick
	width       Tick
	state       repeatState
	common      BarRange
	endings     map[int]Segment
	segments    []Segment
	built       bool
}

// NewRepeatsBuilder starts reading at the measure numbered number
func NewRepeatsBuilder(number int) *RepeatsBuilder {
	return &RepeatsBuilder{
		firstNumber: number,
		state:       stateNormal{bar: 0},
		endings:     make(map[int]Segment),
	}
}

func (r *RepeatsBuilder) number(bar int) int {
	return bar + r.firstNumber
}

// Next moves on to the following measure, which must be numbered in sequence
func (r *RepeatsBuilder) Next(number int) error {
	expect := r.number(r.bar + 1)
	if number != expect {
		return structureError("unexpected bar %d, expecting %d", number, expect)
	}
	r.durations = append(r.durations, r.width)
	r.bar++
	r.position = 0
	r.width = 0
	return nil
}

func (r *RepeatsBuilder) Forward(ticks Tick) {
	r.position += ticks
	r.width = max(r.width, r.position)
}

func (r *RepeatsBuilder) Backward(ticks Tick) error {
	if ticks > r.position {
		return structureError("backup of %d ticks before the start of bar %d", ticks, r.number(r.bar))
	}
	r.position -= ticks
	return nil
}

func (r *RepeatsBuilder) RepeatStart() error {
	switch state := r.state.(type) {
	case stateNormal:
		r.push(Common, BarRange{Start: state.bar, End: r.bar})

	case stateRepeatStop:
		if err := r.repeatOpen(BarRange{Start: state.bar, End: r.bar}); err != nil {
			return err
		}

	case stateEndingStop:
		if err := r.endingsClose(state, r.bar); err != nil {
			return err
		}

	case stateRepeatStart:
		return repeatError("start of repeat at bar %d inside the repeat from bar %d",
			r.number(r.bar), r.number(state.bar))

	case stateEndingStart:
		return repeatError("start of repeat at bar %d inside ending %s from bar %d",
			r.number(r.bar), state.verses, r.number(state.bar))
	}
	r.state = stateRepeatStart{bar: r.bar}
	return nil
}

func (r *RepeatsBuilder) EndingStart(verses Verses) error {
	switch state := r.state.(type) {
	case stateNormal:
		if state.bar > 0 {
			return repeatError("ending %s at bar %d with no start of repeat", verses, r.number(r.bar))
		}
		r.endingOpen(state.bar, verses)

	case stateRepeatStart:
		r.endingOpen(state.bar, verses)

	case stateRepeatStop:
		if r.bar != state.bar {
			return repeatError("alternative ending must start straight after end of repeat at bar %d",
				r.number(r.bar))
		}
		if len(r.endings) == 0 && verses == 1<<1 {
			// 2nd time bar with no 1st time bar: the first time through ends at the repeat
			r.endings[0] = Segment{
				Verse: Common,
				Bars:  BarRange{Start: state.bar, End: state.bar},
			}
		}
		if expect := r.nextEnding(); verses&(1<<expect) == 0 {
			return repeatError("ending %s at bar %d, expecting ending %d",
				verses, r.number(r.bar), expect+1)
		}
		r.state = stateEndingStart{bar: state.bar, verses: verses}

	case stateEndingStart:
		return repeatError("ending %s at bar %d inside ending %s from bar %d",
			verses, r.number(r.bar), state.verses, r.number(state.bar))

	case stateEndingStop:
		return repeatError("ending %s at bar %d before the end of repeat", verses, r.number(r.bar))
	}
	return nil
}

func (r *RepeatsBuilder) endingOpen(start int, verses Verses) {
	r.common = BarRange{Start: start, End: r.bar}
	clear(r.endings)
	r.state = stateEndingStart{bar: r.bar, verses: verses}
}

// nextEnding is the lowest verse with no ending yet
func (r *RepeatsBuilder) nextEnding() int {
	verse := 0
	for {
		if _, ok := r.endings[verse]; !ok {
			return verse
		}
		verse++
	}
}

func (r *RepeatsBuilder) EndingEnd(verses Verses, final bool) error {
	state, ok := r.state.(stateEndingStart)
	if !ok {
		return repeatError("end of ending %s at bar %d with no start of ending", verses, r.number(r.bar))
	}
	if verses != state.verses {
		return repeatError("ending %s from bar %d closed as ending %s at bar %d",
			state.verses, r.number(state.bar), verses, r.number(r.bar))
	}
	if err := r.endingRecord(state.bar, verses); err != nil {
		return err
	}
	if !final {
		r.state = stateEndingStop{bar: r.bar + 1, verses: verses}
		return nil
	}
	last, ok := verses.Single()
	if !ok {
		return repeatError("final ending at bar %d must be singular", r.number(state.bar))
	}
	if err := r.repeatClosed(last + 1); err != nil {
		return err
	}
	r.state = stateNormal{bar: r.bar + 1}
	return nil
}

// endingRecord stores the ending from bar start through the current bar
// against each of its verses
func (r *RepeatsBuilder) endingRecord(start int, verses Verses) error {
	bars := BarRange{Start: start, End: r.bar + 1}
	list := verses.List()
	for _, verse := range list {
		if dup, ok := r.endings[verse]; ok {
			return repeatError("ending %d at bar %d is duplicated as bar %d",
				verse+1, r.number(dup.Bars.Start), r.number(start))
		}
	}
	if len(list) == 1 {
		r.endings[list[0]] = Segment{Verse: Common, Bars: bars}
		return nil
	}
	for ordinal, verse := range list {
		r.endings[verse] = Segment{Verse: ordinal, Bars: bars}
	}
	return nil
}

func (r *RepeatsBuilder) RepeatEnd() error {
	switch state := r.state.(type) {
	case stateNormal:
		if state.bar > 0 {
			return repeatError("end of repeat at bar %d with no start of repeat", r.number(r.bar))
		}
		r.repeatEnd(state.bar)

	case stateRepeatStart:
		r.repeatEnd(state.bar)

	case stateEndingStop:
		if state.bar != r.bar+1 {
			return repeatError("gap between ending at bar %d and repeat at bar %d",
				r.number(state.bar-1), r.number(r.bar))
		}
		r.state = stateRepeatStop{bar: state.bar}

	case stateEndingStart:
		return repeatError("end of repeat at bar %d inside ending %s from bar %d",
			r.number(r.bar), state.verses, r.number(state.bar))

	case stateRepeatStop:
		return repeatError("end of repeat at bar %d with no start of repeat", r.number(r.bar))
	}
	return nil
}

func (r *RepeatsBuilder) repeatEnd(start int) {
	r.common = BarRange{Start: start, End: r.bar + 1}
	clear(r.endings)
	r.state = stateRepeatStop{bar: r.bar + 1}
}

// repeatOpen resolves a repeat whose end was seen, then the common bars
// after it
func (r *RepeatsBuilder) repeatOpen(after BarRange) error {
	if len(r.endings) > 0 {
		last := slices.Max(slices.Collect(maps.Keys(r.endings)))
		if err := r.repeatClosed(last + 1); err != nil {
			return err
		}
	} else {
		// no 1st / 2nd time bars, so assume it is played twice
		r.push(0, r.common)
		r.push(1, r.common)
	}
	r.push(Common, after)
	return nil
}

// repeatClosed emits the common bars then the ending of each verse in turn
func (r *RepeatsBuilder) repeatClosed(verses int) error {
	for verse := range verses {
		r.push(verse, r.common)
		ending, ok := r.endings[verse]
		if !ok {
			return repeatError("repeat at bar %d missing ending %d", r.number(r.bar), verse+1)
		}
		r.push(ending.Verse, ending.Bars)
		delete(r.endings, verse)
	}
	return nil
}

// endingsClose resolves a repeat whose last ending had no backward repeat,
// then the common bars from the end of that ending up to bar end
func (r *RepeatsBuilder) endingsClose(state stateEndingStop, end int) error {
	last, ok := state.verses.Single()
	if !ok {
		return repeatError("final ending at bar %d must be singular", r.number(state.bar-1))
	}
	if err := r.repeatClosed(last + 1); err != nil {
		return err
	}
	r.push(Common, BarRange{Start: state.bar, End: end})
	return nil
}

func (r *RepeatsBuilder) push(verse int, bars BarRange) {
	if bars.Empty() {
		return
	}
	r.segments = append(r.segments, Segment{Verse: verse, Bars: bars})
}

// Build closes whatever repeat or ending is still open at the end of the
// part and returns the resolved playback order
func (r *RepeatsBuilder) Build() (*Repeats, error) {
	if r.built {
		return nil, ErrBuilt
	}
	r.built = true
	r.durations = append(r.durations, r.width)

	end := r.bar + 1
	switch state := r.state.(type) {
	case stateNormal:
		r.push(Common, BarRange{Start: state.bar, End: end})

	case stateRepeatStart:
		r.repeatEnd(state.bar)
		if err := r.repeatOpen(BarRange{}); err != nil {
			return nil, err
		}

	case stateEndingStart:
		verse, ok := state.verses.Single()
		if !ok {
			return nil, repeatError("final ending at bar %d must be singular", r.number(state.bar))
		}
		if err := r.endingRecord(state.bar, state.verses); err != nil {
			return nil, err
		}
		if err := r.repeatClosed(verse + 1); err != nil {
			return nil, err
		}

	case stateEndingStop:
		if err := r.endingsClose(state, end); err != nil {
			return nil, err
		}

	case stateRepeatStop:
		if err := r.repeatOpen(BarRange{Start: state.bar, End: end}); err != nil {
			return nil, err
		}
	}

	return &Repeats{
		firstNumber: r.firstNumber,
		durations:   r.durations,
		segments:    r.segments,
	}, nil
}
