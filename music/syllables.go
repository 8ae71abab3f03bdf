package music

import (
	"cmp"
	"slices"
)

// Syllable is one lyric syllable. Start and End are relative to the bar
// while collecting, absolute once replayed.
type Syllable struct {
	Start Tick
	End   Tick
	Kind  SyllableKind
	Text  string
	Verse int
	Voice int
}

func compareSyllables(a, b Syllable) int {
	return cmp.Or(
		cmp.Compare(a.Start, b.Start),
		cmp.Compare(a.End, b.End),
		cmp.Compare(a.Kind, b.Kind),
		cmp.Compare(a.Text, b.Text),
	)
}

// barSyllables holds a bar's syllables by verse; verse 0 doubles as the
// lyrics common to every verse
type barSyllables [][]Syllable

func (b barSyllables) verse(verse int) []Syllable {
	if verse < 0 || verse >= len(b) {
		return nil
	}
	return b[verse]
}

func (b barSyllables) sort() {
	for verse, syllables := range b {
		slices.SortFunc(syllables, compareSyllables)
		// the same lyric written under two voices is sung once
		b[verse] = slices.CompactFunc(syllables, func(x, y Syllable) bool {
			return compareSyllables(x, y) == 0
		})
	}
}

// SyllableCollector buckets the syllables of a part by bar and verse, then
// replays them in playback order. One collector serves every part of a
// score in turn.
type SyllableCollector struct {
	repeats    *Repeats
	nextNumber int
	started    bool
	position   Tick
	lyrics     bool
	bars       []barSyllables
	bar        barSyllables
}

func NewSyllableCollector(repeats *Repeats) *SyllableCollector {
	return &SyllableCollector{
		repeats:    repeats,
		nextNumber: repeats.FirstNumber(),
	}
}

// Collect runs one part's events through the collector and returns its
// syllables on the absolute timeline, nil when the part has no lyrics
func (c *SyllableCollector) Collect(events []Event) ([]Syllable, error) {
	for _, event := range events {
		var err error
		switch event := event.(type) {
		case BarStart:
			err = c.BarStart(event.Number)
		case Forward:
			c.Forward(event.Ticks)
		case Backward:
			err = c.Backward(event.Ticks)
		case Lyric:
			c.Lyric(event)
		case RepeatStart, RepeatEnd, EndingStart, EndingEnd:
			// the reference part's barlines were resolved already
		}
		if err != nil {
			return nil, err
		}
	}
	return c.PartEnd(), nil
}

func (c *SyllableCollector) BarStart(number int) error {
	if number != c.nextNumber {
		return structureError("unexpected bar %d, expecting %d", number, c.nextNumber)
	}
	c.nextNumber++
	if c.started {
		c.flushBar()
	}
	c.started = true
	c.position = 0
	return nil
}

func (c *SyllableCollector) Forward(ticks Tick) {
	c.position += ticks
}

func (c *SyllableCollector) Backward(ticks Tick) error {
	if ticks > c.position {
		return structureError("backup of %d ticks before the start of bar %d", ticks, c.nextNumber-1)
	}
	c.position -= ticks
	return nil
}

// Lyric adds a syllable starting at the current position in the bar
func (c *SyllableCollector) Lyric(lyric Lyric) {
	c.lyrics = true
	for len(c.bar) <= lyric.Verse {
		c.bar = append(c.bar, nil)
	}
	c.bar[lyric.Verse] = append(c.bar[lyric.Verse], Syllable{
		Start: c.position,
		End:   c.position + lyric.Ticks,
		Kind:  lyric.Kind,
		Text:  lyric.Text,
		Verse: lyric.Verse,
		Voice: lyric.Voice,
	})
}

func (c *SyllableCollector) flushBar() {
	c.bar.sort()
	c.bars = append(c.bars, c.bar)
	c.bar = nil
}

// PartEnd replays the part's bars in playback order and resets the
// collector for the next part
func (c *SyllableCollector) PartEnd() []Syllable {
	if c.started {
		c.flushBar()
	}
	var syllables []Syllable
	if c.lyrics {
		for bar := range c.repeats.All() {
			syllables = c.replay(syllables, bar)
		}
	}

	c.nextNumber = c.repeats.FirstNumber()
	c.started = false
	c.position = 0
	c.lyrics = false
	c.bars = nil
	c.bar = nil
	return syllables
}

// replay appends the syllables sung in one bar of the playback. A verse
// without its own syllable at some point of the bar falls back to verse 0,
// but only after the last verse syllable sung so far, so a line written
// once for all verses is not sung twice.
func (c *SyllableCollector) replay(out []Syllable, bar Bar) []Syllable {
	if bar.Index >= len(c.bars) {
		return out
	}
	syllables := c.bars[bar.Index]
	common := syllables.verse(0)
	emit := func(s Syllable) {
		s.Start += bar.Tick
		s.End += bar.Tick
		out = append(out, s)
	}

	if bar.Verse <= 0 {
		for _, s := range common {
			emit(s)
		}
		return out
	}

	verse := syllables.verse(bar.Verse)
	var sung Tick
	i, j := 0, 0
	for i < len(verse) || j < len(common) {
		if i < len(verse) && (j >= len(common) || verse[i].Start <= common[j].Start) {
			emit(verse[i])
			sung = verse[i].End
			i++
			continue
		}
		if common[j].Start >= sung {
			emit(common[j])
		}
		j++
	}
	return out
}
