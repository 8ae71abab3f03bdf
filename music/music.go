// Package music reads the lyrics of a MusicXML score into one timeline of
// words and phrases.
//
// Reading happens in stages:
//
//   - ParseScore walks the document and turns every part into events
//     (bar starts, note durations, repeat barlines, ending brackets and
//     lyric syllables).
//   - A RepeatsBuilder resolves the first part's repeats and endings into
//     the order the bars are played in, each bar tagged with its verse.
//   - A SyllableCollector buckets each part's syllables by bar and verse
//     and replays them in playback order on one absolute timeline.
//   - A PhraseBuilder joins syllables into words and words into phrases.
//   - Part.Merge folds the phrases of every further part into the first.
//
// Basic usage:
//
//	m, err := music.Read(data, logger)
//	if err != nil {
//		return err
//	}
//	for _, word := range m.Words() {
//		fmt.Println(word.Start, word.Text)
//	}
package music

import (
	"fmt"

	"go.uber.org/zap"
)

// Music is the merged lyric timeline of a score
type Music struct {
	Title   string   `json:"title,omitempty" yaml:"title,omitempty"`
	Phrases []Phrase `json:"phrases" yaml:"phrases"`
}

// Words returns every word of every phrase, in order
func (m *Music) Words() []Word {
	var words []Word
	for _, phrase := range m.Phrases {
		words = append(words, phrase.Words...)
	}
	return words
}

// Read parses a MusicXML score and assembles its lyrics. A nil logger
// discards diagnostics.
func Read(data []byte, logger *zap.Logger) (*Music, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	score, err := ParseScore(data)
	if err != nil {
		return nil, err
	}
	repeats, err := ReadRepeats(score.Parts[0].Events)
	if err != nil {
		return nil, err
	}
	parts, err := ReadParts(score, repeats)
	if err != nil {
		return nil, err
	}
	logger.Debug("read score",
		zap.String("title", score.Title),
		zap.Int("parts", len(score.Parts)),
		zap.Int("lyricParts", len(parts)),
		zap.Int("bars", repeats.BarCount()),
		zap.Int("segments", len(repeats.segments)),
	)
	merged := mergeParts(parts, logger)
	return &Music{
		Title:   score.Title,
		Phrases: merged.Phrases,
	}, nil
}

// ReadRepeats resolves the bars and barlines of the reference part
func ReadRepeats(events []Event) (*Repeats, error) {
	var builder *RepeatsBuilder
	for _, event := range events {
		if start, ok := event.(BarStart); ok {
			if builder == nil {
				builder = NewRepeatsBuilder(start.Number)
				continue
			}
			if err := builder.Next(start.Number); err != nil {
				return nil, err
			}
			continue
		}
		if builder == nil {
			return nil, structureError("event before the first bar of the part")
		}

		var err error
		switch event := event.(type) {
		case Forward:
			builder.Forward(event.Ticks)
		case Backward:
			err = builder.Backward(event.Ticks)
		case RepeatStart:
			err = builder.RepeatStart()
		case RepeatEnd:
			err = builder.RepeatEnd()
		case EndingStart:
			err = builder.EndingStart(event.Verses)
		case EndingEnd:
			err = builder.EndingEnd(event.Verses, event.Final)
		case Lyric:
			// sung in the second pass
		}
		if err != nil {
			return nil, err
		}
	}
	if builder == nil {
		return nil, structureError("no bars in first part")
	}
	return builder.Build()
}

// ReadParts assembles the phrases of every part that has lyrics, in score
// order
func ReadParts(score *Score, repeats *Repeats) ([]*Part, error) {
	collector := NewSyllableCollector(repeats)
	var parts []*Part
	for _, scorePart := range score.Parts {
		syllables, err := collector.Collect(scorePart.Events)
		if err != nil {
			return nil, fmt.Errorf("part %s: %w", scorePart.ID, err)
		}
		if len(syllables) == 0 {
			continue
		}
		builder := NewPhraseBuilder()
		for _, syllable := range syllables {
			builder.Syllable(syllable)
		}
		part, err := builder.Build()
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, nil
}
