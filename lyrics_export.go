package main

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/leafo/lyriccheck/music"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

const (
	lyricChannel  uint8 = 0
	lyricKey      uint8 = 60 // C4, inside the 36-84 vocal range
	lyricVelocity uint8 = 100
	gmChoirAahs   uint8 = 52
)

// MidiEvent represents a MIDI event with absolute timing
type MidiEvent struct {
	Time    uint32
	Message smf.Message
}

// TrackInfo contains information needed to create a MIDI track
type TrackInfo struct {
	Name    string      // Track name for meta event
	Channel uint8       // MIDI channel
	Program uint8       // GM program number
	Events  []MidiEvent // All MIDI events for this track
}

// LyricMidiExporter writes the lyric timeline of a score as a Standard MIDI
// File, one note and one lyric event per word. Ticks are written as they
// are, so the file runs at music.Crotchet ticks per quarter note.
type LyricMidiExporter struct {
	smf     *smf.SMF    // Target MIDI file being built
	tracks  []TrackInfo // Accumulated track information
	charset encoding.Encoding
	logger  *zap.Logger
}

// NewLyricMidiExporter creates a new MIDI exporter. Lyric text is encoded
// with charset, or left as UTF-8 when charset is nil.
func NewLyricMidiExporter(charset encoding.Encoding, logger *zap.Logger) *LyricMidiExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &LyricMidiExporter{
		smf:     smf.NewSMF1(),
		charset: charset,
		logger:  logger,
	}
	e.smf.TimeFormat = smf.MetricTicks(music.Crotchet)
	return e
}

// SetupTimingTrack adds the conductor track: the title, a tempo of 120 and
// 4/4 time. Scores carry no tempo that lyrics depend on.
func (e *LyricMidiExporter) SetupTimingTrack(title string) {
	tempoTrack := smf.Track{}
	if title != "" {
		tempoTrack = append(tempoTrack, smf.Event{Delta: 0, Message: smf.Message(smf.MetaTrackSequenceName(e.encode(title)))})
	}
	tempoTrack = append(tempoTrack, smf.Event{Delta: 0, Message: smf.Message(smf.MetaTempo(120.0))})
	tempoTrack = append(tempoTrack, smf.Event{Delta: 0, Message: smf.Message(smf.MetaTimeSig(4, 4, 24, 8))})

	// Always end with End of Track
	tempoTrack = append(tempoTrack, smf.Event{Delta: 0, Message: smf.EOT})
	e.smf.Add(tempoTrack)
}

// AddLyricTrack adds a "Lyrics" track holding every word of m, with a
// marker at the start of each phrase
func (e *LyricMidiExporter) AddLyricTrack(m *music.Music) error {
	words := m.Words()
	if len(words) == 0 {
		return fmt.Errorf("no lyrics to export")
	}

	var events []MidiEvent
	for _, phrase := range m.Phrases {
		markerMsg := smf.Message(smf.MetaMarker(e.encode(phrase.Text())))
		events = append(events, MidiEvent{Time: uint32(phrase.Start), Message: markerMsg})
	}

	// merged parts can leave words out of time order
	slices.SortStableFunc(words, func(a, b music.Word) int {
		return int(a.Start) - int(b.Start)
	})

	for i, word := range words {
		lyricMsg := smf.Message(smf.MetaLyric(e.encode(escapeLyric(word.Text))))
		events = append(events, MidiEvent{Time: uint32(word.Start), Message: lyricMsg})

		// a second word at the same tick shares the note of the first
		if i > 0 && words[i-1].Start == word.Start {
			continue
		}

		// Calculate end time with overlap detection
		endTime := max(word.End, word.Start+1)
		for _, next := range words[i+1:] {
			if next.Start > word.Start {
				endTime = min(endTime, next.Start)
				break
			}
		}

		noteOnMsg := smf.Message(midi.NoteOn(lyricChannel, lyricKey, lyricVelocity))
		events = append(events, MidiEvent{Time: uint32(word.Start), Message: noteOnMsg})
		noteOffMsg := smf.Message(midi.NoteOff(lyricChannel, lyricKey))
		events = append(events, MidiEvent{Time: uint32(endTime), Message: noteOffMsg})
	}

	e.logger.Debug("exporting lyric track",
		zap.Int("words", len(words)),
		zap.Int("phrases", len(m.Phrases)),
		zap.Int("events", len(events)),
	)
	return e.addTrack(TrackInfo{
		Name:    "Lyrics",
		Channel: lyricChannel,
		Program: gmChoirAahs,
		Events:  events,
	})
}

func (e *LyricMidiExporter) addTrack(trackInfo TrackInfo) error {
	e.tracks = append(e.tracks, trackInfo)
	return nil
}

// Write finalizes the MIDI file and writes it to the provided writer
func (e *LyricMidiExporter) Write(writer io.Writer) error {
	if len(e.tracks) == 0 {
		return fmt.Errorf("no tracks to export")
	}

	for _, trackInfo := range e.tracks {
		e.smf.Add(createMidiTrack(trackInfo))
	}

	_, err := e.smf.WriteTo(writer)
	if err != nil {
		return fmt.Errorf("error writing MIDI file: %w", err)
	}
	return nil
}

// encode converts text to the export charset. Characters the charset
// lacks are replaced, with a warning.
func (e *LyricMidiExporter) encode(text string) string {
	if e.charset == nil {
		return text
	}
	encoded, _, err := transform.String(e.charset.NewEncoder(), text)
	if err == nil {
		return encoded
	}
	e.logger.Warn("lyric not representable in charset", zap.String("text", text), zap.Error(err))
	encoded, _, _ = transform.String(encoding.ReplaceUnsupported(e.charset.NewEncoder()), text)
	return encoded
}

// escapeLyric protects hyphens that are part of the word, since a lyric
// ending in "-" continues into the next one
func escapeLyric(text string) string {
	return strings.ReplaceAll(text, "-", "=")
}

// createMidiTrack builds a complete MIDI track from TrackInfo
func createMidiTrack(trackInfo TrackInfo) smf.Track {
	track := smf.Track{}

	trackNameMsg := smf.Message(smf.MetaTrackSequenceName(trackInfo.Name))
	track = append(track, smf.Event{Delta: 0, Message: trackNameMsg})

	programChangeMsg := smf.Message(midi.ProgramChange(trackInfo.Channel, trackInfo.Program))
	track = append(track, smf.Event{Delta: 0, Message: programChangeMsg})

	// Sort events by time
	events := make([]MidiEvent, len(trackInfo.Events))
	copy(events, trackInfo.Events)
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Time == events[j].Time {
			return eventOrder(events[i].Message) < eventOrder(events[j].Message)
		}
		return events[i].Time < events[j].Time
	})

	// Add events with proper delta times
	var lastTime uint32
	for _, event := range events {
		delta := event.Time - lastTime
		track = append(track, smf.Event{Delta: delta, Message: event.Message})
		lastTime = event.Time
	}

	// Add end of track
	track = append(track, smf.Event{Delta: 0, Message: smf.EOT})
	return track
}

// eventOrder puts markers, then lyrics, then note-offs ahead of note-ons
// at the same tick
func eventOrder(msg smf.Message) int {
	var ch, key, vel uint8
	switch {
	case msg.Type() == smf.MetaMarkerMsg:
		return 0
	case msg.Type() == smf.MetaLyricMsg:
		return 1
	case msg.GetNoteOff(&ch, &key, &vel):
		return 2
	}
	return 3
}
