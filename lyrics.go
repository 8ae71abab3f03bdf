package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/leafo/lyriccheck/music"
	"gitlab.com/gomidi/midi/v2/smf"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// the tracks searched for lyrics, in order of preference
var lyricTrackNames = []string{"Lyrics", "PART VOCALS", "HARM1"}

// midiLyric is one lyric event with the note sung under it
type midiLyric struct {
	Time     uint32
	Duration uint32
	Text     string
}

// ReadMidiLyrics reads the lyric track of a MIDI file into the same
// timeline a score gives. Lyrics use the Rock Band conventions that
// LyricMidiExporter writes:
//
//   - Multi-syllable words: "Hel-" "lo" → "Hello"
//   - Slide notes: "Yeah" "+" → "Yeah"
//   - Non-pitched markers and range dividers: "All#", "All^", "All%" → "All"
//   - Actual hyphens in lyrics: "Ex=" → "Ex-"
func ReadMidiLyrics(r io.Reader, charset encoding.Encoding, logger *zap.Logger) (*music.Music, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	smfData, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("error reading MIDI file: %w", err)
	}

	var ticksPerQuarter uint32 = uint32(music.Crotchet)
	if tf, ok := smfData.TimeFormat.(smf.MetricTicks); ok && tf > 0 {
		ticksPerQuarter = uint32(tf)
	}

	track, name := findLyricTrack(smfData)
	if track == nil {
		return nil, fmt.Errorf("no lyric track found")
	}
	lyrics := extractLyricNotes(track)
	logger.Debug("read MIDI lyrics",
		zap.String("track", name),
		zap.Int("lyrics", len(lyrics)),
		zap.Uint32("ticksPerQuarter", ticksPerQuarter),
	)

	scale := func(t uint32) music.Tick {
		return music.Tick((uint64(t)*uint64(music.Crotchet) + uint64(ticksPerQuarter)/2) / uint64(ticksPerQuarter))
	}

	builder := music.NewPhraseBuilder()
	inWord := false
	for _, lyric := range lyrics {
		text := decodeLyric(charset, lyric.Text, logger)
		text, continues, ok := parseRockBandLyric(text)
		if !ok {
			continue
		}

		var kind music.SyllableKind
		switch {
		case continues && inWord:
			kind = music.Middle
		case continues:
			kind = music.Begin
		case inWord:
			kind = music.End
		default:
			kind = music.Single
		}
		inWord = continues

		builder.Syllable(music.Syllable{
			Start: scale(lyric.Time),
			End:   scale(lyric.Time + lyric.Duration),
			Kind:  kind,
			Text:  text,
		})
	}

	part, err := builder.Build()
	if err != nil {
		return nil, err
	}
	return &music.Music{
		Title:   decodeLyric(charset, getTrackName(smfData.Tracks[0]), logger),
		Phrases: part.Phrases,
	}, nil
}

// parseRockBandLyric cleans up one lyric event. continues is set when the
// syllable joins onto the next one, ok is false for events that only
// extend the previous note.
func parseRockBandLyric(lyric string) (text string, continues bool, ok bool) {
	if lyric == "" || lyric == "+" {
		return "", false, false
	}

	cleaned := lyric

	// Remove non-pitched markers (#, ^) and range dividers (%)
	cleaned = strings.TrimSuffix(cleaned, "#")
	cleaned = strings.TrimSuffix(cleaned, "^")
	cleaned = strings.TrimSuffix(cleaned, "%")

	// Slide onto the next note
	if strings.HasSuffix(cleaned, "+") {
		cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "+"))
	}

	// Syllable continues into the next lyric
	if strings.HasSuffix(cleaned, "-") {
		cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "-"))
		continues = true
	}

	// Handle actual hyphens (= becomes -)
	cleaned = strings.ReplaceAll(cleaned, "=", "-")

	if cleaned == "" {
		return "", false, false
	}
	return cleaned, continues, true
}

func decodeLyric(charset encoding.Encoding, text string, logger *zap.Logger) string {
	if charset == nil {
		return text
	}
	decoded, _, err := transform.String(charset.NewDecoder(), text)
	if err != nil {
		logger.Warn("undecodable lyric", zap.String("text", text), zap.Error(err))
		return text
	}
	return decoded
}

func findLyricTrack(smfData *smf.SMF) (smf.Track, string) {
	for _, want := range lyricTrackNames {
		for _, track := range smfData.Tracks {
			if getTrackName(track) == want {
				return track, want
			}
		}
	}

	// karaoke files often keep lyrics in an unnamed track
	for _, track := range smfData.Tracks {
		for _, event := range track {
			var lyric string
			if event.Message.GetMetaLyric(&lyric) {
				return track, getTrackName(track)
			}
		}
	}
	return nil, ""
}

// extractLyricNotes collects the lyric events of a track, each with the
// duration of the note that starts with it
func extractLyricNotes(track smf.Track) []midiLyric {
	var lyrics []midiLyric
	var currentTime uint32

	noteOnMap := make(map[uint8]uint32) // note-on time by key
	noteEnds := make(map[uint32]uint32) // note-off time by note-on time

	for _, event := range track {
		currentTime += event.Delta
		msg := event.Message

		var lyric string
		var ch, key, vel uint8
		switch {
		case msg.GetMetaLyric(&lyric):
			lyrics = append(lyrics, midiLyric{Time: currentTime, Text: lyric})

		case msg.GetNoteOn(&ch, &key, &vel) && vel > 0:
			noteOnMap[key] = currentTime

		case msg.GetNoteOff(&ch, &key, &vel) || (msg.GetNoteOn(&ch, &key, &vel) && vel == 0):
			// Handle note-off events (including note-on with velocity 0)
			if noteOnTime, exists := noteOnMap[key]; exists {
				if _, seen := noteEnds[noteOnTime]; !seen {
					noteEnds[noteOnTime] = currentTime
				}
				delete(noteOnMap, key)
			}
		}
	}

	for i := range lyrics {
		if end, ok := noteEnds[lyrics[i].Time]; ok {
			lyrics[i].Duration = end - lyrics[i].Time
		}
	}
	return lyrics
}

func getTrackName(track smf.Track) string {
	for _, event := range track {
		msg := event.Message

		var trackName string
		if msg.GetMetaTrackName(&trackName) {
			return trackName
		}
	}
	return ""
}
