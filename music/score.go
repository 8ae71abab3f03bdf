package music

import (
	"bytes"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// ScorePart is the event stream read from one <part>
type ScorePart struct {
	ID     string
	Events []Event
}

// Score is a MusicXML document reduced to the events needed for lyrics
type Score struct {
	Title string
	Parts []ScorePart
}

var (
	workTitle     = xpath.MustCompile("work/work-title")
	movementTitle = xpath.MustCompile("movement-title")
)

// ParseScore reads a partwise MusicXML document. Each part becomes a list
// of events in document order, a note's lyrics ahead of its duration.
func ParseScore(data []byte) (*Score, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: reading MusicXML: %w", ErrStructure, err)
	}

	var root *xmlquery.Node
	for node := range elements(doc) {
		root = node
		break
	}
	if root == nil {
		return nil, structureError("no root element")
	}
	if root.Data != "score-partwise" {
		return nil, structureError("expecting root <score-partwise> not <%s>", root.Data)
	}

	score := &Score{
		Title: scoreTitle(root),
	}
	for node := range elements(root) {
		if node.Data != "part" {
			continue
		}
		reader := partReader{}
		if err := reader.part(node); err != nil {
			return nil, err
		}
		score.Parts = append(score.Parts, ScorePart{
			ID:     node.SelectAttr("id"),
			Events: reader.events,
		})
	}
	if len(score.Parts) == 0 {
		return nil, structureError("no parts found")
	}
	return score, nil
}

func scoreTitle(root *xmlquery.Node) string {
	for _, expr := range []*xpath.Expr{workTitle, movementTitle} {
		if node := xmlquery.QuerySelector(root, expr); node != nil {
			if title := strings.TrimSpace(node.InnerText()); title != "" {
				return title
			}
		}
	}
	return ""
}

// partReader holds the state of one part while its measures are read
type partReader struct {
	divisions uint64
	events    []Event
}

func (r *partReader) emit(event Event) {
	r.events = append(r.events, event)
}

func (r *partReader) part(part *xmlquery.Node) error {
	for measure := range elements(part) {
		if measure.Data != "measure" {
			return structureError("unexpected <part><%s>", measure.Data)
		}
		number, err := attribute(measure, "number")
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(number))
		if err != nil {
			return numberError("unexpected <measure number=%q>", number)
		}
		r.emit(BarStart{Number: n})
		if err := r.measure(measure); err != nil {
			return fmt.Errorf("measure %d: %w", n, err)
		}
	}
	return nil
}

func (r *partReader) measure(measure *xmlquery.Node) error {
	for node := range elements(measure) {
		var err error
		switch node.Data {
		case "attributes":
			err = r.attributes(node)
		case "backup":
			var ticks Tick
			if ticks, err = r.duration(node); err == nil {
				r.emit(Backward{Ticks: ticks})
			}
		case "forward":
			var ticks Tick
			if ticks, err = r.duration(node); err == nil {
				r.emit(Forward{Ticks: ticks})
			}
		case "barline":
			err = r.barline(node)
		case "note":
			err = r.note(node)
		default:
			// direction, harmony, print, sound: nothing sung
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *partReader) attributes(attributes *xmlquery.Node) error {
	node := child(attributes, "divisions")
	if node == nil {
		return nil
	}
	text := strings.TrimSpace(node.InnerText())
	divisions, err := strconv.ParseUint(text, 10, 32)
	if err != nil || divisions == 0 {
		return numberError("unexpected <attributes><divisions> %q", text)
	}
	r.divisions = divisions
	return nil
}

// duration reads the <duration> child of node, scaled to ticks
func (r *partReader) duration(node *xmlquery.Node) (Tick, error) {
	text, err := childText(node, "duration")
	if err != nil {
		return 0, err
	}
	duration, err := strconv.ParseUint(strings.TrimSpace(text), 10, 32)
	if err != nil {
		return 0, numberError("unexpected <%s><duration> %q", node.Data, text)
	}
	if r.divisions == 0 {
		return Tick(duration), nil
	}
	return Tick((duration*uint64(Crotchet) + r.divisions/2) / r.divisions), nil
}

func (r *partReader) barline(barline *xmlquery.Node) error {
	location := "right"
	if value, err := attribute(barline, "location"); err == nil {
		location = value
	}
	switch location {
	case "left", "right", "middle":
	default:
		return structureError("<barline location=%q>", location)
	}

	for node := range elements(barline) {
		switch node.Data {
		case "ending":
			kind, err := attribute(node, "type")
			if err != nil {
				return err
			}
			number, err := attribute(node, "number")
			if err != nil {
				return err
			}
			verses, err := ParseVerses(number)
			if err != nil {
				return err
			}
			switch kind {
			case "start":
				r.emit(EndingStart{Verses: verses})
			case "stop":
				r.emit(EndingEnd{Verses: verses})
			case "discontinue":
				r.emit(EndingEnd{Verses: verses, Final: true})
			default:
				return structureError("<ending type=%q>", kind)
			}

		case "repeat":
			direction, err := attribute(node, "direction")
			if err != nil {
				return err
			}
			switch direction {
			case "forward":
				r.emit(RepeatStart{})
			case "backward":
				r.emit(RepeatEnd{})
			default:
				return structureError("<repeat direction=%q>", direction)
			}
		}
	}
	return nil
}

func (r *partReader) note(note *xmlquery.Node) error {
	if child(note, "chord") != nil || child(note, "grace") != nil {
		return nil
	}
	ticks, err := r.duration(note)
	if err != nil {
		return err
	}
	for lyric := range elements(note) {
		if lyric.Data != "lyric" {
			continue
		}
		event, err := readLyric(note, lyric)
		if err != nil {
			return err
		}
		event.Ticks = ticks
		r.emit(event)
	}
	r.emit(Forward{Ticks: ticks})
	return nil
}

func readLyric(note, lyric *xmlquery.Node) (Lyric, error) {
	text, err := childText(note, "voice")
	if err != nil {
		return Lyric{}, err
	}
	voice, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || voice < 1 {
		return Lyric{}, numberError("unexpected <note><voice> %q", text)
	}

	number, err := attribute(lyric, "number")
	if err != nil {
		return Lyric{}, err
	}
	verse, err := parseLyricVerse(number)
	if err != nil {
		return Lyric{}, err
	}

	// an elision puts several syllables on one note, each with its own
	// <syllabic> and <text>
	var texts []string
	var kinds []SyllableKind
	for node := range elements(lyric) {
		switch node.Data {
		case "text":
			texts = append(texts, node.InnerText())
		case "syllabic":
			kind, err := ParseSyllableKind(strings.TrimSpace(node.InnerText()))
			if err != nil {
				return Lyric{}, err
			}
			kinds = append(kinds, kind)
		}
	}
	if len(texts) == 0 {
		return Lyric{}, structureError("expecting child <text> in <lyric>")
	}

	return Lyric{
		Voice: voice - 1,
		Verse: verse,
		Kind:  joinKinds(kinds),
		Text:  strings.Join(texts, " "),
	}, nil
}

// joinKinds combines the syllabic kinds of an elision: the result begins a
// word if the first syllable does and ends one if the last syllable does
func joinKinds(kinds []SyllableKind) SyllableKind {
	if len(kinds) == 0 {
		return Single
	}
	first, last := kinds[0], kinds[len(kinds)-1]
	begins := first == Single || first == Begin
	ends := last == Single || last == End
	switch {
	case begins && ends:
		return Single
	case begins:
		return Begin
	case ends:
		return End
	}
	return Middle
}

// parseLyricVerse maps <lyric number> to a zero based verse. Exporters
// write "1", "verse1", "part1verse1" or "chorus".
func parseLyricVerse(number string) (int, error) {
	if strings.HasSuffix(number, "chorus") {
		return 0, nil
	}
	i := len(number)
	for i > 0 && number[i-1] >= '0' && number[i-1] <= '9' {
		i--
	}
	verse, err := strconv.Atoi(number[i:])
	if err != nil || verse < 1 || verse > maxVerses {
		return 0, numberError("<lyric number=%q>", number)
	}
	return verse - 1, nil
}

func elements(node *xmlquery.Node) iter.Seq[*xmlquery.Node] {
	return func(yield func(*xmlquery.Node) bool) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != xmlquery.ElementNode {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

func child(node *xmlquery.Node, name string) *xmlquery.Node {
	for c := range elements(node) {
		if c.Data == name {
			return c
		}
	}
	return nil
}

func childText(node *xmlquery.Node, name string) (string, error) {
	c := child(node, name)
	if c == nil {
		return "", structureError("expecting child <%s> in <%s>", name, node.Data)
	}
	return c.InnerText(), nil
}

func attribute(node *xmlquery.Node, name string) (string, error) {
	for _, attr := range node.Attr {
		if attr.Name.Local == name {
			return attr.Value, nil
		}
	}
	return "", structureError("expecting attribute %q in <%s>", name, node.Data)
}
