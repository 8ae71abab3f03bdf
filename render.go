package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/leafo/lyriccheck/diff"
	"github.com/leafo/lyriccheck/music"
	"github.com/leafo/lyriccheck/script"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"
)

var (
	colorScriptOnly = lipgloss.Color("#e53935") // red
	colorMusicOnly  = lipgloss.Color("#8BC34A") // lime green
	colorCaseOnly   = lipgloss.Color("#FFC107") // yellow
	colorHeading    = lipgloss.Color("#2196F3") // blue
	colorNumber     = lipgloss.Color("#29434e")
)

// diffReport is the structured output of the diff command
type diffReport struct {
	Title    string         `json:"title,omitempty" yaml:"title,omitempty"`
	Sections []diff.Section `json:"sections" yaml:"sections"`
	Stats    diff.Stats     `json:"stats" yaml:"stats"`
}

// renderer prints results for the console. Changed text always carries
// word-diff markers so the output reads the same without colour:
// [-script only-] {+music only+} {~case only~}
type renderer struct {
	w          io.Writer
	title      lipgloss.Style
	heading    lipgloss.Style
	number     lipgloss.Style
	scriptOnly lipgloss.Style
	musicOnly  lipgloss.Style
	caseOnly   lipgloss.Style
}

// newRenderer styles output for w. color is auto, always or never.
func newRenderer(w io.Writer, color string) *renderer {
	r := lipgloss.NewRenderer(w)
	switch color {
	case "always":
		r.SetColorProfile(termenv.ANSI256)
	case "never":
		r.SetColorProfile(termenv.Ascii)
	}

	return &renderer{
		w:          w,
		title:      r.NewStyle().Bold(true).Underline(true),
		heading:    r.NewStyle().Bold(true).Foreground(colorHeading),
		number:     r.NewStyle().Faint(true).Foreground(colorNumber),
		scriptOnly: r.NewStyle().Strikethrough(true).Foreground(colorScriptOnly),
		musicOnly:  r.NewStyle().Bold(true).Foreground(colorMusicOnly),
		caseOnly:   r.NewStyle().Foreground(colorCaseOnly),
	}
}

func (r *renderer) printDiff(title string, sections []diff.Section, stats diff.Stats) {
	if title != "" {
		fmt.Fprintln(r.w, r.title.Render(title))
		fmt.Fprintln(r.w)
	}

	for i, section := range sections {
		if i > 0 {
			fmt.Fprintln(r.w)
		}
		if section.Heading != "" {
			fmt.Fprintln(r.w, r.heading.Render(section.Heading))
		}
		for _, line := range section.Lines {
			fmt.Fprintf(r.w, "%s  %s\n", r.number.Render(fmt.Sprintf("%4s", line.Number)), r.diffLine(line.Diffs))
		}
	}

	if len(sections) > 0 {
		fmt.Fprintln(r.w)
	}
	fmt.Fprintln(r.w, summaryLine(stats))
}

// diffLine joins the diffs of a line, with a space between words
func (r *renderer) diffLine(diffs []diff.Diff) string {
	var b strings.Builder
	for i, d := range diffs {
		if i > 0 && !d.Joined {
			b.WriteByte(' ')
		}
		b.WriteString(r.diffText(d))
	}
	return b.String()
}

func (r *renderer) diffText(d diff.Diff) string {
	switch d.Kind {
	case diff.ScriptOnly:
		return r.scriptOnly.Render("[-" + d.Text + "-]")
	case diff.MusicOnly:
		return r.musicOnly.Render("{+" + d.Text + "+}")
	case diff.CaseOnly:
		return r.caseOnly.Render("{~" + d.Text + "~}")
	case diff.Replace:
		return r.scriptOnly.Render("[-"+d.Script+"-]") + r.musicOnly.Render("{+"+d.Music+"+}")
	}
	return d.Text
}

func summaryLine(stats diff.Stats) string {
	if stats.Differences() == 0 {
		return fmt.Sprintf("%s matching %s, no differences",
			humanize.Comma(int64(stats.Same)), plural(stats.Same, "word", "words"))
	}
	return fmt.Sprintf("%s matching %s, %s %s: %s script only, %s music only, %s case only, %s replaced",
		humanize.Comma(int64(stats.Same)), plural(stats.Same, "word", "words"),
		humanize.Comma(int64(stats.Differences())), plural(stats.Differences(), "difference", "differences"),
		humanize.Comma(int64(stats.ScriptOnly)),
		humanize.Comma(int64(stats.MusicOnly)),
		humanize.Comma(int64(stats.CaseOnly)),
		humanize.Comma(int64(stats.Replace)),
	)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// printMusic lists each phrase with its start tick
func (r *renderer) printMusic(m *music.Music) {
	if m.Title != "" {
		fmt.Fprintln(r.w, r.title.Render(m.Title))
	}
	for _, phrase := range m.Phrases {
		fmt.Fprintf(r.w, "%8s  %s\n", humanize.Comma(int64(phrase.Start)), phrase.Text())
	}
}

func (r *renderer) printTokens(tokens []script.Token) {
	for _, token := range tokens {
		fmt.Fprintf(r.w, "%-8s %s\n", token.Kind, token.Text)
	}
}

// writeStructured writes v as indented JSON or YAML
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("error marshaling to JSON: %w", err)
		}
		return nil
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("error marshaling to YAML: %w", err)
		}
		return encoder.Close()
	}
	return fmt.Errorf("unknown output format %q", format)
}
