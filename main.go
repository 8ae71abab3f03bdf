package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/leafo/lyriccheck/diff"
	"github.com/leafo/lyriccheck/music"
	"github.com/leafo/lyriccheck/script"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

const version = "0.3.0"

// errDifferences is returned by diff --fail-on-diff so the exit code is 1
var errDifferences = errors.New("script and score lyrics differ")

var CLI struct {
	Verbose bool   `short:"v" help:"Log debug diagnostics to stderr"`
	Charset string `default:"utf-8" enum:"utf-8,windows-1252,iso-8859-1,shift-jis" help:"Charset of lyric text in MIDI files"`

	Diff    DiffCmd    `cmd:"" help:"Compare a lyric script against the lyrics of a score"`
	Music   MusicCmd   `cmd:"" help:"Print the lyric phrases of a score"`
	Script  ScriptCmd  `cmd:"" help:"Print the tokens of a lyric script"`
	Midi    MidiCmd    `cmd:"" help:"Export the lyrics of a score as a MIDI file"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

type DiffCmd struct {
	Score      string `arg:"" type:"existingfile" help:"MusicXML score, or a MIDI file with lyrics"`
	Script     string `arg:"" type:"existingfile" help:"Lyric script"`
	Format     string `short:"f" default:"text" enum:"text,json,yaml" help:"Output format"`
	Color      string `default:"auto" enum:"auto,always,never" help:"Colour the text output"`
	FailOnDiff bool   `help:"Exit with status 1 when the lyrics differ"`
}

type MusicCmd struct {
	Score  string `arg:"" type:"existingfile" help:"MusicXML score, or a MIDI file with lyrics"`
	Format string `short:"f" default:"text" enum:"text,json,yaml" help:"Output format"`
}

type ScriptCmd struct {
	Script string `arg:"" type:"existingfile" help:"Lyric script"`
	Format string `short:"f" default:"text" enum:"text,json,yaml" help:"Output format"`
}

type MidiCmd struct {
	Score  string `arg:"" type:"existingfile" help:"MusicXML score"`
	Output string `short:"o" required:"" help:"MIDI file to write"`
}

type VersionCmd struct{}

func (c *DiffCmd) Run() error {
	logger, err := newLogger(CLI.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	m, err := readMusic(c.Score, logger)
	if err != nil {
		return err
	}
	scriptText, err := os.ReadFile(c.Script)
	if err != nil {
		return fmt.Errorf("error reading script: %w", err)
	}

	sections := diff.Compare(script.Tokenize(string(scriptText), logger), m.Words())
	stats := diff.Summary(sections)

	if c.Format == "text" {
		r := newRenderer(os.Stdout, c.Color)
		r.printDiff(m.Title, sections, stats)
	} else {
		report := diffReport{Title: m.Title, Sections: sections, Stats: stats}
		if err := writeStructured(os.Stdout, c.Format, report); err != nil {
			return err
		}
	}

	if c.FailOnDiff && stats.Differences() > 0 {
		return errDifferences
	}
	return nil
}

func (c *MusicCmd) Run() error {
	logger, err := newLogger(CLI.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	m, err := readMusic(c.Score, logger)
	if err != nil {
		return err
	}
	if c.Format == "text" {
		newRenderer(os.Stdout, "never").printMusic(m)
		return nil
	}
	return writeStructured(os.Stdout, c.Format, m)
}

func (c *ScriptCmd) Run() error {
	logger, err := newLogger(CLI.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	text, err := os.ReadFile(c.Script)
	if err != nil {
		return fmt.Errorf("error reading script: %w", err)
	}
	tokens := script.Tokenize(string(text), logger)
	if c.Format == "text" {
		newRenderer(os.Stdout, "never").printTokens(tokens)
		return nil
	}
	return writeStructured(os.Stdout, c.Format, tokens)
}

func (c *MidiCmd) Run() error {
	logger, err := newLogger(CLI.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	charset, err := charsetEncoding(CLI.Charset)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(c.Score)
	if err != nil {
		return fmt.Errorf("error reading score: %w", err)
	}
	m, err := music.Read(data, logger)
	if err != nil {
		return err
	}

	exporter := NewLyricMidiExporter(charset, logger)
	exporter.SetupTimingTrack(m.Title)
	if err := exporter.AddLyricTrack(m); err != nil {
		return err
	}

	file, err := os.Create(c.Output)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer file.Close()

	if err := exporter.Write(file); err != nil {
		return err
	}
	logger.Info("wrote MIDI lyrics", zap.String("path", c.Output), zap.Int("phrases", len(m.Phrases)))
	return nil
}

func (c *VersionCmd) Run() error {
	fmt.Printf("lyriccheck version %s\n", version)
	return nil
}

// readMusic reads a score, treating files with a MIDI extension as
// lyric tracks and everything else as MusicXML
func readMusic(filename string, logger *zap.Logger) (*music.Music, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading score: %w", err)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mid", ".midi", ".kar":
		charset, err := charsetEncoding(CLI.Charset)
		if err != nil {
			return nil, err
		}
		return ReadMidiLyrics(bytes.NewReader(data), charset, logger)
	default:
		return music.Read(data, logger)
	}
}

// charsetEncoding maps a --charset name to its encoding, nil for UTF-8
func charsetEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1, nil
	case "shift-jis", "sjis":
		return japanese.ShiftJIS, nil
	}
	return nil, fmt.Errorf("unknown charset %q", name)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("error creating logger: %w", err)
	}
	return logger, nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("lyriccheck"),
		kong.Description("Check a lyric script against the lyrics of a MusicXML score"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
