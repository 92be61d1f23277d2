package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf16"

	"github.com/dshills/buffercore/internal/engine"
	"github.com/dshills/buffercore/internal/engine/patch"
)

// newFlagSet creates a subcommand flag set that reports to stderr.
func (e *env) newFlagSet(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.Usage = func() {
		fmt.Fprintf(e.stderr, "Usage: patchtool %s %s\n", name, usage)
		fs.PrintDefaults()
	}
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string, minArgs, maxArgs int) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() < minArgs || (maxArgs >= 0 && fs.NArg() > maxArgs) {
		fs.Usage()
		return fmt.Errorf("%w: wrong number of arguments", errUsage)
	}
	return nil
}

// readInput reads a file, or stdin when path is "-".
func (e *env) readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(e.stdin)
	}
	return os.ReadFile(path)
}

// writeOutput writes to a file, or stdout when path is "" or "-".
func (e *env) writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := e.stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (e *env) patchOptions() []patch.Option {
	return []patch.Option{patch.WithMergeAdjacentChanges(e.settings.MergeAdjacentChanges)}
}

func (e *env) readPatch(path string) (*patch.Patch, error) {
	data, err := e.readInput(path)
	if err != nil {
		return nil, err
	}
	p, err := patch.Deserialize(data, e.patchOptions()...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func cmdRecord(e *env, args []string) error {
	fs := e.newFlagSet("record", "[-o output] <script.yaml>")
	out := fs.String("o", "", "Output file (default stdout)")
	if err := parseFlags(fs, args, 1, 1); err != nil {
		return err
	}

	data, err := e.readInput(fs.Arg(0))
	if err != nil {
		return err
	}
	script, err := parseScript(data)
	if err != nil {
		return fmt.Errorf("%s: %w", fs.Arg(0), err)
	}

	eng := engine.New(
		engine.WithLogger(e.log),
		engine.WithMergeAdjacentChanges(e.settings.MergeAdjacentChanges),
		engine.WithMarkerSeed(e.settings.MarkerSeed),
	)
	result, err := script.Record(eng)
	if err != nil {
		return err
	}
	e.log.Info("recorded %d edits as %d changes", len(script.Edits), eng.ChangeCount())
	for _, m := range result.Markers {
		e.log.Info("marker %q ends at %v", m.Name, m.Range)
	}

	return e.writeOutput(*out, eng.SerializeChanges())
}

func cmdShow(e *env, args []string) error {
	fs := e.newFlagSet("show", "[-format text|yaml] <file.patch>")
	format := fs.String("format", "text", "Output format: text or yaml")
	if err := parseFlags(fs, args, 1, 1); err != nil {
		return err
	}

	p, err := e.readPatch(fs.Arg(0))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	switch strings.ToLower(*format) {
	case "text":
		writeText(&buf, p)
	case "yaml":
		if err := writeYAML(&buf, p); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown format %q", errUsage, *format)
	}
	return e.writeOutput("", buf.Bytes())
}

func cmdApply(e *env, args []string) error {
	fs := e.newFlagSet("apply", "[-o output] <document> <file.patch>")
	out := fs.String("o", "", "Output file (default stdout)")
	if err := parseFlags(fs, args, 2, 2); err != nil {
		return err
	}

	doc, err := e.readInput(fs.Arg(0))
	if err != nil {
		return err
	}
	p, err := e.readPatch(fs.Arg(1))
	if err != nil {
		return err
	}
	text, err := applyPatch(string(doc), p)
	if err != nil {
		return err
	}
	return e.writeOutput(*out, []byte(text))
}

func cmdCompose(e *env, args []string) error {
	fs := e.newFlagSet("compose", "[-o output] <first.patch> <second.patch>...")
	out := fs.String("o", "", "Output file (default stdout)")
	if err := parseFlags(fs, args, 1, -1); err != nil {
		return err
	}

	patches := make([]*patch.Patch, 0, fs.NArg())
	for _, path := range fs.Args() {
		p, err := e.readPatch(path)
		if err != nil {
			return err
		}
		patches = append(patches, p)
	}

	result, err := patch.Compose(patches, e.patchOptions()...)
	if err != nil {
		return err
	}
	e.log.Debug("composed %d patches into %d changes", len(patches), result.ChangeCount())
	return e.writeOutput(*out, result.Serialize())
}

func cmdInvert(e *env, args []string) error {
	fs := e.newFlagSet("invert", "[-o output] <file.patch>")
	out := fs.String("o", "", "Output file (default stdout)")
	if err := parseFlags(fs, args, 1, 1); err != nil {
		return err
	}

	p, err := e.readPatch(fs.Arg(0))
	if err != nil {
		return err
	}
	return e.writeOutput(*out, p.Invert().Serialize())
}

func cmdRebalance(e *env, args []string) error {
	fs := e.newFlagSet("rebalance", "[-o output] <file.patch>")
	out := fs.String("o", "", "Output file (default stdout)")
	if err := parseFlags(fs, args, 1, 1); err != nil {
		return err
	}

	p, err := e.readPatch(fs.Arg(0))
	if err != nil {
		return err
	}
	p.Rebalance()
	return e.writeOutput(*out, p.Serialize())
}

// applyPatch rewrites doc with the changes of p, which must be given in
// doc's coordinates and carry their new text.
func applyPatch(doc string, p *patch.Patch) (string, error) {
	d := newDocument(doc)
	var out []uint16
	offset := 0
	for _, c := range p.Changes() {
		if !c.NewText.IsKnown() {
			return "", fmt.Errorf("change at %v has no text", c.OldStart)
		}
		start, end, err := d.span(c.OldStart, c.OldEnd)
		if err != nil {
			return "", err
		}
		if c.OldText.IsKnown() && c.OldText.String() != d.slice(start, end) {
			return "", fmt.Errorf("change at %v expects %q, document has %q", c.OldStart, c.OldText.String(), d.slice(start, end))
		}
		out = append(out, d.units[offset:start]...)
		out = append(out, utf16.Encode([]rune(c.NewText.String()))...)
		offset = end
	}
	out = append(out, d.units[offset:]...)
	return string(utf16.Decode(out)), nil
}
