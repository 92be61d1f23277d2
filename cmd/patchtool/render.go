package main

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dshills/buffercore/internal/engine/patch"
)

func writeText(w io.Writer, p *patch.Patch) {
	fmt.Fprintf(w, "%d changes\n", p.ChangeCount())
	if b, ok := p.Bounds(); ok {
		fmt.Fprintf(w, "old %v-%v, new %v-%v\n", b.OldStart, b.OldEnd, b.NewStart, b.NewEnd)
	}
	fmt.Fprint(w, p.String())
}

type yamlPoint struct {
	Row    uint32 `yaml:"row"`
	Column uint32 `yaml:"column"`
}

// yamlText holds either the text or, when unknown, its size.
type yamlText struct {
	Text *string `yaml:"text,omitempty"`
	Size uint32  `yaml:"size"`
}

type yamlChange struct {
	OldStart yamlPoint `yaml:"old_start"`
	OldEnd   yamlPoint `yaml:"old_end"`
	NewStart yamlPoint `yaml:"new_start"`
	NewEnd   yamlPoint `yaml:"new_end"`
	Old      yamlText  `yaml:"old"`
	New      yamlText  `yaml:"new"`
}

type yamlPatch struct {
	Changes []yamlChange `yaml:"changes"`
}

func toYAMLText(t patch.Text) yamlText {
	y := yamlText{Size: t.Size()}
	if t.IsKnown() {
		s := t.String()
		y.Text = &s
	}
	return y
}

func writeYAML(w io.Writer, p *patch.Patch) error {
	out := yamlPatch{Changes: []yamlChange{}}
	for _, c := range p.Changes() {
		out.Changes = append(out.Changes, yamlChange{
			OldStart: yamlPoint(c.OldStart),
			OldEnd:   yamlPoint(c.OldEnd),
			NewStart: yamlPoint(c.NewStart),
			NewEnd:   yamlPoint(c.NewEnd),
			Old:      toYAMLText(c.OldText),
			New:      toYAMLText(c.NewText),
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}
