package patch

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/dshills/buffercore/internal/engine/point"
)

func init() {
	debugInvariants = true
}

func pt(row, column uint32) point.Point {
	return point.Point{Row: row, Column: column}
}

// textEdit is one replacement on a document, in byte offsets of ASCII text.
type textEdit struct {
	offset   int
	deleted  string
	inserted string
}

// randomEdit picks a replacement within doc.
func randomEdit(rng *rand.Rand, doc string) textEdit {
	const alphabet = "abcd\n"
	start := rng.Intn(len(doc) + 1)
	end := start
	if rng.Intn(3) > 0 {
		end = start + rng.Intn(len(doc)-start+1)
		if end-start > 6 {
			end = start + rng.Intn(7)
		}
	}
	var sb strings.Builder
	if n := rng.Intn(5); rng.Intn(4) > 0 {
		for i := 0; i < n; i++ {
			sb.WriteByte(alphabet[rng.Intn(len(alphabet))])
		}
	}
	return textEdit{offset: start, deleted: doc[start:end], inserted: sb.String()}
}

func randomDocument(rng *rand.Rand, n int) string {
	const alphabet = "abcdefgh\n"
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return string(b)
}

// apply splices e into both the patch and the document.
func apply(t *testing.T, p *Patch, doc string, e textEdit) string {
	t.Helper()
	if got := doc[e.offset : e.offset+len(e.deleted)]; got != e.deleted {
		t.Fatalf("edit deletes %q but the document holds %q", e.deleted, got)
	}
	start := TextPointForOffset(doc, e.offset)
	err := p.Splice(start, TextExtent(e.deleted), TextExtent(e.inserted), Known(e.deleted), Known(e.inserted))
	if err != nil {
		t.Fatalf("Splice(%v, %q, %q) error = %v", start, e.deleted, e.inserted, err)
	}
	return doc[:e.offset] + e.inserted + doc[e.offset+len(e.deleted):]
}

// checkPatch verifies that p maps oldDoc onto newDoc and that every change
// carries the text found at its coordinates.
func checkPatch(t *testing.T, p *Patch, oldDoc, newDoc string) {
	t.Helper()
	var sb strings.Builder
	oldOffset := 0
	var precedingOld, precedingNew uint32
	changes := p.Changes()
	for i, c := range changes {
		oldStart := TextOffsetForPoint(oldDoc, c.OldStart)
		oldEnd := TextOffsetForPoint(oldDoc, c.OldEnd)
		newStart := TextOffsetForPoint(newDoc, c.NewStart)
		newEnd := TextOffsetForPoint(newDoc, c.NewEnd)
		if oldStart < oldOffset || oldEnd < oldStart || newEnd < newStart {
			t.Fatalf("change %d %v is out of order", i, c)
		}
		if got, want := c.OldText.String(), oldDoc[oldStart:oldEnd]; !c.OldText.IsKnown() || got != want {
			t.Errorf("change %d old text = %q, want %q", i, got, want)
		}
		if got, want := c.NewText.String(), newDoc[newStart:newEnd]; !c.NewText.IsKnown() || got != want {
			t.Errorf("change %d new text = %q, want %q", i, got, want)
		}
		if c.PrecedingOldTextSize != precedingOld {
			t.Errorf("change %d preceding old size = %d, want %d", i, c.PrecedingOldTextSize, precedingOld)
		}
		if c.PrecedingNewTextSize != precedingNew {
			t.Errorf("change %d preceding new size = %d, want %d", i, c.PrecedingNewTextSize, precedingNew)
		}
		precedingOld += c.OldText.Size()
		precedingNew += c.NewText.Size()

		sb.WriteString(oldDoc[oldOffset:oldStart])
		sb.WriteString(c.NewText.String())
		oldOffset = oldEnd
	}
	sb.WriteString(oldDoc[oldOffset:])
	if got := sb.String(); got != newDoc {
		t.Fatalf("applying changes = %q, want %q\n%s", got, newDoc, p)
	}
	if got := p.ChangeCount(); got != len(changes) {
		t.Errorf("ChangeCount() = %d, want %d", got, len(changes))
	}
	checkAggregates(t, p)
}

// checkAggregates verifies every node's subtree text sizes.
func checkAggregates(t *testing.T, p *Patch) {
	t.Helper()
	var walk func(n nodeID) (uint32, uint32)
	walk = func(n nodeID) (uint32, uint32) {
		if n == nilNode {
			return 0, 0
		}
		nd := p.node(n)
		lo, ln := walk(nd.left)
		ro, rn := walk(nd.right)
		wantOld := lo + ro + nd.oldText.Size()
		wantNew := ln + rn + nd.newText.Size()
		if nd.oldSubtreeTextSize != wantOld || nd.newSubtreeTextSize != wantNew {
			t.Errorf("node %d subtree sizes = (%d, %d), want (%d, %d)",
				n, nd.oldSubtreeTextSize, nd.newSubtreeTextSize, wantOld, wantNew)
		}
		return wantOld, wantNew
	}
	walk(p.root)
}

func changesEqual(a, b []Change) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.OldStart != y.OldStart || x.OldEnd != y.OldEnd || x.NewStart != y.NewStart || x.NewEnd != y.NewEnd {
			return false
		}
		if !x.OldText.Equal(y.OldText) || !x.NewText.Equal(y.NewText) {
			return false
		}
		if x.PrecedingOldTextSize != y.PrecedingOldTextSize || x.PrecedingNewTextSize != y.PrecedingNewTextSize {
			return false
		}
	}
	return true
}

// buildRandomPatch records n random edits on a random document and returns
// the patch with the documents it maps between.
func buildRandomPatch(t *testing.T, rng *rand.Rand, n int, opts ...Option) (*Patch, string, string) {
	t.Helper()
	oldDoc := randomDocument(rng, 20+rng.Intn(20))
	doc := oldDoc
	p := New(opts...)
	for i := 0; i < n; i++ {
		doc = apply(t, p, doc, randomEdit(rng, doc))
	}
	return p, oldDoc, doc
}
