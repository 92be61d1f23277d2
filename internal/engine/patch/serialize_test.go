package patch

import (
	"encoding/binary"
	"errors"
	"math/rand"
	"testing"
)

func TestSerializeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 30; i++ {
		p, oldDoc, newDoc := buildRandomPatch(t, rng, 1+rng.Intn(12))
		q, err := Deserialize(p.Serialize())
		if err != nil {
			t.Fatalf("Deserialize() error = %v", err)
		}
		if !changesEqual(q.Changes(), p.Changes()) {
			t.Fatalf("round trip changed the patch\n got: %s\nwant: %s", q, p)
		}
		checkPatch(t, q, oldDoc, newDoc)
	}
}

func TestSerializeEmpty(t *testing.T) {
	data := New().Serialize()
	if len(data) != 8 {
		t.Fatalf("len(Serialize()) = %d, want 8", len(data))
	}
	if v := binary.LittleEndian.Uint32(data); v != serializationVersion {
		t.Errorf("version word = %d, want %d", v, serializationVersion)
	}
	p, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	if !p.IsEmpty() {
		t.Error("Deserialize() of an empty patch should be empty")
	}
}

func TestSerializeSizeOnlyText(t *testing.T) {
	p := New()
	_ = p.Splice(pt(0, 1), pt(0, 4), pt(0, 2), SizeOnly(4), Known("ab"))
	_ = p.Splice(pt(2, 0), pt(1, 0), pt(0, 3), Known("xyz\n"), SizeOnly(3))

	q, err := Deserialize(p.Serialize())
	if err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	got := q.Changes()
	if !changesEqual(got, p.Changes()) {
		t.Fatalf("round trip changed the patch\n got: %s\nwant: %s", q, p)
	}
	if got[0].OldText.IsKnown() || got[0].OldText.Size() != 4 {
		t.Errorf("first old text = %v, want 4 unknown units", got[0].OldText)
	}
	if got[1].NewText.IsKnown() {
		t.Errorf("second new text = %v, want unknown", got[1].NewText)
	}
}

func TestSerializeKeepsSurrogatePairs(t *testing.T) {
	p := New()
	text := Known("a\U0001F600b")
	if err := p.Splice(pt(0, 0), pt(0, 0), text.Extent(), Known(""), text); err != nil {
		t.Fatalf("Splice() error = %v", err)
	}
	q, err := Deserialize(p.Serialize())
	if err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	c := q.Changes()[0]
	if c.NewText.String() != "a\U0001F600b" || c.NewEnd != pt(0, 4) {
		t.Errorf("change = %v, want 4 code units of text", c)
	}
}

func TestDeserializeUnknownVersion(t *testing.T) {
	data := binary.LittleEndian.AppendUint32(nil, 99)
	data = binary.LittleEndian.AppendUint32(data, 3)
	p, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	if !p.IsEmpty() {
		t.Error("unknown version should yield an empty patch")
	}
}

func TestDeserializeMalformed(t *testing.T) {
	p := New()
	_ = p.Splice(pt(0, 0), pt(0, 1), pt(0, 2), Known("a"), Known("bc"))
	_ = p.Splice(pt(0, 5), pt(0, 1), pt(0, 0), Known("d"), Known(""))
	valid := p.Serialize()

	words := func(ws ...uint32) []byte {
		var b []byte
		for _, w := range ws {
			b = binary.LittleEndian.AppendUint32(b, w)
		}
		return b
	}
	node := []uint32{0, 1, 0, 1, 0, 0, 0, 0, 0, 0, 0}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"odd length", valid[:len(valid)-1]},
		{"missing count", words(serializationVersion)},
		{"truncated record", valid[:len(valid)-8]},
		{"bad transition", words(append(append([]uint32{serializationVersion, 2}, node...), 9)...)},
		{"up from root", words(append(append([]uint32{serializationVersion, 2}, node...), transitionUp)...)},
		{"code unit out of range", words(serializationVersion, 1, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 1, 1, 0x10000)},
		{"text longer than data", words(serializationVersion, 1, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 1, 1000)},
		{"second left child", words(append(append(append(append(append(
			[]uint32{serializationVersion, 3}, node...), transitionLeft), node...), transitionUp, transitionLeft), node...)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Deserialize(tt.data); !errors.Is(err, ErrMalformed) {
				t.Errorf("Deserialize() error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestDeserializeAppliesOptions(t *testing.T) {
	p, err := Deserialize(New().Serialize(), WithMergeAdjacentChanges(false))
	if err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	if p.MergesAdjacentChanges() {
		t.Error("Deserialize() ignored WithMergeAdjacentChanges(false)")
	}
}
