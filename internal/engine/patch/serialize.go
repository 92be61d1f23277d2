package patch

import (
	"encoding/binary"
	"fmt"

	"github.com/dshills/buffercore/internal/engine/point"
)

const serializationVersion = 1

// Tree shape transitions in the serialized pre-order walk.
const (
	transitionLeft  = 1
	transitionRight = 2
	transitionUp    = 3
)

// Serialize encodes the patch as little-endian 32-bit words: a version, the
// change count, the root record, then a pre-order walk of transitions each
// followed by a node record when it descends.
func (p *Patch) Serialize() []byte {
	out := []uint32{serializationVersion, uint32(p.ChangeCount())}
	if p.root != nilNode {
		out = p.appendNode(out, p.root)

		var stack []nodeID
		n := p.root
		previousChild := -1
		for {
			nd := p.node(n)
			switch {
			case nd.left != nilNode && previousChild < 0:
				out = append(out, transitionLeft)
				out = p.appendNode(out, nd.left)
				stack = append(stack, n)
				n = nd.left
				previousChild = -1
			case nd.right != nilNode && previousChild < 1:
				out = append(out, transitionRight)
				out = p.appendNode(out, nd.right)
				stack = append(stack, n)
				n = nd.right
				previousChild = -1
			case len(stack) > 0:
				out = append(out, transitionUp)
				parent := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if p.node(parent).left == n {
					previousChild = 0
				} else {
					previousChild = 1
				}
				n = parent
			default:
				return encodeWords(out)
			}
		}
	}
	return encodeWords(out)
}

func encodeWords(words []uint32) []byte {
	buf := make([]byte, 0, 4*len(words))
	for _, w := range words {
		buf = binary.LittleEndian.AppendUint32(buf, w)
	}
	return buf
}

func (p *Patch) appendNode(out []uint32, n nodeID) []uint32 {
	nd := p.node(n)
	out = append(out,
		nd.oldExtent.Row, nd.oldExtent.Column,
		nd.newExtent.Row, nd.newExtent.Column,
		nd.oldDistanceFromLeftAncestor.Row, nd.oldDistanceFromLeftAncestor.Column,
		nd.newDistanceFromLeftAncestor.Row, nd.newDistanceFromLeftAncestor.Column,
	)
	if nd.oldText.IsKnown() {
		out = appendUnits(append(out, 1), nd.oldText.units)
		out = append(out, 0)
	} else {
		out = append(out, 0, nd.oldText.Size())
	}
	if nd.newText.IsKnown() {
		out = appendUnits(append(out, 1), nd.newText.units)
	} else {
		out = append(out, 0)
	}
	return out
}

func appendUnits(out []uint32, units []uint16) []uint32 {
	out = append(out, uint32(len(units)))
	for _, u := range units {
		out = append(out, uint32(u))
	}
	return out
}

// Deserialize decodes data produced by Serialize. Data with an unrecognized
// version yields an empty patch. Truncated or inconsistent data returns an
// error wrapping ErrMalformed.
func Deserialize(data []byte, opts ...Option) (*Patch, error) {
	p := New(opts...)
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of 4", ErrMalformed, len(data))
	}
	r := &wordReader{data: data}

	version, err := r.next()
	if err != nil {
		return nil, err
	}
	if version != serializationVersion {
		return p, nil
	}
	count, err := r.next()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return p, nil
	}

	root, err := r.readNode(p)
	if err != nil {
		return nil, err
	}
	p.root = root

	var stack []nodeID
	n := root
	for read := uint32(1); read < count; {
		transition, err := r.next()
		if err != nil {
			return nil, err
		}
		switch transition {
		case transitionLeft, transitionRight:
			child, err := r.readNode(p)
			if err != nil {
				return nil, err
			}
			nd := p.node(n)
			if transition == transitionLeft {
				if nd.left != nilNode {
					return nil, fmt.Errorf("%w: node has two left children", ErrMalformed)
				}
				nd.left = child
			} else {
				if nd.right != nilNode {
					return nil, fmt.Errorf("%w: node has two right children", ErrMalformed)
				}
				nd.right = child
			}
			stack = append(stack, n)
			n = child
			read++
		case transitionUp:
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: transition above the root", ErrMalformed)
			}
			n = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
		default:
			return nil, fmt.Errorf("%w: unknown transition %d at word %d", ErrMalformed, transition, r.pos-1)
		}
	}

	p.recomputeSubtreeTextSizes(p.root)
	return p, nil
}

// wordReader consumes little-endian 32-bit words.
type wordReader struct {
	data []byte
	pos  int
}

func (r *wordReader) remaining() int {
	return len(r.data)/4 - r.pos
}

func (r *wordReader) next() (uint32, error) {
	if r.remaining() <= 0 {
		return 0, fmt.Errorf("%w: truncated at word %d", ErrMalformed, r.pos)
	}
	w := binary.LittleEndian.Uint32(r.data[4*r.pos:])
	r.pos++
	return w, nil
}

func (r *wordReader) point() (point.Point, error) {
	row, err := r.next()
	if err != nil {
		return point.Point{}, err
	}
	column, err := r.next()
	if err != nil {
		return point.Point{}, err
	}
	return point.Point{Row: row, Column: column}, nil
}

func (r *wordReader) units() ([]uint16, error) {
	n, err := r.next()
	if err != nil {
		return nil, err
	}
	if int64(n) > int64(r.remaining()) {
		return nil, fmt.Errorf("%w: text of %d units exceeds remaining data", ErrMalformed, n)
	}
	units := make([]uint16, n)
	for i := range units {
		w, _ := r.next()
		if w > 0xFFFF {
			return nil, fmt.Errorf("%w: code unit %#x out of range", ErrMalformed, w)
		}
		units[i] = uint16(w)
	}
	return units, nil
}

// readNode decodes one node record into a detached node of p.
func (r *wordReader) readNode(p *Patch) (nodeID, error) {
	var pts [4]point.Point
	for i := range pts {
		pt, err := r.point()
		if err != nil {
			return nilNode, err
		}
		pts[i] = pt
	}
	oldExtent, newExtent, oldDistance, newDistance := pts[0], pts[1], pts[2], pts[3]

	var oldText, newText Text
	hasOld, err := r.next()
	if err != nil {
		return nilNode, err
	}
	if hasOld != 0 {
		units, err := r.units()
		if err != nil {
			return nilNode, err
		}
		if _, err := r.next(); err != nil {
			return nilNode, err
		}
		oldText = knownUnits(units)
	} else {
		size, err := r.next()
		if err != nil {
			return nilNode, err
		}
		oldText = SizeOnly(size)
	}

	hasNew, err := r.next()
	if err != nil {
		return nilNode, err
	}
	if hasNew != 0 {
		units, err := r.units()
		if err != nil {
			return nilNode, err
		}
		newText = knownUnits(units)
	}

	return p.buildNode(nilNode, nilNode, oldDistance, newDistance, oldExtent, newExtent, oldText, newText), nil
}
