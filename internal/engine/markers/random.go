package markers

// RandomSource produces treap priorities. Values must lie in [1, MaxInt32).
type RandomSource interface {
	Next() uint32
}

// defaultSeed is used when a zero seed is supplied.
const defaultSeed = 1637043935

// xorshift is a 32-bit xorshift generator. It is deterministic for a given
// seed so tests can reproduce exact tree shapes.
type xorshift struct {
	state uint32
}

// NewXorshift creates a deterministic random source from seed.
// A zero seed selects a fixed default.
func NewXorshift(seed uint32) RandomSource {
	if seed == 0 {
		seed = defaultSeed
	}
	return &xorshift{state: seed}
}

// Next returns the next priority in [1, MaxInt32).
func (x *xorshift) Next() uint32 {
	s := x.state
	s ^= s << 13
	s ^= s >> 17
	s ^= s << 5
	if s == 0 {
		s = defaultSeed
	}
	x.state = s
	return s%2147483646 + 1
}
