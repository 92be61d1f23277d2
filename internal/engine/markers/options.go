package markers

// Option configures an Index during creation.
type Option func(*Index)

// WithSeed seeds the default priority generator.
func WithSeed(seed uint32) Option {
	return func(x *Index) {
		x.rng = NewXorshift(seed)
	}
}

// WithRandomSource replaces the priority generator.
func WithRandomSource(src RandomSource) Option {
	return func(x *Index) {
		if src != nil {
			x.rng = src
		}
	}
}
