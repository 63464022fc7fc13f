package aggregate

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithTieMode sets how equal totals are positioned.
func WithTieMode(m TieMode) Option {
	return func(a *Aggregator) {
		if m != "" {
			a.tieMode = m
		}
	}
}

// WithPreferredSource shows name and city from the source tagged tag.
func WithPreferredSource(tag string) Option {
	return func(a *Aggregator) {
		a.preferred = tag
	}
}
