package normalize

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithPolicy sets the malformed-row policy.
func WithPolicy(p Policy) Option {
	return func(n *Normalizer) {
		if p != "" {
			n.policy = p
		}
	}
}
