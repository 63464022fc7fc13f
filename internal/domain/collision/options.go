package collision

type trackerConfig struct {
	sizeHint int
}

// Option applies a configuration option to a Tracker.
type Option func(*trackerConfig)

// WithSizeHint preallocates room for n distinct keys.
func WithSizeHint(n int) Option {
	return func(c *trackerConfig) {
		if n > 0 {
			c.sizeHint = n
		}
	}
}
