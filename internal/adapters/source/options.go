package source

import (
	"time"

	"github.com/okian/triplecrown/pkg/logger"
)

// Option applies a configuration option to the Fetcher.
type Option func(*Fetcher)

// WithTimeout bounds a single HTTP attempt.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.client.HTTPClient.Timeout = d
		}
	}
}

// WithRetryMax sets how many times a failed request is retried.
func WithRetryMax(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.client.RetryMax = n
		}
	}
}

// WithRetryWait sets the backoff bounds between retries.
func WithRetryWait(minWait, maxWait time.Duration) Option {
	return func(f *Fetcher) {
		if minWait > 0 && maxWait >= minWait {
			f.client.RetryWaitMin = minWait
			f.client.RetryWaitMax = maxWait
		}
	}
}

// WithLogger sets the logger used for cache decisions.
func WithLogger(l logger.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithClock replaces time.Now for TTL checks.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		if now != nil {
			f.now = now
		}
	}
}
