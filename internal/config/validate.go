package config

import (
	"fmt"
	"unicode/utf8"

	"github.com/okian/triplecrown/internal/domain/aggregate"
	"github.com/okian/triplecrown/internal/domain/normalize"
	"github.com/okian/triplecrown/internal/domain/schema"
)

// Validate checks the configuration and returns the first problem found,
// wrapped with ErrInvalidConfig.
func (c *Config) Validate() error { //nolint:cyclop // flat list of checks
	if c.Addr == "" {
		return invalid("addr must not be empty")
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return invalid("log_format %q must be text or json", c.LogFormat)
	}
	if _, err := normalize.ParsePolicy(c.Run.RowPolicy); err != nil {
		return invalid("run.row_policy: %v", err)
	}
	if _, err := aggregate.ParseTieMode(c.Run.TieMode); err != nil {
		return invalid("run.tie_mode: %v", err)
	}
	if c.Blocking.FirstWidth < 1 {
		return invalid("blocking.first_width must be >= 1, got %d", c.Blocking.FirstWidth)
	}
	if c.Blocking.LastWidth < 1 {
		return invalid("blocking.last_width must be >= 1, got %d", c.Blocking.LastWidth)
	}
	if len(c.Sources) < 2 {
		return invalid("at least two sources are required, got %d", len(c.Sources))
	}

	seen := make(map[string]struct{}, len(c.Sources))
	for i, s := range c.Sources {
		if err := s.validate(); err != nil {
			return fmt.Errorf("sources[%d]: %w", i, err)
		}
		if _, dup := seen[s.Tag]; dup {
			return invalid("sources[%d]: duplicate tag %q", i, s.Tag)
		}
		seen[s.Tag] = struct{}{}
	}
	if p := c.Run.PreferredSource; p != "" {
		if _, ok := seen[p]; !ok {
			return invalid("run.preferred_source %q is not a configured tag", p)
		}
	}

	if c.Output.SupersetPath == "" || c.Output.RankedPath == "" {
		return invalid("output.superset_path and output.ranked_path are required")
	}
	if c.Output.Top < 0 {
		return invalid("output.top must be >= 0")
	}
	if c.HTTP.RetryMax < 0 {
		return invalid("http.retry_max must be >= 0")
	}
	if c.MaxLeaderboardLimit <= 0 {
		return invalid("max_leaderboard_limit must be > 0")
	}
	return nil
}

func (s SourceConfig) validate() error {
	if s.Tag == "" {
		return invalid("tag must not be empty")
	}
	if _, err := schema.ForKind(s.Kind); err != nil {
		return invalid("%s: %v", s.Tag, err)
	}
	switch s.Format {
	case FormatDelimited:
		if s.Path == "" {
			return invalid("%s: path is required for delimited sources", s.Tag)
		}
		if utf8.RuneCountInString(s.Delimiter) != 1 {
			return invalid("%s: delimiter must be a single character", s.Tag)
		}
	case FormatResultSet:
		if s.URL == "" && s.CachePath == "" {
			return invalid("%s: url or cache_path is required for resultset sources", s.Tag)
		}
	default:
		return invalid("%s: unknown format %q", s.Tag, s.Format)
	}
	if s.CacheTTL < 0 {
		return invalid("%s: cache_ttl must not be negative", s.Tag)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
}
