// Package config defines run and serve configuration and its defaults.
//
// Conventions:
//   - New(ctx) returns a Config carrying every default.
//   - Load layers a YAML file and the environment on top of New.
//   - Validate rejects configurations the pipeline cannot run with.
package config

import (
	"context"
	"time"

	"github.com/okian/triplecrown/internal/domain/aggregate"
	"github.com/okian/triplecrown/internal/domain/normalize"
	"github.com/okian/triplecrown/internal/domain/schema"
)

// Source kinds understood by the normalizer.
const (
	KindBasic    = schema.KindBasic
	KindChip     = schema.KindChip
	KindHandicap = schema.KindHandicap
)

// Source formats understood by the readers.
const (
	FormatDelimited = "delimited"
	FormatResultSet = "resultset"
)

// Row policies for malformed rows.
const (
	PolicyAbort = string(normalize.PolicyAbort)
	PolicySkip  = string(normalize.PolicySkip)
)

// Tie modes for the combined ranking.
const (
	TieAverage = string(aggregate.TieAverage)
	TieOrdinal = string(aggregate.TieOrdinal)
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address for serve, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	Run      RunConfig      `koanf:"run"`
	Blocking BlockingConfig `koanf:"blocking"`
	Sources  []SourceConfig `koanf:"sources"`
	HTTP     HTTPConfig     `koanf:"http"`
	Output   OutputConfig   `koanf:"output"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// RunConfig controls pipeline behavior.
type RunConfig struct {
	// RowPolicy is abort or skip.
	RowPolicy string `koanf:"row_policy"`

	// TieMode is average or ordinal.
	TieMode string `koanf:"tie_mode"`

	// PreferredSource names the source whose name and city are displayed.
	// Empty means the first source.
	PreferredSource string `koanf:"preferred_source"`
}

// BlockingConfig holds the blocking key parameters.
type BlockingConfig struct {
	FirstWidth       int  `koanf:"first_width"`
	LastWidth        int  `koanf:"last_width"`
	FoldAccents      bool `koanf:"fold_accents"`
	ValidateDivision bool `koanf:"validate_division"`
}

// SourceConfig describes one input dataset.
type SourceConfig struct {
	// Tag suffixes this source's columns, e.g. "ttt".
	Tag string `koanf:"tag"`

	// Kind is basic, chip or handicap.
	Kind string `koanf:"kind"`

	// Format is delimited or resultset. Derived from URL/CachePath when empty.
	Format string `koanf:"format"`

	// Path of a delimited file.
	Path string `koanf:"path"`

	// Delimiter of a delimited file. Derived from the extension when empty.
	Delimiter string `koanf:"delimiter"`

	// URL of a remote result set.
	URL string `koanf:"url"`

	// CachePath stores the raw remote response.
	CachePath string `koanf:"cache_path"`

	// CacheTTL expires the cache; zero keeps it forever.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// Columns overrides raw column names: canonical field -> raw header.
	Columns map[string]string `koanf:"columns"`
}

// HTTPConfig configures remote fetches.
type HTTPConfig struct {
	Timeout  time.Duration `koanf:"timeout"`
	RetryMax int           `koanf:"retry_max"`
}

// OutputConfig configures result writers.
type OutputConfig struct {
	SupersetPath  string `koanf:"superset_path"`
	RankedPath    string `koanf:"ranked_path"`
	SupersetIndex bool   `koanf:"superset_index"`
	RankedIndex   bool   `koanf:"ranked_index"`
	SQLitePath    string `koanf:"sqlite_path"`
	Top           int    `koanf:"top"`
}

// MetricsConfig configures the Pushgateway export of batch runs.
type MetricsConfig struct {
	PushgatewayURL string `koanf:"pushgateway_url"`
	Job            string `koanf:"job"`
}

// New creates a Config holding defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		MaxLeaderboardLimit: 100,
		Run: RunConfig{
			RowPolicy: PolicyAbort,
			TieMode:   TieAverage,
		},
		Blocking: BlockingConfig{
			FirstWidth: 1,
			LastWidth:  3,
		},
		Sources: DefaultSources(),
		HTTP: HTTPConfig{
			Timeout:  30 * time.Second,
			RetryMax: 3,
		},
		Output: OutputConfig{
			SupersetPath: "out/triple_crown_allresults.csv",
			RankedPath:   "out/triple_crown_innerjoin.csv",
			Top:          10,
		},
		Metrics: MetricsConfig{
			Job: "triplecrown",
		},
	}
}

// DefaultSources returns the 2018 triple crown datasets.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Tag:       "ttt",
			Kind:      KindBasic,
			Format:    FormatDelimited,
			Path:      "data/20180521/tilden_tough_ten/tabula-TildenToughTen2018PDF.csv",
			Delimiter: ",",
		},
		{
			Tag:       "lc",
			Kind:      KindChip,
			Format:    FormatResultSet,
			URL:       "https://runsignup.com/Race/Results/21928/?resultSetId=117702&page=1&num=10000&search=",
			CachePath: "data/20180611/lake_chabot/lake-chabot-trail-challenge-2018-results.json",
		},
		{
			Tag:       "wm",
			Kind:      KindHandicap,
			Format:    FormatDelimited,
			Path:      "data/20180624/woodmonster/woodmonster-2018-handicap.tsv",
			Delimiter: "\t",
		},
	}
}

// Source returns the source with tag.
func (c *Config) Source(tag string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.Tag == tag {
			return s, true
		}
	}
	return SourceConfig{}, false
}

// Tags returns the source tags in configured order.
func (c *Config) Tags() []string {
	tags := make([]string, 0, len(c.Sources))
	for _, s := range c.Sources {
		tags = append(tags, s.Tag)
	}
	return tags
}
