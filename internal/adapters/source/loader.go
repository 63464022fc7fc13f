// Package source materializes the raw tables the pipeline consumes:
// delimited files and remote result sets fronted by a file cache.
package source

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/okian/triplecrown/internal/config"
	"github.com/okian/triplecrown/internal/domain/model"
	"github.com/okian/triplecrown/pkg/logger"
)

// Loader reads configured sources.
type Loader struct {
	fetcher *Fetcher
	logger  logger.Logger
}

// NewLoader creates a Loader. A nil fetcher gets NewFetcher defaults.
func NewLoader(f *Fetcher, l logger.Logger) *Loader {
	if f == nil {
		f = NewFetcher(WithLogger(l))
	}
	return &Loader{fetcher: f, logger: l}
}

func (l *Loader) log() logger.Logger {
	if l.logger == nil {
		return logger.Get()
	}
	return l.logger
}

// Load reads one source.
func (l *Loader) Load(ctx context.Context, sc config.SourceConfig) (model.RawTable, error) {
	var (
		t      model.RawTable
		origin = "file"
		err    error
	)
	switch sc.Format {
	case config.FormatDelimited:
		t, err = ReadDelimitedFile(sc.Tag, sc.Path, sc.Delimiter)
	case config.FormatResultSet:
		var body []byte
		body, origin, err = l.fetcher.Fetch(ctx, Request{
			Tag:       sc.Tag,
			URL:       sc.URL,
			CachePath: sc.CachePath,
			TTL:       sc.CacheTTL,
		})
		if err == nil {
			t, err = ParseResultSet(sc.Tag, body)
		}
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFormat, sc.Format)
	}
	if err != nil {
		return model.RawTable{}, err
	}

	l.log().Info(ctx, "source loaded",
		logger.String("source", sc.Tag),
		logger.String("origin", origin),
		logger.Int("rows", len(t.Rows)),
	)
	return t, nil
}

// LoadAll reads every source concurrently and returns the tables in the
// order of sources. The first failure cancels the rest.
func (l *Loader) LoadAll(ctx context.Context, sources []config.SourceConfig) ([]model.RawTable, error) {
	out := make([]model.RawTable, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, sc := range sources {
		g.Go(func() error {
			t, err := l.Load(gctx, sc)
			if err != nil {
				return err
			}
			out[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
