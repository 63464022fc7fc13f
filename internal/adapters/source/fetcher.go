package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"github.com/zeebo/xxh3"

	"github.com/okian/triplecrown/pkg/logger"
	"github.com/okian/triplecrown/pkg/metrics"
)

// Where a fetched body came from.
const (
	OriginCache = "cache"
	OriginHTTP  = "http"
)

// hashSuffix names the sidecar holding the xxh3 hash of a cache file.
const hashSuffix = ".xxh3"

// Request describes one remote document and its local cache.
type Request struct {
	Tag       string
	URL       string
	CachePath string
	// TTL expires the cache by modification time. Zero never expires.
	TTL time.Duration
}

// Fetcher loads JSON documents over HTTP, fronted by a file cache. A cache
// that exists, is younger than its TTL and matches its hash sidecar is
// used without touching the network.
type Fetcher struct {
	client *retryablehttp.Client
	logger logger.Logger
	now    func() time.Time
}

// NewFetcher creates a Fetcher with three retries and a 30s timeout.
func NewFetcher(opts ...Option) *Fetcher {
	c := retryablehttp.NewClient()
	c.Logger = log.New(io.Discard, "", 0)
	c.RetryMax = 3
	c.HTTPClient.Timeout = 30 * time.Second

	f := &Fetcher{client: c, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fetcher) log() logger.Logger {
	if f.logger == nil {
		return logger.Get()
	}
	return f.logger
}

// Fetch returns the body for r and the origin it was read from.
func (f *Fetcher) Fetch(ctx context.Context, r Request) ([]byte, string, error) {
	if r.CachePath != "" {
		body, fresh, err := f.readCache(ctx, r)
		if err != nil {
			return nil, "", err
		}
		if fresh {
			metrics.RecordSourceFetch(r.Tag, OriginCache)
			return body, OriginCache, nil
		}
	}
	if r.URL == "" {
		return nil, "", fmt.Errorf("%w: %s: no cache at %q and no url", ErrCacheIO, r.Tag, r.CachePath)
	}

	body, err := f.get(ctx, r.URL)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", r.Tag, err)
	}
	if r.CachePath != "" {
		if err := writeCache(r.CachePath, body); err != nil {
			return nil, "", fmt.Errorf("%s: %w", r.Tag, err)
		}
		f.log().Info(ctx, "cache written", logger.String("source", r.Tag), logger.String("path", r.CachePath))
	}
	metrics.RecordSourceFetch(r.Tag, OriginHTTP)
	return body, OriginHTTP, nil
}

// readCache reports whether the cache at r.CachePath can be used. Without
// a URL to refresh from an expired cache is still used and a corrupt one
// fails.
func (f *Fetcher) readCache(ctx context.Context, r Request) ([]byte, bool, error) {
	info, err := os.Stat(r.CachePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %v", ErrCacheIO, r.Tag, err)
	}

	body, err := os.ReadFile(r.CachePath)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %v", ErrCacheIO, r.Tag, err)
	}

	ok, err := verifyHash(r.CachePath, body)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %v", ErrCacheIO, r.Tag, err)
	}
	if !ok {
		if r.URL == "" {
			return nil, false, fmt.Errorf("%w: %s: %q does not match its hash", ErrCacheIO, r.Tag, r.CachePath)
		}
		f.log().Warn(ctx, "cache hash mismatch, refetching", logger.String("source", r.Tag))
		return nil, false, nil
	}

	if r.TTL > 0 && f.now().Sub(info.ModTime()) > r.TTL {
		if r.URL == "" {
			f.log().Warn(ctx, "cache expired, no url to refresh from", logger.String("source", r.Tag))
			return body, true, nil
		}
		f.log().Info(ctx, "cache expired", logger.String("source", r.Tag), logger.Duration("ttl", r.TTL))
		return nil, false, nil
	}
	return body, true, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", ErrFetch, url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: %s did not return json", ErrFetch, url)
	}
	return body, nil
}

// verifyHash compares body with the sidecar next to path. A missing
// sidecar passes, so hand-placed cache files are accepted.
func verifyHash(path string, body []byte) (bool, error) {
	raw, err := os.ReadFile(path + hashSuffix)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	want, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 16, 64)
	if err != nil {
		return false, nil
	}
	return xxh3.Hash(body) == want, nil
}

// writeCache replaces path and its hash sidecar atomically.
func writeCache(path string, body []byte) error {
	if err := writeAtomic(path, body); err != nil {
		return err
	}
	sum := fmt.Sprintf("%016x\n", xxh3.Hash(body))
	return writeAtomic(path+hashSuffix, []byte(sum))
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheIO, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheIO, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrCacheIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheIO, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheIO, err)
	}
	return nil
}
