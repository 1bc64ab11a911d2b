package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	shaperrors "github.com/Aman-CERP/shapeshifter/internal/errors"
)

// DefaultCacheSize is the number of remote bodies kept in memory.
const DefaultCacheSize = 8

// SourceCache opens corpus sources. Remote bodies are cached by URL; local
// files are always read from disk.
type SourceCache struct {
	cache  *lru.Cache[string, []byte]
	client *http.Client
	retry  shaperrors.RetryConfig
}

// NewSourceCache creates a cache holding up to size remote bodies.
// A size below 1 uses DefaultCacheSize.
func NewSourceCache(size int) *SourceCache {
	if size < 1 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[string, []byte](size)
	return &SourceCache{
		cache:  cache,
		client: &http.Client{Timeout: 60 * time.Second},
		retry:  shaperrors.DefaultRetryConfig(),
	}
}

// SetHTTPClient replaces the client used for remote sources.
func (c *SourceCache) SetHTTPClient(client *http.Client) {
	c.client = client
}

// SetRetryConfig replaces the backoff used for remote sources.
func (c *SourceCache) SetRetryConfig(cfg shaperrors.RetryConfig) {
	c.retry = cfg
}

// Len returns the number of cached remote bodies.
func (c *SourceCache) Len() int {
	return c.cache.Len()
}

// Purge drops every cached body.
func (c *SourceCache) Purge() {
	c.cache.Purge()
}

// Open opens location, which may be a local path, a file: URL, or an
// http(s) URL.
func (c *SourceCache) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, shaperrors.New(shaperrors.ErrCodeInvalidInput, "no source given", nil).
			WithSuggestion("Pass a file path or URL, or set corpus.source in the config.")
	}

	u, err := url.Parse(location)
	if err == nil {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return c.openRemote(ctx, location)
		case "file":
			path := u.Path
			if path == "" {
				path = u.Opaque
			}
			return openFile(path)
		}
	}
	return openFile(location)
}

func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, shaperrors.New(shaperrors.ErrCodeSourceNotFound,
				fmt.Sprintf("source not found: %s", path), err).
				WithDetail("source", path)
		}
		return nil, shaperrors.IOError(fmt.Sprintf("cannot open source %s", path), err).
			WithDetail("source", path)
	}
	return f, nil
}

func (c *SourceCache) openRemote(ctx context.Context, location string) (io.ReadCloser, error) {
	if body, ok := c.cache.Get(location); ok {
		slog.Debug("source_cache_hit", slog.String("source", location))
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	body, err := shaperrors.RetryWithResult(ctx, c.retry, func() ([]byte, error) {
		return c.fetch(ctx, location)
	})
	if err != nil {
		return nil, err
	}

	c.cache.Add(location, body)
	slog.Debug("source_fetched",
		slog.String("source", location),
		slog.Int("bytes", len(body)))
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (c *SourceCache) fetch(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, shaperrors.New(shaperrors.ErrCodeInvalidInput,
			"invalid source URL: "+location, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, shaperrors.NetworkError("failed to fetch "+location, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, shaperrors.NetworkError(
			fmt.Sprintf("source server error (status %d)", resp.StatusCode), nil).
			WithDetail("source", location)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, shaperrors.New(shaperrors.ErrCodeSourceNotFound,
			fmt.Sprintf("source unavailable (status %d): %s", resp.StatusCode, location), nil).
			WithDetail("source", location)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, shaperrors.IOError("failed to read "+location, err)
	}
	return body, nil
}

// Open opens location without caching.
func Open(ctx context.Context, location string) (io.ReadCloser, error) {
	return NewSourceCache(1).Open(ctx, location)
}

// Target is what Reinit rebuilds. *markov.Index implements it.
type Target interface {
	Sink
	Clear()
	KnownTupleCount() int
}

// ReinitResult is the outcome of Reinit.
type ReinitResult struct {
	Report
	Source string `json:"source"`
	Format Format `json:"format"`
	Tuples int    `json:"tuples"`
}

// Summary renders the result the way the chat bot reports it.
func (r ReinitResult) Summary() string {
	return fmt.Sprintf("Engine reinitialization of %s performed [%s], took %d msecs. A sum of %d tuples were created.",
		r.Source, r.Format, r.Duration.Milliseconds(), r.Tuples)
}

// Reinit opens location, clears target and learns the whole source.
// target is only cleared once the source has been opened.
func (c *SourceCache) Reinit(ctx context.Context, target Target, location string, format Format) (ReinitResult, error) {
	start := time.Now()

	rc, err := c.Open(ctx, location)
	if err != nil {
		return ReinitResult{}, err
	}
	defer rc.Close()

	target.Clear()
	rep, err := Load(ctx, rc, format, target)
	rep.Duration = time.Since(start)

	res := ReinitResult{
		Report: rep,
		Source: location,
		Format: format,
		Tuples: target.KnownTupleCount(),
	}
	if err != nil {
		return res, err
	}

	slog.Info("reinit_complete",
		slog.String("source", location),
		slog.String("format", format.String()),
		slog.Int("segments", rep.Segments),
		slog.Int("tuples", res.Tuples),
		slog.Duration("duration", rep.Duration))
	return res, nil
}
