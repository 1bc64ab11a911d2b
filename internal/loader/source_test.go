package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shaperrors "github.com/Aman-CERP/shapeshifter/internal/errors"
	"github.com/Aman-CERP/shapeshifter/internal/markov"
)

func fastRetry() shaperrors.RetryConfig {
	return shaperrors.RetryConfig{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSourceCache_OpenLocalPathAndFileURL(t *testing.T) {
	path := writeCorpus(t, "the cat sat.")
	c := NewSourceCache(2)

	for _, loc := range []string{path, "file://" + path} {
		rc, err := c.Open(context.Background(), loc)
		require.NoError(t, err, loc)
		assert.Equal(t, "the cat sat.", readAll(t, rc))
	}
	assert.Equal(t, 0, c.Len(), "local files are never cached")
}

func TestSourceCache_OpenMissingFile(t *testing.T) {
	c := NewSourceCache(2)

	_, err := c.Open(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))

	require.Error(t, err)
	assert.Equal(t, shaperrors.ErrCodeSourceNotFound, shaperrors.GetCode(err))
}

func TestSourceCache_OpenEmptyLocation(t *testing.T) {
	_, err := NewSourceCache(2).Open(context.Background(), "  ")
	assert.Equal(t, shaperrors.ErrCodeInvalidInput, shaperrors.GetCode(err))
}

func TestSourceCache_RemoteBodiesAreCached(t *testing.T) {
	// Given: a server counting hits
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, "remote corpus.")
	}))
	defer srv.Close()

	c := NewSourceCache(2)
	c.SetRetryConfig(fastRetry())

	// When: opening the same URL twice
	for i := 0; i < 2; i++ {
		rc, err := c.Open(context.Background(), srv.URL+"/corpus.txt")
		require.NoError(t, err)
		assert.Equal(t, "remote corpus.", readAll(t, rc))
	}

	// Then: only one fetch happened
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestSourceCache_RemoteNotFoundIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewSourceCache(2)
	c.SetRetryConfig(fastRetry())

	_, err := c.Open(context.Background(), srv.URL)

	require.Error(t, err)
	assert.Equal(t, shaperrors.ErrCodeSourceNotFound, shaperrors.GetCode(err))
	assert.Equal(t, int32(1), hits.Load())
}

func TestSourceCache_RemoteServerErrorIsRetried(t *testing.T) {
	// Given: a server failing once, then succeeding
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "second time lucky.")
	}))
	defer srv.Close()

	c := NewSourceCache(2)
	c.SetRetryConfig(fastRetry())

	rc, err := c.Open(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "second time lucky.", readAll(t, rc))
	assert.Equal(t, int32(2), hits.Load())
}

func TestReinit_ReplacesKnowledge(t *testing.T) {
	// Given: an index that already knows something
	idx, err := markov.NewIndex(2)
	require.NoError(t, err)
	idx.AddSegment("old stuff here")
	path := writeCorpus(t, "the cat sat. the dog ran.")

	// When
	res, err := NewSourceCache(2).Reinit(context.Background(), idx, path, FormatText)

	// Then
	require.NoError(t, err)
	assert.Equal(t, 2, res.Segments)
	assert.Equal(t, 4, res.Tuples)
	assert.Equal(t, 4, idx.KnownTupleCount())
	assert.False(t, idx.Knows("old"))
	assert.True(t, strings.HasPrefix(res.Summary(), "Engine reinitialization of "+path+" performed [TXT], took "))
	assert.True(t, strings.HasSuffix(res.Summary(), "A sum of 4 tuples were created."))
}

func TestReinit_KeepsIndexWhenSourceMissing(t *testing.T) {
	idx, err := markov.NewIndex(2)
	require.NoError(t, err)
	idx.AddSegment("old stuff here")

	_, err = NewSourceCache(2).Reinit(context.Background(), idx, filepath.Join(t.TempDir(), "missing"), FormatText)

	require.Error(t, err)
	assert.True(t, idx.Knows("old"))
}
