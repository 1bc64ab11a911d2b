package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/shapeshifter/internal/bot"
	"github.com/Aman-CERP/shapeshifter/internal/config"
	"github.com/Aman-CERP/shapeshifter/internal/loader"
	"github.com/Aman-CERP/shapeshifter/internal/markov"
	"github.com/Aman-CERP/shapeshifter/internal/telemetry"
	"github.com/Aman-CERP/shapeshifter/pkg/version"
)

// MockEngine implements Engine for testing.
type MockEngine struct {
	ReplyFn   func(seed *string, n int) (markov.Sampling, error)
	LearnFn   func(ctx context.Context, text string, format loader.Format) (loader.Report, error)
	ExecuteFn func(ctx context.Context, line string) (string, error)
	StatusFn  func() bot.Status
}

func (m *MockEngine) Reply(seed *string, n int) (markov.Sampling, error) {
	if m.ReplyFn != nil {
		return m.ReplyFn(seed, n)
	}
	return markov.Sampling{}, nil
}

func (m *MockEngine) Learn(ctx context.Context, text string, format loader.Format) (loader.Report, error) {
	if m.LearnFn != nil {
		return m.LearnFn(ctx, text, format)
	}
	return loader.Report{}, nil
}

func (m *MockEngine) Execute(ctx context.Context, line string) (string, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, line)
	}
	return "", nil
}

func (m *MockEngine) Status() bot.Status {
	if m.StatusFn != nil {
		return m.StatusFn()
	}
	return bot.Status{}
}

func (m *MockEngine) Prefix() string     { return "~" }
func (m *MockEngine) Commands() []string { return []string{"help", "list"} }

var _ Engine = (*MockEngine)(nil)
var _ Engine = (*bot.Bot)(nil)

// newTestServer builds a server around a real bot that learned a small corpus.
func newTestServer(t *testing.T) (*Server, *bot.Bot) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "corpus.txt")
	require.NoError(t, os.WriteFile(path, []byte("the cat sat. the dog ran. a cat ran."), 0o644))

	cfg := config.NewConfig()
	cfg.Engine.Order = 2
	cfg.Corpus.Source = path

	b, err := bot.New(cfg, nil, bot.WithRand(markov.NewSeededSource(11)))
	require.NoError(t, err)
	require.NoError(t, b.Init(context.Background()))

	srv, err := NewServer(b)
	require.NoError(t, err)
	return srv, b
}

func TestServer_New_NilEngine_ReturnsError(t *testing.T) {
	_, err := NewServer(nil)
	require.Error(t, err)
}

func TestServer_Info_ReturnsCorrectValues(t *testing.T) {
	srv, _ := newTestServer(t)

	name, ver := srv.Info()

	assert.Equal(t, "Shapeshifter", name)
	assert.Equal(t, version.Version, ver)
	assert.NotNil(t, srv.MCPServer())
}

func TestServer_ListTools_ReturnsRegisteredTools(t *testing.T) {
	srv, _ := newTestServer(t)

	names := make([]string, 0, 4)
	for _, tool := range srv.ListTools() {
		assert.NotEmpty(t, tool.Description)
		names = append(names, tool.Name)
	}

	assert.Equal(t, []string{"reply", "learn", "command", "status"}, names)
}

func TestServer_CallTool_Reply(t *testing.T) {
	// Given: a server with a learned corpus
	srv, _ := newTestServer(t)

	// When: asking for a seeded reply with three samples
	result, err := srv.CallTool(context.Background(), "reply", map[string]any{
		"seed":    "cat",
		"samples": 3,
	})

	// Then: the best candidate is returned along with all candidates
	require.NoError(t, err)
	out, ok := result.(ReplyOutput)
	require.True(t, ok)
	require.Len(t, out.Candidates, 3)
	assert.Contains(t, out.Sentence, "cat")

	best := out.Candidates[0]
	for _, c := range out.Candidates {
		if c.Entropy > best.Entropy {
			best = c
		}
	}
	assert.Equal(t, best.Sentence, out.Sentence)
	assert.Equal(t, best.Entropy, out.Entropy)
}

func TestServer_CallTool_Reply_DefaultSamples(t *testing.T) {
	srv, b := newTestServer(t)

	result, err := srv.CallTool(context.Background(), "reply", nil)

	require.NoError(t, err)
	assert.Len(t, result.(ReplyOutput).Candidates, b.Status().SampleSize)
}

func TestServer_CallTool_Reply_InvalidParams(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"two words", map[string]any{"seed": "the cat"}},
		{"negative samples", map[string]any{"samples": -1}},
		{"too many samples", map[string]any{"samples": 1000000}},
		{"wrong type", map[string]any{"samples": "many"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := srv.CallTool(context.Background(), "reply", tt.args)
			require.Error(t, err)
			assert.Equal(t, ErrCodeInvalidParams, MapError(err).Code)
		})
	}
}

func TestServer_CallTool_Reply_SamplesLimit(t *testing.T) {
	// Given: an engine that counts generations
	var asked int
	srv, err := NewServer(&MockEngine{
		ReplyFn: func(_ *string, n int) (markov.Sampling, error) {
			asked = n
			return markov.Sampling{Candidates: make([]markov.Result, n)}, nil
		},
	})
	require.NoError(t, err)

	// When: asking for exactly the limit and one more
	_, err = srv.CallTool(context.Background(), "reply", map[string]any{"samples": MaxSamples})
	require.NoError(t, err)
	_, overErr := srv.CallTool(context.Background(), "reply", map[string]any{"samples": MaxSamples + 1})

	// Then: the limit is served and the excess is rejected before generating
	assert.Equal(t, MaxSamples, asked)
	require.Error(t, overErr)
	assert.Equal(t, ErrCodeInvalidParams, MapError(overErr).Code)
}

func TestServer_Metrics_EchoOfQuestionSeed(t *testing.T) {
	// Given: a server with a learned corpus
	srv, _ := newTestServer(t)
	ctx := context.Background()

	// When: the unknown seed already ends in a question mark
	result, err := srv.CallTool(ctx, "reply", map[string]any{"seed": "zebra?"})
	require.NoError(t, err)

	// Then: the echo is still counted
	assert.Equal(t, "zebra?", result.(ReplyOutput).Sentence)
	snap := srv.Metrics()
	assert.Equal(t, int64(1), snap.EchoedReplies)
	assert.Equal(t, []string{"zebra?"}, snap.UnknownSeeds)
}

func TestServer_CallTool_Reply_EngineError(t *testing.T) {
	srv, err := NewServer(&MockEngine{
		ReplyFn: func(*string, int) (markov.Sampling, error) {
			return markov.Sampling{}, markov.ErrIndexInconsistency
		},
	})
	require.NoError(t, err)

	_, err = srv.CallTool(context.Background(), "reply", map[string]any{})

	require.Error(t, err)
	assert.Equal(t, ErrCodeIndexCorrupt, MapError(err).Code)
}

func TestServer_CallTool_Learn(t *testing.T) {
	// Given: a server with a learned corpus
	srv, b := newTestServer(t)
	before := b.Status().Tuples

	// When: learning new lines
	result, err := srv.CallTool(context.Background(), "learn", map[string]any{
		"text":   "penguins waddle slowly\nthe cat naps",
		"format": "irc_log",
	})

	// Then: both lines are learned and the index grew
	require.NoError(t, err)
	out := result.(LearnOutput)
	assert.Equal(t, 2, out.Segments)
	assert.Equal(t, 2, out.Learned)
	assert.Greater(t, out.Tuples, before)
	assert.Equal(t, b.Status().Tuples, out.Tuples)
}

func TestServer_CallTool_Learn_Invalid(t *testing.T) {
	srv, _ := newTestServer(t)

	_, err := srv.CallTool(context.Background(), "learn", map[string]any{"text": "  "})
	assert.Equal(t, ErrCodeInvalidParams, MapError(err).Code)

	_, err = srv.CallTool(context.Background(), "learn", map[string]any{"text": "a b.", "format": "csv"})
	assert.Equal(t, ErrCodeInvalidParams, MapError(err).Code)
}

func TestServer_CallTool_Command(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		line string
		want string
	}{
		{"~order", "Current Markov-order is 2."},
		{"order", "Current Markov-order is 2."},
		{"se 4", "Strack-entrophy compensation was set to 4."},
		{"  hh ", "Hegedus heuristic is now turned off."},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			result, err := srv.CallTool(context.Background(), "command", map[string]any{"line": tt.line})
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.(CommandOutput).Reply)
		})
	}
}

func TestServer_CallTool_Command_Errors(t *testing.T) {
	srv, _ := newTestServer(t)

	_, err := srv.CallTool(context.Background(), "command", map[string]any{"line": "nope"})
	require.Error(t, err)
	assert.Equal(t, ErrCodeMethodNotFound, MapError(err).Code)
	assert.Equal(t, "Unresolved command: nope", MapError(err).Message)

	_, err = srv.CallTool(context.Background(), "command", map[string]any{"line": "order 9"})
	assert.Equal(t, ErrCodeInvalidParams, MapError(err).Code)

	_, err = srv.CallTool(context.Background(), "command", map[string]any{})
	assert.Equal(t, ErrCodeInvalidParams, MapError(err).Code)
}

func TestServer_CallTool_Status(t *testing.T) {
	srv, b := newTestServer(t)

	result, err := srv.CallTool(context.Background(), "status", nil)

	require.NoError(t, err)
	out := result.(StatusOutput)
	st := b.Status()
	assert.Equal(t, 2, out.Order)
	assert.Equal(t, st.Tuples, out.Tuples)
	assert.Equal(t, st.Tokens, out.Tokens)
	assert.Equal(t, "TXT", out.Format)
	assert.True(t, out.Cautious)
}

func TestServer_CallTool_UnknownTool_ReturnsError(t *testing.T) {
	srv, _ := newTestServer(t)

	_, err := srv.CallTool(context.Background(), "nonexistent_tool", nil)

	require.Error(t, err)
	assert.Equal(t, ErrCodeMethodNotFound, MapError(err).Code)
}

func TestServer_ReadResource(t *testing.T) {
	srv, b := newTestServer(t)

	// Status resource is JSON
	res, err := srv.ReadResource(context.Background(), StatusURI)
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)

	var st StatusOutput
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &st))
	assert.Equal(t, b.Status().Tuples, st.Tuples)

	// Commands resource lists prefixed names
	res, err = srv.ReadResource(context.Background(), CommandsURI)
	require.NoError(t, err)
	assert.Contains(t, res.Contents[0].Text, "~reply\n")
	assert.Contains(t, res.Contents[0].Text, "~order\n")

	// Unknown resource
	_, err = srv.ReadResource(context.Background(), "shapeshifter://nope")
	require.Error(t, err)
	assert.Equal(t, ErrCodeMethodNotFound, MapError(err).Code)
}

func TestServer_Metrics_RecordsReplies(t *testing.T) {
	// Given: a server with a learned corpus
	srv, _ := newTestServer(t)
	ctx := context.Background()

	// When: asking for a known seed, an unknown seed and a random reply
	_, err := srv.CallTool(ctx, "reply", map[string]any{"seed": "cat"})
	require.NoError(t, err)
	unknown, err := srv.CallTool(ctx, "reply", map[string]any{"seed": "zebra"})
	require.NoError(t, err)
	_, err = srv.CallTool(ctx, "reply", nil)
	require.NoError(t, err)

	// Then: the metrics resource reports all three
	assert.Equal(t, "zebra?", unknown.(ReplyOutput).Sentence)

	res, err := srv.ReadResource(ctx, MetricsURI)
	require.NoError(t, err)
	var snap telemetry.Snapshot
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &snap))
	assert.Equal(t, int64(3), snap.TotalReplies)
	assert.Equal(t, int64(2), snap.SeededReplies)
	assert.Equal(t, int64(1), snap.EchoedReplies)
	assert.Equal(t, []string{"zebra"}, snap.UnknownSeeds)
	assert.Equal(t, int64(3), srv.Metrics().TotalReplies)
}

func TestServer_Serve_UnknownTransport(t *testing.T) {
	srv, _ := newTestServer(t)

	err := srv.Serve(context.Background(), "sse")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
}

func TestServer_ConcurrentRequests_RaceSafe(t *testing.T) {
	// Given: a server shared by many clients
	srv, _ := newTestServer(t)

	// When: replies, learning and status run concurrently
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch i % 3 {
			case 0:
				_, err := srv.CallTool(context.Background(), "reply", map[string]any{"samples": 2})
				assert.NoError(t, err)
			case 1:
				_, err := srv.CallTool(context.Background(), "learn", map[string]any{"text": "the bird sang."})
				assert.NoError(t, err)
			default:
				_, err := srv.CallTool(context.Background(), "status", nil)
				assert.NoError(t, err)
			}
		}(i)
	}

	// Then: everything completes without races
	wg.Wait()
}
