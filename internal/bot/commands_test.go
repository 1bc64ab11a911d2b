package bot

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shaperrors "github.com/Aman-CERP/shapeshifter/internal/errors"
)

func TestExecute_Commands(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"~re", "Hello thar! I'm Shapeshifter, a bidirectional Markov chain bot. Type ~list to see what I can do."},
		{"~list", "Available commands: die, help, hh, list, order, re, reinit, reply, se, stats."},
		{"~help", "Usage: ~help [command] --> Shows usage info for the given command (type ~list for the list of commands)."},
		{"~help re", "Usage: ~re --> About info."},
		{"~help ~se", "Usage: ~se [value] --> Sets the Strack-entropy compensation value (by default it's 7)."},
		{"~help nope", "No such command: nope"},
		{"~order", "Current Markov-order is 2."},
		{"~se", "Current Strack-entrophy compensation is 7."},
		{"~se 3", "Strack-entrophy compensation was set to 3."},
		{"~hh", "Hegedus heuristic is now turned off."},
		{"~stats", "Markov-order 2, 4 tuples over 5 tokens (2 starters, 2 finishers). Hegedus heuristic is on, compensation is 7."},
		{"~reply cat", "the cat sat."},
		{"~reply   \t dog", "the dog ran."},
		{"~reply zebra", "zebra?"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			b, _ := newTestBot(t, nil)

			got, err := b.Execute(context.Background(), tt.line)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		line     string
		wantCode string
		wantMsg  string
	}{
		{"~dance", shaperrors.ErrCodeUnknownCommand, "Unresolved command: dance"},
		{"~order x", shaperrors.ErrCodeCommandSyntax, "Argument must be an integer."},
		{"~order 6", shaperrors.ErrCodeCommandSyntax, "Illegal argument. Argument must be in the interval [1,5]."},
		{"~se many", shaperrors.ErrCodeCommandSyntax, "Argument must be an integer."},
		{"~reinit /definitely/not/here.txt", shaperrors.ErrCodeSourceNotFound, "source not found"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			b, _ := newTestBot(t, nil)

			_, err := b.Execute(context.Background(), tt.line)

			require.Error(t, err)
			assert.Equal(t, tt.wantCode, shaperrors.GetCode(err))
			assert.True(t, strings.HasPrefix(shaperrors.FormatForUser(err), tt.wantMsg), shaperrors.FormatForUser(err))
		})
	}
}

func TestHH_Toggles(t *testing.T) {
	b, _ := newTestBot(t, nil)
	ctx := context.Background()

	off, _ := b.Execute(ctx, "~hh")
	assert.Equal(t, "Hegedus heuristic is now turned off.", off)

	// With the heuristic off an unknown seed walks from any tuple
	reply, err := b.Execute(ctx, "~reply zebra")
	require.NoError(t, err)
	assert.Contains(t, []string{"the cat sat.", "the dog ran."}, reply)

	on, _ := b.Execute(ctx, "~hh")
	assert.Equal(t, "Hegedus heuristic is now turned on.", on)
}

func TestReply_LearnsArguments(t *testing.T) {
	b, _ := newTestBot(t, nil)
	ctx := context.Background()

	reply, err := b.Execute(ctx, "~reply purple zebra")
	require.NoError(t, err)
	assert.Contains(t, []string{"purple?", "zebra?"}, reply)

	// The question itself became knowledge
	assert.Equal(t, 5, b.Status().Tuples)
	reply, err = b.Execute(ctx, "~reply zebra")
	require.NoError(t, err)
	assert.Equal(t, "purple zebra", reply)
}

func TestReply_LearnRepliesOff(t *testing.T) {
	b, _ := newTestBot(t, nil)
	b.learnReplies = false

	_, err := b.Execute(context.Background(), "~reply purple zebra")

	require.NoError(t, err)
	assert.Equal(t, 4, b.Status().Tuples)
}

func TestOrder_ReinitsFromConfiguredSource(t *testing.T) {
	b, path := newTestBot(t, nil)

	reply, err := b.Execute(context.Background(), "~order 3")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(reply, "Markov-order was set to 3. Engine reinitialization of "+path+" performed [TXT]"), reply)
	assert.True(t, strings.HasSuffix(reply, "A sum of 2 tuples were created."), reply)
	assert.Equal(t, 3, b.Status().Order)
}

func TestOrder_WithExplicitSourceAndFormat(t *testing.T) {
	b, _ := newTestBot(t, nil)
	logPath := filepath.Join(t.TempDir(), "chat.log")
	require.NoError(t, os.WriteFile(logPath, []byte("hi there you\nwhat is up\n"), 0o644))

	reply, err := b.Execute(context.Background(), "~order 1 "+logPath+" irc_log")

	require.NoError(t, err)
	assert.Contains(t, reply, "performed [IRC_LOG]")
	assert.Equal(t, 6, b.Status().Tuples)
}

func TestOrder_WithoutSourceEmptiesKnowledge(t *testing.T) {
	b, err := New(configWithoutSource(), nil)
	require.NoError(t, err)

	reply, err := b.Execute(context.Background(), "~order 4")

	require.NoError(t, err)
	assert.Equal(t, "Markov-order was set to 4. The knowledge base is now empty.", reply)
	assert.Equal(t, 4, b.Status().Order)
}

func TestReinit_UnknownFormatFallsBackToText(t *testing.T) {
	rec := &recorder{}
	b, path := newTestBot(t, rec)

	reply, err := b.Execute(context.Background(), "~reinit "+path+" yaml")

	require.NoError(t, err)
	assert.Contains(t, reply, "performed [TXT]")
	assert.Equal(t, []string{"Started parsing specified file as TXT..."}, rec.messages())
}

func TestReinit_NoSourceConfigured(t *testing.T) {
	b, err := New(configWithoutSource(), nil)
	require.NoError(t, err)

	_, err = b.Execute(context.Background(), "~reinit")

	assert.Equal(t, shaperrors.ErrCodeCommandSyntax, shaperrors.GetCode(err))
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line     string
		wantHead string
		wantArgs []string
	}{
		{"reply", "reply", []string{}},
		{"reply a b", "reply", []string{"a", "b"}},
		{"  order\t3  ", "order", []string{"3"}},
		{"", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			head, args := parseCommand(tt.line)
			assert.Equal(t, tt.wantHead, head)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestReinit_OtherSourceDisabled(t *testing.T) {
	// Given: a bot that may only reload its configured source
	path := writeCorpus(t)
	cfg := configWithoutSource()
	cfg.Corpus.Source = path
	cfg.Chat.AllowAnySource = false
	b, err := New(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init(context.Background()))
	before := b.Status()

	other := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(other, []byte("top secret words here."), 0o644))

	// When: asking for another file through reinit and order
	_, reinitErr := b.Execute(context.Background(), "~reinit "+other)
	_, orderErr := b.Execute(context.Background(), "~order 3 "+other)

	// Then: both are rejected and nothing changed
	assert.Equal(t, shaperrors.ErrCodeInvalidInput, shaperrors.GetCode(reinitErr))
	assert.Equal(t, shaperrors.ErrCodeInvalidInput, shaperrors.GetCode(orderErr))
	assert.Equal(t, before, b.Status())

	// And the configured source can still be reloaded explicitly
	reply, err := b.Execute(context.Background(), "~reinit "+path)
	require.NoError(t, err)
	assert.Contains(t, reply, "performed [TXT]")
}
