// Package bot implements the chat command layer on top of the Markov engine.
//
// A Bot owns one index and one generator. Messages starting with the command
// prefix are parsed into a head and arguments and dispatched to a Command.
// Only one command runs at a time: HandleMessage answers a busy notice when
// a command is still in flight, Execute and Reload wait for their turn.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/Aman-CERP/shapeshifter/internal/config"
	shaperrors "github.com/Aman-CERP/shapeshifter/internal/errors"
	"github.com/Aman-CERP/shapeshifter/internal/loader"
	"github.com/Aman-CERP/shapeshifter/internal/markov"
)

// Canned replies.
const (
	BusyReply    = "Whooa easy maaaaan I'm still working on the previous requests!!"
	GoodbyeReply = "Buh-bye! I'm gonna die soon..."
)

// Sender delivers bot output to the room.
type Sender interface {
	Send(ctx context.Context, msg string) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg string) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, msg string) error {
	return f(ctx, msg)
}

// Option configures a Bot.
type Option func(*Bot)

// WithRand drives both the generator and argument picking from src.
func WithRand(src markov.Source) Option {
	return func(b *Bot) { b.rnd = src }
}

// WithSourceCache shares a source cache between bots.
func WithSourceCache(c *loader.SourceCache) Option {
	return func(b *Bot) { b.sources = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bot) { b.logger = l }
}

// Bot is a chat bot backed by a bidirectional Markov index.
type Bot struct {
	prefix       string
	about        string
	learnReplies bool
	anySource    bool
	sampleSize   int
	source       string
	format       loader.Format

	// mu guards index. Generation and stats read, learning writes.
	mu    sync.RWMutex
	index *markov.Index
	gen   *markov.Generator

	rnd markov.Source

	sources  *loader.SourceCache
	sender   Sender
	worker   *semaphore.Weighted
	wg       sync.WaitGroup
	commands map[string]*Command

	done     chan struct{}
	stopOnce sync.Once

	logger *slog.Logger
}

// New creates a bot from cfg. Nothing is learned until Init or a command
// loads a source.
func New(cfg *config.Config, sender Sender, opts ...Option) (*Bot, error) {
	idx, err := markov.NewIndex(cfg.Engine.Order)
	if err != nil {
		return nil, err
	}
	format, err := loader.ParseFormat(cfg.Corpus.Format)
	if err != nil {
		return nil, err
	}

	b := &Bot{
		prefix:       cfg.Chat.Prefix,
		about:        cfg.Chat.About,
		learnReplies: cfg.Chat.LearnReplies,
		anySource:    cfg.Chat.AllowAnySource,
		sampleSize:   cfg.Engine.SampleSize,
		source:       cfg.Corpus.Source,
		format:       format,
		index:        idx,
		sender:       sender,
		worker:       semaphore.NewWeighted(1),
		done:         make(chan struct{}),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.rnd == nil {
		b.rnd = markov.NewRandomSource()
	}
	if b.sources == nil {
		b.sources = loader.NewSourceCache(cfg.Cache.Sources)
	}

	b.gen = markov.NewGenerator(idx, markov.Options{
		Cautious:     cfg.Engine.Cautious,
		Compensation: cfg.Engine.Compensation,
		Rand:         b.rnd,
	})
	b.commands = builtinCommands()
	return b, nil
}

// Prefix returns the command prefix.
func (b *Bot) Prefix() string {
	return b.prefix
}

// Done is closed once the bot has been told to die.
func (b *Bot) Done() <-chan struct{} {
	return b.done
}

func (b *Bot) stop() {
	b.stopOnce.Do(func() { close(b.done) })
}

// Init learns the configured source, if any.
func (b *Bot) Init(ctx context.Context) error {
	if b.source == "" {
		b.logger.Info("no corpus configured, starting empty")
		return nil
	}
	_, err := b.Reload(ctx)
	return err
}

// HandleMessage processes one room message. Messages without the prefix
// are ignored. If a command is already running the sender gets BusyReply;
// otherwise the command runs in the background and its reply is sent when
// it finishes.
func (b *Bot) HandleMessage(ctx context.Context, msg string) {
	if !strings.HasPrefix(msg, b.prefix) {
		return
	}

	if !b.worker.TryAcquire(1) {
		b.send(ctx, BusyReply)
		return
	}

	logger := b.logger.With(slog.String("request_id", uuid.NewString()))
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer b.worker.Release(1)

		reply, err := b.run(ctx, logger, msg)
		if err != nil {
			reply = shaperrors.FormatForUser(err)
		}
		if reply != "" {
			b.send(ctx, reply)
		}
	}()
}

// Wait blocks until every command started by HandleMessage has finished.
func (b *Bot) Wait() {
	b.wg.Wait()
}

// Execute runs one command line synchronously, waiting for any in-flight
// command first. The returned error carries the user-facing message.
func (b *Bot) Execute(ctx context.Context, line string) (string, error) {
	if err := b.worker.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer b.worker.Release(1)

	return b.run(ctx, b.logger.With(slog.String("request_id", uuid.NewString())), line)
}

func (b *Bot) run(ctx context.Context, logger *slog.Logger, line string) (string, error) {
	head, args := parseCommand(strings.TrimPrefix(line, b.prefix))

	cmd, ok := b.commands[head]
	if !ok {
		err := shaperrors.New(shaperrors.ErrCodeUnknownCommand, "Unresolved command: "+head, nil)
		logger.Info("command_unresolved", slog.String("head", head))
		return "", err
	}

	logger.Debug("command_started",
		slog.String("command", head),
		slog.Int("args", len(args)))

	reply, err := cmd.Run(ctx, &Request{bot: b, logger: logger, Args: args})
	if err != nil {
		level := slog.LevelWarn
		if shaperrors.IsFatal(err) {
			level = slog.LevelError
		}
		logger.Log(ctx, level, "command_failed",
			append([]any{slog.String("command", head)}, shaperrors.LogAttrs(err)...)...)
		return "", err
	}

	logger.Debug("command_finished", slog.String("command", head))
	return reply, nil
}

// parseCommand splits "head arg1 arg2" on any whitespace.
func parseCommand(line string) (string, []string) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return "", nil
	}
	return parts[0], parts[1:]
}

func (b *Bot) send(ctx context.Context, msg string) {
	if b.sender == nil {
		return
	}
	if err := b.sender.Send(ctx, msg); err != nil {
		b.logger.Warn("send_failed", slog.String("error", err.Error()))
	}
}

func (b *Bot) pick(n int) int {
	return b.gen.Intn(n)
}
