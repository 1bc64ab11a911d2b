package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	shaperrors "github.com/Aman-CERP/shapeshifter/internal/errors"
	"github.com/Aman-CERP/shapeshifter/internal/loader"
	"github.com/Aman-CERP/shapeshifter/internal/markov"
)

const descSeparator = " --> "

// Request is what a command sees of one invocation.
type Request struct {
	Args []string

	bot    *Bot
	logger *slog.Logger
}

// Command is one ~head handler.
type Command struct {
	Name  string
	Usage string
	Help  string
	Run   func(ctx context.Context, req *Request) (string, error)
}

// HelpText renders "Usage: ~name [args] --> help".
func (c *Command) HelpText(prefix string) string {
	return "Usage: " + prefix + c.Name + c.Usage + descSeparator + c.Help
}

// Commands returns the command names, sorted.
func (b *Bot) Commands() []string {
	names := make([]string, 0, len(b.commands))
	for name := range b.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func syntaxError(msg string) error {
	return shaperrors.New(shaperrors.ErrCodeCommandSyntax, msg, nil)
}

// checkSource rejects a location other than the configured source unless
// chat.allow_any_source is on.
func (b *Bot) checkSource(location string) error {
	if b.anySource || location == b.source {
		return nil
	}
	return shaperrors.New(shaperrors.ErrCodeInvalidInput,
		"Loading other sources is disabled. Use "+b.prefix+"reinit without arguments.", nil).
		WithDetail("source", location).
		WithSuggestion("Set chat.allow_any_source to true to load any path or URL.")
}

func builtinCommands() map[string]*Command {
	cmds := []*Command{
		{
			Name: "re",
			Help: "About info.",
			Run: func(_ context.Context, req *Request) (string, error) {
				return req.bot.about, nil
			},
		},
		{
			Name:  "reply",
			Usage: " [question]",
			Help:  "Used to generate a new sentence. If a parameter is specified, the bot tries to respond for it.",
			Run:   runReply,
		},
		{
			Name:  "reinit",
			Usage: " [source [format]]",
			Help: "Reinitializes the knowledge of the bot with the default knowledge base. " +
				"If a source is specified, it loads that file or URL and learns from its content (format txt or irc_log).",
			Run: func(ctx context.Context, req *Request) (string, error) {
				return runReinit(ctx, req, req.Args)
			},
		},
		{
			Name:  "help",
			Usage: " [command]",
			Help:  "Shows usage info for the given command (type ~list for the list of commands).",
			Run:   runHelp,
		},
		{
			Name:  "order",
			Usage: " [order [source [format]]]",
			Help: "Sets the order of the used Markov-chains. Order must be an integer value between [1,5]. " +
				"Automatically reinits the knowledge base. If no order was specified, prints the current order setting.",
			Run: runOrder,
		},
		{
			Name: "die",
			Help: "Stops the bot.",
			Run: func(ctx context.Context, req *Request) (string, error) {
				req.bot.send(ctx, GoodbyeReply)
				req.bot.stop()
				return "", nil
			},
		},
		{
			Name: "list",
			Help: "Lists the available commands.",
			Run: func(_ context.Context, req *Request) (string, error) {
				return "Available commands: " + strings.Join(req.bot.Commands(), ", ") + ".", nil
			},
		},
		{
			Name: "hh",
			Help: "Turns using Hegedus-heuristics on/off.",
			Run: func(_ context.Context, req *Request) (string, error) {
				g := req.bot.gen
				g.SetCautious(!g.Cautious())
				state := "off"
				if g.Cautious() {
					state = "on"
				}
				return "Hegedus heuristic is now turned " + state + ".", nil
			},
		},
		{
			Name:  "se",
			Usage: " [value]",
			Help:  "Sets the Strack-entropy compensation value (by default it's 7).",
			Run:   runCompensation,
		},
		{
			Name: "stats",
			Help: "Shows the size of the knowledge base and the generation settings.",
			Run: func(_ context.Context, req *Request) (string, error) {
				return formatStatus(req.bot.Status()), nil
			},
		},
	}

	m := make(map[string]*Command, len(cmds))
	for _, c := range cmds {
		m[c.Name] = c
	}
	return m
}

func runReply(ctx context.Context, req *Request) (string, error) {
	b := req.bot

	var seed *string
	if len(req.Args) > 0 {
		s := req.Args[b.pick(len(req.Args))]
		seed = &s
	}

	sampling, err := b.Reply(seed, b.sampleSize)
	if err != nil {
		return "", err
	}

	if req.logger.Enabled(ctx, slog.LevelDebug) {
		candidates := make([]string, len(sampling.Candidates))
		for i, c := range sampling.Candidates {
			candidates[i] = c.String()
		}
		seedAttr := "<none>"
		if seed != nil {
			seedAttr = *seed
		}
		req.logger.Debug("reply_candidates",
			slog.String("seed", seedAttr),
			slog.Any("candidates", candidates),
			slog.Int("best_entropy", sampling.Best.Entropy))
	}

	if b.learnReplies {
		b.learnSegment(strings.Join(req.Args, " "))
	}
	return sampling.Best.Sentence, nil
}

// runReinit learns args[0] (or the configured source) as args[1] (or the
// configured format). An unknown format falls back to TXT.
func runReinit(ctx context.Context, req *Request, args []string) (string, error) {
	b := req.bot

	location, format := b.source, b.format
	if len(args) > 0 {
		location = args[0]
		format = loader.FormatText
	}
	if len(args) > 1 {
		f, err := loader.ParseFormat(args[1])
		if err != nil {
			req.logger.Warn("unknown_format_fallback",
				slog.String("format", args[1]),
				slog.String("using", f.String()))
		}
		format = f
	}
	if location == "" {
		return "", syntaxError("No source configured. Usage: " + b.prefix + "reinit <source> [format]")
	}
	if err := b.checkSource(location); err != nil {
		return "", err
	}

	b.send(ctx, "Started parsing specified file as "+format.String()+"...")

	res, err := b.reinit(ctx, location, format)
	if err != nil {
		return "", err
	}
	return res.Summary(), nil
}

func runHelp(_ context.Context, req *Request) (string, error) {
	b := req.bot
	if len(req.Args) == 0 {
		return b.commands["help"].HelpText(b.prefix), nil
	}

	name := strings.TrimPrefix(req.Args[0], b.prefix)
	cmd, ok := b.commands[name]
	if !ok {
		return "No such command: " + req.Args[0], nil
	}
	return cmd.HelpText(b.prefix), nil
}

func runOrder(ctx context.Context, req *Request) (string, error) {
	b := req.bot
	if len(req.Args) == 0 {
		return fmt.Sprintf("Current Markov-order is %d.", b.order()), nil
	}

	order, err := strconv.Atoi(req.Args[0])
	if err != nil {
		return "", syntaxError("Argument must be an integer. " + err.Error())
	}
	if len(req.Args) > 1 {
		if err := b.checkSource(req.Args[1]); err != nil {
			return "", err
		}
	}
	if err := b.setOrder(order); err != nil {
		return "", syntaxError("Illegal argument. " + markov.ErrInvalidOrder.Message)
	}

	reply := fmt.Sprintf("Markov-order was set to %d.", order)
	rest := req.Args[1:]
	if len(rest) == 0 && b.source == "" {
		return reply + " The knowledge base is now empty.", nil
	}

	summary, err := runReinit(ctx, req, rest)
	if err != nil {
		return "", err
	}
	return reply + " " + summary, nil
}

func runCompensation(_ context.Context, req *Request) (string, error) {
	g := req.bot.gen
	if len(req.Args) == 0 {
		return fmt.Sprintf("Current Strack-entrophy compensation is %d.", g.Compensation()), nil
	}

	value, err := strconv.Atoi(req.Args[0])
	if err != nil {
		return "", syntaxError("Argument must be an integer. " + err.Error())
	}
	g.SetCompensation(value)
	return fmt.Sprintf("Strack-entrophy compensation was set to %d.", value), nil
}

func formatStatus(s Status) string {
	state := "off"
	if s.Cautious {
		state = "on"
	}
	return fmt.Sprintf("Markov-order %d, %d tuples over %d tokens (%d starters, %d finishers). "+
		"Hegedus heuristic is %s, compensation is %d.",
		s.Order, s.Tuples, s.Tokens, s.Starters, s.Finishers, state, s.Compensation)
}
