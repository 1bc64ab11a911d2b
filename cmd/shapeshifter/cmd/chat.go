package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/shapeshifter/internal/chat"
	shaperrors "github.com/Aman-CERP/shapeshifter/internal/errors"
	"github.com/Aman-CERP/shapeshifter/internal/ui"
)

func newChatCmd() *cobra.Command {
	var (
		sources sourceFlags
		noColor bool
		seed    int64
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the bot on the console",
		Long: `Start a console chat room with the bot.

Lines starting with the command prefix (~ by default) are commands.
With chat.implicit_reply on, any other line is answered as if it were
'~reply <line>'. Type ~list for the commands and ~die to leave.`,
		Example: `  # Chat using a local corpus
  shapeshifter chat --source corpus.txt

  # Learn an IRC log, one message per line
  shapeshifter chat --source irc.log --format irc_log

  # Scripted session
  printf '~order\n~reply cat\n' | shapeshifter chat -s corpus.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), cmd, sources, noColor, seed)
		},
	}

	sources.register(cmd)
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.Flags().Int64Var(&seed, "seed-rng", 0, "Seed the random source for repeatable replies (0 = random)")

	return cmd
}

func runChat(ctx context.Context, cmd *cobra.Command, sources sourceFlags, noColor bool, seed int64) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(sources)
	if err != nil {
		return err
	}

	var uiOpts []ui.ConfigOption
	if noColor {
		uiOpts = append(uiOpts, ui.WithNoColor(true))
	}
	uiCfg := ui.NewConfig(cmd.OutOrStdout(), uiOpts...)

	in := cmd.InOrStdin()
	console := chat.NewConsole(in, cmd.OutOrStdout(),
		chat.WithUI(uiCfg),
		chat.WithImplicitReply(cfg.Chat.ImplicitReply),
		chat.WithWait(!interactive(in)),
	)

	b, err := newBot(cfg, console, seed)
	if err != nil {
		return err
	}
	if err := b.Init(ctx); err != nil {
		console.Error(err)
		if shaperrors.IsFatal(err) {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	g.Go(func() error {
		defer cancel()
		return console.Run(runCtx, b)
	})
	if watchCorpus(runCtx, g, cfg, b) {
		console.Notice("Watching " + cfg.Corpus.Source + " for changes.")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// interactive reports whether in is a terminal a person types into.
func interactive(in any) bool {
	f, ok := in.(*os.File)
	return ok && ui.IsTTY(f)
}
