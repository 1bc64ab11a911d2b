package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/shapeshifter/internal/config"
	"github.com/Aman-CERP/shapeshifter/internal/logging"
	"github.com/Aman-CERP/shapeshifter/internal/mcp"
)

func newServeCmd() *cobra.Command {
	var (
		sources sourceFlags
		seed    int64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start MCP server",
		Long: `Start the MCP server over stdio so AI clients can talk to the bot.

Tools: reply, learn, command, status.
Resources: shapeshifter://status, shapeshifter://commands.

stdout carries the protocol, so logs go to ~/.shapeshifter/logs/.

The command tool runs chat commands, so by default a client can make the bot
read any local file or URL with ~reinit. Set chat.allow_any_source: false
(or SHAPESHIFTER_ALLOW_ANY_SOURCE=false) to restrict it to corpus.source.`,
		Example: `  # Serve a corpus to an MCP client
  shapeshifter serve --source corpus.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), sources, seed)
		},
	}

	sources.register(cmd)
	cmd.Flags().Int64Var(&seed, "seed-rng", 0, "Seed the random source for repeatable replies (0 = random)")

	return cmd
}

// serveLogConfig is the file-only log setup for serve.
func serveLogConfig(cfg *config.Config) logging.Config {
	lc := logging.ServeConfig(cfg.Server.LogLevel)
	if cfg.Logging.File != "" {
		lc.FilePath = cfg.Logging.File
	}
	if cfg.Logging.MaxSizeMB > 0 {
		lc.MaxSizeMB = cfg.Logging.MaxSizeMB
	}
	if cfg.Logging.MaxFiles > 0 {
		lc.MaxFiles = cfg.Logging.MaxFiles
	}
	return lc
}

func runServe(ctx context.Context, sources sourceFlags, seed int64) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(sources)
	if err != nil {
		return err
	}

	// Nothing but JSON-RPC may reach stdout.
	if !debugMode {
		cleanup, err := logging.SetupDefault(serveLogConfig(cfg))
		if err != nil {
			return fmt.Errorf("failed to setup logging: %w", err)
		}
		defer cleanup()
	}

	b, err := newBot(cfg, discard, seed)
	if err != nil {
		return err
	}
	if err := b.Init(ctx); err != nil {
		// Serve with an empty knowledge base; clients can still learn.
		slog.Error("corpus_load_failed", slog.String("source", cfg.Corpus.Source), slog.String("error", err.Error()))
	}

	srv, err := mcp.NewServer(b)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	g.Go(func() error {
		defer cancel()
		return srv.Serve(runCtx, cfg.Server.Transport)
	})
	g.Go(func() error {
		select {
		case <-b.Done():
			slog.Info("bot_died")
			cancel()
		case <-runCtx.Done():
		}
		return nil
	})
	watchCorpus(runCtx, g, cfg, b)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
