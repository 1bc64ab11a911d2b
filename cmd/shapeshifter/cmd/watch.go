package cmd

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/shapeshifter/internal/bot"
	"github.com/Aman-CERP/shapeshifter/internal/config"
	"github.com/Aman-CERP/shapeshifter/internal/watcher"
)

// watchCorpus re-learns the corpus on g whenever its file changes, if
// watching is enabled and the corpus is a local file.
func watchCorpus(ctx context.Context, g *errgroup.Group, cfg *config.Config, b *bot.Bot) bool {
	if !cfg.Watch.Enabled {
		return false
	}
	path, ok := localCorpus(cfg.Corpus.Source)
	if !ok {
		slog.Info("watch_skipped", slog.String("source", cfg.Corpus.Source))
		return false
	}

	debounce, _ := cfg.DebounceDuration()
	opts := watcher.Options{DebounceWindow: debounce}

	g.Go(func() error {
		return watcher.Watch(ctx, path, opts, func(ctx context.Context) error {
			_, err := b.Reload(ctx)
			return err
		})
	})
	return true
}
