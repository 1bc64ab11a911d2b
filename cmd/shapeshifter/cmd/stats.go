package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/shapeshifter/internal/ui"
)

func newStatsCmd() *cobra.Command {
	var (
		sources    sourceFlags
		jsonOutput bool
		noColor    bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show knowledge base statistics",
		Long: `Learn the configured corpus and display the size of the knowledge base:
order, tuples, distinct tokens, sentence starters and finishers, plus the
current generation settings.`,
		Example: `  # Human readable
  shapeshifter stats -s corpus.txt

  # JSON for scripts
  shapeshifter stats -s corpus.txt --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(sources)
			if err != nil {
				return err
			}
			b, err := newBot(cfg, discard, 0)
			if err != nil {
				return err
			}

			start := time.Now()
			if err := b.Init(cmd.Context()); err != nil {
				return err
			}
			var loadTime time.Duration
			if cfg.Corpus.Source != "" {
				loadTime = time.Since(start)
			}

			watch := "n/a"
			if _, ok := localCorpus(cfg.Corpus.Source); ok {
				watch = "off"
				if cfg.Watch.Enabled {
					watch = "enabled"
				}
			}

			out := cmd.OutOrStdout()
			renderer := ui.NewStatusRenderer(out, noColor || !ui.IsTTY(out))
			info := statusInfo(b.Status(), loadTime, watch)
			if jsonOutput {
				return renderer.RenderJSON(info)
			}
			return renderer.Render(info)
		},
	}

	sources.register(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}
