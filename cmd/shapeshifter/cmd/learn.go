package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/shapeshifter/internal/bot"
	"github.com/Aman-CERP/shapeshifter/internal/ui"
)

func newLearnCmd() *cobra.Command {
	var (
		format     string
		jsonOutput bool
		noColor    bool
	)

	cmd := &cobra.Command{
		Use:   "learn <source>",
		Short: "Learn a corpus and report what was built",
		Long: `Learn a file or URL from scratch and print the load report
followed by the size of the resulting knowledge base.`,
		Example: `  # Plain text, split into sentences
  shapeshifter learn corpus.txt

  # IRC log, one message per line
  shapeshifter learn https://example.org/channel.log --format irc_log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(sourceFlags{source: args[0], format: format})
			if err != nil {
				return err
			}
			b, err := newBot(cfg, discard, 0)
			if err != nil {
				return err
			}

			res, err := b.Reload(cmd.Context())
			if err != nil {
				return err
			}

			renderer := ui.NewStatusRenderer(cmd.OutOrStdout(), noColor || !ui.IsTTY(cmd.OutOrStdout()))
			info := statusInfo(b.Status(), res.Duration, "")
			if jsonOutput {
				return renderer.RenderJSON(info)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), res.Summary())
			_, _ = fmt.Fprintln(cmd.OutOrStdout())
			return renderer.Render(info)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Corpus format: txt or irc_log (overrides corpus.format)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}

// statusInfo converts a bot status for display.
func statusInfo(st bot.Status, loadTime time.Duration, watcher string) ui.StatusInfo {
	return ui.StatusInfo{
		Source:        st.Source,
		Format:        st.Format,
		Order:         st.Order,
		Tuples:        st.Tuples,
		Tokens:        st.Tokens,
		Starters:      st.Starters,
		Finishers:     st.Finishers,
		Cautious:      st.Cautious,
		Compensation:  st.Compensation,
		SampleSize:    st.SampleSize,
		LoadTime:      loadTime,
		WatcherStatus: watcher,
	}
}
