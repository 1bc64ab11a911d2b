package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	shaperrors "github.com/Aman-CERP/shapeshifter/internal/errors"
)

func newGenerateCmd() *cobra.Command {
	var (
		sources sourceFlags
		samples int
		seed    int64
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "generate [word]",
		Short: "Generate one sentence",
		Long: `Learn the corpus, generate a sentence and exit.

With a word the sentence is grown around it; unknown words are echoed
back as a question when the cautious policy is on. Several candidates
are generated and the one with the highest entropy is printed.`,
		Example: `  # Random sentence
  shapeshifter generate -s corpus.txt

  # Around a word, showing every candidate
  shapeshifter generate cat -s corpus.txt -n 10 -v

  # Repeatable output
  shapeshifter generate cat -s corpus.txt --seed-rng 42`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var word *string
			if len(args) == 1 {
				w := strings.TrimSpace(args[0])
				if w == "" || strings.ContainsAny(w, " \t\n") {
					return shaperrors.ValidationError("seed must be a single word", nil)
				}
				word = &w
			}

			cfg, err := loadConfig(sources)
			if err != nil {
				return err
			}
			b, err := newBot(cfg, discard, seed)
			if err != nil {
				return err
			}
			if err := b.Init(cmd.Context()); err != nil {
				return err
			}

			sampling, err := b.Reply(word, samples)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if verbose {
				for i, c := range sampling.Candidates {
					_, _ = fmt.Fprintf(out, "%2d. [%d] %s\n", i+1, c.Entropy, c.Sentence)
				}
				_, _ = fmt.Fprintln(out)
			}
			_, err = fmt.Fprintln(out, sampling.Best.Sentence)
			return err
		},
	}

	sources.register(cmd)
	cmd.Flags().IntVarP(&samples, "samples", "n", 0, "Number of candidates to pick from (0 = engine.sample_size)")
	cmd.Flags().Int64Var(&seed, "seed-rng", 0, "Seed the random source for repeatable output (0 = random)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every candidate with its entropy")

	return cmd
}
