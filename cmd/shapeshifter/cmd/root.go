// Package cmd provides the CLI commands for Shapeshifter.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/shapeshifter/internal/bot"
	"github.com/Aman-CERP/shapeshifter/internal/config"
	"github.com/Aman-CERP/shapeshifter/internal/logging"
	"github.com/Aman-CERP/shapeshifter/internal/markov"
	"github.com/Aman-CERP/shapeshifter/internal/profiling"
	"github.com/Aman-CERP/shapeshifter/pkg/version"
)

// Persistent flags
var (
	debugMode      bool
	configDir      string
	loggingCleanup func()

	profileOpts profiling.Options
	profiler    *profiling.Session
)

// NewRootCmd creates the root command for the shapeshifter CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shapeshifter",
		Short: "Bidirectional Markov chain chat bot",
		Long: `Shapeshifter learns from plain text or IRC logs and talks back.

Sentences are grown in both directions from a seed word, several candidates
are generated and the most surprising one wins.

Run 'shapeshifter chat --source corpus.txt' to start talking.`,
		Version:      version.Version,
		SilenceUsage: true,
	}

	cmd.SetVersionTemplate("shapeshifter version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.shapeshifter/logs/")
	cmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory holding the project .shapeshifter.yaml")

	cmd.PersistentFlags().StringVar(&profileOpts.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Mem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newLearnCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfilingAndLogging installs the debug file logger when --debug is
// set, otherwise only warnings reach stderr, and starts any requested
// profiles.
func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	if profileOpts.Enabled() {
		s, err := profiling.Start(profileOpts)
		if err != nil {
			return err
		}
		profiler = s
	}

	if !debugMode {
		logging.SetupStderr("warn")
		return nil
	}

	cleanup, err := logging.SetupDefault(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.Info("debug_logging_enabled",
		slog.String("log_file", logging.DefaultLogPath()),
		slog.String("version", version.Version))
	return nil
}

func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	err := profiler.Stop()
	profiler = nil

	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// sourceFlags override the configured corpus.
type sourceFlags struct {
	source string
	format string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.source, "source", "s", "", "Corpus file path or URL (overrides corpus.source)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Corpus format: txt or irc_log (overrides corpus.format)")
}

// loadConfig loads the configuration for --config-dir and applies the
// source flags on top.
func loadConfig(flags sourceFlags) (*config.Config, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}
	if flags.source != "" {
		cfg.Corpus.Source = flags.source
	}
	if flags.format != "" {
		cfg.Corpus.Format = flags.format
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newBot creates a bot; a non-zero seed makes generation repeatable.
func newBot(cfg *config.Config, sender bot.Sender, seed int64) (*bot.Bot, error) {
	var opts []bot.Option
	if seed != 0 {
		opts = append(opts, bot.WithRand(markov.NewSeededSource(seed)))
	}
	return bot.New(cfg, sender, opts...)
}

// discard drops room output for commands that never read it.
var discard = bot.SenderFunc(func(context.Context, string) error { return nil })

// localCorpus returns the file behind source when it is local.
// Remote sources cannot be watched.
func localCorpus(source string) (string, bool) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "", false
	}
	u, err := url.Parse(source)
	if err != nil {
		return source, true
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return "", false
	case "file":
		if u.Path != "" {
			return u.Path, true
		}
		return u.Opaque, u.Opaque != ""
	}
	return source, true
}
