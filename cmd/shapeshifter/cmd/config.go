package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/shapeshifter/configs"
	"github.com/Aman-CERP/shapeshifter/internal/config"
	"github.com/Aman-CERP/shapeshifter/internal/ui"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage the Shapeshifter configuration files.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/shapeshifter/config.yaml)
  3. Project config (.shapeshifter.yaml)
  4. Environment variables (SHAPESHIFTER_*)`,
		Example: `  # Create user config from template
  shapeshifter config init

  # Create a project config in the current directory
  shapeshifter config init --project

  # Show effective configuration
  shapeshifter config show`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force, project bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file from the template",
		Long: `Write the commented configuration template.

Without --project the file goes to ~/.config/shapeshifter/config.yaml
(or $XDG_CONFIG_HOME/shapeshifter/config.yaml). With --project it goes to
.shapeshifter.yaml in --config-dir. An existing file is only replaced
with --force, after a timestamped backup is taken.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := config.GetUserConfigPath()
			if project {
				path = filepath.Join(configDir, config.ProjectConfigFile)
			}
			return runConfigInit(cmd.OutOrStdout(), path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration")
	cmd.Flags().BoolVar(&project, "project", false, "Write .shapeshifter.yaml instead of the user config")

	return cmd
}

func runConfigInit(w io.Writer, path string, force bool) error {
	styles := ui.GetStyles(!ui.IsTTY(w))

	if _, err := os.Stat(path); err == nil {
		if !force {
			_, _ = fmt.Fprintln(w, styles.Warning.Render("Configuration already exists: "+path))
			_, _ = fmt.Fprintln(w, "Use --force to replace it (a backup is kept).")
			return nil
		}
		backup, err := config.BackupFile(path)
		if err != nil {
			return err
		}
		if backup != "" {
			_, _ = fmt.Fprintf(w, "Backup: %s\n", backup)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configs.ConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	_, _ = fmt.Fprintln(w, styles.Success.Render("Created configuration: "+path))
	_, _ = fmt.Fprintln(w, "Run 'shapeshifter config show' to verify.")
	return nil
}

func newConfigShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long: `Show the configuration after merging all sources, or a single
source with --source.`,
		Example: `  # Show merged configuration
  shapeshifter config show

  # Show as JSON
  shapeshifter config show --json

  # Show only the built-in defaults
  shapeshifter config show --source defaults`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd.OutOrStdout(), jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, user, project, defaults")

	return cmd
}

func runConfigShow(w io.Writer, jsonOutput bool, source string) error {
	var (
		cfg  *config.Config
		desc string
		err  error
	)

	switch source {
	case "merged":
		cfg, err = config.Load(configDir)
		if err != nil {
			return err
		}
		desc = "merged (defaults + user + project + env)"
	case "defaults":
		cfg = config.NewConfig()
		desc = "defaults"
	case "user":
		cfg, desc, err = loadSingle(config.GetUserConfigPath())
		if err != nil || cfg == nil {
			return noConfig(w, err, config.GetUserConfigPath())
		}
	case "project":
		path := config.ProjectConfigPath(configDir)
		if path == "" {
			return noConfig(w, nil, filepath.Join(configDir, config.ProjectConfigFile))
		}
		cfg, desc, err = loadSingle(path)
		if err != nil || cfg == nil {
			return noConfig(w, err, path)
		}
	default:
		return fmt.Errorf("unknown config source %q (use merged, user, project or defaults)", source)
	}

	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, _ = fmt.Fprintf(w, "# Source: %s\n", desc)
	_, err = w.Write(data)
	return err
}

// loadSingle reads one config file over the defaults. Returns nil when the
// file does not exist.
func loadSingle(path string) (*config.Config, string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	cfg := config.NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, path, nil
}

func noConfig(w io.Writer, err error, path string) error {
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "No configuration file at %s\n", path)
	_, _ = fmt.Fprintln(w, "Run 'shapeshifter config init' to create one.")
	return nil
}

func newConfigPathCmd() *cobra.Command {
	var project bool

	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := config.GetUserConfigPath()
			if project {
				path = filepath.Join(configDir, config.ProjectConfigFile)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}

	cmd.Flags().BoolVar(&project, "project", false, "Print the project config path")

	return cmd
}
