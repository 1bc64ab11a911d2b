// Package ui provides terminal styling for the chat console and the
// status display of the command line tools.
package ui

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Mode selects how console output is decorated.
type Mode int

const (
	// ModePlain writes bare lines, suitable for pipes and logs.
	ModePlain Mode = iota
	// ModeStyled adds a prompt and colours.
	ModeStyled
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModePlain:
		return "plain"
	case ModeStyled:
		return "styled"
	default:
		return "unknown"
	}
}

// Config configures console output.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
}

// ConfigOption is a function that modifies Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) {
		c.ForcePlain = force
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) {
		c.NoColor = noColor
	}
}

// NewConfig creates a new Config with the given output and options.
// NO_COLOR in the environment disables colour.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{
		Output:  output,
		NoColor: DetectNoColor(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// Mode picks the output mode for the config.
// Styled output needs a terminal and is never used in CI.
func (c Config) Mode() Mode {
	if c.ForcePlain || !IsTTY(c.Output) || DetectCI() {
		return ModePlain
	}
	return ModeStyled
}

// Styles returns the styles matching the config's mode and colour setting.
func (c Config) Styles() Styles {
	return GetStyles(c.NoColor || c.Mode() == ModePlain)
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}

	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}
	for _, v := range ciVars {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
