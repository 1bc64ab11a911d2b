package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// isolate points the user config and the project config dir at empty
// temp directories and returns the project dir.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, env := range []string{
		"SHAPESHIFTER_ORDER", "SHAPESHIFTER_CAUTIOUS", "SHAPESHIFTER_COMPENSATION",
		"SHAPESHIFTER_SOURCE", "SHAPESHIFTER_FORMAT", "SHAPESHIFTER_LOG_LEVEL",
		"SHAPESHIFTER_TRANSPORT", "SHAPESHIFTER_ALLOW_ANY_SOURCE",
	} {
		t.Setenv(env, "")
	}
	return t.TempDir()
}

func writeCorpus(t *testing.T, dir, text string) string {
	t.Helper()
	path := filepath.Join(dir, "corpus.txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

// execute runs the root command with args, feeding in on stdin.
func execute(t *testing.T, dir, in string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(in))
	cmd.SetArgs(append(args, "--config-dir", dir))
	err := cmd.Execute()
	return buf.String(), err
}
