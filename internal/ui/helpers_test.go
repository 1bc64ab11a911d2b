package ui

import (
	"os"
	"testing"
)

// clearEnv unsets the variables for the duration of the test.
func clearEnv(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		t.Setenv(name, "")
		_ = os.Unsetenv(name)
	}
}
