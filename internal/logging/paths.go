package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.shapeshifter/logs/).
// Falls back to the temp directory if the home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".shapeshifter", "logs")
	}
	return filepath.Join(home, ".shapeshifter", "logs")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "shapeshifter.log")
}

// lockPath returns the cross-process rotation lock for a log file.
func lockPath(logPath string) string {
	return logPath + ".lock"
}
