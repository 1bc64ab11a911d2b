// Package main provides the entry point for the shapeshifter CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/shapeshifter/cmd/shapeshifter/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
