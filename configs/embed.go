// Package configs provides the embedded configuration template for
// shapeshifter.
//
// The template is written by `shapeshifter config init`, either to the
// user config (~/.config/shapeshifter/config.yaml) or, with --project, to
// .shapeshifter.yaml in the current directory.
//
// Configuration hierarchy (see internal/config Load()):
//  1. Hardcoded defaults (internal/config NewConfig())
//  2. User config (~/.config/shapeshifter/config.yaml)
//  3. Project config (.shapeshifter.yaml)
//  4. Environment variables (SHAPESHIFTER_*)
package configs

import _ "embed"

// ConfigTemplate is the commented example configuration.
//
//go:embed config.example.yaml
var ConfigTemplate string
