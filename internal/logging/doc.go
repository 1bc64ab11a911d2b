// Package logging provides opt-in file-based logging with rotation for
// Shapeshifter. When the --debug flag is set, structured JSON logs are
// written to ~/.shapeshifter/logs/ so that walks, loads and command traffic
// can be inspected after the fact.
//
// Without --debug the process logs warnings and errors to stderr only.
// The serve command never writes logs to stdout or stderr because stdout
// carries the MCP protocol stream.
package logging
