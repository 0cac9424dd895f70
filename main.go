// =============================================================================
// YPBank Converter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the YPBank Converter CLI application.
// It delegates command execution to the cmd package.
//
// USAGE:
//   ypbank convert   - Convert a transaction history (or a directory of them)
//   ypbank compare   - Find the first difference between two histories
//   ypbank validate  - Check data rules and summarize a history
//   ypbank formats   - List the supported formats
//   ypbank config    - Show or check the effective configuration
//   ypbank version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Transaction model, codecs, converter, comparator,
//                      validator, configuration and logging
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/ypbank-converter/cmd"
)

func main() {
	cmd.Execute()
}
