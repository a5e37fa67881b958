// =============================================================================
// SEPA Direct Debit Converter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the sepadd CLI application. It delegates
// command execution to the cmd package.
//
// USAGE:
//   sepadd process       - Convert all debtor lists in the input directory
//   sepadd validate      - Check configuration, profiles and input files
//   sepadd version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core business logic (not for external import)
//   - pkg/           : Shared file utilities
//   - profiles/      : One YAML profile per creditor
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/sepa-direct-debit/cmd"
)

func main() {
	cmd.Execute()
}
