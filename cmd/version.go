// =============================================================================
// SEPA Direct Debit Converter - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   sepadd version [--short]
//
// Version and BuildDate are injected at build time:
//   go build -ldflags "-X 'github.com/ginjaninja78/sepa-direct-debit/cmd.Version=1.2.0'"
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sepa-direct-debit/internal/pain008"
)

// Version is the application version.
var Version = "dev"

// BuildDate is the date the binary was built.
var BuildDate = "unknown"

var shortVersion bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version, build and schema information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if shortVersion {
			fmt.Fprintln(out, Version)
			return nil
		}

		fmt.Fprintln(out, "SEPA Direct Debit Converter")
		for _, line := range versionInfo() {
			fmt.Fprintf(out, "%-12s%s\n", line[0]+":", line[1])
		}
		return nil
	},
}

// versionInfo lists label/value pairs in display order.
func versionInfo() [][2]string {
	return [][2]string{
		{"Version", Version},
		{"Build Date", BuildDate},
		{"Go Version", runtime.Version()},
		{"Platform", runtime.GOOS + "/" + runtime.GOARCH},
		{"Schema", pain008.Namespace},
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().BoolVar(&shortVersion, "short", false, "Print only the version number")
}
