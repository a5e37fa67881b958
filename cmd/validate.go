// =============================================================================
// SEPA Direct Debit Converter - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. Without arguments it checks the
// main configuration and every creditor profile. With --file it also runs
// the full conversion of that file without writing anything and lists every
// rejected row.
//
// COMMAND USAGE:
//   sepadd validate
//   sepadd validate --file input/beitraege.csv [--profile club]
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sepa-direct-debit/internal/converter"
	"github.com/ginjaninja78/sepa-direct-debit/internal/logger"
	"github.com/ginjaninja78/sepa-direct-debit/internal/xlsxparser"
)

var validateFile string

var validateProfile string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check configuration, profiles and optionally one input file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFile, "file", "", "Input file to check without writing output")
	validateCmd.Flags().StringVar(&validateProfile, "profile", "", "Creditor profile code to apply to the file")
}

func runValidate(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	a, err := loadApp()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Configuration OK (%d creditor profile(s))\n", len(a.profiles))

	codes := make([]string, 0, len(a.profiles))
	for code := range a.profiles {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		p := a.profiles[code]
		fmt.Fprintf(out, "  %-12s %s (%s, %s)\n", code, p.Name, p.SequenceType, p.LocalInstrument)
	}

	if validateFile == "" {
		return nil
	}

	profile, err := a.resolveProfile(validateFile, validateProfile)
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(validateFile), err)
	}

	if strings.EqualFold(filepath.Ext(validateFile), ".xlsx") {
		sheets, err := xlsxparser.SheetNames(validateFile)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Worksheets: %s\n", strings.Join(sheets, ", "))
	}

	ctx := logger.WithContext(cmd.Context(), a.logger)
	result := converter.New(validateFile, profile, a.config, converter.WithDryRun(true)).Run(ctx)

	if result.Success {
		fmt.Fprintf(out, "%s OK: %d transaction(s), control sum %s\n",
			filepath.Base(validateFile), result.Stats.Transactions, result.Stats.ControlSum)
		return nil
	}

	entries := converter.ErrorEntries(filepath.Base(validateFile), "validation", result.Error, time.Now())
	fmt.Fprintf(out, "%s rejected with %d error(s):\n", filepath.Base(validateFile), len(entries))
	for _, entry := range entries {
		switch {
		case entry.RowNumber > 0:
			fmt.Fprintf(out, "  row %d: %s\n", entry.RowNumber, entry.ErrorMessage)
		default:
			fmt.Fprintf(out, "  %s\n", entry.ErrorMessage)
		}
	}

	return fmt.Errorf("%s is not valid", filepath.Base(validateFile))
}
