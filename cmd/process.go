// =============================================================================
// SEPA Direct Debit Converter - Process Command
// =============================================================================
//
// This file defines the 'process' command, which is the main command for
// converting debtor lists to pain.008 files.
//
// COMMAND USAGE:
//   sepadd process [flags]
//
// FLAGS:
//   --dry-run        Validate and render without writing or archiving
//   --single         Process only the file given with --file
//   --file string    Path to a specific input file
//   --profile string Apply this creditor profile instead of matching by name
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sepa-direct-debit/internal/converter"
	"github.com/ginjaninja78/sepa-direct-debit/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var dryRun bool

var singleFile bool

var filePath string

var profileCode string

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Convert debtor lists into pain.008 files",
	Long: `The process command scans the input directory for CSV and XLSX files, matches
each one to a creditor profile, and converts it into a pain.008.003.02 file.

Files are processed concurrently. A file is converted only when every row
passes validation.

On successful processing:
  - The generated XML is placed in the output directory
  - The input file is moved to the input archive
  - A copy of the XML is placed in the output archive

On error:
  - An error log listing every rejected row is created in the output directory
  - The input file remains in the input directory
  - Processing continues for other files unless continue_on_error is false`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and render without writing output files")
	processCmd.Flags().BoolVar(&singleFile, "single", false, "Process only a single file (use with --file)")
	processCmd.Flags().StringVar(&filePath, "file", "", "Path to a specific file to process (used with --single)")
	processCmd.Flags().StringVar(&profileCode, "profile", "", "Creditor profile code to apply to every file")
}

// =============================================================================
// PROCESS IMPLEMENTATION
// =============================================================================

func runProcess(cmd *cobra.Command) error {
	startTime := time.Now()
	out := cmd.OutOrStdout()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	a, err := loadApp()
	if err != nil {
		return err
	}
	log := a.logger

	log.Info().Int("profiles", len(a.profiles)).Bool("dry_run", dryRun).Msg("Starting SEPA direct debit conversion")

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	inputFiles, err := collectInputFiles(a)
	if err != nil {
		return err
	}

	if len(inputFiles) == 0 {
		fmt.Fprintln(out, "No input files found in the input directory.")
		return nil
	}

	log.Info().Int("files", len(inputFiles)).Msg("Discovered input files")

	// =========================================================================
	// STEP 3: MATCH PROFILES
	// =========================================================================

	var jobs []converter.Job
	var results []converter.Result

	for _, file := range inputFiles {
		profile, err := a.resolveProfile(file, profileCode)
		if err != nil {
			log.Warn().Str("file", filepath.Base(file)).Err(err).Msg("Skipping file")
			results = append(results, converter.Result{FilePath: file, Error: err})
			continue
		}
		jobs = append(jobs, converter.Job{FilePath: file, Profile: profile})
	}

	// =========================================================================
	// STEP 4: PROCESS FILES
	// =========================================================================

	pool, err := converter.NewPool(a.config, log, converter.WithDryRun(dryRun))
	if err != nil {
		return err
	}
	defer pool.Release()

	results = append(results, pool.Process(ctx, jobs)...)

	// =========================================================================
	// STEP 5: REPORT
	// =========================================================================

	summary := summarize(results, startTime, time.Now())
	printSummary(cmd, results, summary)

	if !dryRun {
		summaryPath, err := utils.WriteSummaryLog(summary, a.config.OutputDir)
		if err != nil {
			log.Error().Err(err).Msg("Failed to write processing summary")
		} else {
			log.Debug().Str("summary", summaryPath).Msg("Wrote processing summary")
		}
	}

	if summary.FailedFiles > 0 {
		return fmt.Errorf("%d of %d file(s) failed", summary.FailedFiles, summary.TotalFiles)
	}

	return nil
}

// collectInputFiles honours --single/--file or scans the input directory.
func collectInputFiles(a *app) ([]string, error) {
	if singleFile || filePath != "" {
		if filePath == "" {
			return nil, fmt.Errorf("--single requires --file")
		}
		if !utils.FileExists(filePath) {
			return nil, fmt.Errorf("input file not found: %s", filePath)
		}
		return []string{filePath}, nil
	}

	files := utils.NewFileManager(a.config.InputDir, a.config.OutputDir, a.config.InputArchiveDir, a.config.OutputArchiveDir)
	inputFiles, err := files.DiscoverInputFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to discover input files: %w", err)
	}
	return inputFiles, nil
}

// summarize folds the per-file results into a processing summary.
func summarize(results []converter.Result, start, end time.Time) utils.ProcessingSummary {
	summary := utils.ProcessingSummary{
		StartTime:  start,
		EndTime:    end,
		TotalFiles: len(results),
	}

	for _, r := range results {
		summary.TotalRows += r.Stats.RowsRead
		summary.ValidationErrors += r.Stats.ValidationErrors

		if r.Success {
			summary.SuccessfulFiles++
			summary.TotalTransactions += r.Stats.Transactions
			summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
				InputFile:    r.FilePath,
				OutputFile:   r.OutputFile,
				Profile:      r.Profile,
				Transactions: r.Stats.Transactions,
				ControlSum:   r.Stats.ControlSum,
				ProcessTime:  r.Stats.ProcessingTime,
			})
			continue
		}

		summary.FailedFiles++
		summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
			InputFile:    r.FilePath,
			ErrorMessage: fmt.Sprint(r.Error),
			ErrorLog:     r.ErrorLog,
		})
	}

	return summary
}

func printSummary(cmd *cobra.Command, results []converter.Result, summary utils.ProcessingSummary) {
	out := cmd.OutOrStdout()

	for _, r := range results {
		name := filepath.Base(r.FilePath)
		switch {
		case r.Success && r.OutputFile == "":
			fmt.Fprintf(out, "  ✓ %s: %d transaction(s), %s (dry run)\n", name, r.Stats.Transactions, r.Stats.ControlSum)
		case r.Success:
			fmt.Fprintf(out, "  ✓ %s -> %s\n", name, r.OutputFile)
		default:
			fmt.Fprintf(out, "  ✗ %s: %v\n", name, r.Error)
		}
	}

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Errors:          %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Transactions:    %d\n", summary.TotalTransactions)
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(summary.StartTime))

	if summary.FailedFiles > 0 && !dryRun {
		fmt.Fprintln(out, "\nErrors have been logged to the output directory.")
	}
}
