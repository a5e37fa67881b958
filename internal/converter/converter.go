// =============================================================================
// SEPA Direct Debit Converter - Converter Module
// =============================================================================
//
// This module contains the core conversion logic. It orchestrates the entire
// pipeline for a single file, from reading the debtor list to writing the
// pain.008 document.
//
// CONVERSION PIPELINE:
//   1. Read the input file (CSV or XLSX) into records
//   2. Apply the profile's column transformations
//   3. Build the batch header from the creditor profile
//   4. Ingest every record as a transaction
//   5. Render the pain.008.003.02 document
//   6. Write the output file
//   7. Archive the processed files
//
// Any rejected row stops the file: an error log listing every failing row
// is written next to the output instead of a partial document.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ginjaninja78/sepa-direct-debit/internal/bankaccount"
	"github.com/ginjaninja78/sepa-direct-debit/internal/config"
	"github.com/ginjaninja78/sepa-direct-debit/internal/csvparser"
	"github.com/ginjaninja78/sepa-direct-debit/internal/logger"
	"github.com/ginjaninja78/sepa-direct-debit/internal/pain008"
	"github.com/ginjaninja78/sepa-direct-debit/internal/sepa"
	"github.com/ginjaninja78/sepa-direct-debit/internal/xlsxparser"
	"github.com/ginjaninja78/sepa-direct-debit/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// Profile is the code of the creditor profile that was applied.
	Profile string

	// OutputFile is the path to the generated XML file. Empty on failure
	// and in dry runs.
	OutputFile string

	// ErrorLog is the path to the error log, if one was written.
	ErrorLog string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// RowsRead is the number of data rows read from the input.
	RowsRead int

	// Transactions is the number of transactions in the document.
	Transactions int

	// ControlSum is the sum of all amounts with two decimals.
	ControlSum string

	// ValidationErrors is the number of rejected rows or fields.
	ValidationErrors int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter handles the conversion of a single input file.
type Converter struct {
	filePath   string
	profile    *config.CreditorProfile
	mainConfig *config.MainConfig
	files      *utils.FileManager
	logger     zerolog.Logger
	hasLogger  bool
	now        func() time.Time
	dryRun     bool
}

// Option customizes a Converter.
type Option func(*Converter)

// WithLogger sets the logger. Without it Run uses the logger carried by
// its context.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Converter) {
		c.logger = log
		c.hasLogger = true
	}
}

// WithClock sets the clock used for collection dates, ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) {
		if now != nil {
			c.now = now
		}
	}
}

// WithDryRun validates and renders without writing or archiving anything.
func WithDryRun(dryRun bool) Option {
	return func(c *Converter) {
		c.dryRun = dryRun
	}
}

// New creates a new Converter instance.
func New(filePath string, profile *config.CreditorProfile, mainConfig *config.MainConfig, opts ...Option) *Converter {
	c := &Converter{
		filePath:   filePath,
		profile:    profile,
		mainConfig: mainConfig,
		logger:     zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.files = utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir, mainConfig.InputArchiveDir, mainConfig.OutputArchiveDir)
	c.files.Now = c.now

	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the conversion pipeline for the file.
func (c *Converter) Run(ctx context.Context) Result {
	startTime := c.now()
	result := Result{
		FilePath: c.filePath,
		Profile:  c.profile.Code,
	}
	defer func() {
		result.Stats.ProcessingTime = c.now().Sub(startTime)
	}()

	base := c.logger
	if !c.hasLogger {
		base = logger.FromContext(ctx)
	}
	c.logger = logger.WithFields(base, map[string]interface{}{
		"file":    filepath.Base(c.filePath),
		"profile": c.profile.Code,
	})

	c.logger.Info().Msg("Processing file")

	// =========================================================================
	// STEP 1: READ INPUT
	// =========================================================================

	records, err := c.readRecords()
	if err != nil {
		result.Error = fmt.Errorf("failed to read input: %w", err)
		return result
	}

	result.Stats.RowsRead = len(records)
	c.logger.Debug().Int("rows", len(records)).Msg("Read input rows")

	if err := ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	// =========================================================================
	// STEP 2: APPLY TRANSFORMATIONS
	// =========================================================================

	transformer, err := NewTransformer(c.profile.Transformations)
	if err != nil {
		result.Error = fmt.Errorf("failed to apply transformations: %w", err)
		return result
	}

	records, err = transformer.TransformRecords(records)
	if err != nil {
		c.fail(&result, "transformation", fmt.Errorf("failed to apply transformations: %w", err))
		return result
	}

	// =========================================================================
	// STEP 3: BUILD BATCH
	// =========================================================================

	batch, err := c.buildBatch()
	if err != nil {
		c.fail(&result, "profile", fmt.Errorf("invalid creditor profile: %w", err))
		return result
	}

	// =========================================================================
	// STEP 4: INGEST RECORDS
	// =========================================================================

	txs, err := sepa.IngestRecords(batch, records, sepa.WithCurrency(c.profile.Currency))
	if err != nil {
		c.fail(&result, "validation", err)
		return result
	}

	if err := batch.AddTransactions(txs...); err != nil {
		c.fail(&result, "validation", err)
		return result
	}

	result.Stats.Transactions = batch.NumberOfTransactions()
	result.Stats.ControlSum = batch.ControlSum().StringFixed(2)

	// =========================================================================
	// STEP 5: RENDER DOCUMENT
	// =========================================================================

	renderer := &pain008.Renderer{
		Now:          c.now,
		ChargeBearer: sepa.ChargeBearer(c.profile.ChargeBearer),
	}

	doc, err := renderer.Render(batch)
	if err != nil {
		c.fail(&result, "render", err)
		return result
	}

	c.logger.Debug().
		Int("transactions", result.Stats.Transactions).
		Str("control_sum", result.Stats.ControlSum).
		Msg("Rendered pain.008 document")

	if c.dryRun {
		c.logger.Info().Msg("Dry run: no files written")
		result.Success = true
		return result
	}

	// =========================================================================
	// STEP 6: WRITE OUTPUT
	// =========================================================================

	outputPath, err := c.writeOutput(doc)
	if err != nil {
		result.Error = fmt.Errorf("failed to write output: %w", err)
		return result
	}

	result.OutputFile = outputPath
	c.logger.Info().Str("output", outputPath).Msg("Wrote output")

	// =========================================================================
	// STEP 7: ARCHIVE FILES
	// =========================================================================

	if err := c.archiveFiles(outputPath); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to archive files")
	}

	result.Success = true
	return result
}

// readRecords picks the parser by file extension.
func (c *Converter) readRecords() ([]sepa.Record, error) {
	if strings.EqualFold(filepath.Ext(c.filePath), ".xlsx") {
		sheet, err := xlsxparser.Parse(c.filePath, c.profile.Input)
		if err != nil {
			return nil, err
		}
		return sheet.Records, nil
	}

	data, err := csvparser.Parse(c.filePath, c.profile.Input)
	if err != nil {
		return nil, err
	}
	return data.Records, nil
}

// buildBatch creates the batch header from the creditor profile.
func (c *Converter) buildBatch() (*sepa.Batch, error) {
	sequenceType, err := sepa.ParseSequenceType(c.profile.SequenceType)
	if err != nil {
		return nil, err
	}
	instrument, err := sepa.ParseLocalInstrument(c.profile.LocalInstrument)
	if err != nil {
		return nil, err
	}

	// 32 hex digits fit the 35 character identifier limit.
	messageID := strings.ReplaceAll(uuid.New().String(), "-", "")

	return sepa.CreateBatch(
		bankaccount.New(c.profile.AccountValidation),
		sepa.BatchParams{
			CreditorIdentifier:   c.profile.Creditor.Identifier,
			CreditorName:         c.profile.Creditor.Name,
			CreditorIBAN:         c.profile.Creditor.IBAN,
			CreditorBIC:          c.profile.Creditor.BIC,
			CollectionDate:       c.profile.ResolveCollectionDate(c.now()),
			SequenceType:         sequenceType,
			LocalInstrument:      instrument,
			OriginalCreditorID:   c.profile.OriginalCreditor.Identifier,
			OriginalCreditorName: c.profile.OriginalCreditor.Name,
			MessageID:            messageID,
			PaymentID:            messageID,
		},
		sepa.WithClock(c.now),
	)
}

// fail records err, counts the validation failures and writes the error log.
func (c *Converter) fail(result *Result, errorType string, err error) {
	result.Error = err

	entries := ErrorEntries(filepath.Base(c.filePath), errorType, err, c.now())
	result.Stats.ValidationErrors = len(entries)

	for _, entry := range entries {
		c.logger.Warn().
			Int("row", entry.RowNumber).
			Str("field", entry.FieldName).
			Msg(entry.ErrorMessage)
	}

	if c.dryRun {
		return
	}

	baseName := strings.TrimSuffix(filepath.Base(c.filePath), filepath.Ext(c.filePath))
	logPath, logErr := utils.WriteErrorLog(entries, c.mainConfig.OutputDir, baseName)
	if logErr != nil {
		c.logger.Error().Err(logErr).Msg("Failed to write error log")
		return
	}
	result.ErrorLog = logPath
}

// writeOutput writes the XML document to the output directory.
func (c *Converter) writeOutput(doc []byte) (string, error) {
	fileName := utils.GenerateOutputFileName(c.mainConfig.OutputNameFormat, map[string]string{
		"profile":  c.profile.Code,
		"original": strings.TrimSuffix(filepath.Base(c.filePath), filepath.Ext(c.filePath)),
	}, c.now())
	outputPath := filepath.Join(c.mainConfig.OutputDir, fileName)

	if err := os.WriteFile(outputPath, doc, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return outputPath, nil
}

// archiveFiles moves the input and copies the output into the archives.
func (c *Converter) archiveFiles(outputPath string) error {
	if _, err := c.files.ArchiveInputFile(c.filePath); err != nil {
		return fmt.Errorf("failed to archive input file: %w", err)
	}
	if _, err := c.files.ArchiveOutputFile(outputPath); err != nil {
		return fmt.Errorf("failed to archive output file: %w", err)
	}
	return nil
}

// =============================================================================
// ERROR REPORTING
// =============================================================================

// ErrorEntries flattens err into error log entries: one per row or field
// failure inside an aggregate, or a single entry otherwise.
func ErrorEntries(fileName, errorType string, err error, at time.Time) []utils.ErrorLogEntry {
	var errs []error

	var agg *sepa.AggregateValidationError
	if errors.As(err, &agg) {
		errs = agg.Errors
	} else {
		errs = []error{err}
	}

	entries := make([]utils.ErrorLogEntry, 0, len(errs))
	for _, e := range errs {
		entry := utils.ErrorLogEntry{
			Timestamp:    at,
			FileName:     fileName,
			ErrorType:    errorType,
			ErrorMessage: e.Error(),
		}

		var rowErr *sepa.RowError
		if errors.As(e, &rowErr) {
			entry.RowNumber = rowErr.Row
			entry.ErrorMessage = rowErr.Err.Error()
		}

		var fieldErr *sepa.FieldValidationError
		if errors.As(e, &fieldErr) {
			entry.FieldName = fieldErr.Field
			entry.FieldValue = fieldErr.Value
		}

		entries = append(entries, entry)
	}

	return entries
}
