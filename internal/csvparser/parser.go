// =============================================================================
// SEPA Direct Debit Converter - CSV Parser Module
// =============================================================================
//
// This module is responsible for parsing debtor lists exported from
// accounting systems. Every data row becomes a positional sepa.Record:
//
//   mandateId;mandateDate;name;iban;bic;amount;message;bankChanged
//   [;originalMandateId[;originalDebtorAccount]]
//
// FEATURES:
//   - Configurable delimiter (";" by default, aliases "tab", "pipe", ...)
//   - Leading header rows are skipped
//   - Legacy single-byte encodings are decoded to UTF-8
//   - A UTF-8 byte order mark is removed
//   - Row numbers refer to the physical line in the file
//   - Streaming for large files
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/sepa-direct-debit/internal/config"
	"github.com/ginjaninja78/sepa-direct-debit/internal/sepa"
)

// ErrEmptyFile is returned when a file holds no data rows.
var ErrEmptyFile = errors.New("file contains no data rows")

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData represents a parsed input file.
type CSVData struct {
	// Records are the data rows in file order.
	Records []sepa.Record

	// SourceFile is the path to the source CSV file.
	SourceFile string

	// SkippedRows counts header rows and blank lines.
	SkippedRows int
}

// RowCount is the number of data rows.
func (d *CSVData) RowCount() int {
	return len(d.Records)
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file and returns its data rows.
//
// PARSING PROCESS:
//   1. Open the file and decode it from the configured encoding
//   2. Configure the CSV reader with the configured delimiter
//   3. Skip the configured number of header rows
//   4. Collect every non-blank row as a record
func Parse(filePath string, settings config.InputSettings) (*CSVData, error) {
	parser, err := NewStreamingParser(filePath, settings)
	if err != nil {
		return nil, err
	}
	defer parser.Close()

	data, err := collect(parser)
	if err != nil {
		return nil, err
	}
	data.SourceFile = filePath

	return data, nil
}

// ParseReader parses CSV content from r.
func ParseReader(r io.Reader, settings config.InputSettings) (*CSVData, error) {
	parser, err := newStreamingParser(r, settings)
	if err != nil {
		return nil, err
	}
	return collect(parser)
}

func collect(parser *StreamingParser) (*CSVData, error) {
	data := &CSVData{}
	for parser.Next() {
		data.Records = append(data.Records, parser.Record())
	}
	if err := parser.Err(); err != nil {
		return nil, err
	}

	data.SkippedRows = parser.skipped
	if len(data.Records) == 0 {
		return nil, ErrEmptyFile
	}

	return data, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.InputSettings) {
	reader.Comma = Delimiter(settings.Delimiter)

	// Rows with fewer fields are reported per row during ingestion.
	reader.FieldsPerRecord = -1

	// Allow lazy quotes (quotes that don't follow strict CSV rules).
	reader.LazyQuotes = true

	reader.TrimLeadingSpace = true
}

// Delimiter resolves a delimiter setting. Empty means ";".
func Delimiter(setting string) rune {
	switch setting {
	case "":
		return ';'
	case "\\t", "tab", "TAB":
		return '\t'
	case "pipe", "PIPE":
		return '|'
	case "semicolon":
		return ';'
	case "comma":
		return ','
	default:
		return []rune(setting)[0]
	}
}

// NewDecoder returns a reader that converts r from the named encoding to
// UTF-8.
func NewDecoder(r io.Reader, name string) (io.Reader, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "UTF-8", "UTF8":
		return unicode.UTF8BOM, nil
	case "ISO-8859-1", "LATIN1", "LATIN-1":
		return charmap.ISO8859_1, nil
	case "ISO-8859-15", "LATIN9", "LATIN-9":
		return charmap.ISO8859_15, nil
	case "WINDOWS-1252", "CP1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// STREAMING PARSER FOR LARGE FILES
// =============================================================================

// StreamingParser reads records one at a time.
//
// USAGE:
//   parser, err := NewStreamingParser(filePath, settings)
//   if err != nil {
//       return err
//   }
//   defer parser.Close()
//
//   for parser.Next() {
//       rec := parser.Record()
//       // Process the record...
//   }
//
//   if err := parser.Err(); err != nil {
//       return err
//   }
type StreamingParser struct {
	closer     io.Closer
	reader     *csv.Reader
	headerRows int
	current    sepa.Record
	seen       int
	skipped    int
	err        error
}

// NewStreamingParser creates a new streaming parser for a CSV file.
func NewStreamingParser(filePath string, settings config.InputSettings) (*StreamingParser, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	parser, err := newStreamingParser(file, settings)
	if err != nil {
		file.Close()
		return nil, err
	}
	parser.closer = file

	return parser, nil
}

func newStreamingParser(r io.Reader, settings config.InputSettings) (*StreamingParser, error) {
	decoded, err := NewDecoder(bufio.NewReader(r), settings.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decoded)
	configureReader(reader, settings)

	return &StreamingParser{
		reader:     reader,
		headerRows: settings.HeaderRows,
	}, nil
}

// Next advances to the next data row. Returns false when there are no more
// rows or reading failed.
func (p *StreamingParser) Next() bool {
	for p.err == nil {
		row, err := p.reader.Read()
		if err == io.EOF {
			return false
		}
		if err != nil {
			p.err = fmt.Errorf("failed to read CSV: %w", err)
			return false
		}

		p.seen++
		if p.seen <= p.headerRows || isRowEmpty(row) {
			p.skipped++
			continue
		}

		line, _ := p.reader.FieldPos(0)
		fields := make([]string, len(row))
		for i, cell := range row {
			fields[i] = strings.TrimSpace(cell)
		}

		p.current = sepa.Record{Row: line, Fields: fields}
		return true
	}
	return false
}

// Record returns the current record.
func (p *StreamingParser) Record() sepa.Record {
	return p.current
}

// Err returns any error that occurred during parsing.
func (p *StreamingParser) Err() error {
	return p.err
}

// Close closes the underlying file.
func (p *StreamingParser) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}
