// =============================================================================
// SEPA Direct Debit Converter - Transformation Engine
// =============================================================================
//
// This module rewrites input columns before they reach the SEPA field rules.
// Accounting exports rarely match the rulebook formats, so every creditor
// profile can attach a list of actions to any record column.
//
// TYPICAL RULES:
//   - amount:       "1.234,50" -> "1234.50"          (decimal_comma)
//   - mandate_date: "01.06.2023" -> "2023-06-01"     (format_date)
//   - iban:         "de87 2005 0000 ..." -> "DE87..." (remove_spaces, uppercase)
//   - bank_changed: "ja" -> "1"                       (boolean_flag)
//
// Columns a record does not have are left alone, so short records still
// fail ingestion with a row error.
//
// =============================================================================

package converter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/sepa-direct-debit/internal/config"
	"github.com/ginjaninja78/sepa-direct-debit/internal/sepa"
)

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer applies a profile's column rules to records.
type Transformer struct {
	rules []columnRule
}

type columnRule struct {
	column  string
	index   int
	actions []config.TransformationAction
}

// NewTransformer creates a Transformer. Unknown columns are rejected.
func NewTransformer(rules []config.TransformationRule) (*Transformer, error) {
	t := &Transformer{}
	for _, rule := range rules {
		idx, ok := sepa.ColumnIndex(rule.Column)
		if !ok {
			return nil, fmt.Errorf("unknown transformation column %q", rule.Column)
		}
		t.rules = append(t.rules, columnRule{column: rule.Column, index: idx, actions: rule.Actions})
	}
	return t, nil
}

// Empty reports whether the transformer has no rules.
func (t *Transformer) Empty() bool {
	return len(t.rules) == 0
}

// TransformRecords transforms every record. Failures are collected per row
// into one *sepa.AggregateValidationError and no records are returned then.
func (t *Transformer) TransformRecords(records []sepa.Record) ([]sepa.Record, error) {
	if t.Empty() {
		return records, nil
	}

	out := make([]sepa.Record, 0, len(records))
	var errs []error

	for i, rec := range records {
		transformed, err := t.TransformRecord(rec)
		if err != nil {
			row := rec.Row
			if row == 0 {
				row = i + 1
			}
			errs = append(errs, &sepa.RowError{Row: row, Err: err})
			continue
		}
		out = append(out, transformed)
	}

	if len(errs) > 0 {
		return nil, &sepa.AggregateValidationError{Errors: errs}
	}

	return out, nil
}

// TransformRecord returns a copy of rec with all rules applied.
func (t *Transformer) TransformRecord(rec sepa.Record) (sepa.Record, error) {
	fields := make([]string, len(rec.Fields))
	copy(fields, rec.Fields)

	for _, rule := range t.rules {
		if rule.index >= len(fields) {
			continue
		}

		value := fields[rule.index]
		for _, action := range rule.actions {
			var err error
			value, err = ApplyTransformation(value, action)
			if err != nil {
				return sepa.Record{}, fmt.Errorf("column %s: transformation '%s' failed: %w", rule.column, action.Type, err)
			}
		}
		fields[rule.index] = value
	}

	return sepa.Record{Row: rec.Row, Fields: fields}, nil
}

// =============================================================================
// TRANSFORMATION FUNCTIONS
// =============================================================================

// ApplyTransformation applies a single transformation action.
//
// SUPPORTED TRANSFORMATIONS:
//   See the switch statement below for all supported transformation types.
func ApplyTransformation(value string, action config.TransformationAction) (string, error) {
	switch action.Type {

	// =========================================================================
	// STRING MANIPULATIONS
	// =========================================================================

	case "prepend_string":
		return action.Value + value, nil

	case "append_string":
		return value + action.Value, nil

	case "trim":
		return strings.TrimSpace(value), nil

	case "uppercase":
		return strings.ToUpper(value), nil

	case "lowercase":
		return strings.ToLower(value), nil

	case "remove_spaces":
		// Typical for IBANs printed in groups of four.
		return strings.Join(strings.Fields(value), ""), nil

	case "normalize_whitespace":
		return strings.Join(strings.Fields(value), " "), nil

	case "replace":
		if action.Find == "" {
			return value, nil
		}
		return strings.ReplaceAll(value, action.Find, action.Value), nil

	case "regex_replace":
		if action.Find == "" {
			return value, nil
		}
		re, err := regexp.Compile(action.Find)
		if err != nil {
			return "", fmt.Errorf("invalid regex pattern: %w", err)
		}
		return re.ReplaceAllString(value, action.Value), nil

	case "truncate":
		// VALUE FORMAT: maximum number of characters
		n, err := strconv.Atoi(strings.TrimSpace(action.Value))
		if err != nil || n < 0 {
			return "", fmt.Errorf("invalid truncate length %q", action.Value)
		}
		runes := []rune(value)
		if len(runes) > n {
			return string(runes[:n]), nil
		}
		return value, nil

	case "pad_left":
		// VALUE FORMAT: "length|char", e.g. "10|0"
		length, padChar, err := parsePadding(action.Value)
		if err != nil {
			return "", err
		}
		return PadLeft(value, length, padChar), nil

	// =========================================================================
	// AMOUNTS
	// =========================================================================

	case "decimal_comma":
		// German notation to rulebook notation.
		//
		// EXAMPLE:
		//   Input: "1.234,5"
		//   Output: "1234.50"
		if strings.TrimSpace(value) == "" {
			return value, nil
		}
		normalized := strings.ReplaceAll(strings.TrimSpace(value), ".", "")
		normalized = strings.Replace(normalized, ",", ".", 1)
		return formatAmount(normalized)

	case "format_amount":
		// Any decimal notation with a point to two fraction digits.
		//
		// EXAMPLE:
		//   Input: "12.5"
		//   Output: "12.50"
		if strings.TrimSpace(value) == "" {
			return value, nil
		}
		return formatAmount(strings.TrimSpace(value))

	// =========================================================================
	// DATE CONVERSIONS
	// =========================================================================

	case "format_date":
		// VALUE FORMAT: "input_format|output_format" using Go layouts.
		//
		// EXAMPLE:
		//   Input: "01.06.2023"
		//   Action: format_date with value "02.01.2006|2006-01-02"
		//   Output: "2023-06-01"
		parts := strings.Split(action.Value, "|")
		if len(parts) != 2 {
			return "", fmt.Errorf("format_date expects \"input|output\", got %q", action.Value)
		}
		if strings.TrimSpace(value) == "" {
			return value, nil
		}

		t, err := time.Parse(strings.TrimSpace(parts[0]), strings.TrimSpace(value))
		if err != nil {
			return "", fmt.Errorf("cannot parse date %q: %w", value, err)
		}
		return t.Format(strings.TrimSpace(parts[1])), nil

	// =========================================================================
	// LOOKUPS AND DEFAULTS
	// =========================================================================

	case "lookup":
		// Replace value using a lookup table. Unknown values are kept.
		if replacement, exists := action.LookupTable[value]; exists {
			return replacement, nil
		}
		return value, nil

	case "lookup_with_default":
		if replacement, exists := action.LookupTable[value]; exists {
			return replacement, nil
		}
		return action.Value, nil

	case "if_empty_use_default":
		if strings.TrimSpace(value) == "" {
			return action.Value, nil
		}
		return value, nil

	case "boolean_flag":
		// Maps yes-like values to "1" and everything else to "0".
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "ja", "j", "yes", "y", "true", "x":
			return "1", nil
		default:
			return "0", nil
		}

	default:
		return "", fmt.Errorf("unknown transformation type: %s", action.Type)
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func formatAmount(s string) (string, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", fmt.Errorf("invalid amount %q", s)
	}
	if !d.Equal(d.Round(2)) {
		return "", fmt.Errorf("amount %q has more than two decimals", s)
	}
	return d.StringFixed(2), nil
}

func parsePadding(setting string) (int, rune, error) {
	parts := strings.SplitN(setting, "|", 2)
	length, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || length < 0 {
		return 0, 0, fmt.Errorf("invalid pad length %q", setting)
	}

	padChar := '0'
	if len(parts) == 2 && parts[1] != "" {
		padChar = []rune(parts[1])[0]
	}
	return length, padChar, nil
}

// PadLeft pads a string on the left to a specific length.
func PadLeft(s string, length int, padChar rune) string {
	n := len([]rune(s))
	if n >= length {
		return s
	}
	return strings.Repeat(string(padChar), length-n) + s
}
