package sepa

import (
	"fmt"
	"strings"
	"time"
)

// Positional layout of an ingestion record.
const (
	colMandateID = iota
	colMandateDate
	colDebtorName
	colDebtorIBAN
	colDebtorBIC
	colAmount
	colRemittanceInfo
	colBankChanged
	colOriginalMandateID
	colOriginalDebtorAccount

	minRecordFields = colBankChanged + 1
)

// Columns names the record positions, in order.
var Columns = []string{
	"mandate_id",
	"mandate_date",
	"name",
	"iban",
	"bic",
	"amount",
	"message",
	"bank_changed",
	"original_mandate_id",
	"original_debtor_account",
}

// ColumnIndex returns the record position of a named column.
func ColumnIndex(name string) (int, bool) {
	for i, c := range Columns {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// Record is one row of tabular input. Row is the 1-based line number in the
// source file; zero means "use the record's position".
type Record struct {
	Row    int
	Fields []string
}

type ingestOptions struct {
	currency string
}

// IngestOption customizes IngestRecords.
type IngestOption func(*ingestOptions)

// WithCurrency sets the currency of every ingested transaction. Defaults to
// EUR.
func WithCurrency(currency string) IngestOption {
	return func(o *ingestOptions) {
		if currency != "" {
			o.currency = currency
		}
	}
}

// GenerateEndToEndID builds "<counter>-<YYYYMMDDhhmmss>" cut to 35
// characters.
func GenerateEndToEndID(counter int, at time.Time) string {
	return truncate(fmt.Sprintf("%d-%s", counter, at.Format("20060102150405")), 35)
}

// IngestRecords turns records into transactions owned by b. Records need at
// least eight fields:
//
//	mandateId; mandateDate; name; iban; bic; amount; message; bankChanged
//	[; originalMandateId [; originalDebtorAccount]]
//
// bankChanged is "1" for true. Every failing record is reported as a
// *RowError inside one *AggregateValidationError, and then no transactions
// are returned. The transactions are not attached to b.
func IngestRecords(b *Batch, records []Record, opts ...IngestOption) ([]*Transaction, error) {
	if b == nil {
		return nil, &TypeConstraintError{Relation: "transaction.owner", Message: "a transaction needs a batch"}
	}

	options := ingestOptions{currency: "EUR"}
	for _, opt := range opts {
		opt(&options)
	}

	now := b.now()
	counter := 0

	var (
		txs  []*Transaction
		errs []error
	)

	for i, rec := range records {
		row := rec.Row
		if row == 0 {
			row = i + 1
		}

		if len(rec.Fields) < minRecordFields {
			errs = append(errs, &RowError{
				Row: row,
				Err: fmt.Errorf("%w: %s", ErrIncompleteRecord, strings.Join(rec.Fields, ";")),
			})
			continue
		}

		counter++
		f := rec.Fields

		in := TransactionInput{
			EndToEndID:        GenerateEndToEndID(counter, now),
			MandateID:         f[colMandateID],
			MandateDate:       f[colMandateDate],
			DebtorName:        f[colDebtorName],
			DebtorIBAN:        f[colDebtorIBAN],
			DebtorBIC:         f[colDebtorBIC],
			Amount:            f[colAmount],
			Currency:          options.currency,
			RemittanceInfo:    f[colRemittanceInfo],
			DebtorBankChanged: strings.TrimSpace(f[colBankChanged]) == "1",
		}
		if len(f) > colOriginalMandateID {
			in.OriginalMandateID = f[colOriginalMandateID]
		}
		if len(f) > colOriginalDebtorAccount {
			in.OriginalDebtorAccount = f[colOriginalDebtorAccount]
		}

		tx, err := NewTransaction(b, in)
		if err != nil {
			errs = append(errs, &RowError{Row: row, Err: err})
			continue
		}
		txs = append(txs, tx)
	}

	if len(errs) > 0 {
		return nil, &AggregateValidationError{Errors: errs}
	}

	return txs, nil
}
