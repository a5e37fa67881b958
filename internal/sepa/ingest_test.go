package sepa

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(row int, line string) Record {
	return Record{Row: row, Fields: strings.Split(line, ";")}
}

func TestGenerateEndToEndID(t *testing.T) {
	at := time.Date(2024, 3, 7, 8, 9, 5, 0, time.UTC)

	assert.Equal(t, "1-20240307080905", GenerateEndToEndID(1, at))
	assert.Equal(t, "42-20240307080905", GenerateEndToEndID(42, at))

	long := GenerateEndToEndID(math.MaxInt64, at)
	assert.LessOrEqual(t, len(long), 35)
	assert.True(t, RestrictedIdentificationSEPA1(long))
}

func TestIngestRecords(t *testing.T) {
	b := newTestBatch(t, SequenceFirst)

	records := []Record{
		record(2, "M-1;2023-06-01;Max Mustermann;DE87200500001234567890;HASPDEHHXXX;10.00;Rechnung 1;0"),
		record(3, "M-2;2023-06-02;Erika Musterfrau;DE21500500009876543210;BELADEBEXXX;20.50;Rechnung 2;1;OLD-2"),
		record(4, "M-3;2023-06-03;Hans Müller;DE21500500001234567897;BELADEBEXXX;5.25;Rechnung 3;0;;DE89370400440532013000"),
	}

	txs, err := IngestRecords(b, records)
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, "1-20240115100000", txs[0].EndToEndID())
	assert.Equal(t, "2-20240115100000", txs[1].EndToEndID())
	assert.Equal(t, "3-20240115100000", txs[2].EndToEndID())

	assert.Equal(t, "EUR", txs[0].Currency())
	assert.False(t, txs[0].DebtorBankChanged())
	assert.False(t, txs[0].AmendmentIndicator())

	assert.True(t, txs[1].DebtorBankChanged())
	id, ok := txs[1].OriginalMandateID()
	assert.True(t, ok)
	assert.Equal(t, "OLD-2", id)

	_, ok = txs[2].OriginalMandateID()
	assert.False(t, ok, "an empty column stays absent")
	acct, ok := txs[2].OriginalDebtorAccount()
	assert.True(t, ok)
	assert.Equal(t, "DE89370400440532013000", acct)

	assert.Equal(t, 0, b.NumberOfTransactions(), "ingestion does not attach")
	require.NoError(t, b.AddTransactions(txs...))
	assert.Equal(t, "35.75", b.ControlSum().StringFixed(2))
}

func TestIngestRecords_InvalidRowFailsAll(t *testing.T) {
	b := newTestBatch(t, SequenceRecurring)

	records := []Record{
		record(1, "M-1;2023-06-01;Max Mustermann;DE87200500001234567890;HASPDEHHXXX;10.00;Rechnung 1;0"),
		record(2, "M-2;2023-06-02;Erika Musterfrau;DE21500500009876543210;BELADEBEXXX;20.50;Rechnung 2;0"),
		record(3, "M-3;2023-06-03;Hans Müller;XX00;BELADEBEXXX;5.25;Rechnung 3;0"),
		record(4, "M-4;2023-06-04;Anna Schmidt;DE21500500001234567897;BELADEBEXXX;7.00;Rechnung 4;0"),
	}

	txs, err := IngestRecords(b, records)
	assert.Nil(t, txs, "valid rows before and after the bad row are discarded")

	var agg *AggregateValidationError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Errors, 1)

	var re *RowError
	require.ErrorAs(t, agg.Errors[0], &re)
	assert.Equal(t, 3, re.Row)
	assert.Equal(t, "debtorIban", re.Field())
	assert.Contains(t, err.Error(), "row 3")
}

func TestIngestRecords_NilBatch(t *testing.T) {
	txs, err := IngestRecords(nil, []Record{
		record(1, "M-1;2023-06-01;Max Mustermann;DE87200500001234567890;HASPDEHHXXX;10.00;Rechnung 1;0"),
	})
	assert.Nil(t, txs)

	var tce *TypeConstraintError
	require.ErrorAs(t, err, &tce)
	assert.Equal(t, "transaction.owner", tce.Relation)
}

func TestIngestRecords_ShortRecords(t *testing.T) {
	b := newTestBatch(t, SequenceRecurring)

	records := []Record{
		{Fields: []string{"M-1", "2023-06-01", "Max Mustermann"}},
		{Fields: strings.Split("M-2;2023-06-02;Erika Musterfrau;DE21500500009876543210;BELADEBEXXX;20.50;Rechnung 2;0", ";")},
		{Fields: strings.Split("M-3,2023-06-03,Hans Müller", ";")},
	}

	_, err := IngestRecords(b, records)

	var agg *AggregateValidationError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Errors, 2)

	var re *RowError
	require.ErrorAs(t, agg.Errors[0], &re)
	assert.Equal(t, 1, re.Row, "rows default to the record position")
	assert.True(t, errors.Is(re, ErrIncompleteRecord))
	assert.Empty(t, re.Field())

	require.ErrorAs(t, agg.Errors[1], &re)
	assert.Equal(t, 3, re.Row)
	assert.True(t, errors.Is(err, ErrIncompleteRecord))
}

func TestIngestRecords_BankChangedNeedsFirst(t *testing.T) {
	b := newTestBatch(t, SequenceRecurring)

	_, err := IngestRecords(b, []Record{
		record(5, "M-1;2023-06-01;Max Mustermann;DE87200500001234567890;HASPDEHHXXX;10.00;Rechnung 1;1"),
	})

	var re *RowError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 5, re.Row)
	assert.Equal(t, "sequenceType", re.Field())
}

func TestIngestRecords_WithCurrency(t *testing.T) {
	b := newTestBatch(t, SequenceRecurring)

	txs, err := IngestRecords(b, []Record{
		record(1, "M-1;2023-06-01;Max Mustermann;DE87200500001234567890;HASPDEHHXXX;10.00;Rechnung 1;0"),
	}, WithCurrency("CHF"))
	require.NoError(t, err)
	assert.Equal(t, "CHF", txs[0].Currency())
}

func TestIngestRecords_SanitizesDebtorName(t *testing.T) {
	b := newTestBatch(t, SequenceRecurring)

	txs, err := IngestRecords(b, []Record{
		record(1, "M-1;2023-06-01;Max <Mustermann>;DE87200500001234567890;HASPDEHHXXX;10.00;Rechnung 1;0"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Max Mustermann", txs[0].DebtorName())
}

func TestColumnIndex(t *testing.T) {
	idx, ok := ColumnIndex("amount")
	require.True(t, ok)
	assert.Equal(t, colAmount, idx)

	idx, ok = ColumnIndex("original_debtor_account")
	require.True(t, ok)
	assert.Equal(t, colOriginalDebtorAccount, idx)

	_, ok = ColumnIndex("Amount")
	assert.False(t, ok)
}
