package sepa

import "strconv"

// BatchParams holds everything CreateBatch needs for a complete batch.
// Optional fields may be left empty.
type BatchParams struct {
	CreditorIdentifier string
	CreditorName       string
	CreditorIBAN       string
	CreditorBIC        string
	CollectionDate     string
	SequenceType       SequenceType

	// LocalInstrument defaults to CORE.
	LocalInstrument LocalInstrument

	OriginalCreditorID   string
	OriginalCreditorName string

	Transactions []TransactionInput

	// MessageID and PaymentID default to the current Unix timestamp.
	MessageID string
	PaymentID string
}

// CreateBatch builds a batch in one call. Fields are applied in a fixed order
// and the first failure is returned; a failing transaction comes back as a
// *RowError carrying its 1-based position in p.Transactions.
func CreateBatch(accounts AccountValidator, p BatchParams, opts ...BatchOption) (*Batch, error) {
	b := NewBatch(accounts, opts...)

	instrument := p.LocalInstrument
	if instrument == "" {
		instrument = InstrumentCore
	}

	steps := []func() error{
		func() error { return b.SetCreditorIdentifier(p.CreditorIdentifier) },
		func() error { return b.SetInitiatorNameAutofixed(p.CreditorName) },
		func() error { return b.SetCreditorIBAN(p.CreditorIBAN) },
		func() error { return b.SetCreditorBIC(p.CreditorBIC) },
		func() error { return b.SetCollectionDate(p.CollectionDate) },
		func() error { return b.SetSequenceType(p.SequenceType) },
		func() error { return b.SetLocalInstrument(instrument) },
		func() error { return b.SetOriginalCreditorID(p.OriginalCreditorID) },
		func() error { return b.SetOriginalCreditorNameAutofixed(p.OriginalCreditorName) },
		func() error { return b.setTransactionInputs(p.Transactions) },
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	stamp := truncate(strconv.FormatInt(b.now().Unix(), 10), 35)

	messageID := p.MessageID
	if messageID == "" {
		messageID = stamp
	}
	if err := b.SetMessageID(messageID); err != nil {
		return nil, err
	}

	paymentID := p.PaymentID
	if paymentID == "" {
		paymentID = stamp
	}
	if err := b.SetPaymentID(paymentID); err != nil {
		return nil, err
	}

	return b, nil
}

func (b *Batch) setTransactionInputs(inputs []TransactionInput) error {
	txs := make([]*Transaction, 0, len(inputs))
	for i, in := range inputs {
		tx, err := NewTransaction(b, in)
		if err != nil {
			return &RowError{Row: i + 1, Err: err}
		}
		txs = append(txs, tx)
	}
	return b.SetTransactions(txs)
}
