// =============================================================================
// SEPA Direct Debit - Batch
// =============================================================================
//
// A Batch is one pain.008 message: the group header, a single payment
// information block and its ordered list of transactions.
//
// VALIDATION STRATEGY:
//   Every mutator validates its input before touching state. A rejected value
//   leaves the batch exactly as it was, so a batch that was only ever changed
//   through its mutators is always well-formed and can be rendered without
//   further checks. The only thing a mutator cannot guarantee is that a
//   required field was set at all; Validate reports those.
//
// CROSS-FIELD RULES:
//   A transaction whose debtor moved to a new bank needs sequence type FRST.
//   The rule is enforced from both sides: SetSequenceType scans the current
//   transactions, and attaching or flagging a transaction checks the current
//   sequence type.
//
// =============================================================================

package sepa

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Batch is a SEPA direct debit collection. Not safe for concurrent mutation.
type Batch struct {
	id       uuid.UUID
	accounts AccountValidator
	now      func() time.Time

	messageID     string
	paymentID     string
	initiatorName string

	localInstrument LocalInstrument
	sequenceType    SequenceType
	collectionDate  string

	creditorIBAN string
	creditorBIC  string
	creditorID   string

	// Set only when the creditor's name or identifier changed since the
	// mandate was signed.
	originalCreditorName *string
	originalCreditorID   *string

	transactions []*Transaction
}

// BatchOption customizes a new Batch.
type BatchOption func(*Batch)

// WithClock replaces time.Now as the reference for collection date checks
// and generated identifiers.
func WithClock(now func() time.Time) BatchOption {
	return func(b *Batch) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBatch creates an empty batch. A nil accounts validator falls back to the
// IBAN and BIC grammar alone.
func NewBatch(accounts AccountValidator, opts ...BatchOption) *Batch {
	if accounts == nil {
		accounts = grammarOnly{}
	}

	b := &Batch{
		id:       uuid.New(),
		accounts: accounts,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// =============================================================================
// GROUP HEADER
// =============================================================================

// SetMessageID sets the group header message id.
func (b *Batch) SetMessageID(id string) error {
	if !RestrictedIdentificationSEPA1(id) {
		return fieldError("messageId", id, "the message id is not a valid value")
	}
	b.messageID = id
	return nil
}

// SetPaymentID sets the payment information id.
func (b *Batch) SetPaymentID(id string) error {
	if !RestrictedIdentificationSEPA1(id) {
		return fieldError("paymentId", id, "the payment id is not a valid value")
	}
	b.paymentID = id
	return nil
}

// SetInitiatorName sets the creditor name exactly as given, rejecting
// anything outside the SEPA text set or longer than 70 characters.
func (b *Batch) SetInitiatorName(name string) error {
	if err := checkName("name", name); err != nil {
		return err
	}
	b.initiatorName = name
	return nil
}

// SetInitiatorNameAutofixed drops characters outside the SEPA text set and
// cuts the result to 70 characters. It fails only when nothing is left.
func (b *Batch) SetInitiatorNameAutofixed(name string) error {
	fixed := autofixName(name)
	if fixed == "" {
		return fieldError("name", name, "the name has no characters left after removing invalid ones")
	}
	b.initiatorName = fixed
	return nil
}

// =============================================================================
// PAYMENT TYPE
// =============================================================================

// SetLocalInstrument sets the scheme (CORE, COR1 or B2B).
func (b *Batch) SetLocalInstrument(instrument LocalInstrument) error {
	if !instrument.Valid() {
		return fieldError("localInstrument", string(instrument), "the code for localInstrument is not valid")
	}
	b.localInstrument = instrument
	return nil
}

// SetSequenceType fails when the new value is not FRST while a transaction
// reports a debtor bank change.
func (b *Batch) SetSequenceType(sequenceType SequenceType) error {
	if !sequenceType.Valid() {
		return fieldError("sequenceType", string(sequenceType), "the code for sequenceType is not valid")
	}

	if sequenceType != SequenceFirst {
		for _, tx := range b.transactions {
			if tx.debtorBankChanged {
				return fieldError("sequenceType", string(sequenceType),
					"for a debtor with changed bank account the sequenceType must be FRST (transaction %s)", tx.endToEndID)
			}
		}
	}

	b.sequenceType = sequenceType
	return nil
}

// SetCollectionDate takes a YYYY-MM-DD date that must lie strictly after the
// batch clock's current time.
func (b *Batch) SetCollectionDate(date string) error {
	if !ISODate(date) {
		return fieldError("collectionDate", date, "the value for collectionDate is not valid")
	}

	now := b.now()
	day, err := time.ParseInLocation(isoDateLayout, date, now.Location())
	if err != nil {
		return fieldError("collectionDate", date, "the value for collectionDate is not valid")
	}
	if !day.After(now) {
		return fieldError("collectionDate", date, "the collectionDate needs to be in the future")
	}

	b.collectionDate = date
	return nil
}

// =============================================================================
// CREDITOR
// =============================================================================

// SetCreditorIBAN sets the account the collection is credited to.
func (b *Batch) SetCreditorIBAN(iban string) error {
	iban = normalizeAccount(iban)
	if err := checkIBAN(b.accounts, "creditorIban", iban); err != nil {
		return err
	}
	b.creditorIBAN = iban
	return nil
}

// SetCreditorBIC sets the BIC of the creditor's bank.
func (b *Batch) SetCreditorBIC(bic string) error {
	bic = normalizeAccount(bic)
	if err := checkBIC(b.accounts, "creditorBic", bic); err != nil {
		return err
	}
	b.creditorBIC = bic
	return nil
}

// SetCreditorIdentifier sets the SEPA creditor identifier (CI).
func (b *Batch) SetCreditorIdentifier(ci string) error {
	ci = strings.TrimSpace(ci)
	if !RestrictedPersonIdentifierSEPA(ci) {
		return fieldError("creditorIdentifier", ci, "the value for creditor identifier is not valid")
	}
	b.creditorID = ci
	return nil
}

// SetOriginalCreditorID records the identifier the creditor used when the
// mandate was signed. An empty value clears it.
func (b *Batch) SetOriginalCreditorID(ci string) error {
	ci = strings.TrimSpace(ci)
	if ci == "" {
		b.originalCreditorID = nil
		return nil
	}
	if !RestrictedPersonIdentifierSEPA(ci) {
		return fieldError("originalCreditorId", ci, "the value for the original creditor identifier is not valid")
	}
	b.originalCreditorID = &ci
	return nil
}

// SetOriginalCreditorName records the creditor name used when the mandate
// was signed. An empty value clears it.
func (b *Batch) SetOriginalCreditorName(name string) error {
	if name == "" {
		b.originalCreditorName = nil
		return nil
	}
	if err := checkName("originalCreditorName", name); err != nil {
		return err
	}
	b.originalCreditorName = &name
	return nil
}

// SetOriginalCreditorNameAutofixed is the sanitizing variant of
// SetOriginalCreditorName. A value with nothing left after sanitizing clears
// the field.
func (b *Batch) SetOriginalCreditorNameAutofixed(name string) error {
	fixed := autofixName(name)
	if fixed == "" {
		b.originalCreditorName = nil
		return nil
	}
	b.originalCreditorName = &fixed
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// AddTransaction appends tx. It must have been created for this batch.
func (b *Batch) AddTransaction(tx *Transaction) error {
	return b.AddTransactions(tx)
}

// AddTransactions appends all of txs or none of them.
func (b *Batch) AddTransactions(txs ...*Transaction) error {
	if err := b.checkAttachable(b.transactions, txs); err != nil {
		return err
	}
	b.transactions = append(b.transactions, txs...)
	return nil
}

// SetTransactions replaces the transaction list, all or nothing.
func (b *Batch) SetTransactions(txs []*Transaction) error {
	if err := b.checkAttachable(nil, txs); err != nil {
		return err
	}
	b.transactions = append([]*Transaction(nil), txs...)
	return nil
}

func (b *Batch) checkAttachable(existing, txs []*Transaction) error {
	seen := make(map[*Transaction]bool, len(existing)+len(txs))
	for _, tx := range existing {
		seen[tx] = true
	}

	for _, tx := range txs {
		if tx == nil {
			return &TypeConstraintError{Relation: "batch.transactions", Message: "only transactions can be added"}
		}
		if tx.owner.ID() != b.id {
			return &TypeConstraintError{Relation: "batch.transactions", Message: "transaction belongs to a different batch"}
		}
		if seen[tx] {
			return &TypeConstraintError{Relation: "batch.transactions", Message: "transaction is already part of the batch"}
		}
		seen[tx] = true

		if tx.debtorBankChanged && b.sequenceType != SequenceFirst {
			return fieldError("sequenceType", string(b.sequenceType),
				"for a debtor with changed bank account the sequenceType must be FRST (transaction %s)", tx.endToEndID)
		}
	}

	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// ID identifies the batch for the ownership check on transactions.
func (b *Batch) ID() uuid.UUID { return b.id }

// AccountValidator returns the validator consulted for IBANs and BICs.
func (b *Batch) AccountValidator() AccountValidator { return b.accounts }

// MessageID returns the group header message id.
func (b *Batch) MessageID() string { return b.messageID }

// PaymentID returns the payment information id.
func (b *Batch) PaymentID() string { return b.paymentID }

// InitiatorName returns the creditor name.
func (b *Batch) InitiatorName() string { return b.initiatorName }

// LocalInstrument returns the scheme.
func (b *Batch) LocalInstrument() LocalInstrument { return b.localInstrument }

// SequenceType returns the sequence type of every transaction in the batch.
func (b *Batch) SequenceType() SequenceType { return b.sequenceType }

// CollectionDate returns the requested collection date as YYYY-MM-DD.
func (b *Batch) CollectionDate() string { return b.collectionDate }

// CreditorIBAN returns the creditor account.
func (b *Batch) CreditorIBAN() string { return b.creditorIBAN }

// CreditorBIC returns the creditor bank's BIC.
func (b *Batch) CreditorBIC() string { return b.creditorBIC }

// CreditorIdentifier returns the SEPA creditor identifier.
func (b *Batch) CreditorIdentifier() string { return b.creditorID }

// OriginalCreditorName returns the previous creditor name, if any.
func (b *Batch) OriginalCreditorName() (string, bool) {
	if b.originalCreditorName == nil {
		return "", false
	}
	return *b.originalCreditorName, true
}

// OriginalCreditorID returns the previous creditor identifier, if any.
func (b *Batch) OriginalCreditorID() (string, bool) {
	if b.originalCreditorID == nil {
		return "", false
	}
	return *b.originalCreditorID, true
}

// CreditorIdentityChanged reports whether the creditor's name or identifier
// changed since the mandates were signed.
func (b *Batch) CreditorIdentityChanged() bool {
	return b.originalCreditorName != nil || b.originalCreditorID != nil
}

// Transactions returns the transactions in emission order. The slice is a
// copy; the transactions are shared.
func (b *Batch) Transactions() []*Transaction {
	return append([]*Transaction(nil), b.transactions...)
}

// NumberOfTransactions returns the transaction count.
func (b *Batch) NumberOfTransactions() int {
	return len(b.transactions)
}

// ControlSum is the exact sum of all transaction amounts.
func (b *Batch) ControlSum() decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range b.transactions {
		sum = sum.Add(tx.AmountDecimal())
	}
	return sum
}

// =============================================================================
// COMPLETENESS
// =============================================================================

// Validate reports every required field that was never set. The returned
// error matches both ErrIncompleteBatch and *AggregateValidationError.
func (b *Batch) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"messageId", b.messageID},
		{"paymentId", b.paymentID},
		{"name", b.initiatorName},
		{"localInstrument", string(b.localInstrument)},
		{"sequenceType", string(b.sequenceType)},
		{"collectionDate", b.collectionDate},
		{"creditorIban", b.creditorIBAN},
		{"creditorBic", b.creditorBIC},
		{"creditorIdentifier", b.creditorID},
	}

	var errs []error
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fieldError(r.field, "", "the field is required"))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrIncompleteBatch, &AggregateValidationError{Errors: errs})
	}

	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func checkName(field, name string) error {
	if !Max70Text(name) {
		return fieldError(field, name, "the %s must not be empty or longer than 70 characters", field)
	}
	if !Text(name) {
		return fieldError(field, name, "the %s is not a valid value", field)
	}
	return nil
}

func autofixName(name string) string {
	return truncate(ConvertText(name), 70)
}
