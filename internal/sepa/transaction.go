package sepa

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Owner is the read-only view a Transaction has of the batch it belongs to.
// *Batch implements it.
type Owner interface {
	ID() uuid.UUID
	SequenceType() SequenceType
	CreditorIdentityChanged() bool
	AccountValidator() AccountValidator
}

// TransactionInput carries the raw values for NewTransaction. Empty optional
// fields stay absent. An empty Currency defaults to EUR.
type TransactionInput struct {
	EndToEndID            string
	MandateID             string
	MandateDate           string
	DebtorName            string
	DebtorIBAN            string
	DebtorBIC             string
	Amount                string
	Currency              string
	RemittanceInfo        string
	OriginalMandateID     string
	OriginalDebtorAccount string
	DebtorBankChanged     bool
}

// Transaction is a single direct debit line item.
type Transaction struct {
	owner Owner

	endToEndID     string
	amount         string
	currency       string
	mandateID      string
	mandateDate    string
	debtorName     string
	debtorIBAN     string
	debtorBIC      string
	remittanceInfo string

	originalMandateID     *string
	originalDebtorAccount *string
	debtorBankChanged     bool
}

// NewTransaction validates every field of in and returns the transaction, or
// the first field error. The debtor name is sanitized before it is checked.
func NewTransaction(owner Owner, in TransactionInput) (*Transaction, error) {
	if owner == nil {
		return nil, &TypeConstraintError{Relation: "transaction.owner", Message: "a transaction needs a batch"}
	}
	if b, ok := owner.(*Batch); ok && b == nil {
		return nil, &TypeConstraintError{Relation: "transaction.owner", Message: "a transaction needs a batch"}
	}

	currency := in.Currency
	if currency == "" {
		currency = "EUR"
	}

	tx := &Transaction{owner: owner}

	steps := []func() error{
		func() error { return tx.SetEndToEndID(in.EndToEndID) },
		func() error { return tx.SetMandateID(in.MandateID) },
		func() error { return tx.SetMandateDate(in.MandateDate) },
		func() error { return tx.SetDebtorNameAutofixed(in.DebtorName) },
		func() error { return tx.SetDebtorIBAN(in.DebtorIBAN) },
		func() error { return tx.SetDebtorBIC(in.DebtorBIC) },
		func() error { return tx.SetAmount(in.Amount) },
		func() error { return tx.SetCurrency(currency) },
		func() error { return tx.SetRemittanceInfo(in.RemittanceInfo) },
		func() error { return tx.SetOriginalMandateID(in.OriginalMandateID) },
		func() error { return tx.SetOriginalDebtorAccount(in.OriginalDebtorAccount) },
		func() error { return tx.SetDebtorBankChanged(in.DebtorBankChanged) },
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	return tx, nil
}

// =============================================================================
// SETTERS
// =============================================================================

// SetEndToEndID sets the id passed through to the debtor.
func (t *Transaction) SetEndToEndID(id string) error {
	if !RestrictedIdentificationSEPA1(id) {
		return fieldError("endToEndId", id, "the end-to-end id is not a valid value")
	}
	t.endToEndID = id
	return nil
}

// SetMandateID strips all whitespace before validating.
func (t *Transaction) SetMandateID(id string) error {
	id = stripSpaces(id)
	if !RestrictedIdentificationSEPA2(id) {
		return fieldError("mandateId", id, "the mandate id is not a valid value")
	}
	t.mandateID = id
	return nil
}

// SetMandateDate sets the date the mandate was signed.
func (t *Transaction) SetMandateDate(date string) error {
	date = stripSpaces(date)
	if !ISODate(date) {
		return fieldError("mandateDate", date, "the mandate date is not a valid date")
	}
	t.mandateDate = date
	return nil
}

// SetDebtorName sets the debtor name exactly as given.
func (t *Transaction) SetDebtorName(name string) error {
	if err := checkName("debtorName", name); err != nil {
		return err
	}
	t.debtorName = name
	return nil
}

// SetDebtorNameAutofixed drops characters outside the SEPA text set and then
// applies the same checks as SetDebtorName. Unlike the creditor names the
// debtor name is not cut, so a name that is still over 70 characters fails.
func (t *Transaction) SetDebtorNameAutofixed(name string) error {
	return t.SetDebtorName(ConvertText(name))
}

// SetDebtorIBAN sets the account to debit.
func (t *Transaction) SetDebtorIBAN(iban string) error {
	iban = normalizeAccount(iban)
	if err := checkIBAN(t.owner.AccountValidator(), "debtorIban", iban); err != nil {
		return err
	}
	t.debtorIBAN = iban
	return nil
}

// SetDebtorBIC sets the BIC of the debtor's bank.
func (t *Transaction) SetDebtorBIC(bic string) error {
	bic = normalizeAccount(bic)
	if err := checkBIC(t.owner.AccountValidator(), "debtorBic", bic); err != nil {
		return err
	}
	t.debtorBIC = bic
	return nil
}

// SetAmount takes a decimal string with exactly two fraction digits, e.g.
// "12.50". Surrounding whitespace is ignored.
func (t *Transaction) SetAmount(amount string) error {
	amount = strings.TrimSpace(amount)
	if !AmountSEPA(amount) {
		return fieldError("amount", amount, "the amount needs two decimals and a dot as separator")
	}
	t.amount = amount
	return nil
}

// SetAmountDecimal formats d with two decimals. Values that would need
// rounding are rejected.
func (t *Transaction) SetAmountDecimal(d decimal.Decimal) error {
	if d.IsNegative() {
		return fieldError("amount", d.String(), "the amount must not be negative")
	}
	if !d.Equal(d.Round(2)) {
		return fieldError("amount", d.String(), "the amount has more than two decimals")
	}
	return t.SetAmount(d.StringFixed(2))
}

// SetCurrency sets the ISO 4217 currency of the amount.
func (t *Transaction) SetCurrency(currency string) error {
	currency = stripSpaces(currency)
	if !ActiveOrHistoricCurrencyCode(currency) {
		return fieldError("currency", currency, "the currency is not a valid ISO 4217 code")
	}
	t.currency = currency
	return nil
}

// SetRemittanceInfo sets the unstructured remittance text.
func (t *Transaction) SetRemittanceInfo(info string) error {
	if !Max140Text(info) {
		return fieldError("remittanceInformation", info, "the remittance information must not be empty or longer than 140 characters")
	}
	if !Text(info) {
		return fieldError("remittanceInformation", info, "the remittance information is not a valid value")
	}
	t.remittanceInfo = info
	return nil
}

// SetOriginalMandateID records the mandate id before an amendment. An empty
// value clears it.
func (t *Transaction) SetOriginalMandateID(id string) error {
	id = stripSpaces(id)
	if id == "" {
		t.originalMandateID = nil
		return nil
	}
	if !RestrictedIdentificationSEPA2(id) {
		return fieldError("originalMandateId", id, "the original mandate id is not a valid value")
	}
	t.originalMandateID = &id
	return nil
}

// SetOriginalDebtorAccount records the debtor IBAN before an amendment
// within the same bank. An empty value clears it.
func (t *Transaction) SetOriginalDebtorAccount(iban string) error {
	iban = normalizeAccount(iban)
	if iban == "" {
		t.originalDebtorAccount = nil
		return nil
	}
	if err := checkIBAN(t.owner.AccountValidator(), "originalDebtorAccount", iban); err != nil {
		return err
	}
	t.originalDebtorAccount = &iban
	return nil
}

// SetDebtorBankChanged flags that the debtor moved to another bank since the
// last collection. Setting it requires the owning batch to be FRST.
func (t *Transaction) SetDebtorBankChanged(changed bool) error {
	if changed {
		if seq := t.owner.SequenceType(); seq != SequenceFirst {
			return fieldError("sequenceType", string(seq),
				"for a debtor with changed bank account the sequenceType must be FRST")
		}
	}
	t.debtorBankChanged = changed
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// OwnerID returns the id of the owning batch.
func (t *Transaction) OwnerID() uuid.UUID { return t.owner.ID() }

// EndToEndID returns the end-to-end id.
func (t *Transaction) EndToEndID() string { return t.endToEndID }

// Amount returns the amount with two decimals.
func (t *Transaction) Amount() string { return t.amount }

// Currency returns the currency code.
func (t *Transaction) Currency() string { return t.currency }

// MandateID returns the mandate reference.
func (t *Transaction) MandateID() string { return t.mandateID }

// MandateDate returns the mandate signature date.
func (t *Transaction) MandateDate() string { return t.mandateDate }

// DebtorName returns the debtor name.
func (t *Transaction) DebtorName() string { return t.debtorName }

// DebtorIBAN returns the debtor account.
func (t *Transaction) DebtorIBAN() string { return t.debtorIBAN }

// DebtorBIC returns the debtor bank's BIC.
func (t *Transaction) DebtorBIC() string { return t.debtorBIC }

// RemittanceInfo returns the remittance text.
func (t *Transaction) RemittanceInfo() string { return t.remittanceInfo }

// DebtorBankChanged reports whether the debtor moved to another bank.
func (t *Transaction) DebtorBankChanged() bool { return t.debtorBankChanged }

// AmountDecimal returns the amount as an exact decimal.
func (t *Transaction) AmountDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(t.amount)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// OriginalMandateID returns the previous mandate id, if one was set.
func (t *Transaction) OriginalMandateID() (string, bool) {
	if t.originalMandateID == nil {
		return "", false
	}
	return *t.originalMandateID, true
}

// OriginalDebtorAccount returns the previous debtor IBAN, if one was set.
func (t *Transaction) OriginalDebtorAccount() (string, bool) {
	if t.originalDebtorAccount == nil {
		return "", false
	}
	return *t.originalDebtorAccount, true
}

// AmendmentIndicator reports whether the mandate changed since it was signed
// and the amendment details must be sent along.
func (t *Transaction) AmendmentIndicator() bool {
	return t.originalMandateID != nil ||
		t.originalDebtorAccount != nil ||
		t.owner.CreditorIdentityChanged() ||
		t.debtorBankChanged
}
