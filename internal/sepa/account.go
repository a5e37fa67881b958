package sepa

import "strings"

// AccountValidator performs the semantic bank account checks that are out of
// reach of a grammar: IBAN checksum, bank registry lookups and similar.
type AccountValidator interface {
	ValidateIBAN(iban string) bool
	ValidateBIC(bic string) bool
}

// normalizeAccount strips all whitespace and uppercases an IBAN or BIC.
func normalizeAccount(s string) string {
	return strings.ToUpper(stripSpaces(s))
}

// stripSpaces removes every whitespace character from s.
func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// checkIBAN runs the IBAN grammar first and the account validator second.
func checkIBAN(accounts AccountValidator, field, iban string) error {
	if !IBAN2007Identifier(iban) || !accounts.ValidateIBAN(iban) {
		return fieldError(field, iban, "the value for %s is not a valid IBAN", field)
	}
	return nil
}

// checkBIC runs the BIC grammar first and the account validator second.
func checkBIC(accounts AccountValidator, field, bic string) error {
	if !BICIdentifier(bic) || !accounts.ValidateBIC(bic) {
		return fieldError(field, bic, "the value for %s is not a valid BIC", field)
	}
	return nil
}

// grammarOnly accepts every account that already matched the grammar.
type grammarOnly struct{}

// ValidateIBAN accepts every IBAN.
func (grammarOnly) ValidateIBAN(string) bool { return true }

// ValidateBIC accepts every BIC.
func (grammarOnly) ValidateBIC(string) bool { return true }
