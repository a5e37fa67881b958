// =============================================================================
// SEPA Direct Debit - Field Rules
// =============================================================================
//
// This file holds the field-level grammar of the SEPA rulebook for pain.008.
// Every rule is a pure predicate: it takes the raw value and reports whether
// the value is acceptable. Rules never mutate or normalize their input; the
// setters on Batch and Transaction normalize first (trim, uppercase, strip
// spaces) and then ask the rule.
//
// CHARACTER SETS:
//   restricted  : A-Z a-z 0-9 + ? / - : ( ) . , ' space
//   restricted2 : the restricted set without space
//   text        : the restricted set plus Ö Ä Ü ö ä ü ß & * $ %
//
// LENGTHS:
//   Lengths are counted in characters, not bytes, so an umlaut counts once.
//
// =============================================================================

package sepa

import (
	"regexp"
	"time"
	"unicode/utf8"
)

const (
	isoDateLayout = "2006-01-02"

	restrictedChars  = `A-Za-z0-9+?/\-:().,' `
	restricted2Chars = `A-Za-z0-9+?/\-:().,'`
	textChars        = restrictedChars + `ÖÄÜöäüß&*$%`
)

var (
	restrictedSEPA1Pattern = regexp.MustCompile(`^[` + restrictedChars + `]{1,35}$`)
	restrictedSEPA2Pattern = regexp.MustCompile(`^[` + restricted2Chars + `]{1,35}$`)
	textPattern            = regexp.MustCompile(`^[` + textChars + `]*$`)
	textSanitizer          = regexp.MustCompile(`[^` + textChars + `]`)
	personIDPattern        = regexp.MustCompile(`^[a-zA-Z]{2}[0-9]{2}[` + restricted2Chars + `]{3}[` + restricted2Chars + `]{1,28}$`)

	bicPattern      = regexp.MustCompile(`^[A-Z]{6}[A-Z2-9][A-NP-Z0-9]([A-Z0-9]{3})?$`)
	ibanPattern     = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[a-zA-Z0-9]{1,30}$`)
	countryPattern  = regexp.MustCompile(`^[A-Z]{2}$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
	amountPattern   = regexp.MustCompile(`^\d+\.\d{2}$`)
	numeric15       = regexp.MustCompile(`^[0-9]{1,15}$`)
	decimalTime     = regexp.MustCompile(`^[0-9]{9}$`)

	isoDatePattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	isoDateTimePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`)
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// RestrictedIdentificationSEPA1 accepts 1-35 characters of the restricted
// set, space included. Used for message, payment and end-to-end ids.
func RestrictedIdentificationSEPA1(s string) bool {
	return restrictedSEPA1Pattern.MatchString(s)
}

// RestrictedIdentificationSEPA2 is RestrictedIdentificationSEPA1 without the
// space character. Used for mandate ids.
func RestrictedIdentificationSEPA2(s string) bool {
	return restrictedSEPA2Pattern.MatchString(s)
}

// RestrictedPersonIdentifierSEPA checks a creditor identifier: country code,
// two check digits, a three character business code and a national id of at
// most 28 characters.
func RestrictedPersonIdentifierSEPA(s string) bool {
	return personIDPattern.MatchString(s)
}

// BICIdentifier accepts an 8 or 11 character BIC.
func BICIdentifier(s string) bool {
	return bicPattern.MatchString(s)
}

// AnyBICIdentifier is the same grammar as BICIdentifier.
func AnyBICIdentifier(s string) bool {
	return BICIdentifier(s)
}

// IBAN2007Identifier checks the shape of an IBAN only. Checksum and registry
// checks belong to the AccountValidator.
func IBAN2007Identifier(s string) bool {
	return ibanPattern.MatchString(s)
}

// CountryCode accepts a two-letter upper-case country code.
func CountryCode(s string) bool {
	return countryPattern.MatchString(s)
}

// =============================================================================
// TEXT
// =============================================================================

// Text reports whether every character of s is in the SEPA text set. It does
// not check length; combine it with MaxText.
func Text(s string) bool {
	return textPattern.MatchString(s)
}

// MaxText reports whether s has between 1 and n characters. The empty string
// is never valid: optional fields must be represented as absent.
func MaxText(s string, n int) bool {
	l := utf8.RuneCountInString(s)
	return l > 0 && l <= n
}

// Max35Text is MaxText with a limit of 35.
func Max35Text(s string) bool { return MaxText(s, 35) }

// Max70Text is MaxText with a limit of 70.
func Max70Text(s string) bool { return MaxText(s, 70) }

// Max140Text is MaxText with a limit of 140.
func Max140Text(s string) bool { return MaxText(s, 140) }

// Max1025Text is MaxText with a limit of 1025.
func Max1025Text(s string) bool { return MaxText(s, 1025) }

// Max15NumericText accepts 1 to 15 digits.
func Max15NumericText(s string) bool {
	return numeric15.MatchString(s)
}

// DecimalTime accepts exactly nine digits.
func DecimalTime(s string) bool {
	return decimalTime.MatchString(s)
}

// ConvertText removes every character outside the SEPA text set. It is a
// sanitizer, not a validator: the result may still be empty or too long.
func ConvertText(s string) string {
	return textSanitizer.ReplaceAllString(s, "")
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// =============================================================================
// DATES, AMOUNTS AND CURRENCIES
// =============================================================================

// ISODate accepts YYYY-MM-DD only when it names a real calendar day, so
// 2021-02-30 is rejected even though it has the right shape.
func ISODate(s string) bool {
	if !isoDatePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(isoDateLayout, s)
	return err == nil
}

// ISODateTime accepts an ISO 8601 timestamp with Z or a numeric offset.
func ISODateTime(s string) bool {
	if !isoDateTimePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(time.RFC3339Nano, s)
	return err == nil
}

// AmountSEPA accepts a non-negative amount with exactly two decimals and no
// thousands separators.
func AmountSEPA(s string) bool {
	return amountPattern.MatchString(s)
}

// ActiveOrHistoricCurrencyCode accepts a three-letter upper-case currency code.
func ActiveOrHistoricCurrencyCode(s string) bool {
	return currencyPattern.MatchString(s)
}

// ActiveOrHistoricCurrencyCodeEUR accepts only EUR.
func ActiveOrHistoricCurrencyCodeEUR(s string) bool {
	return s == "EUR"
}

// =============================================================================
// CODE LISTS
// =============================================================================

// SequenceType1Code accepts FRST, RCUR, OOFF and FNAL.
func SequenceType1Code(s string) bool {
	return SequenceType(s).Valid()
}

// ExternalLocalInstrument1Code accepts CORE, COR1 and B2B.
func ExternalLocalInstrument1Code(s string) bool {
	return LocalInstrument(s).Valid()
}

// ChargeBearerTypeSEPACode accepts SLEV.
func ChargeBearerTypeSEPACode(s string) bool {
	return ChargeBearer(s).Valid()
}

// TransactionGroupStatus1CodeSEPA accepts RJCT.
func TransactionGroupStatus1CodeSEPA(s string) bool {
	return GroupStatus(s).Valid()
}
