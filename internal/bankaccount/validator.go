// =============================================================================
// Bank Account Validator
// =============================================================================
//
// Validator is the default AccountValidator used by the converter. It goes
// beyond the IBAN and BIC grammar that the sepa package checks on its own:
//
//   - IBAN length per SEPA country
//   - ISO 7064 MOD 97-10 check digits (optional)
//   - country allow-list for both IBAN and BIC (optional)
//
// It does not consult any bank directory.
//
// =============================================================================

package bankaccount

import (
	"strings"

	"github.com/ginjaninja78/sepa-direct-debit/internal/sepa"
)

// Config selects the optional checks.
type Config struct {
	// VerifyChecksum enables the MOD 97-10 check.
	VerifyChecksum bool `yaml:"verify_checksum"`

	// AllowedCountries restricts IBAN and BIC country codes. Empty allows
	// every country.
	AllowedCountries []string `yaml:"allowed_countries"`
}

// Validator implements sepa.AccountValidator.
type Validator struct {
	verifyChecksum bool
	allowed        map[string]bool
}

var _ sepa.AccountValidator = (*Validator)(nil)

// ibanLengths lists the IBAN length of every SEPA country.
var ibanLengths = map[string]int{
	"AD": 24, "AT": 20, "BE": 16, "BG": 22, "CH": 21, "CY": 28, "CZ": 24,
	"DE": 22, "DK": 18, "EE": 20, "ES": 24, "FI": 18, "FR": 27, "GB": 22,
	"GI": 23, "GR": 27, "HR": 21, "HU": 28, "IE": 22, "IS": 26, "IT": 27,
	"LI": 21, "LT": 20, "LU": 20, "LV": 21, "MC": 27, "MT": 31, "NL": 18,
	"NO": 15, "PL": 28, "PT": 25, "RO": 24, "SE": 24, "SI": 19, "SK": 24,
	"SM": 27, "VA": 22,
}

// New creates a Validator from cfg.
func New(cfg Config) *Validator {
	v := &Validator{verifyChecksum: cfg.VerifyChecksum}

	if len(cfg.AllowedCountries) > 0 {
		v.allowed = make(map[string]bool, len(cfg.AllowedCountries))
		for _, c := range cfg.AllowedCountries {
			v.allowed[strings.ToUpper(strings.TrimSpace(c))] = true
		}
	}

	return v
}

// ValidateIBAN expects a normalized IBAN: uppercase, no spaces.
func (v *Validator) ValidateIBAN(iban string) bool {
	if !sepa.IBAN2007Identifier(iban) {
		return false
	}

	country := iban[:2]
	if !v.countryAllowed(country) {
		return false
	}

	if want, ok := ibanLengths[country]; ok && len(iban) != want {
		return false
	}

	if v.verifyChecksum && !ValidChecksum(iban) {
		return false
	}

	return true
}

// ValidateBIC checks the BIC grammar and the country allow-list.
func (v *Validator) ValidateBIC(bic string) bool {
	if !sepa.BICIdentifier(bic) {
		return false
	}
	return v.countryAllowed(bic[4:6])
}

func (v *Validator) countryAllowed(country string) bool {
	if v.allowed == nil {
		return true
	}
	return v.allowed[country]
}

// ValidChecksum reports whether the IBAN check digits are correct under
// ISO 7064 MOD 97-10.
func ValidChecksum(iban string) bool {
	if len(iban) < 5 {
		return false
	}

	rearranged := iban[4:] + iban[:4]

	remainder := 0
	for _, r := range rearranged {
		switch {
		case r >= '0' && r <= '9':
			remainder = (remainder*10 + int(r-'0')) % 97
		case r >= 'A' && r <= 'Z':
			value := int(r-'A') + 10
			remainder = (remainder*100 + value) % 97
		default:
			return false
		}
	}

	return remainder == 1
}
