package sepa

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRestrictedIdentification(t *testing.T) {
	tests := []struct {
		name  string
		input string
		sepa1 bool
		sepa2 bool
	}{
		{name: "plain", input: "MSG-2024-001", sepa1: true, sepa2: true},
		{name: "with space", input: "MSG 1", sepa1: true, sepa2: false},
		{name: "all punctuation", input: "+?/-:().,'", sepa1: true, sepa2: true},
		{name: "empty", input: "", sepa1: false, sepa2: false},
		{name: "35 chars", input: strings.Repeat("A", 35), sepa1: true, sepa2: true},
		{name: "36 chars", input: strings.Repeat("A", 36), sepa1: false, sepa2: false},
		{name: "hash", input: "Mandat#1", sepa1: false, sepa2: false},
		{name: "umlaut", input: "Müller", sepa1: false, sepa2: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.sepa1, RestrictedIdentificationSEPA1(tt.input))
			assert.Equal(t, tt.sepa2, RestrictedIdentificationSEPA2(tt.input))
		})
	}
}

func TestRestrictedPersonIdentifierSEPA(t *testing.T) {
	assert.True(t, RestrictedPersonIdentifierSEPA("DE98ZZZ09999999999"))
	assert.True(t, RestrictedPersonIdentifierSEPA("AT61ZZZ01234567890"))
	assert.False(t, RestrictedPersonIdentifierSEPA("D98ZZZ09999999999"))
	assert.False(t, RestrictedPersonIdentifierSEPA("DEXXZZZ09999999999"))
	assert.False(t, RestrictedPersonIdentifierSEPA("DE98ZZZ"))
	assert.False(t, RestrictedPersonIdentifierSEPA("DE98ZZZ 0999999999"))
	assert.False(t, RestrictedPersonIdentifierSEPA("DE98ZZZ"+strings.Repeat("1", 29)))
}

func TestBICIdentifier(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"BELADEBE", true},
		{"BELADEBEXXX", true},
		{"HASPDEHHXXX", true},
		{"COBADEFF370", true},
		{"BELADEB", false},
		{"BELADEBEXX", false},
		{"BELADE1E", false},
		{"BELADEBO", false},
		{"beladebe", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, BICIdentifier(tt.input))
			assert.Equal(t, tt.want, AnyBICIdentifier(tt.input))
		})
	}
}

func TestIBAN2007Identifier(t *testing.T) {
	assert.True(t, IBAN2007Identifier("DE87200500001234567890"))
	assert.True(t, IBAN2007Identifier("NO9386011117947"))
	assert.False(t, IBAN2007Identifier("de87200500001234567890"))
	assert.False(t, IBAN2007Identifier("DE8720050000123456789O1234567890123"))
	assert.False(t, IBAN2007Identifier("DE87 2005 0000 1234 5678 90"))
	assert.False(t, IBAN2007Identifier("DE"))
}

func TestCountryAndCurrency(t *testing.T) {
	assert.True(t, CountryCode("DE"))
	assert.False(t, CountryCode("de"))
	assert.False(t, CountryCode("DEU"))

	assert.True(t, ActiveOrHistoricCurrencyCode("EUR"))
	assert.True(t, ActiveOrHistoricCurrencyCode("CHF"))
	assert.False(t, ActiveOrHistoricCurrencyCode("eur"))
	assert.False(t, ActiveOrHistoricCurrencyCode("EURO"))

	assert.True(t, ActiveOrHistoricCurrencyCodeEUR("EUR"))
	assert.False(t, ActiveOrHistoricCurrencyCodeEUR("CHF"))
}

func TestText(t *testing.T) {
	assert.True(t, Text("Zahlung für März & Co."))
	assert.True(t, Text("100% * $"))
	assert.True(t, Text(""))
	assert.False(t, Text("5€"))
	assert.False(t, Text("line\nbreak"))
	assert.False(t, Text("Ça va"))
}

func TestMaxText(t *testing.T) {
	assert.False(t, MaxText("", 10))
	assert.True(t, MaxText("a", 1))
	assert.False(t, MaxText("ab", 1))

	assert.True(t, Max70Text(strings.Repeat("ä", 70)), "umlauts count as one character")
	assert.False(t, Max70Text(strings.Repeat("a", 71)))
	assert.True(t, Max35Text(strings.Repeat("a", 35)))
	assert.False(t, Max35Text(strings.Repeat("a", 36)))
	assert.True(t, Max140Text(strings.Repeat("a", 140)))
	assert.False(t, Max140Text(strings.Repeat("a", 141)))
	assert.True(t, Max1025Text(strings.Repeat("a", 1025)))
	assert.False(t, Max1025Text(strings.Repeat("a", 1026)))
}

func TestNumericRules(t *testing.T) {
	assert.True(t, Max15NumericText("123456789012345"))
	assert.False(t, Max15NumericText("1234567890123456"))
	assert.False(t, Max15NumericText(""))
	assert.False(t, Max15NumericText("12a"))

	assert.True(t, DecimalTime("123456789"))
	assert.False(t, DecimalTime("12345678"))
	assert.False(t, DecimalTime("1234567890"))
}

func TestConvertText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Max Mustermann", "Max Mustermann"},
		{"Müller & Söhne GmbH – Köln!", "Müller & Söhne GmbH  Köln"},
		{"<script>", "script"},
		{"€€€", ""},
	}

	for _, tt := range tests {
		got := ConvertText(tt.input)
		assert.Equal(t, tt.want, got)
		assert.True(t, Text(got))
	}
}

func TestISODate(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"2024-01-15", true},
		{"2024-02-29", true},
		{"2023-02-29", false},
		{"2021-02-30", false},
		{"2021-13-01", false},
		{"2021-1-01", false},
		{"15.01.2024", false},
		{"2024-01-15T00:00:00Z", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ISODate(tt.input))
		})
	}
}

func TestISODateTime(t *testing.T) {
	assert.True(t, ISODateTime("2024-01-15T10:00:00Z"))
	assert.True(t, ISODateTime("2024-01-15T10:00:00+01:00"))
	assert.True(t, ISODateTime("2024-01-15T10:00:00.123Z"))
	assert.False(t, ISODateTime("2024-01-15T10:00:00"))
	assert.False(t, ISODateTime("2024-01-15T25:00:00Z"))
	assert.False(t, ISODateTime("2024-01-15"))
}

func TestAmountSEPA(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1.00", true},
		{"0.01", true},
		{"1000000.00", true},
		{"1", false},
		{"1.0", false},
		{"1.000", false},
		{"1,00", false},
		{"1,000.00", false},
		{"-1.00", false},
		{" 1.00", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, AmountSEPA(tt.input))
		})
	}
}

func TestCodeLists(t *testing.T) {
	for _, code := range []string{"FRST", "RCUR", "OOFF", "FNAL"} {
		assert.True(t, SequenceType1Code(code), code)
	}
	assert.False(t, SequenceType1Code("frst"))
	assert.False(t, SequenceType1Code(""))

	for _, code := range []string{"CORE", "COR1", "B2B"} {
		assert.True(t, ExternalLocalInstrument1Code(code), code)
	}
	assert.False(t, ExternalLocalInstrument1Code("COR2"))

	assert.True(t, ChargeBearerTypeSEPACode("SLEV"))
	assert.True(t, ChargeBearerTypeSEPACode("SCOR"))
	assert.False(t, ChargeBearerTypeSEPACode("SHAR"))

	assert.True(t, TransactionGroupStatus1CodeSEPA("RJCT"))
	assert.False(t, TransactionGroupStatus1CodeSEPA("ACCP"))
}

func TestParseCodes(t *testing.T) {
	seq, err := ParseSequenceType("RCUR")
	assert.NoError(t, err)
	assert.Equal(t, SequenceRecurring, seq)

	_, err = ParseSequenceType("XXXX")
	var fe *FieldValidationError
	assert.ErrorAs(t, err, &fe)
	assert.Equal(t, "sequenceType", fe.Field)

	instrument, err := ParseLocalInstrument("B2B")
	assert.NoError(t, err)
	assert.Equal(t, InstrumentB2B, instrument)

	_, err = ParseLocalInstrument("core")
	assert.Error(t, err)
}
