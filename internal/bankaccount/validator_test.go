package bankaccount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sepa-direct-debit/internal/sepa"
)

func TestValidChecksum(t *testing.T) {
	valid := []string{
		"DE87200500001234567890",
		"DE21500500009876543210",
		"DE21500500001234567897",
		"DE89370400440532013000",
		"DE02120300000000202051",
		"GB82WEST12345698765432",
		"NO9386011117947",
	}
	for _, iban := range valid {
		assert.True(t, ValidChecksum(iban), iban)
	}

	invalid := []string{
		"DE88200500001234567890",
		"DE87200500001234567891",
		"GB82WEST12345698765431",
		"DE8",
		"DE87-2005",
	}
	for _, iban := range invalid {
		assert.False(t, ValidChecksum(iban), iban)
	}
}

func TestValidator_ValidateIBAN(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		iban string
		want bool
	}{
		{"grammar and length", Config{}, "DE88200500001234567890", true},
		{"checksum enabled", Config{VerifyChecksum: true}, "DE88200500001234567890", false},
		{"checksum passes", Config{VerifyChecksum: true}, "DE87200500001234567890", true},
		{"wrong length for country", Config{}, "DE8720050000123456789", false},
		{"unknown country skips length", Config{}, "XK051212012345678906", true},
		{"country allowed", Config{AllowedCountries: []string{"de", "AT"}}, "DE87200500001234567890", true},
		{"country not allowed", Config{AllowedCountries: []string{"AT"}}, "DE87200500001234567890", false},
		{"bad grammar", Config{}, "D87200500001234567890", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(tt.cfg)
			assert.Equal(t, tt.want, v.ValidateIBAN(tt.iban))
		})
	}
}

func TestValidator_ValidateBIC(t *testing.T) {
	open := New(Config{})
	assert.True(t, open.ValidateBIC("COBADEFFXXX"))
	assert.True(t, open.ValidateBIC("BKAUATWW"))
	assert.False(t, open.ValidateBIC("COBADE"))

	restricted := New(Config{AllowedCountries: []string{"AT"}})
	assert.False(t, restricted.ValidateBIC("COBADEFFXXX"))
	assert.True(t, restricted.ValidateBIC("BKAUATWW"))
}

func TestValidator_WithBatch(t *testing.T) {
	b := sepa.NewBatch(New(Config{VerifyChecksum: true}))

	require.NoError(t, b.SetCreditorIBAN("DE89 3704 0044 0532 0130 00"))

	err := b.SetCreditorIBAN("DE89370400440532013001")
	var fe *sepa.FieldValidationError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "creditorIban", fe.Field)
	assert.Equal(t, "DE89370400440532013000", b.CreditorIBAN())
}
