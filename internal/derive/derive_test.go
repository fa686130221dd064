package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitName(t *testing.T) {
	tests := []struct {
		name      string
		policy    NamePolicy
		input     string
		wantFirst string
		wantLast  string
	}{
		{"first token", NameFirstToken, "Jane Doe", "Jane", "Doe"},
		{"first token multi", NameFirstToken, "  Jane  van der Berg ", "Jane", "van der Berg"},
		{"first token single", NameFirstToken, "Cher", "Cher", ""},
		{"first token empty", NameFirstToken, "   ", "", ""},
		{"full as last", NameFullAsLast, "Jane Doe", "", "Jane Doe"},
		{"full as last trims", NameFullAsLast, " Jane Doe ", "", "Jane Doe"},
		{"full as last empty", NameFullAsLast, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := SplitName(tt.policy, tt.input)
			assert.Equal(t, tt.wantFirst, first)
			assert.Equal(t, tt.wantLast, last)
		})
	}
}

func TestParseNamePolicy(t *testing.T) {
	p, err := ParseNamePolicy("first-token")
	require.NoError(t, err)
	assert.Equal(t, NameFirstToken, p)

	p, err = ParseNamePolicy("")
	require.NoError(t, err)
	assert.Equal(t, NameFullAsLast, p, "whole name as last name is the default")

	_, err = ParseNamePolicy("middle")
	assert.Error(t, err)
}

func TestDedupKey(t *testing.T) {
	assert.Equal(t, "callemayor5", DedupKey("Calle Mayor 5"))
	assert.Equal(t, DedupKey("Calle Mayor 5"), DedupKey("CALLE MAYOR, 5."))
	assert.Equal(t, "plaçadecatalunya1", DedupKey("Plaça de Catalunya, 1"))
	assert.Equal(t, "", DedupKey(" - , "))
}

func TestCountryCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ES", "ES"},
		{"es", "ES"},
		{"ESP", "ES"},
		{" gbr ", "GB"},
		{"USA", "US"},
		{"PRI", "PR"},
		{"California", "CA"},
		{"new york", "NY"},
		{"Atlantis", ""},
		{"XYZ", ""},
		{"12", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := CountryCode(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, CountryCode(got), "conversion must be idempotent")
		})
	}
}

func TestStateCode(t *testing.T) {
	code, ok := StateCode("Texas")
	assert.True(t, ok)
	assert.Equal(t, "TX", code)

	code, ok = StateCode("ny")
	assert.True(t, ok)
	assert.Equal(t, "NY", code)

	_, ok = StateCode("Madrid")
	assert.False(t, ok)
}

func TestPostalCode(t *testing.T) {
	assert.Equal(t, "28001", PostalCode("28001", "ES"))
	assert.Equal(t, "08001", PostalCode("8001", "ESP"))
	assert.Equal(t, "08001", PostalCode("E-8001", "esp"))
	assert.Equal(t, "SW1A 1AA", PostalCode("SW1A 1AA", "GB"))
	assert.Equal(t, "1010", PostalCode("1010", "AT"))
	assert.Equal(t, "", PostalCode("", "ES"))
}

func TestStripProvincePrefix(t *testing.T) {
	assert.Equal(t, "M", StripProvincePrefix("ES-M"))
	assert.Equal(t, "M", StripProvincePrefix("M"))
	assert.Equal(t, "CA", StripProvincePrefix(" US-CA "))
	assert.Equal(t, "", StripProvincePrefix(""))
}

func TestPhone(t *testing.T) {
	tests := []struct {
		name    string
		phone   string
		country string
		want    string
		wantOK  bool
	}{
		{"already international", "+34 612 345 678", "ES", "+34 612 345 678", true},
		{"spanish mobile", "612 345 678", "ESP", "+34612345678", true},
		{"spanish landline", "91-123-45-67", "ES", "+34911234567", true},
		{"spanish too short", "12345", "ES", "12345", false},
		{"spanish wrong leading digit", "512345678", "ES", "512345678", false},
		{"already carries code", "34612345678", "ES", "+34612345678", true},
		{"international 00 prefix", "0034 612 345 678", "ES", "+34612345678", true},
		{"uk trunk zero", "020 7946 0000", "GB", "+442079460000", true},
		{"german trunk zero", "030 123456", "DE", "+4930123456", true},
		{"italy keeps zero", "06 1234 5678", "IT", "+390612345678", true},
		{"us ten digits", "(415) 555-2671", "US", "+14155552671", true},
		{"us leading one", "1-415-555-2671", "USA", "+14155552671", true},
		{"us wrong length", "555-2671", "US", "555-2671", false},
		{"mexico from region metadata", "55 1234 5678", "MX", "+525512345678", true},
		{"unknown country", "12345678", "ZZ", "12345678", false},
		{"empty", "", "ES", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Phone(tt.phone, tt.country)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}
