package personoversikt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikt/syfooversiktsrv-go/personoversikt"
)

func Test_BuildPersonIdent_Validation(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{name: "eleven_digits_is_valid", raw: "12345678901", valid: true},
		{name: "too_short_is_rejected", raw: "1234567890", valid: false},
		{name: "too_long_is_rejected", raw: "123456789012", valid: false},
		{name: "empty_is_rejected", raw: "", valid: false},
		{name: "letters_are_rejected", raw: "1234567890a", valid: false},
		{name: "whitespace_is_rejected", raw: " 2345678901", valid: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ident, err := personoversikt.BuildPersonIdent(tc.raw)

			if tc.valid {
				require.NoError(t, err)
				assert.Equal(t, personoversikt.PersonIdent(tc.raw), ident)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, personoversikt.ErrInvalidPersonIdent)
			assert.Empty(t, ident)
		})
	}
}

func Test_ToTidspunkt_NormalizesToUTCMicroseconds(t *testing.T) {
	oslo, err := time.LoadLocation("Europe/Oslo")
	require.NoError(t, err)

	local := time.Date(2025, 3, 1, 11, 30, 0, 123456789, oslo)

	normalized := personoversikt.ToTidspunkt(local)

	assert.Equal(t, time.UTC, normalized.Location())
	assert.Equal(t, time.Date(2025, 3, 1, 10, 30, 0, 123456000, time.UTC), normalized)
}
