package amount

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/swapsim/internal/domain"
)

func TestSanitize_PlainNumber(t *testing.T) {
	dec, ok, err := Sanitize("12.5")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, dec.Equal(decimal.NewFromFloat(12.5)))
}

func TestSanitize_CommaIsDecimalSeparator(t *testing.T) {
	dec, ok, err := Sanitize("3,14")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, dec.Equal(decimal.NewFromFloat(3.14)))
}

func TestSanitize_StripsGarbage(t *testing.T) {
	dec, ok, err := Sanitize("$ 1a2b3 usd")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, dec.Equal(decimal.NewFromInt(123)))
}

func TestSanitize_EmptyMeansCleared(t *testing.T) {
	for _, raw := range []string{"", "   ", "abc$%"} {
		_, ok, err := Sanitize(raw)
		require.NoError(t, err, "input %q", raw)
		assert.False(t, ok, "input %q", raw)
	}
}

func TestSanitize_MultipleSeparatorsRejected(t *testing.T) {
	for _, raw := range []string{"1.2.3", "1,234.5.6", "1,,2"} {
		_, ok, err := Sanitize(raw)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount, "input %q", raw)
		assert.False(t, ok, "input %q", raw)
	}
}

func TestSanitize_BareSeparatorRejected(t *testing.T) {
	_, ok, err := Sanitize(".")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.False(t, ok)
}

func TestSanitize_MinusSignStripped(t *testing.T) {
	// the sign is not an accepted character, so "-5" reads as 5
	dec, ok, err := Sanitize("-5")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, dec.Equal(decimal.NewFromInt(5)))
}

func TestSanitize_Idempotent(t *testing.T) {
	first, ok, err := Sanitize("1,234units")
	require.NoError(t, err)
	require.True(t, ok)

	second, ok, err := Sanitize(first.String())
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, first.Equal(second))
}
