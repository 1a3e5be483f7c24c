package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesCurrency(t *testing.T) {
	m, err := New(1500, "eur")
	require.NoError(t, err)
	assert.Equal(t, "EUR", m.Currency)

	_, err = New(1500, "EURO")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestArithmeticRequiresMatchingCurrency(t *testing.T) {
	a := Must(1000, "EUR")
	b := Must(250, "EUR")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), sum.Amount)

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, int64(750), diff.Amount)

	_, err = a.Add(Must(100, "USD"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestFraction(t *testing.T) {
	total := Must(10000, "EUR")

	cases := []struct {
		name     string
		fraction float64
		want     int64
	}{
		{"full refund", 1.0, 10000},
		{"half", 0.5, 5000},
		{"quarter", 0.25, 2500},
		{"none", 0, 0},
		{"negative clamps to zero", -0.3, 0},
		{"above one clamps to total", 1.7, 10000},
		{"rounds toward zero", 0.333, 3330},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := total.Fraction(tc.fraction)
			assert.Equal(t, tc.want, got.Amount)
			assert.Equal(t, "EUR", got.Currency)
		})
	}
}

func TestFractionNeverExceedsTotal(t *testing.T) {
	total := Must(9999, "EUR")
	for _, f := range []float64{0.1, 0.33, 0.5, 0.66, 0.99} {
		refund := total.Fraction(f)
		assert.LessOrEqual(t, refund.Amount, total.Amount)
		assert.GreaterOrEqual(t, refund.Amount, int64(0))
	}
}
