package pricing

import (
	"errors"
	"math"
	"testing"

	"github.com/BatmanBruc/image-credits/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredits(t *testing.T) {
	tests := []struct {
		amount  int64
		credits int64
	}{
		{10, 6},
		{19, 6},
		{20, 12},
		{99, 54},
		{100, 60},
		{1005, 600},
	}

	for _, tt := range tests {
		got, err := Credits(types.CreditTypeImage, tt.amount)
		require.NoError(t, err)
		assert.Equal(t, tt.credits, got, "amount %d", tt.amount)
	}
}

func TestCreditsBelowMinimum(t *testing.T) {
	for amount := int64(-5); amount < MinAmountINR; amount++ {
		got, err := Credits(types.CreditTypeImage, amount)
		assert.True(t, errors.Is(err, ErrBelowMinimum), "amount %d", amount)
		assert.Zero(t, got)
	}
}

func TestCreditsAboveMaximum(t *testing.T) {
	got, err := Credits(types.CreditTypeImage, MaxAmountINR)
	require.NoError(t, err)
	assert.Equal(t, int64(MaxAmountINR/StepINR*CreditsPerStep), got)

	for _, amount := range []int64{MaxAmountINR + 1, 4611686018427387903, math.MaxInt64} {
		got, err := Credits(types.CreditTypeImage, amount)
		assert.ErrorIs(t, err, ErrAboveMaximum, "amount %d", amount)
		assert.Zero(t, got)
	}
}

func TestCreditsUnsupportedType(t *testing.T) {
	_, err := Credits(types.CreditType("video"), 100)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		amount  int64
		numeric bool
	}{
		{"20", 20, true},
		{"  20", 20, true},
		{"12abc", 12, true},
		{"19.99", 19, true},
		{"-5", -5, true},
		{"+7", 7, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-", 0, false},
		{" ", 0, false},
		{"9223372036854775807", math.MaxInt64, true},
		{"99999999999999999999", math.MaxInt64, true},
		{"-99999999999999999999", -math.MaxInt64, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			amount, ok := ParseAmount(tt.raw)
			assert.Equal(t, tt.numeric, ok)
			assert.Equal(t, tt.amount, amount)
		})
	}
}

func TestQuoteFor(t *testing.T) {
	t.Run("priced amount has no message", func(t *testing.T) {
		q := QuoteFor("20", types.CreditTypeImage)
		assert.True(t, q.Numeric)
		assert.Equal(t, int64(12), q.Credits)
		assert.Empty(t, q.Message)
	})

	t.Run("below minimum shows message", func(t *testing.T) {
		for _, raw := range []string{"1", "5", "9"} {
			q := QuoteFor(raw, types.CreditTypeImage)
			assert.Zero(t, q.Credits)
			assert.Equal(t, "Minimum recharge for images is ₹10", q.Message)
		}
	})

	t.Run("above maximum shows message", func(t *testing.T) {
		for _, raw := range []string{"500001", "4611686018427387903", "99999999999999999999"} {
			q := QuoteFor(raw, types.CreditTypeImage)
			assert.True(t, q.Numeric)
			assert.Zero(t, q.Credits)
			assert.Equal(t, "Maximum recharge for images is ₹500000", q.Message)
		}
	})

	t.Run("non numeric is silent", func(t *testing.T) {
		for _, raw := range []string{"", "abc"} {
			q := QuoteFor(raw, types.CreditTypeImage)
			assert.False(t, q.Numeric)
			assert.Zero(t, q.Credits)
			assert.Empty(t, q.Message)
		}
	})
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(2000), MinorUnits(20))
}
