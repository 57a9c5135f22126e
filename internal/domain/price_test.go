package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barstream/ohlcv-aggregation-service/internal/domain"
)

func TestNewPrice(t *testing.T) {
	t.Run("quantizes to four places half up", func(t *testing.T) {
		tests := []struct {
			input string
			want  string
		}{
			{"150.00005", "150.0001"},
			{"150.00004", "150.0000"},
			{"150.12345", "150.1235"},
			{"150", "150.0000"},
			{"0", "0.0000"},
		}
		for _, tt := range tests {
			price, err := domain.NewPriceFromString(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, price.String(), "input %s", tt.input)
		}
	})

	t.Run("rejects negative values", func(t *testing.T) {
		_, err := domain.NewPriceFromString("-0.01")
		assert.ErrorIs(t, err, domain.ErrNegativePrice)
	})

	t.Run("rejects malformed strings", func(t *testing.T) {
		_, err := domain.NewPriceFromString("not-a-price")
		assert.Error(t, err)
	})
}

func TestPrice_Arithmetic(t *testing.T) {
	a := domain.MustPrice("10.50")
	b := domain.MustPrice("2.25")

	t.Run("add", func(t *testing.T) {
		assert.Equal(t, "12.7500", a.Add(b).String())
	})

	t.Run("sub", func(t *testing.T) {
		got, err := a.Sub(b)
		require.NoError(t, err)
		assert.Equal(t, "8.2500", got.String())
	})

	t.Run("sub below zero fails", func(t *testing.T) {
		_, err := b.Sub(a)
		assert.ErrorIs(t, err, domain.ErrNegativePrice)
	})

	t.Run("mul", func(t *testing.T) {
		got, err := a.Mul(decimal.NewFromInt(3))
		require.NoError(t, err)
		assert.Equal(t, "31.5000", got.String())
	})

	t.Run("div", func(t *testing.T) {
		got, err := a.Div(decimal.NewFromInt(2))
		require.NoError(t, err)
		assert.Equal(t, "5.2500", got.String())
	})

	t.Run("div by zero fails", func(t *testing.T) {
		_, err := a.Div(decimal.Zero)
		assert.ErrorIs(t, err, domain.ErrDivisionByZero)
	})
}

func TestPrice_Comparisons(t *testing.T) {
	low := domain.MustPrice("1.00")
	high := domain.MustPrice("2.00")
	same := domain.MustPrice("1.0000")

	assert.True(t, low.LessThan(high))
	assert.True(t, high.GreaterThan(low))
	assert.True(t, low.Equal(same))
	assert.Equal(t, -1, low.Cmp(high))
	assert.Equal(t, 0, low.Cmp(same))
	assert.Equal(t, 1, high.Cmp(low))
	assert.True(t, domain.MustPrice("0").IsZero())
	assert.False(t, low.IsZero())
}

func TestNewVolume(t *testing.T) {
	t.Run("accepts zero and positive", func(t *testing.T) {
		v, err := domain.NewVolume(0)
		require.NoError(t, err)
		assert.True(t, v.IsZero())

		v, err = domain.NewVolume(1000)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), v.Int64())
	})

	t.Run("rejects negative", func(t *testing.T) {
		_, err := domain.NewVolume(-1)
		assert.ErrorIs(t, err, domain.ErrNegativeVolume)
	})

	t.Run("sub below zero fails", func(t *testing.T) {
		a := domain.MustVolume(5)
		b := domain.MustVolume(10)
		_, err := a.Sub(b)
		assert.ErrorIs(t, err, domain.ErrNegativeVolume)
	})

	t.Run("add accumulates", func(t *testing.T) {
		total := domain.MustVolume(100).Add(domain.MustVolume(250))
		assert.Equal(t, int64(350), total.Int64())
	})
}
