package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney_RoundsToCents(t *testing.T) {
	m := NewMoney(decimal.RequireFromString("10.005"))
	assert.Equal(t, "10.01", m.String())

	m = NewMoneyFromFloat(99.994)
	assert.Equal(t, "99.99", m.String())
}

func TestNewMoneyFromCents(t *testing.T) {
	assert.Equal(t, "15.00", NewMoneyFromCents(1500).String())
}

func TestNewMoneyFromString(t *testing.T) {
	t.Run("valid string", func(t *testing.T) {
		m, err := NewMoneyFromString("123.45")
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.RequireFromString("123.45")))
	})

	t.Run("invalid string", func(t *testing.T) {
		_, err := NewMoneyFromString("not-a-number")
		assert.Error(t, err)
	})
}

func TestMoney_Percent(t *testing.T) {
	base := NewMoneyFromFloat(1500)
	assert.Equal(t, "150.00", base.Percent(decimal.NewFromInt(10)).String())

	odd := NewMoneyFromFloat(333.33)
	assert.Equal(t, "24.58", odd.Percent(decimal.RequireFromString("7.375")).String())
}

func TestMoney_Split(t *testing.T) {
	t.Run("even split", func(t *testing.T) {
		parts, err := NewMoneyFromFloat(1650).Split(2)
		require.NoError(t, err)
		require.Len(t, parts, 2)
		assert.Equal(t, "825.00", parts[0].String())
		assert.Equal(t, "825.00", parts[1].String())
	})

	t.Run("remainder goes to last line", func(t *testing.T) {
		total := NewMoneyFromFloat(100)
		parts, err := total.Split(3)
		require.NoError(t, err)
		assert.Equal(t, "33.33", parts[0].String())
		assert.Equal(t, "33.33", parts[1].String())
		assert.Equal(t, "33.34", parts[2].String())
		assert.True(t, Sum(parts...).Equals(total))
	})

	t.Run("non-positive count", func(t *testing.T) {
		_, err := NewMoneyFromFloat(10).Split(0)
		assert.Error(t, err)
	})
}

func TestMoney_Comparisons(t *testing.T) {
	a := NewMoneyFromFloat(10)
	b := NewMoneyFromFloat(20)
	assert.True(t, a.LessThan(b))
	assert.True(t, b.GreaterThan(a))
	assert.True(t, a.Add(a).Equals(b))
	assert.True(t, a.Subtract(b).IsNegative())
	assert.True(t, Zero().IsZero())
}

func TestMoney_JSON(t *testing.T) {
	data, err := json.Marshal(NewMoneyFromFloat(825))
	require.NoError(t, err)
	assert.Equal(t, `"825.00"`, string(data))

	var fromNumber Money
	require.NoError(t, json.Unmarshal([]byte(`12.5`), &fromNumber))
	assert.Equal(t, "12.50", fromNumber.String())

	var fromString Money
	require.NoError(t, json.Unmarshal([]byte(`"7.10"`), &fromString))
	assert.Equal(t, "7.10", fromString.String())
}
