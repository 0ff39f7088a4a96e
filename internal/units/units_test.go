package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ldc/internal/decimal"
)

func TestAtomicLookup(t *testing.T) {
	r := NewRegistry()
	u, ok := r.Get("km")
	require.True(t, ok)
	assert.Equal(t, Dim{"length": 1}, u.Dim)
}

func TestCompoundParsing(t *testing.T) {
	r := NewRegistry()
	u, ok := r.Get("m/s")
	require.True(t, ok)
	assert.Equal(t, Dim{"length": 1, "time": -1}, u.Dim)

	u2, ok := r.Get("m^2")
	require.True(t, ok)
	assert.Equal(t, Dim{"length": 2}, u2.Dim)

	_, ok = r.Get("not a unit!!")
	assert.False(t, ok)
}

func TestQuantityAddRequiresSameDim(t *testing.T) {
	r := NewRegistry()
	m, _ := r.Get("m")
	s, _ := r.Get("s")
	_, err := Add(Quantity{Magnitude: decimal.New(1), Unit: m}, Quantity{Magnitude: decimal.New(1), Unit: s})
	require.ErrorIs(t, err, ErrDimMismatch)
}

func TestQuantityAddConverts(t *testing.T) {
	r := NewRegistry()
	m, _ := r.Get("m")
	km, _ := r.Get("km")
	sum, err := Add(Quantity{Magnitude: decimal.MustParse("500"), Unit: m}, Quantity{Magnitude: decimal.New(1), Unit: km})
	require.NoError(t, err)
	assert.Equal(t, "1500", sum.Magnitude.String())
	assert.Equal(t, "m", sum.Unit.Name)
}

func TestQuantityMulDivDims(t *testing.T) {
	r := NewRegistry()
	m, _ := r.Get("m")
	s, _ := r.Get("s")
	prod, err := Mul(Quantity{Magnitude: decimal.New(2), Unit: m}, Quantity{Magnitude: decimal.New(3), Unit: s})
	require.NoError(t, err)
	assert.Equal(t, Dim{"length": 1, "time": 1}, prod.Unit.Dim)

	quo, err := Div(Quantity{Magnitude: decimal.New(10), Unit: m}, Quantity{Magnitude: decimal.New(2), Unit: s})
	require.NoError(t, err)
	assert.Equal(t, Dim{"length": 1, "time": -1}, quo.Unit.Dim)
	assert.Equal(t, "5", quo.Magnitude.String())
}

func TestNoZeroExponentAfterOps(t *testing.T) {
	r := NewRegistry()
	m, _ := r.Get("m")
	prod, _ := Mul(Quantity{Magnitude: decimal.New(1), Unit: m}, Quantity{Magnitude: decimal.New(1), Unit: m})
	quo, _ := Div(prod, Quantity{Magnitude: decimal.New(1), Unit: m})
	quo, _ = Div(quo, Quantity{Magnitude: decimal.New(1), Unit: m})
	assert.Empty(t, quo.Unit.Dim.normalized())
}

func TestTemperatureAffine(t *testing.T) {
	r := NewRegistry()
	c, _ := r.Get("C")
	f, _ := r.Get("F")
	base := c.ToBase(decimal.New(0))
	assert.Equal(t, "273.15", base.String())
	back := f.FromBase(base)
	assert.Equal(t, "32", back.String())
}

func TestCurrencyMismatch(t *testing.T) {
	r := NewRegistry()
	r.RegisterCurrency("USD")
	r.RegisterCurrency("EUR")
	usd, _ := r.Get("USD")
	eur, _ := r.Get("EUR")
	_, err := Add(Quantity{Magnitude: decimal.New(1), Unit: usd}, Quantity{Magnitude: decimal.New(1), Unit: eur})
	require.ErrorIs(t, err, ErrDimMismatch)
}
