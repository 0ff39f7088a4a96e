package interp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/ldc/internal/decimal"
	"github.com/roach88/ldc/internal/units"
)

func TestSerializeScalars(t *testing.T) {
	s, ok := Serialize(Int(42))
	assert.True(t, ok)
	assert.Equal(t, "42", s)

	s, ok = Serialize(Dec{D: decimal.MustParse("3.14")})
	assert.True(t, ok)
	assert.Equal(t, "3.14", s)

	s, ok = Serialize(Bool(true))
	assert.True(t, ok)
	assert.Equal(t, "true", s)

	s, ok = Serialize(Str("hello"))
	assert.True(t, ok)
	assert.Equal(t, "hello", s)
}

func TestSerializeArraysAndObjectsAreNotTriples(t *testing.T) {
	_, ok := Serialize(Array{Int(1)})
	assert.False(t, ok)
	_, ok = Serialize(NewObject())
	assert.False(t, ok)
	_, ok = Serialize(Null{})
	assert.False(t, ok)
	_, ok = Serialize(Undefined{})
	assert.False(t, ok)
}

func TestSerializeTimestamp(t *testing.T) {
	ts := Timestamp{T: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	s, ok := Serialize(ts)
	assert.True(t, ok)
	assert.Equal(t, "2026-01-02T03:04:05Z", s)
}

func TestSerializeCurrencyQuantityTruncatesTo5dp(t *testing.T) {
	reg := units.NewRegistry()
	reg.RegisterCurrency("USD")
	unit, ok := reg.Get("USD")
	assert.True(t, ok)

	q := Quantity{Q: units.Quantity{Magnitude: decimal.MustParse("9.123456789"), Unit: unit}}
	s, ok := Serialize(q)
	assert.True(t, ok)
	assert.Equal(t, "9.12345 USD", s)
}

func TestSerializeNonCurrencyQuantity(t *testing.T) {
	reg := units.NewRegistry()
	unit, ok := reg.Get("km")
	assert.True(t, ok)

	q := Quantity{Q: units.Quantity{Magnitude: decimal.MustParse("5"), Unit: unit}}
	s, ok := Serialize(q)
	assert.True(t, ok)
	assert.Equal(t, "5 km", s)
}
