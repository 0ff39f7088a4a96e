package decimal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSubMulDiv(t *testing.T) {
	a := MustParse("100000")
	b := MustParse("0.15")
	sum, err := Add(a, MustParse("1"))
	require.NoError(t, err)
	diff, err := Sub(sum, a)
	require.NoError(t, err)
	assert.Equal(t, "1", Truncate(diff, 0).String())

	growth, err := Mul(a, MustParse("1.15"))
	require.NoError(t, err)
	assert.Equal(t, "115000", growth.String())

	q, err := Div(a, MustParse("4"))
	require.NoError(t, err)
	assert.Equal(t, "25000", q.String())

	_, err = Div(a, Zero)
	require.ErrorIs(t, err, ErrDivByZero)

	_ = b
}

func TestBankersRounding(t *testing.T) {
	// half-to-even: 0.5 -> 0, 1.5 -> 2, 2.5 -> 2
	assert.Equal(t, "0", Round(MustParse("0.5"), 0).String())
	assert.Equal(t, "2", Round(MustParse("1.5"), 0).String())
	assert.Equal(t, "2", Round(MustParse("2.5"), 0).String())
}

func TestTruncate5dp(t *testing.T) {
	v := MustParse("150.123456789")
	assert.Equal(t, "150.12345", Truncate(v, 5).String())
}

func TestCanonicalText(t *testing.T) {
	assert.Equal(t, "100000", MustParse("100000").CanonicalText())
	assert.Equal(t, "0.15", MustParse("0.15").CanonicalText())
}

func TestCmpEqual(t *testing.T) {
	assert.True(t, Equal(MustParse("2.0"), MustParse("2")))
	assert.Equal(t, -1, Cmp(MustParse("1"), MustParse("2")))
}
