package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ldc/internal/lang/ast"
)

func TestParsePrecedence(t *testing.T) {
	n, err := Parse("revenue*(1+growth)")
	require.NoError(t, err)
	bin, ok := n.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "*", bin.Op)
}

func TestParseArithmeticPrecedence(t *testing.T) {
	n, err := Parse("1 + 2 * 3")
	require.NoError(t, err)
	bin := n.(*ast.Binary)
	assert.Equal(t, "+", bin.Op)
	rhs := bin.R.(*ast.Binary)
	assert.Equal(t, "*", rhs.Op)
}

func TestParseTernary(t *testing.T) {
	n, err := Parse("x >= 0 ? 'ok' : 'bad'")
	require.NoError(t, err)
	tern, ok := n.(*ast.Ternary)
	require.True(t, ok)
	_ = tern
}

func TestParseLambdaSingleParam(t *testing.T) {
	n, err := Parse("x => x * 2")
	require.NoError(t, err)
	lam, ok := n.(*ast.Lambda)
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, lam.Params)
}

func TestParseLambdaMultiParam(t *testing.T) {
	n, err := Parse("(a, b) => a + b")
	require.NoError(t, err)
	lam, ok := n.(*ast.Lambda)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, lam.Params)
}

func TestParseParenthesizedNotLambda(t *testing.T) {
	n, err := Parse("(1 + 2) * 3")
	require.NoError(t, err)
	bin, ok := n.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "*", bin.Op)
}

func TestParseMemberIndexCall(t *testing.T) {
	n, err := Parse("items[0].price + $round(total, 2)")
	require.NoError(t, err)
	bin, ok := n.(*ast.Binary)
	require.True(t, ok)
	member, ok := bin.L.(*ast.Member)
	require.True(t, ok)
	assert.Equal(t, "price", member.Name)
	_, ok = bin.R.(*ast.Call)
	require.True(t, ok)
}

func TestParseArrayAndObjectLiterals(t *testing.T) {
	n, err := Parse(`{a: 1, b: [1,2,3]}`)
	require.NoError(t, err)
	obj, ok := n.(*ast.ObjectLit)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, obj.Keys)
}

func TestParseTrailingTokensError(t *testing.T) {
	_, err := Parse("1 + 2 3")
	require.Error(t, err)
}

func TestParsePowRightAssoc(t *testing.T) {
	n, err := Parse("2 ** 3 ** 2")
	require.NoError(t, err)
	bin := n.(*ast.Binary)
	assert.Equal(t, "**", bin.Op)
	_, ok := bin.R.(*ast.Binary)
	require.True(t, ok)
}

func TestParseShortCircuitAndNullish(t *testing.T) {
	n, err := Parse("a && b || c ?? d")
	require.NoError(t, err)
	_, ok := n.(*ast.Binary)
	require.True(t, ok)
}
