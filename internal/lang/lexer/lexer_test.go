package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lits(toks []Token) []string {
	var out []string
	for _, t := range toks {
		if t.Kind == EOF {
			continue
		}
		out = append(out, t.Lit)
	}
	return out
}

func TestLexBasic(t *testing.T) {
	toks, err := Lex(`revenue*(1+growth)`)
	require.NoError(t, err)
	assert.Equal(t, []string{"revenue", "*", "(", "1", "+", "growth", ")"}, lits(toks))
}

func TestLexNullishAndTernary(t *testing.T) {
	toks, err := Lex(`a ?? b`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "??", "b"}, lits(toks))

	toks, err = Lex(`a > 0 ? a : -a`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", ">", "0", "?", "a", ":", "-", "a"}, lits(toks))
}

func TestLexQueryVarAndBuiltin(t *testing.T) {
	toks, err := Lex(`$sqrt(?x)`)
	require.NoError(t, err)
	assert.Equal(t, []string{"$sqrt", "(", "?x", ")"}, lits(toks))
}

func TestLexStringEscapes(t *testing.T) {
	toks, err := Lex(`'it\'s' + "line\n"`)
	require.NoError(t, err)
	require.Len(t, toks, 4)
	assert.Equal(t, "it's", toks[0].Lit)
	assert.Equal(t, "line\n", toks[2].Lit)
}

func TestLexComment(t *testing.T) {
	toks, err := Lex("a + b // trailing comment\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "+", "b"}, lits(toks))
}

func TestLexKeywordOperators(t *testing.T) {
	toks, err := Lex(`a and b or not c`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "and", "b", "or", "not", "c"}, lits(toks))
}

func TestLexUnterminatedString(t *testing.T) {
	_, err := Lex(`"unterminated`)
	require.Error(t, err)
}
