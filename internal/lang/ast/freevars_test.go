package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFreeVarsExcludesLambdaParams(t *testing.T) {
	// items.map(x => x * rate)
	n := &Call{
		Callee: &Member{X: &Identifier{Name: "items"}, Name: "map"},
		Args: []Node{
			&Lambda{
				Params: []string{"x"},
				Body:   &Binary{Op: "*", L: &Identifier{Name: "x"}, R: &Identifier{Name: "rate"}},
			},
		},
	}
	assert.ElementsMatch(t, []string{"items", "rate"}, FreeVars(n))
}

func TestFreeVarsDedupsAndSorts(t *testing.T) {
	n := &Binary{Op: "+", L: &Identifier{Name: "b"}, R: &Identifier{Name: "a"}}
	assert.Equal(t, []string{"a", "b"}, FreeVars(n))

	both := &Binary{Op: "+", L: &Identifier{Name: "a"}, R: &Identifier{Name: "a"}}
	assert.Equal(t, []string{"a"}, FreeVars(both))
}

func TestFreeVarsNestedLambdaShadowing(t *testing.T) {
	// x => x => x + y
	n := &Lambda{
		Params: []string{"x"},
		Body: &Lambda{
			Params: []string{"x"},
			Body:   &Binary{Op: "+", L: &Identifier{Name: "x"}, R: &Identifier{Name: "y"}},
		},
	}
	assert.Equal(t, []string{"y"}, FreeVars(n))
}
