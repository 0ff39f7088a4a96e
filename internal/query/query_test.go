package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ldc/internal/decimal"
	"github.com/roach88/ldc/internal/interp"
	"github.com/roach88/ldc/internal/lang/ast"
	"github.com/roach88/ldc/internal/triplestore"
	"github.com/roach88/ldc/internal/units"
)

func newInterp() *interp.Interpreter {
	return interp.New(units.NewRegistry(), time.Unix(0, 0).UTC())
}

func TestRunSimplePatternJoin(t *testing.T) {
	store := triplestore.New()
	store.Add(triplestore.Triple{Subject: "https://ex/alice", Predicate: RDFType, Object: "Person"})
	store.Add(triplestore.Triple{Subject: "https://ex/alice", Predicate: "https://ex/age", Object: "30"})
	store.Add(triplestore.Triple{Subject: "https://ex/bob", Predicate: RDFType, Object: "Person"})
	store.Add(triplestore.Triple{Subject: "https://ex/bob", Predicate: "https://ex/age", Object: "15"})

	q := &AST{
		Patterns: []Pattern{
			Triple{S: Term{Kind: TermVar, Var: "p"}, P: Term{Kind: TermIRI, IRI: RDFType}, O: Term{Kind: TermLiteral, Literal: "Person"}},
			Triple{S: Term{Kind: TermVar, Var: "p"}, P: Term{Kind: TermIRI, IRI: "https://ex/age"}, O: Term{Kind: TermVar, Var: "age"}},
		},
	}
	rows, err := Run(store, newInterp(), q)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestRunGroupByAndAggregate(t *testing.T) {
	store := triplestore.New()
	store.Add(triplestore.Triple{Subject: "https://ex/o1", Predicate: "https://ex/region", Object: "east"})
	store.Add(triplestore.Triple{Subject: "https://ex/o1", Predicate: "https://ex/amount", Object: "10"})
	store.Add(triplestore.Triple{Subject: "https://ex/o2", Predicate: "https://ex/region", Object: "east"})
	store.Add(triplestore.Triple{Subject: "https://ex/o2", Predicate: "https://ex/amount", Object: "20"})
	store.Add(triplestore.Triple{Subject: "https://ex/o3", Predicate: "https://ex/region", Object: "west"})
	store.Add(triplestore.Triple{Subject: "https://ex/o3", Predicate: "https://ex/amount", Object: "5"})

	q := &AST{
		Patterns: []Pattern{
			Triple{S: Term{Kind: TermVar, Var: "o"}, P: Term{Kind: TermIRI, IRI: "https://ex/region"}, O: Term{Kind: TermVar, Var: "region"}},
			Triple{S: Term{Kind: TermVar, Var: "o"}, P: Term{Kind: TermIRI, IRI: "https://ex/amount"}, O: Term{Kind: TermVar, Var: "amount"}},
		},
		GroupBy: []string{"region"},
		Select: []SelectItem{
			{Name: "region", Var: "region"},
			{Name: "total", Agg: AggSum, Expr: identExpr("amount")},
		},
		OrderBy: []OrderKey{{Var: "region"}},
	}
	rows, err := Run(store, newInterp(), q)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, interp.Str("east"), rows[0]["region"])
	assert.Equal(t, interp.Dec{D: mustDec("30")}, rows[0]["total"])
	assert.Equal(t, interp.Str("west"), rows[1]["region"])
}

func identExpr(name string) ast.Node {
	return &ast.Identifier{Name: name}
}

func mustDec(s string) decimal.Decimal {
	return decimal.MustParse(s)
}
