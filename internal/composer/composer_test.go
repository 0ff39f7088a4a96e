package composer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ldc/internal/decimal"
	"github.com/roach88/ldc/internal/interp"
	"github.com/roach88/ldc/internal/units"
)

func testInterp() *interp.Interpreter {
	return interp.New(units.NewRegistry(), time.Unix(0, 0).UTC())
}

func decode(t *testing.T, src string) interp.Value {
	t.Helper()
	v, err := interp.DecodeDocument([]byte(src))
	require.NoError(t, err)
	return v
}

func TestResolveRefDottedAndIndexed(t *testing.T) {
	rels := Relations{
		"catalog": decode(t, `{"items": [{"sku": "A1", "price": 9.5}, {"sku": "A2", "price": 4}]}`),
	}
	v, err := ResolveRef(rels, "catalog.items[1].sku")
	require.NoError(t, err)
	assert.Equal(t, interp.Str("A2"), v)
}

func TestResolveRefMissingSegmentYieldsUndefined(t *testing.T) {
	rels := Relations{
		"catalog": decode(t, `{"items": []}`),
	}
	v, err := ResolveRef(rels, "catalog.items[5].sku")
	require.NoError(t, err)
	assert.Equal(t, interp.Undefined{}, v)
}

func TestRollupShorthandSum(t *testing.T) {
	rels := Relations{
		"orders": decode(t, `{"rows": [{"amount": 10, "status": "paid"}, {"amount": 20, "status": "paid"}, {"amount": 5, "status": "void"}]}`),
	}
	r, err := ParseRollupShorthand("orders.rows.amount:sum")
	require.NoError(t, err)
	v, err := r.Resolve(rels, testInterp())
	require.NoError(t, err)
	assert.Equal(t, interp.Dec{D: decimal.MustParse("35")}, v)
}

func TestRollupWithFilter(t *testing.T) {
	rels := Relations{
		"orders": decode(t, `{"rows": [{"amount": 10, "status": "paid"}, {"amount": 20, "status": "paid"}, {"amount": 5, "status": "void"}]}`),
	}
	r := Rollup{Relation: "orders", Property: "rows", Select: "amount", Filter: `status == 'paid'`, Aggregate: "sum"}
	v, err := r.Resolve(rels, testInterp())
	require.NoError(t, err)
	assert.Equal(t, interp.Dec{D: decimal.MustParse("30")}, v)
}
