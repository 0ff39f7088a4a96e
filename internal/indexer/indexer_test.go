package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ldc/internal/interp"
)

func mustDecode(t *testing.T, src string) *interp.Object {
	t.Helper()
	v, err := interp.DecodeDocument([]byte(src))
	require.NoError(t, err)
	obj, ok := v.(*interp.Object)
	require.True(t, ok)
	return obj
}

func TestIndexExprNode(t *testing.T) {
	doc := mustDecode(t, `{
		"@context": {"ex": "https://ex/"},
		"@id": "ex:a",
		"revenue": 100000,
		"growth": 0.15,
		"next": {"@expr": "revenue*(1+growth)"}
	}`)
	res := Index(doc)
	require.Len(t, res.Nodes, 1)
	n := res.Nodes[0]
	assert.Equal(t, "next", n.PlainKey)
	assert.Equal(t, KindExpr, n.Kind)
	assert.Equal(t, "https://ex/next", n.ID)
	assert.ElementsMatch(t, []string{"revenue", "growth"}, n.Reads)
	assert.Equal(t, "https://ex/a", res.Context.Subject)
	// Root scalars are not seeded.
	assert.Empty(t, res.Seeds)
}

func TestIndexConstraintAndView(t *testing.T) {
	doc := mustDecode(t, `{
		"@context": {"ex": "https://ex/"},
		"@id": "ex:b",
		"x": -1,
		"c": {"@constraint": "x>=0"},
		"v": {"@view": {"@expr": "x*2", "@stable": true}}
	}`)
	res := Index(doc)
	require.Len(t, res.Nodes, 2)
	byKey := map[string]*Node{}
	for _, n := range res.Nodes {
		byKey[n.PlainKey] = n
	}
	assert.Equal(t, KindConstraint, byKey["c"].Kind)
	assert.Equal(t, KindView, byKey["v"].Kind)
	assert.True(t, byKey["v"].Stable)
}

func TestSeedNestedObjectAndArray(t *testing.T) {
	doc := mustDecode(t, `{
		"@id": "https://ex/a",
		"meta": {"owner": "alice", "count": 3},
		"tags": ["x", "y"],
		"items": [{"sku": "A1"}, {"sku": "A2"}]
	}`)
	res := Index(doc)
	assert.Empty(t, res.Nodes)

	var subjects []string
	for _, tr := range res.Seeds {
		subjects = append(subjects, tr.Subject+"|"+tr.Predicate+"|"+tr.Object)
	}
	assert.Contains(t, subjects, "https://ex/a/meta|owner|alice")
	assert.Contains(t, subjects, "https://ex/a/meta|count|3")
	assert.Contains(t, subjects, "https://ex/a/items/0|sku|A1")
	assert.Contains(t, subjects, "https://ex/a/items/1|sku|A2")
}

func TestMultipleDirectivesEmitsSchemaErrorAndFirstWins(t *testing.T) {
	doc := mustDecode(t, `{
		"@id": "https://ex/a",
		"weird": {"@expr": "1+1", "@constraint": "true"}
	}`)
	res := Index(doc)
	require.Len(t, res.Nodes, 1)
	assert.Equal(t, KindExpr, res.Nodes[0].Kind)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "schema_error", string(res.Diagnostics[0].Code))
}
