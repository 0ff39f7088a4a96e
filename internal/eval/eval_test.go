package eval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ldc/internal/composer"
	"github.com/roach88/ldc/internal/diag"
	"github.com/roach88/ldc/internal/interp"
)

func TestEvaluateExprChainAndConstraint(t *testing.T) {
	doc := []byte(`{
		"@context": {"ex": "https://ex/"},
		"@id": "ex:order1",
		"subtotal": {"@expr": "10 + 5"},
		"total": {"@expr": "subtotal * 2"},
		"valid": {"@constraint": "total > 0"}
	}`)

	res, err := Evaluate(doc, Options{Now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.Equal(t, PhaseDone, res.Phase)
	require.Empty(t, res.Diagnostics)

	subtotal, ok := res.Value.Raw("subtotal")
	require.True(t, ok)
	assert.Equal(t, interp.Int(15), subtotal)

	total, ok := res.Value.Raw("total")
	require.True(t, ok)
	assert.Equal(t, interp.Int(30), total)

	valid, ok := res.Value.Raw("valid")
	require.True(t, ok)
	assert.Equal(t, interp.Bool(true), valid)

	var sawSubtotal, sawTotal, sawValid bool
	for _, tr := range res.Triples {
		switch tr.Predicate {
		case "https://ex/subtotal":
			sawSubtotal = true
			assert.Equal(t, "15", tr.Object)
		case "https://ex/total":
			sawTotal = true
			assert.Equal(t, "30", tr.Object)
		case "https://ex/valid":
			sawValid = true
			assert.Equal(t, "true", tr.Object)
		}
	}
	assert.True(t, sawSubtotal && sawTotal && sawValid)
}

func TestEvaluateConstraintFailureEmitsDiagnosticNoTriple(t *testing.T) {
	doc := []byte(`{
		"@id": "order1",
		"total": {"@expr": "-5"},
		"valid": {"@constraint": "total > 0"}
	}`)

	res, err := Evaluate(doc, Options{})
	require.NoError(t, err)
	require.Equal(t, PhaseDone, res.Phase)

	var found bool
	for _, d := range res.Diagnostics {
		if d.Code == diag.CodeConstraintFailed {
			found = true
		}
	}
	assert.True(t, found, "expected a constraint-failed diagnostic")

	for _, tr := range res.Triples {
		assert.NotEqual(t, "valid", tr.Predicate)
	}
}

func TestEvaluateMalformedDocumentAborts(t *testing.T) {
	res, err := Evaluate([]byte(`not json`), Options{})
	require.NoError(t, err)
	assert.Equal(t, PhaseAborted, res.Phase)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diag.CodeSchemaError, res.Diagnostics[0].Code)
}

func TestEvaluateNonObjectRootAborts(t *testing.T) {
	res, err := Evaluate([]byte(`[1, 2, 3]`), Options{})
	require.NoError(t, err)
	assert.Equal(t, PhaseAborted, res.Phase)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diag.CodeSchemaError, res.Diagnostics[0].Code)
}

func TestEvaluateAbortCheckStopsEarly(t *testing.T) {
	doc := []byte(`{"a": {"@expr": "1"}, "b": {"@expr": "a + 1"}}`)
	res, err := Evaluate(doc, Options{AbortCheck: func() bool { return true }})
	require.NoError(t, err)
	assert.Equal(t, PhaseAborted, res.Phase)

	var found bool
	for _, d := range res.Diagnostics {
		if d.Code == diag.CodeTimeout {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEvaluateFixpointConverges(t *testing.T) {
	// a and b depend on each other; both settle once their values repeat.
	doc := []byte(`{
		"a": {"@expr": "b ?? 1"},
		"b": {"@expr": "a ?? 1"}
	}`)
	res, err := Evaluate(doc, Options{})
	require.NoError(t, err)
	require.Equal(t, PhaseDone, res.Phase)

	for _, d := range res.Diagnostics {
		assert.NotEqual(t, diag.CodeFixpointLimit, d.Code)
	}
}

func TestEvaluateRefComposition(t *testing.T) {
	doc := []byte(`{
		"@relations": {"catalog": "catalog.json"},
		"sku": {"@ref": "catalog.items[0].sku"}
	}`)

	loader := func(alias, path string) (interp.Value, error) {
		v, err := interp.DecodeDocument([]byte(`{"items": [{"sku": "A1"}]}`))
		return v, err
	}

	res, err := Evaluate(doc, Options{Loader: composer.Loader(loader)})
	require.NoError(t, err)
	require.Equal(t, PhaseDone, res.Phase)
	require.Empty(t, res.Diagnostics)

	sku, ok := res.Value.Raw("sku")
	require.True(t, ok)
	assert.Equal(t, interp.Str("A1"), sku)

	var sawFetch bool
	for _, p := range res.Provenance {
		if p.Op == ProvenanceFetch && p.Target == "catalog" {
			sawFetch = true
		}
	}
	assert.True(t, sawFetch)
}

func TestEvaluateRefOutOfRangeYieldsUndefinedNoDiagnostic(t *testing.T) {
	doc := []byte(`{
		"@relations": {"catalog": "catalog.json"},
		"sku": {"@ref": "catalog.items[9].sku"}
	}`)

	loader := func(alias, path string) (interp.Value, error) {
		return interp.DecodeDocument([]byte(`{"items": [{"sku": "A1"}]}`))
	}

	res, err := Evaluate(doc, Options{Loader: composer.Loader(loader)})
	require.NoError(t, err)
	require.Empty(t, res.Diagnostics)

	sku, ok := res.Value.Raw("sku")
	require.True(t, ok)
	assert.Equal(t, interp.Undefined{}, sku)
}

func TestEvaluateRefUnknownRelationProducesDiagnostic(t *testing.T) {
	doc := []byte(`{
		"@relations": {"catalog": "catalog.json"},
		"sku": {"@ref": "missing.items[0].sku"}
	}`)

	loader := func(alias, path string) (interp.Value, error) {
		return interp.DecodeDocument([]byte(`{"items": [{"sku": "A1"}]}`))
	}

	res, err := Evaluate(doc, Options{Loader: composer.Loader(loader)})
	require.NoError(t, err)

	var found bool
	for _, d := range res.Diagnostics {
		if d.Code == diag.CodeBadRef {
			found = true
		}
	}
	assert.True(t, found)

	sku, ok := res.Value.Raw("sku")
	require.True(t, ok)
	assert.Equal(t, interp.Undefined{}, sku)
}
