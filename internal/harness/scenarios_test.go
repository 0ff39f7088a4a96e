package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ldc/internal/diag"
	"github.com/roach88/ldc/internal/eval"
	"github.com/roach88/ldc/internal/interp"
	"github.com/roach88/ldc/internal/units"
)

// These six cases exercise the derived-triple, diagnostic, and
// canonical-signature guarantees end to end, one document at a time.
// They assert directly on eval.Result rather than against committed
// golden fixtures: AssertGolden/RunWithGolden stay wired in golden.go for a
// human to freeze real baselines with `go test -update` once satisfied
// with the exact canonical bytes, but no fixture is hand-authored here.

func TestScenarioArithmeticDirective(t *testing.T) {
	doc := []byte(`{
		"@context": {"ex": "https://ex/"},
		"@id": "ex:a",
		"revenue": 100000,
		"growth": 0.15,
		"next": {"@expr": "revenue*(1+growth)"}
	}`)

	res, err := eval.Evaluate(doc, eval.Options{})
	require.NoError(t, err)

	assert.Empty(t, res.Diagnostics)
	require.Len(t, res.Triples, 1)
	assert.Equal(t, "https://ex/a", res.Triples[0].Subject)
	assert.Equal(t, "https://ex/next", res.Triples[0].Predicate)
	assert.Equal(t, "115000", res.Triples[0].Object)
}

func TestScenarioConstraintFailure(t *testing.T) {
	doc := []byte(`{
		"@context": {"ex": "https://ex/"},
		"@id": "ex:root",
		"x": -1,
		"c": {"@constraint": "x>=0"}
	}`)

	res, err := eval.Evaluate(doc, eval.Options{})
	require.NoError(t, err)

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diag.CodeConstraintFailed, res.Diagnostics[0].Code)
	assert.Equal(t, "https://ex/c", res.Diagnostics[0].Path)

	for _, tr := range res.Triples {
		assert.NotEqual(t, "https://ex/c", tr.Predicate)
	}
}

func TestScenarioRollup(t *testing.T) {
	doc := []byte(`{
		"@context": {"ex": "https://ex/"},
		"@id": "ex:root",
		"@relations": {"projects": "projects.json"},
		"totalActive": {"@rollup": {
			"relation": "projects",
			"property": "items",
			"select": "budget",
			"filter": "status == 'active'",
			"aggregate": "sum"
		}}
	}`)

	loader := func(alias, path string) (interp.Value, error) {
		return interp.DecodeDocument([]byte(`{
			"items": [
				{"budget": 100, "status": "active"},
				{"budget": 50, "status": "archived"}
			]
		}`))
	}

	res, err := eval.Evaluate(doc, eval.Options{Loader: loader})
	require.NoError(t, err)

	assert.Empty(t, res.Diagnostics)
	require.NotNil(t, res.Value)
	raw, ok := res.Value.Raw("totalActive")
	require.True(t, ok, "expected totalActive on the resolved document")
	s, ok := interp.Serialize(raw)
	require.True(t, ok)
	assert.Equal(t, "100", s)
}

func TestScenarioCurrencyAddition(t *testing.T) {
	doc := []byte(`{
		"@context": {"ex": "https://ex/"},
		"@id": "ex:root",
		"a": "100 USD",
		"b": "50 USD",
		"sum": {"@expr": "a+b"}
	}`)

	reg := units.NewRegistry()
	reg.RegisterCurrency("USD")
	res, err := eval.Evaluate(doc, eval.Options{Units: reg})
	require.NoError(t, err)

	assert.Empty(t, res.Diagnostics)
	var found bool
	for _, tr := range res.Triples {
		if tr.Predicate == "https://ex/sum" {
			found = true
			assert.Equal(t, "150.00000 USD", tr.Object)
		}
	}
	assert.True(t, found, "expected a sum triple")
}

func TestScenarioCurrencyMismatch(t *testing.T) {
	doc := []byte(`{
		"@context": {"ex": "https://ex/"},
		"@id": "ex:root",
		"a": "100 USD",
		"b": "50 EUR",
		"sum": {"@expr": "a+b"}
	}`)

	reg := units.NewRegistry()
	reg.RegisterCurrency("USD")
	reg.RegisterCurrency("EUR")
	res, err := eval.Evaluate(doc, eval.Options{Units: reg})
	require.NoError(t, err)

	require.NotEmpty(t, res.Diagnostics)
	var found bool
	for _, d := range res.Diagnostics {
		if d.Code == diag.CodeUnitMismatch {
			found = true
		}
	}
	assert.True(t, found, "expected an LDC_UNIT_MISMATCH diagnostic")
}

func TestScenarioFixpointLimit(t *testing.T) {
	doc := []byte(`{
		"@context": {"ex": "https://ex/"},
		"@id": "ex:root",
		"a": {"@expr": "b+1"},
		"b": {"@expr": "a-1"}
	}`)

	res, err := eval.Evaluate(doc, eval.Options{})
	require.NoError(t, err)

	require.NotEmpty(t, res.Diagnostics)
	var found bool
	for _, d := range res.Diagnostics {
		if d.Code == diag.CodeFixpointLimit {
			found = true
		}
	}
	assert.True(t, found, "expected an LDC_FIXPOINT_LIMIT diagnostic")

	for _, tr := range res.Triples {
		assert.NotEqual(t, "https://ex/a", tr.Predicate)
		assert.NotEqual(t, "https://ex/b", tr.Predicate)
	}
}

func TestScenarioCanonicalSignatureStability(t *testing.T) {
	doc := []byte(`{
		"@context": {"ex": "https://ex/"},
		"@id": "ex:a",
		"revenue": 100000,
		"growth": 0.15,
		"next": {"@expr": "revenue*(1+growth)"}
	}`)
	reordered := []byte(`{
		"@id": "ex:a",
		"@context": {"ex": "https://ex/"},
		"next": {"@expr": "revenue*(1+growth)"},
		"growth": 0.15,
		"revenue": 100000
	}`)

	secret := []byte("test-signing-secret")

	sig1, res1, err := signFixture(t, doc, secret)
	require.NoError(t, err)
	sig2, res2, err := signFixture(t, doc, secret)
	require.NoError(t, err)
	sig3, res3, err := signFixture(t, reordered, secret)
	require.NoError(t, err)

	assert.Equal(t, eval.PhaseDone, res1.Phase)
	assert.Equal(t, eval.PhaseDone, res2.Phase)
	assert.Equal(t, eval.PhaseDone, res3.Phase)

	assert.Equal(t, sig1, sig2, "re-evaluating the same document must yield the same signature")
	assert.Equal(t, sig1, sig3, "key order must not affect the canonical signature")
}

func signFixture(t *testing.T, data []byte, secret []byte) (string, *eval.Result, error) {
	t.Helper()
	res, err := eval.Evaluate(data, eval.Options{})
	if err != nil {
		return "", nil, err
	}
	docVal, err := interp.DecodeDocument(data)
	if err != nil {
		return "", res, err
	}
	docCanon, err := eval.ToCanonValue(docVal)
	if err != nil {
		return "", res, err
	}
	sig, err := res.Sign(docCanon, nil, nil, "test-key", secret)
	return sig, res, err
}
