// Package harness freezes document-evaluation outcomes as golden files:
// a canonical snapshot of an eval.Result's phase, triples, diagnostics,
// and computed value, so a change to the evaluator, indexer, or
// canonicalizer that alters observable behavior shows up as a diff
// instead of silently passing.
package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ldc/internal/canon"
	"github.com/roach88/ldc/internal/eval"
)

// ResultSnapshot is the byte-comparable shape of an eval.Result.
type ResultSnapshot struct {
	Name        string
	Phase       string
	Triples     []TripleSnapshot
	Diagnostics []DiagnosticSnapshot
	Computed    canon.Value
}

// TripleSnapshot is one derived triple, flattened for canonical encoding.
type TripleSnapshot struct {
	Subject, Predicate, Object, Graph string
}

// DiagnosticSnapshot is one diagnostic, flattened for canonical encoding.
type DiagnosticSnapshot struct {
	Code, Path, Severity, Message string
}

func newResultSnapshot(name string, res *eval.Result) (*ResultSnapshot, error) {
	computed, err := eval.ToCanonValue(res.Value)
	if err != nil {
		return nil, err
	}
	snap := &ResultSnapshot{Name: name, Phase: string(res.Phase), Computed: computed}
	for _, t := range res.Triples {
		snap.Triples = append(snap.Triples, TripleSnapshot{t.Subject, t.Predicate, t.Object, t.Graph})
	}
	for _, d := range res.Diagnostics {
		snap.Diagnostics = append(snap.Diagnostics, DiagnosticSnapshot{string(d.Code), d.Path, string(d.Severity), d.Message})
	}
	return snap, nil
}

func (s *ResultSnapshot) toCanonicalMap() map[string]canon.Value {
	triples := make([]canon.Value, len(s.Triples))
	for i, t := range s.Triples {
		triples[i] = map[string]canon.Value{"subject": t.Subject, "predicate": t.Predicate, "object": t.Object, "graph": t.Graph}
	}
	diags := make([]canon.Value, len(s.Diagnostics))
	for i, d := range s.Diagnostics {
		diags[i] = map[string]canon.Value{"code": d.Code, "path": d.Path, "severity": d.Severity, "message": d.Message}
	}
	return map[string]canon.Value{
		"scenario":    s.Name,
		"phase":       s.Phase,
		"triples":     triples,
		"diagnostics": diags,
		"computed":    s.Computed,
	}
}

// AssertGolden compares a document evaluation's canonical snapshot
// against testdata/golden/{name}.golden. Run
//
//	go test ./internal/harness -update
//
// to (re)freeze a baseline after an intentional behavior change.
func AssertGolden(t *testing.T, name string, res *eval.Result) error {
	t.Helper()
	snap, err := newResultSnapshot(name, res)
	if err != nil {
		return err
	}
	b, err := canon.Marshal(snap.toCanonicalMap())
	if err != nil {
		return err
	}
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, name, b)
	return nil
}

// RunWithGolden evaluates data under opts and asserts the result against
// name's golden fixture in one call.
func RunWithGolden(t *testing.T, name string, data []byte, opts eval.Options) error {
	t.Helper()
	res, err := eval.Evaluate(data, opts)
	if err != nil {
		return err
	}
	return AssertGolden(t, name, res)
}
