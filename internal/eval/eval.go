// Package eval implements the evaluator façade (spec §4.12): it
// orchestrates the composer, indexer, scheduler, interpreter, and query
// engine across a single document evaluation and produces the derived
// triples, diagnostics, and canonicalizable result the host asked for.
package eval

import (
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/ldc/internal/composer"
	"github.com/roach88/ldc/internal/diag"
	"github.com/roach88/ldc/internal/indexer"
	"github.com/roach88/ldc/internal/interp"
	"github.com/roach88/ldc/internal/scheduler"
	"github.com/roach88/ldc/internal/triplestore"
)

// Evaluate runs one document through the full state machine described in
// spec §4.12: Indexing → Scheduled → (Layering | Fixpoint) → Signing →
// Done, with Aborted reachable from any middle state. It never returns a
// Go error for document-local or input-shape problems — those are always
// diagnostics on the returned Result (spec §7); a non-nil error here means
// the host's own arguments were unusable (nil document bytes, and the
// like) rather than anything about the document's content.
func Evaluate(data []byte, opts Options) (*Result, error) {
	runID := uuid.NewString()

	if schemaDiags := indexer.ValidateSchema(data); len(schemaDiags) > 0 {
		return &Result{Phase: PhaseAborted, Diagnostics: schemaDiags, RunID: runID}, nil
	}

	docVal, err := interp.DecodeDocument(data)
	if err != nil {
		return &Result{
			Phase:       PhaseAborted,
			Diagnostics: []Diagnostic{diag.New(diag.CodeSchemaError, "", err.Error())},
			RunID:       runID,
		}, nil
	}
	doc, ok := docVal.(*interp.Object)
	if !ok {
		return &Result{
			Phase:       PhaseAborted,
			Diagnostics: []Diagnostic{diag.New(diag.CodeSchemaError, "", "document root must be an object")},
			RunID:       runID,
		}, nil
	}
	doc, _ = interp.CoerceQuantityLiterals(doc, opts.unitsOrDefault()).(*interp.Object)

	var diags []Diagnostic
	var prov []ProvenanceEntry

	rels, err := composer.LoadRelations(doc, opts.loader())
	if err != nil {
		diags = append(diags, diag.New(diag.CodeBadRef, "@relations", err.Error()))
		rels = composer.Relations{}
	} else if relRaw, ok := doc.Raw("@relations"); ok {
		if relObj, ok := relRaw.(*interp.Object); ok {
			for _, alias := range relObj.Keys() {
				prov = append(prov, ProvenanceEntry{Op: ProvenanceFetch, Target: alias})
			}
		}
	}

	it := interp.New(opts.unitsOrDefault(), opts.now())

	workingDoc, composeDiags := resolveComposerProps(doc, rels, it)
	diags = append(diags, composeDiags...)

	idx := indexer.Index(workingDoc)
	diags = append(diags, idx.Diagnostics...)

	store := triplestore.New()
	for _, t := range idx.Seeds {
		store.Add(t)
	}

	scope := interp.NewScope()
	scope.Bind("$this", workingDoc)

	ls := &layerState{it: it, scope: scope, doc: workingDoc, subject: idx.Context.Subject, store: store}
	layers := scheduler.Schedule(idx.Nodes)

	for _, layer := range layers.Ordered {
		if opts.aborted() {
			diags = append(diags, diag.New(diag.CodeTimeout, "", "evaluation aborted by host"))
			return finish(PhaseAborted, store, diags, prov, workingDoc, runID), nil
		}
		d, p := runLayer(ls, layer)
		diags = append(diags, d...)
		prov = append(prov, p...)
	}

	if len(layers.Fixpoint) > 0 {
		if opts.aborted() {
			diags = append(diags, diag.New(diag.CodeTimeout, "", "evaluation aborted by host"))
			return finish(PhaseAborted, store, diags, prov, workingDoc, runID), nil
		}
		d, p, _ := runFixpoint(ls, layers.Fixpoint)
		diags = append(diags, d...)
		prov = append(prov, p...)
	}

	return finish(PhaseDone, store, diags, prov, workingDoc, runID), nil
}

func finish(phase Phase, store *triplestore.Store, diags []Diagnostic, prov []ProvenanceEntry, workingDoc *interp.Object, runID string) *Result {
	return &Result{
		Phase:       phase,
		Triples:     store.All(),
		Diagnostics: diags,
		Value:       rootValue(workingDoc),
		Provenance:  prov,
		RunID:       runID,
	}
}

// rootValue strips reserved "@"-prefixed properties from the working
// document, leaving exactly the root subject property map the host asked
// for (spec §6: "including @ref/@rollup materializations and directly
// written properties").
func rootValue(doc *interp.Object) *interp.Object {
	out := interp.NewObject()
	for _, k := range doc.Keys() {
		if strings.HasPrefix(k, "@") {
			continue
		}
		v, _ := doc.Raw(k)
		out.Set(k, v)
	}
	return out
}
