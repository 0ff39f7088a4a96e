package eval

import (
	"bytes"
	"errors"

	"github.com/roach88/ldc/internal/canon"
	"github.com/roach88/ldc/internal/diag"
	"github.com/roach88/ldc/internal/indexer"
	"github.com/roach88/ldc/internal/interp"
	"github.com/roach88/ldc/internal/query"
	"github.com/roach88/ldc/internal/triplestore"
)

// classifyExprError picks the diagnostic code for a failed expression
// evaluation: unit dimension mismatches and division by zero get their
// own codes (spec §7's closed diagnostic set), everything else is a
// generic LDC_EXPR_ERR.
func classifyExprError(err error) diag.Code {
	switch {
	case errors.Is(err, interp.ErrDimMismatch):
		return diag.CodeUnitMismatch
	case errors.Is(err, interp.ErrDivByZero):
		return diag.CodeDivByZero
	default:
		return diag.CodeExprErr
	}
}

// layerState is the mutable context threaded through one document's
// evaluation: the scope every node reads free variables from, the working
// copy of the document ($this for nested lazy directives), and the
// growing triple store (spec §4.12).
type layerState struct {
	it      *interp.Interpreter
	scope   *interp.Scope
	doc     *interp.Object
	subject string
	store   *triplestore.Store
}

// nodeOutcome is one node's evaluation result, held until the whole layer
// finishes so that I1 (no node observes a same-layer sibling's write)
// holds: commits are applied only after every node in the layer has been
// computed against the same baseline.
type nodeOutcome struct {
	node    *indexer.Node
	value   interp.Value
	triple  *triplestore.Triple
	skip    bool
	diags   []Diagnostic
	provOps []ProvenanceEntry
}

// evalNode computes one DAG node's value and optional derived triple,
// without mutating ls.
func evalNode(ls *layerState, node *indexer.Node) nodeOutcome {
	switch node.Kind {
	case indexer.KindExpr, indexer.KindView:
		val, err := ls.it.Eval(node.Expr, ls.scope)
		if err != nil {
			return nodeOutcome{node: node, skip: true,
				diags: []Diagnostic{diag.New(classifyExprError(err), node.ID, err.Error())}}
		}
		out := nodeOutcome{node: node, value: val,
			provOps: []ProvenanceEntry{{Op: ProvenanceCompute, Target: node.ID}}}
		if s, ok := interp.Serialize(val); ok {
			out.triple = &triplestore.Triple{Subject: ls.subject, Predicate: node.ID, Object: s}
		}
		return out

	case indexer.KindConstraint:
		val, err := ls.it.Eval(node.Expr, ls.scope)
		if err != nil {
			return nodeOutcome{node: node, skip: true,
				diags: []Diagnostic{diag.New(classifyExprError(err), node.ID, err.Error())}}
		}
		out := nodeOutcome{node: node, value: val,
			provOps: []ProvenanceEntry{{Op: ProvenanceCompute, Target: node.ID}}}
		if !interp.Truthy(val) {
			out.diags = []Diagnostic{diag.New(diag.CodeConstraintFailed, node.ID, "constraint evaluated to a falsy value")}
			return out
		}
		if s, ok := interp.Serialize(val); ok {
			out.triple = &triplestore.Triple{Subject: ls.subject, Predicate: node.ID, Object: s}
		}
		return out

	case indexer.KindQuery:
		ast, err := query.ParseDoc(node.QueryDoc)
		if err != nil {
			return nodeOutcome{node: node, skip: true,
				diags: []Diagnostic{diag.New(diag.CodeQueryErr, node.ID, err.Error())}}
		}
		rows, err := query.Run(ls.store, ls.it, ast)
		if err != nil {
			return nodeOutcome{node: node, skip: true,
				diags: []Diagnostic{diag.New(diag.CodeQueryErr, node.ID, err.Error())}}
		}
		ops := queryProvenance(node.ID, ast)
		if len(rows) == 0 || len(ast.Select) == 0 {
			return nodeOutcome{node: node, skip: true, provOps: ops}
		}
		val, ok := rows[0][ast.Select[0].Name]
		if !ok {
			return nodeOutcome{node: node, skip: true, provOps: ops}
		}
		out := nodeOutcome{node: node, value: val, provOps: ops}
		if s, ok := interp.Serialize(val); ok {
			out.triple = &triplestore.Triple{Subject: ls.subject, Predicate: node.ID, Object: s}
		}
		return out

	default:
		return nodeOutcome{node: node, skip: true}
	}
}

// queryProvenance reports the adapter-pipeline shape of a query directive
// (spec §6's fetch|filter|sort|paginate|compute vocabulary): a query
// always computes, and additionally filters/sorts/paginates depending on
// which clauses its AST carries.
func queryProvenance(target string, ast *query.AST) []ProvenanceEntry {
	ops := []ProvenanceEntry{{Op: ProvenanceCompute, Target: target}}
	if len(ast.Filters) > 0 {
		ops = append(ops, ProvenanceEntry{Op: ProvenanceFilter, Target: target})
	}
	if len(ast.OrderBy) > 0 {
		ops = append(ops, ProvenanceEntry{Op: ProvenanceSort, Target: target})
	}
	if ast.Limit != nil {
		ops = append(ops, ProvenanceEntry{Op: ProvenancePaginate, Target: target})
	}
	return ops
}

// runLayer evaluates every node of one topological layer against the
// current baseline, then commits all of their writes at once.
func runLayer(ls *layerState, nodes []*indexer.Node) ([]Diagnostic, []ProvenanceEntry) {
	outcomes := make([]nodeOutcome, len(nodes))
	for i, n := range nodes {
		outcomes[i] = evalNode(ls, n)
	}

	var diags []Diagnostic
	var prov []ProvenanceEntry
	for _, o := range outcomes {
		diags = append(diags, o.diags...)
		prov = append(prov, o.provOps...)
		if o.skip {
			continue
		}
		ls.scope.Bind(o.node.PlainKey, o.value)
		ls.doc.Set(o.node.PlainKey, o.value)
		if o.triple != nil {
			ls.store.Add(*o.triple)
		}
	}
	return diags, prov
}

// runFixpoint iterates a cyclic layer to convergence (spec §4.7, I2): each
// iteration recomputes every node from the previous iteration's committed
// baseline; a node is "changed" if its canonical JSON differs from its
// prior iteration's (absent counts as changed). Iteration stops early once
// a full pass changes nothing, or after 10 iterations, whichever comes
// first; triples are only written once, from the final iteration's
// values, to avoid leaving stale intermediate values in the store.
func runFixpoint(ls *layerState, nodes []*indexer.Node) ([]Diagnostic, []ProvenanceEntry, bool) {
	if len(nodes) == 0 {
		return nil, nil, false
	}

	const maxIterations = 10
	prevCanon := map[string]string{}
	var last []nodeOutcome
	var diags []Diagnostic
	var prov []ProvenanceEntry
	converged := false

	// Bind every cyclic node to Undefined before the first pass so a
	// sibling's read resolves through the scope chain instead of falling
	// through to $this and re-entering that sibling's own (still
	// unevaluated) directive.
	for _, n := range nodes {
		if _, ok := ls.scope.Lookup(n.PlainKey); !ok {
			ls.scope.Bind(n.PlainKey, interp.Undefined{})
		}
	}

	for iter := 0; iter < maxIterations; iter++ {
		outcomes := make([]nodeOutcome, len(nodes))
		for i, n := range nodes {
			outcomes[i] = evalNode(ls, n)
		}

		changed := false
		for i, o := range outcomes {
			if o.skip {
				// A node with no value this pass is absent, and absent
				// counts as changed.
				changed = true
				continue
			}
			cj, err := canonicalJSON(o.value)
			if err != nil {
				continue
			}
			if prevCanon[nodes[i].ID] != cj {
				changed = true
			}
			prevCanon[nodes[i].ID] = cj
			// Make this iteration's values visible to the next
			// iteration's reads (but not to other nodes of this same
			// iteration — they already ran against the prior baseline).
			ls.scope.Bind(o.node.PlainKey, o.value)
			ls.doc.Set(o.node.PlainKey, o.value)
		}

		last = outcomes
		if !changed && iter > 0 {
			converged = true
			break
		}
	}

	if !converged {
		diags = append(diags, diag.New(diag.CodeFixpointLimit, "", "fixpoint layer did not converge within 10 iterations"))
	}

	for _, o := range last {
		diags = append(diags, o.diags...)
		prov = append(prov, o.provOps...)
		if !converged || o.skip || o.triple == nil {
			continue
		}
		ls.store.Add(*o.triple)
	}

	return diags, prov, converged
}

func canonicalJSON(v interp.Value) (string, error) {
	cv, err := toCanon(v)
	if err != nil {
		return "", err
	}
	b, err := canon.Marshal(cv)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimSpace(b)), nil
}
