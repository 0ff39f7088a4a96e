// Package indexer walks a parsed document once and classifies each
// top-level property into a seed triple, a computation DAG node, or a
// cross-document reference already resolved by the composer (spec §4.6).
package indexer

import (
	"strconv"
	"strings"

	"github.com/roach88/ldc/internal/diag"
	"github.com/roach88/ldc/internal/interp"
	"github.com/roach88/ldc/internal/lang/ast"
	"github.com/roach88/ldc/internal/lang/parser"
	"github.com/roach88/ldc/internal/triplestore"
)

// Kind distinguishes the four directive shapes a computation property may
// carry.
type Kind int

const (
	KindExpr Kind = iota
	KindView
	KindConstraint
	KindQuery
)

func (k Kind) String() string {
	switch k {
	case KindExpr:
		return "expr"
	case KindView:
		return "view"
	case KindConstraint:
		return "constraint"
	case KindQuery:
		return "query"
	default:
		return "unknown"
	}
}

// Node is a computation DAG vertex (spec §4.6): a parsed directive with
// enough identity (plain key and expanded IRI) for the scheduler to match
// dependencies regardless of which name a reader used.
type Node struct {
	ID       string // expanded predicate IRI
	PlainKey string
	Kind     Kind
	Reads    []string // free variables, excluding lambda params
	Expr     ast.Node // set for Expr, View, Constraint
	QueryDoc *interp.Object
	Stable   bool // @view's @stable hint; no semantic effect in the core
}

// Context is the document's expanded @context prefix table plus the
// subject IRI derived from @id, both needed to turn plain keys and
// CURIEs into absolute IRIs (spec §3 "Context map").
type Context struct {
	Subject string
	prefix  map[string]string
	order   []string // insertion order; first entry is the default base
}

// NewContext builds a Context from a document's raw "@context" object (may
// be nil) and its "@id" value.
func NewContext(rawContext *interp.Object, id string) *Context {
	c := &Context{prefix: map[string]string{}}
	if rawContext != nil {
		for _, k := range rawContext.Keys() {
			v, _ := rawContext.Raw(k)
			if s, ok := v.(interp.Str); ok {
				c.prefix[k] = string(s)
				c.order = append(c.order, k)
			}
		}
	}
	c.Subject = c.Expand(id)
	return c
}

// Expand turns a CURIE ("prefix:local"), an already-absolute IRI
// ("scheme://..."), or a bare local name (using the context's first
// entry as base) into an absolute IRI.
func (c *Context) Expand(name string) string {
	if name == "" {
		return ""
	}
	if strings.Contains(name, "://") {
		return name
	}
	if i := strings.IndexByte(name, ':'); i >= 0 {
		prefix, local := name[:i], name[i+1:]
		if base, ok := c.prefix[prefix]; ok {
			return base + local
		}
	}
	if len(c.order) > 0 {
		return c.prefix[c.order[0]] + name
	}
	return name
}

// Result is everything the scheduler and evaluator façade need after one
// indexing pass.
type Result struct {
	Context     *Context
	Nodes       []*Node
	Seeds       []triplestore.Triple
	Diagnostics []diag.Diagnostic
}

// directive key precedence, per spec §4.6: "exactly one of @expr, @view,
// @query, @constraint (if more than one, the first in the above order is
// chosen)".
var directiveOrder = []string{"@expr", "@view", "@query", "@constraint"}

// Index classifies every non-"@" top-level property of doc.
func Index(doc *interp.Object) *Result {
	rawContext, _ := doc.Raw("@context")
	ctxObj, _ := rawContext.(*interp.Object)
	id, _ := doc.Raw("@id")
	idStr, _ := id.(interp.Str)
	ctx := NewContext(ctxObj, string(idStr))

	res := &Result{Context: ctx}

	for _, key := range doc.Keys() {
		if strings.HasPrefix(key, "@") {
			continue
		}
		raw, _ := doc.Raw(key)
		iri := ctx.Expand(key)

		if obj, ok := raw.(*interp.Object); ok {
			if node, diags, handled := classifyDirective(obj, key, iri); handled {
				res.Diagnostics = append(res.Diagnostics, diags...)
				if node != nil {
					res.Nodes = append(res.Nodes, node)
				}
				continue
			}
		}

		res.Seeds = append(res.Seeds, seedInert(ctx.Subject, key, iri, raw)...)
	}

	return res
}

// classifyDirective inspects obj for one of the four directive keys. handled
// is true whenever obj is recognizably a directive object (even a
// malformed one, which still consumes the property instead of falling
// through to seeding).
func classifyDirective(obj *interp.Object, key, iri string) (node *Node, diags []diag.Diagnostic, handled bool) {
	var present []string
	for _, d := range directiveOrder {
		if _, ok := obj.Raw(d); ok {
			present = append(present, d)
		}
	}
	if len(present) == 0 {
		return nil, nil, false
	}
	if len(present) > 1 {
		diags = append(diags, diag.New(diag.CodeSchemaError, iri,
			"multiple directive keys on property "+key+"; using "+present[0]))
	}

	switch present[0] {
	case "@expr":
		src, ok := stringField(obj, "@expr")
		if !ok {
			return nil, append(diags, diag.New(diag.CodeSchemaError, iri, "@expr must be a string")), true
		}
		n, err := parseExpr(src, key, iri, KindExpr, false)
		if err != nil {
			return nil, append(diags, diag.New(diag.CodeExprErr, iri, err.Error())), true
		}
		return n, diags, true

	case "@view":
		raw, _ := obj.Raw("@view")
		viewObj, ok := raw.(*interp.Object)
		if !ok {
			return nil, append(diags, diag.New(diag.CodeSchemaError, iri, "@view must be an object")), true
		}
		src, ok := stringField(viewObj, "@expr")
		if !ok {
			return nil, append(diags, diag.New(diag.CodeSchemaError, iri, "@view.@expr must be a string")), true
		}
		stable := false
		if b, ok := viewObj.Raw("@stable"); ok {
			if bv, ok := b.(interp.Bool); ok {
				stable = bool(bv)
			}
		}
		n, err := parseExpr(src, key, iri, KindView, stable)
		if err != nil {
			return nil, append(diags, diag.New(diag.CodeExprErr, iri, err.Error())), true
		}
		return n, diags, true

	case "@constraint":
		src, ok := stringField(obj, "@constraint")
		if !ok {
			return nil, append(diags, diag.New(diag.CodeSchemaError, iri, "@constraint must be a string")), true
		}
		n, err := parseExpr(src, key, iri, KindConstraint, false)
		if err != nil {
			return nil, append(diags, diag.New(diag.CodeExprErr, iri, err.Error())), true
		}
		return n, diags, true

	case "@query":
		raw, _ := obj.Raw("@query")
		queryObj, ok := raw.(*interp.Object)
		if !ok {
			return nil, append(diags, diag.New(diag.CodeSchemaError, iri, "@query must be an object")), true
		}
		return &Node{ID: iri, PlainKey: key, Kind: KindQuery, QueryDoc: queryObj}, diags, true
	}

	return nil, diags, true
}

func stringField(obj *interp.Object, key string) (string, bool) {
	v, ok := obj.Raw(key)
	if !ok {
		return "", false
	}
	s, ok := v.(interp.Str)
	return string(s), ok
}

func parseExpr(src, key, iri string, kind Kind, stable bool) (*Node, error) {
	node, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	return &Node{
		ID:       iri,
		PlainKey: key,
		Kind:     kind,
		Reads:    ast.FreeVars(node),
		Expr:     node,
		Stable:   stable,
	}, nil
}

// seedInert produces triples for a non-directive top-level property.
// Scalars directly on the root subject are not seeded (spec §4.6, "to
// keep output stable"); nested scalars inside an inline object or array
// of objects are seeded under a synthetic subject.
func seedInert(subject, key, iri string, v interp.Value) []triplestore.Triple {
	switch t := v.(type) {
	case *interp.Object:
		synth := subject + "/" + key
		return seedObjectFields(synth, t)
	case interp.Array:
		var out []triplestore.Triple
		for i, elem := range t {
			if obj, ok := elem.(*interp.Object); ok {
				synth := subject + "/" + key + "/" + strconv.Itoa(i)
				out = append(out, seedObjectFields(synth, obj)...)
				continue
			}
			if s, ok := interp.Serialize(elem); ok {
				out = append(out, triplestore.Triple{Subject: subject, Predicate: iri, Object: s})
			}
		}
		return out
	default:
		// Root scalar: not seeded (spec §4.6).
		return nil
	}
}

// seedObjectFields seeds the scalar fields of a nested inline object
// (nested directives, if any, are resolved lazily by the interpreter's
// auto-memoization on read, not by the indexer — spec's REDESIGN FLAGS
// notes this as the reference behavior for nested @expr).
func seedObjectFields(subject string, obj *interp.Object) []triplestore.Triple {
	var out []triplestore.Triple
	for _, k := range obj.Keys() {
		if strings.HasPrefix(k, "@") {
			continue
		}
		raw, _ := obj.Raw(k)
		if s, ok := interp.Serialize(raw); ok {
			out = append(out, triplestore.Triple{Subject: subject, Predicate: k, Object: s})
		}
	}
	return out
}
