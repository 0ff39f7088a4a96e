// Package query implements the triple-pattern query sublanguage (spec
// §4.9): pattern unification against a triplestore.Store, filters,
// grouping and aggregation, having, ordering, and limiting.
//
// The AST shape mirrors the teacher's queryir package: Pattern and Term
// are sealed via marker methods so a backend (here, the single Run
// evaluator, but the seal keeps the door open for future engines) gets
// exhaustive type switches instead of an open interface.
package query

import "github.com/roach88/ldc/internal/lang/ast"

// TermKind distinguishes the three shapes a pattern position can hold.
type TermKind int

const (
	TermIRI TermKind = iota
	TermVar
	TermLiteral
)

// Term is one position (subject, predicate, or object) of a triple
// pattern.
type Term struct {
	Kind    TermKind
	IRI     string // TermIRI: the reserved predicate "a" is expanded to rdf:type by the parser
	Var     string // TermVar: the bare name, without its leading '?'
	Literal string // TermLiteral: the literal's string encoding, compared against Triple.Object
}

// Pattern is a sealed interface over the two clause shapes a query body
// admits: a grounded triple pattern, and a left-joining optional group.
type Pattern interface {
	patternNode()
}

// Triple is a single `{s, p, o}` pattern matched against the store.
type Triple struct {
	S, P, O Term
}

func (Triple) patternNode() {}

// Optional is a left-join group: rows that already exist are preserved
// with null bindings for the group's variables when nothing matches
// (spec §4.9 step 1).
type Optional struct {
	Patterns []Triple
	Filters  []ast.Node
}

func (Optional) patternNode() {}

// Agg is one of the five supported fold operations.
type Agg string

const (
	AggSum   Agg = "sum"
	AggCount Agg = "count"
	AggMin   Agg = "min"
	AggMax   Agg = "max"
	AggAvg   Agg = "avg"
)

// SelectItem is one projected output column: either a plain bound
// variable passthrough, or an aggregate fold over an expression (nil
// Expr means count(*)).
type SelectItem struct {
	Name string
	Var  string // set when this is a plain variable passthrough
	Agg  Agg    // set when this column aggregates
	Expr ast.Node
}

// OrderKey is one `"[asc|desc ]var"` entry of an orderBy list.
type OrderKey struct {
	Var  string
	Desc bool
}

// AST is the parsed shape of a `@query` directive or query-engine
// request (spec §4.9).
type AST struct {
	Patterns []Pattern
	Filters  []ast.Node
	Select   []SelectItem
	GroupBy  []string
	Having   []ast.Node
	OrderBy  []OrderKey
	Limit    *int
}

// RDFType is the expansion of the reserved predicate "a".
const RDFType = "rdf:type"
