package ast

import "sort"

// FreeVars returns the sorted, deduplicated set of identifiers n
// references that are not bound by an enclosing Lambda parameter. The
// indexer (spec §4.6) uses this to compute a computation node's "reads"
// set for dependency-graph construction: "reads (free vars excluding
// lambda params)".
//
// $this and $-prefixed builtin names are free vars like any other
// identifier; the interpreter's own name-resolution order decides at
// eval time whether a given free var actually resolves against $this,
// a builtin, or an aggregate. The indexer only needs the syntactic set.
func FreeVars(n Node) []string {
	seen := map[string]bool{}
	walkFreeVars(n, map[string]bool{}, seen)
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func walkFreeVars(n Node, bound map[string]bool, out map[string]bool) {
	if n == nil {
		return
	}
	switch t := n.(type) {
	case *Literal:
		// no identifiers
	case *Identifier:
		if !bound[t.Name] {
			out[t.Name] = true
		}
	case *Unary:
		walkFreeVars(t.X, bound, out)
	case *Binary:
		walkFreeVars(t.L, bound, out)
		walkFreeVars(t.R, bound, out)
	case *Ternary:
		walkFreeVars(t.Cond, bound, out)
		walkFreeVars(t.Then, bound, out)
		walkFreeVars(t.Else, bound, out)
	case *Member:
		walkFreeVars(t.X, bound, out)
	case *Index:
		walkFreeVars(t.X, bound, out)
		walkFreeVars(t.Index, bound, out)
	case *Call:
		walkFreeVars(t.Callee, bound, out)
		for _, a := range t.Args {
			walkFreeVars(a, bound, out)
		}
	case *Lambda:
		inner := make(map[string]bool, len(bound)+len(t.Params))
		for k := range bound {
			inner[k] = true
		}
		for _, p := range t.Params {
			inner[p] = true
		}
		walkFreeVars(t.Body, inner, out)
	case *ArrayLit:
		for _, e := range t.Elems {
			walkFreeVars(e, bound, out)
		}
	case *ObjectLit:
		for _, v := range t.Vals {
			walkFreeVars(v, bound, out)
		}
	}
}
