// Package composer resolves cross-document cooperation before DAG
// evaluation begins (spec §4.10): `@relations` loading through a
// host-supplied loader, `@ref` dotted-path lookups into a loaded
// relation, and `@rollup` aggregation over a relation's array-valued
// property.
package composer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/ldc/internal/decimal"
	"github.com/roach88/ldc/internal/interp"
)

// Loader fetches the sibling document named by path for the given
// relation alias (spec §6: "loader(alias, path) → document"). The host
// supplies this; a nil Loader means `@relations` cannot be resolved and
// every `@ref`/`@rollup` in the document produces a diagnostic.
type Loader func(alias, path string) (interp.Value, error)

// Relations is the read-only name table the Composer builds from a
// document's `@relations` map (spec §4.10: "the loaded document is kept
// read-only in a name table").
type Relations map[string]interp.Value

// LoadRelations resolves a document's `@relations` object (alias → path)
// through loader into a Relations table.
func LoadRelations(doc *interp.Object, loader Loader) (Relations, error) {
	out := Relations{}
	raw, ok := doc.Raw("@relations")
	if !ok {
		return out, nil
	}
	rel, ok := raw.(*interp.Object)
	if !ok {
		return nil, fmt.Errorf("composer: @relations must be an object")
	}
	if loader == nil {
		return nil, fmt.Errorf("composer: document declares @relations but no loader was supplied")
	}
	for _, alias := range rel.Keys() {
		pathVal, _ := rel.Raw(alias)
		path, ok := pathVal.(interp.Str)
		if !ok {
			return nil, fmt.Errorf("composer: @relations.%s must be a string path", alias)
		}
		loaded, err := loader(alias, string(path))
		if err != nil {
			return nil, fmt.Errorf("composer: loading relation %q: %w", alias, err)
		}
		out[alias] = loaded
	}
	return out, nil
}

// ResolveRef resolves a dotted path (with optional `[n]` array indexing)
// against rels. The first path segment names the relation alias. Missing
// segments yield (Undefined, nil) rather than an error (spec §4.10).
func ResolveRef(rels Relations, path string) (interp.Value, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("composer: empty @ref path")
	}
	alias := segs[0].name
	cur, ok := rels[alias]
	if !ok {
		return nil, fmt.Errorf("composer: @ref references unknown relation %q", alias)
	}
	for _, s := range segs[1:] {
		cur = step(cur, s)
	}
	return cur, nil
}

type pathSeg struct {
	name    string
	indices []int
}

// splitPath turns "alias.a.b[0][1].c" into ordered segments, each with an
// optional chain of `[n]` indices applied after its named property.
func splitPath(path string) ([]pathSeg, error) {
	var out []pathSeg
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			continue
		}
		name := part
		var indices []int
		for {
			lb := strings.IndexByte(name, '[')
			if lb < 0 {
				break
			}
			rb := strings.IndexByte(name[lb:], ']')
			if rb < 0 {
				return nil, fmt.Errorf("composer: malformed index in path segment %q", part)
			}
			rb += lb
			n, err := strconv.Atoi(name[lb+1 : rb])
			if err != nil {
				return nil, fmt.Errorf("composer: bad array index in %q: %w", part, err)
			}
			indices = append(indices, n)
			name = name[:lb] + name[rb+1:]
		}
		out = append(out, pathSeg{name: name, indices: indices})
	}
	return out, nil
}

func step(cur interp.Value, s pathSeg) interp.Value {
	if s.name != "" {
		obj, ok := cur.(*interp.Object)
		if !ok {
			return interp.Undefined{}
		}
		v, ok := obj.Raw(s.name)
		if !ok {
			return interp.Undefined{}
		}
		cur = v
	}
	for _, idx := range s.indices {
		arr, ok := cur.(interp.Array)
		if !ok {
			return interp.Undefined{}
		}
		if idx < 0 {
			idx += len(arr)
		}
		if idx < 0 || idx >= len(arr) {
			return interp.Undefined{}
		}
		cur = arr[idx]
	}
	return cur
}

// Rollup is a parsed `@rollup` directive (spec §4.10): fold `select`
// (defaulting to the element itself) across `relation.property`'s array
// elements that pass `filter`, using `aggregate`.
type Rollup struct {
	Relation  string
	Property  string
	Select    string
	Filter    string
	Aggregate string
}

// ParseRollupShorthand parses the `"relation.property.select:aggregate"`
// compact form.
func ParseRollupShorthand(src string) (Rollup, error) {
	i := strings.LastIndexByte(src, ':')
	if i < 0 {
		return Rollup{}, fmt.Errorf("composer: @rollup shorthand missing ':aggregate'")
	}
	head, agg := src[:i], src[i+1:]
	parts := strings.SplitN(head, ".", 3)
	if len(parts) < 2 {
		return Rollup{}, fmt.Errorf("composer: @rollup shorthand needs relation.property")
	}
	r := Rollup{Relation: parts[0], Property: parts[1], Aggregate: agg}
	if len(parts) == 3 {
		r.Select = parts[2]
	}
	return r, nil
}

// Resolve evaluates r against rels, returning the folded value. Filter
// clauses are evaluated by it, the same interpreter the rest of the
// document's expressions run through.
func (r Rollup) Resolve(rels Relations, it *interp.Interpreter) (interp.Value, error) {
	relDoc, ok := rels[r.Relation]
	if !ok {
		return nil, fmt.Errorf("composer: @rollup references unknown relation %q", r.Relation)
	}
	obj, ok := relDoc.(*interp.Object)
	if !ok {
		return nil, fmt.Errorf("composer: relation %q is not a document", r.Relation)
	}
	propRaw, ok := obj.Raw(r.Property)
	if !ok {
		return nil, fmt.Errorf("composer: relation %q has no property %q", r.Relation, r.Property)
	}
	arr, ok := propRaw.(interp.Array)
	if !ok {
		return nil, fmt.Errorf("composer: relation %q.%q is not an array", r.Relation, r.Property)
	}

	var selected []interp.Value
	for _, elem := range arr {
		if r.Filter != "" {
			ok, err := evalFilter(r.Filter, elem, it)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		if r.Select == "" {
			selected = append(selected, elem)
			continue
		}
		elemObj, ok := elem.(*interp.Object)
		if !ok {
			continue
		}
		v, ok := elemObj.Raw(r.Select)
		if !ok {
			continue
		}
		selected = append(selected, v)
	}

	return fold(r.Aggregate, selected)
}

func fold(aggregate string, vals []interp.Value) (interp.Value, error) {
	switch aggregate {
	case "count":
		return interp.Int(len(vals)), nil
	case "first":
		if len(vals) == 0 {
			return interp.Null{}, nil
		}
		return vals[0], nil
	case "last":
		if len(vals) == 0 {
			return interp.Null{}, nil
		}
		return vals[len(vals)-1], nil
	case "all":
		return interp.Array(vals), nil
	case "unique":
		return uniqueValues(vals), nil
	case "concat":
		var parts []string
		for _, v := range vals {
			if s, ok := interp.Serialize(v); ok {
				parts = append(parts, s)
			}
		}
		return interp.Str(strings.Join(parts, ",")), nil
	case "sum", "avg", "min", "max":
		return foldNumeric(aggregate, vals)
	default:
		return nil, fmt.Errorf("composer: unknown rollup aggregate %q", aggregate)
	}
}

func foldNumeric(aggregate string, vals []interp.Value) (interp.Value, error) {
	var decs []decimal.Decimal
	for _, v := range vals {
		if d, ok := interp.AsDecimal(v); ok {
			decs = append(decs, d)
		}
	}
	if len(decs) == 0 {
		return interp.Null{}, nil
	}
	switch aggregate {
	case "sum":
		sum := decimal.New(0)
		for _, d := range decs {
			sum, _ = decimal.Add(sum, d)
		}
		return interp.Dec{D: sum}, nil
	case "avg":
		sum := decimal.New(0)
		for _, d := range decs {
			sum, _ = decimal.Add(sum, d)
		}
		avg, err := decimal.Div(sum, decimal.New(int64(len(decs))))
		if err != nil {
			return nil, err
		}
		return interp.Dec{D: avg}, nil
	case "min":
		best := decs[0]
		for _, d := range decs[1:] {
			if decimal.Cmp(d, best) < 0 {
				best = d
			}
		}
		return interp.Dec{D: best}, nil
	case "max":
		best := decs[0]
		for _, d := range decs[1:] {
			if decimal.Cmp(d, best) > 0 {
				best = d
			}
		}
		return interp.Dec{D: best}, nil
	}
	return interp.Null{}, nil
}

func uniqueValues(vals []interp.Value) interp.Array {
	seen := map[string]bool{}
	var out interp.Array
	for _, v := range vals {
		key, ok := interp.Serialize(v)
		if !ok {
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}
