package query

import (
	"fmt"
	"strings"

	"github.com/roach88/ldc/internal/interp"
	"github.com/roach88/ldc/internal/lang/ast"
	"github.com/roach88/ldc/internal/lang/parser"
)

// ParseDoc turns a decoded `@query` directive object into an AST (spec
// §4.9). The object's shape mirrors the AST's own field names:
// patterns, filters, select, groupBy?, having?, orderBy?, limit?.
func ParseDoc(obj *interp.Object) (*AST, error) {
	q := &AST{}

	if raw, ok := obj.Raw("patterns"); ok {
		arr, ok := raw.(interp.Array)
		if !ok {
			return nil, fmt.Errorf("query: patterns must be an array")
		}
		for _, p := range arr {
			pat, err := parsePattern(p)
			if err != nil {
				return nil, err
			}
			q.Patterns = append(q.Patterns, pat)
		}
	}

	var err error
	if q.Filters, err = parseExprList(obj, "filters"); err != nil {
		return nil, err
	}
	if q.Having, err = parseExprList(obj, "having"); err != nil {
		return nil, err
	}

	if raw, ok := obj.Raw("select"); ok {
		arr, ok := raw.(interp.Array)
		if !ok {
			return nil, fmt.Errorf("query: select must be an array")
		}
		for _, s := range arr {
			item, err := parseSelectItem(s)
			if err != nil {
				return nil, err
			}
			q.Select = append(q.Select, item)
		}
	}

	if raw, ok := obj.Raw("groupBy"); ok {
		arr, ok := raw.(interp.Array)
		if !ok {
			return nil, fmt.Errorf("query: groupBy must be an array")
		}
		for _, g := range arr {
			s, ok := g.(interp.Str)
			if !ok {
				return nil, fmt.Errorf("query: groupBy entries must be strings")
			}
			q.GroupBy = append(q.GroupBy, string(s))
		}
	}

	if raw, ok := obj.Raw("orderBy"); ok {
		arr, ok := raw.(interp.Array)
		if !ok {
			return nil, fmt.Errorf("query: orderBy must be an array")
		}
		for _, o := range arr {
			s, ok := o.(interp.Str)
			if !ok {
				return nil, fmt.Errorf("query: orderBy entries must be strings")
			}
			q.OrderBy = append(q.OrderBy, parseOrderKey(string(s)))
		}
	}

	if raw, ok := obj.Raw("limit"); ok {
		n, ok := interp.AsDecimal(raw)
		if !ok {
			return nil, fmt.Errorf("query: limit must be numeric")
		}
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("query: limit must be an integer")
		}
		limit := int(i)
		q.Limit = &limit
	}

	return q, nil
}

func parsePattern(v interp.Value) (Pattern, error) {
	obj, ok := v.(*interp.Object)
	if !ok {
		return nil, fmt.Errorf("query: pattern must be an object")
	}
	if raw, ok := obj.Raw("optional"); ok {
		arr, ok := raw.(interp.Array)
		if !ok {
			return nil, fmt.Errorf("query: optional must be an array of triple patterns")
		}
		opt := Optional{}
		for _, e := range arr {
			tp, err := parseTriple(e)
			if err != nil {
				return nil, err
			}
			opt.Patterns = append(opt.Patterns, tp)
		}
		filters, err := parseExprList(obj, "filters")
		if err != nil {
			return nil, err
		}
		opt.Filters = filters
		return opt, nil
	}
	return parseTriple(obj)
}

func parseTriple(v interp.Value) (Triple, error) {
	obj, ok := v.(*interp.Object)
	if !ok {
		return Triple{}, fmt.Errorf("query: triple pattern must be an object")
	}
	s, ok := obj.Raw("s")
	if !ok {
		return Triple{}, fmt.Errorf("query: triple pattern missing s")
	}
	p, ok := obj.Raw("p")
	if !ok {
		return Triple{}, fmt.Errorf("query: triple pattern missing p")
	}
	o, ok := obj.Raw("o")
	if !ok {
		return Triple{}, fmt.Errorf("query: triple pattern missing o")
	}
	sT, err := parseIRIOrVarTerm(s)
	if err != nil {
		return Triple{}, err
	}
	pT, err := parseIRIOrVarTerm(p)
	if err != nil {
		return Triple{}, err
	}
	oT, err := parseObjectTerm(o)
	if err != nil {
		return Triple{}, err
	}
	return Triple{S: sT, P: pT, O: oT}, nil
}

// parseIRIOrVarTerm parses a subject or predicate position: always an
// IRI literal or a `?`-prefixed variable. The reserved predicate "a"
// expands to rdf:type (spec §4.9).
func parseIRIOrVarTerm(v interp.Value) (Term, error) {
	s, ok := v.(interp.Str)
	if !ok {
		return Term{}, fmt.Errorf("query: subject/predicate term must be a string")
	}
	if strings.HasPrefix(string(s), "?") {
		return Term{Kind: TermVar, Var: strings.TrimPrefix(string(s), "?")}, nil
	}
	if string(s) == "a" {
		return Term{Kind: TermIRI, IRI: RDFType}, nil
	}
	return Term{Kind: TermIRI, IRI: string(s)}, nil
}

// parseObjectTerm parses an object position: a `?`-prefixed variable, or
// any literal value, serialized the same way the triple store's objects
// are (spec §6) so equality-matching lines up.
func parseObjectTerm(v interp.Value) (Term, error) {
	if s, ok := v.(interp.Str); ok && strings.HasPrefix(string(s), "?") {
		return Term{Kind: TermVar, Var: strings.TrimPrefix(string(s), "?")}, nil
	}
	lit, ok := interp.Serialize(v)
	if !ok {
		return Term{}, fmt.Errorf("query: object term must be a scalar")
	}
	return Term{Kind: TermLiteral, Literal: lit}, nil
}

func parseExprList(obj *interp.Object, key string) ([]ast.Node, error) {
	raw, ok := obj.Raw(key)
	if !ok {
		return nil, nil
	}
	arr, ok := raw.(interp.Array)
	if !ok {
		return nil, fmt.Errorf("query: %s must be an array", key)
	}
	var out []ast.Node
	for _, e := range arr {
		src, ok := e.(interp.Str)
		if !ok {
			return nil, fmt.Errorf("query: %s entries must be strings", key)
		}
		node, err := parser.Parse(string(src))
		if err != nil {
			return nil, fmt.Errorf("query: %s: %w", key, err)
		}
		out = append(out, node)
	}
	return out, nil
}

func parseSelectItem(v interp.Value) (SelectItem, error) {
	if s, ok := v.(interp.Str); ok {
		name := strings.TrimPrefix(string(s), "?")
		return SelectItem{Name: name, Var: name}, nil
	}
	obj, ok := v.(*interp.Object)
	if !ok {
		return SelectItem{}, fmt.Errorf("query: select entries must be a string or object")
	}
	item := SelectItem{}
	if raw, ok := obj.Raw("name"); ok {
		s, ok := raw.(interp.Str)
		if !ok {
			return SelectItem{}, fmt.Errorf("query: select.name must be a string")
		}
		item.Name = string(s)
	}
	if raw, ok := obj.Raw("var"); ok {
		s, ok := raw.(interp.Str)
		if !ok {
			return SelectItem{}, fmt.Errorf("query: select.var must be a string")
		}
		item.Var = strings.TrimPrefix(string(s), "?")
		if item.Name == "" {
			item.Name = item.Var
		}
	}
	if raw, ok := obj.Raw("agg"); ok {
		s, ok := raw.(interp.Str)
		if !ok {
			return SelectItem{}, fmt.Errorf("query: select.agg must be a string")
		}
		item.Agg = Agg(s)
		if item.Name == "" {
			item.Name = string(s)
		}
	}
	if raw, ok := obj.Raw("expr"); ok {
		s, ok := raw.(interp.Str)
		if !ok {
			return SelectItem{}, fmt.Errorf("query: select.expr must be a string")
		}
		node, err := parser.Parse(string(s))
		if err != nil {
			return SelectItem{}, fmt.Errorf("query: select.expr: %w", err)
		}
		item.Expr = node
	}
	return item, nil
}

func parseOrderKey(src string) OrderKey {
	fields := strings.Fields(src)
	switch len(fields) {
	case 1:
		return OrderKey{Var: strings.TrimPrefix(fields[0], "?")}
	case 2:
		return OrderKey{
			Var:  strings.TrimPrefix(fields[1], "?"),
			Desc: strings.EqualFold(fields[0], "desc"),
		}
	default:
		return OrderKey{Var: strings.TrimPrefix(src, "?")}
	}
}
