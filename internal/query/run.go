package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/ldc/internal/decimal"
	"github.com/roach88/ldc/internal/interp"
	"github.com/roach88/ldc/internal/lang/ast"
	"github.com/roach88/ldc/internal/triplestore"
)

// Row is one binding set: query variable name (without its leading '?')
// to the value currently bound to it.
type Row map[string]interp.Value

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Run executes q against store, following the six-step pipeline of spec
// §4.9: pattern unification, filters, group/aggregate, having, orderBy,
// limit.
func Run(store *triplestore.Store, it *interp.Interpreter, q *AST) ([]Row, error) {
	rows := []Row{{}}

	for _, p := range q.Patterns {
		switch t := p.(type) {
		case Triple:
			rows = extend(rows, store, t)
		case Optional:
			var err error
			rows, err = leftJoin(rows, store, t, it)
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("query: unknown pattern type %T", p)
		}
	}

	rows, err := filterRows(rows, it, q.Filters)
	if err != nil {
		return nil, err
	}

	rows, err = project(rows, q, it)
	if err != nil {
		return nil, err
	}

	rows, err = filterRows(rows, it, q.Having)
	if err != nil {
		return nil, err
	}

	rows = orderBy(rows, q.OrderBy)

	if q.Limit != nil && len(rows) > *q.Limit {
		rows = rows[:*q.Limit]
	}

	return rows, nil
}

func resolveTerm(t Term, row Row) (string, bool) {
	switch t.Kind {
	case TermIRI:
		return t.IRI, true
	case TermLiteral:
		return t.Literal, true
	case TermVar:
		if v, ok := row[t.Var]; ok {
			if s, ok := interp.Serialize(v); ok {
				return s, true
			}
		}
		return "", false
	default:
		return "", false
	}
}

// bindTerm attempts to unify t against a matched string value, rejecting
// inconsistent re-bindings (spec §4.9 step 1).
func bindTerm(t Term, value string, row Row) bool {
	if t.Kind != TermVar {
		return true
	}
	if existing, ok := row[t.Var]; ok {
		if s, ok := interp.Serialize(existing); ok && s != value {
			return false
		}
		return true
	}
	row[t.Var] = interp.Str(value)
	return true
}

func extend(rows []Row, store *triplestore.Store, t Triple) []Row {
	var out []Row
	for _, row := range rows {
		s, _ := resolveTerm(t.S, row)
		p, _ := resolveTerm(t.P, row)
		o, _ := resolveTerm(t.O, row)
		pattern := triplestore.Pattern{Subject: s, Predicate: p, Object: o}

		for _, m := range store.Match(pattern) {
			candidate := row.Clone()
			if bindTerm(t.S, m.Subject, candidate) &&
				bindTerm(t.P, m.Predicate, candidate) &&
				bindTerm(t.O, m.Object, candidate) {
				out = append(out, candidate)
			}
		}
	}
	return out
}

func leftJoin(rows []Row, store *triplestore.Store, opt Optional, it *interp.Interpreter) ([]Row, error) {
	var out []Row
	vars := optionalVars(opt.Patterns)

	for _, row := range rows {
		sub := []Row{row}
		for _, t := range opt.Patterns {
			sub = extend(sub, store, t)
		}
		var err error
		sub, err = filterRows(sub, it, opt.Filters)
		if err != nil {
			return nil, err
		}

		if len(sub) == 0 {
			padded := row.Clone()
			for _, v := range vars {
				if _, ok := padded[v]; !ok {
					padded[v] = interp.Null{}
				}
			}
			out = append(out, padded)
			continue
		}
		out = append(out, sub...)
	}
	return out, nil
}

func optionalVars(patterns []Triple) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range patterns {
		for _, term := range []Term{t.S, t.P, t.O} {
			if term.Kind == TermVar && !seen[term.Var] {
				seen[term.Var] = true
				out = append(out, term.Var)
			}
		}
	}
	return out
}

// filterRows keeps only rows where every filter expression evaluates
// truthy. Each row's bindings are exposed both under their "?x" query
// name and the plain "x" alias (spec §4.9 step 2).
func filterRows(rows []Row, it *interp.Interpreter, filters []ast.Node) ([]Row, error) {
	if len(filters) == 0 {
		return rows, nil
	}
	var out []Row
	for _, row := range rows {
		scope := scopeForRow(row)
		keep := true
		for _, f := range filters {
			v, err := it.Eval(f, scope)
			if err != nil {
				return nil, err
			}
			if !interp.Truthy(v) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, row)
		}
	}
	return out, nil
}

func scopeForRow(row Row) *interp.Scope {
	scope := interp.NewScope()
	for k, v := range row {
		scope.Bind(k, v)
		scope.Bind("?"+k, v)
	}
	return scope
}

func anyAgg(items []SelectItem) bool {
	for _, s := range items {
		if s.Agg != "" {
			return true
		}
	}
	return false
}

// project implements steps 3 (group/aggregate) of the pipeline: plain
// passthrough when there is no grouping and no aggregate column, a
// single aggregated row when there's no groupBy but an aggregate is
// present, or one aggregated row per group otherwise.
func project(rows []Row, q *AST, it *interp.Interpreter) ([]Row, error) {
	if len(q.GroupBy) == 0 && !anyAgg(q.Select) {
		out := make([]Row, len(rows))
		for i, r := range rows {
			out[i] = projectPlain(r, q.Select)
		}
		return out, nil
	}
	if len(q.GroupBy) == 0 {
		agg, err := aggregateGroup(rows, q.Select, it, nil)
		if err != nil {
			return nil, err
		}
		return []Row{agg}, nil
	}

	groups := map[string][]Row{}
	var order []string
	for _, r := range rows {
		key := groupKeyOf(r, q.GroupBy)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}
	out := make([]Row, 0, len(order))
	for _, key := range order {
		agg, err := aggregateGroup(groups[key], q.Select, it, q.GroupBy)
		if err != nil {
			return nil, err
		}
		out = append(out, agg)
	}
	return out, nil
}

func projectPlain(row Row, items []SelectItem) Row {
	if len(items) == 0 {
		return row
	}
	out := Row{}
	for _, item := range items {
		if item.Var != "" {
			out[item.Name] = row[item.Var]
		}
	}
	return out
}

func groupKeyOf(row Row, groupBy []string) string {
	var b strings.Builder
	for _, g := range groupBy {
		s, _ := interp.Serialize(row[g])
		b.WriteString(g)
		b.WriteByte('=')
		b.WriteString(s)
		b.WriteByte('\x1f')
	}
	return b.String()
}

func aggregateGroup(rows []Row, items []SelectItem, it *interp.Interpreter, groupBy []string) (Row, error) {
	out := Row{}
	for _, g := range groupBy {
		if len(rows) > 0 {
			out[g] = rows[0][g]
		}
	}
	for _, item := range items {
		if item.Agg == "" {
			if item.Var != "" && len(rows) > 0 {
				out[item.Name] = rows[0][item.Var]
			}
			continue
		}
		v, err := foldAgg(item.Agg, item.Expr, rows, it)
		if err != nil {
			return nil, err
		}
		out[item.Name] = v
	}
	return out, nil
}

func foldAgg(agg Agg, expr ast.Node, rows []Row, it *interp.Interpreter) (interp.Value, error) {
	if agg == AggCount && expr == nil {
		return interp.Int(len(rows)), nil
	}

	vals := make([]decimal.Decimal, 0, len(rows))
	nonNull := 0
	for _, row := range rows {
		var v interp.Value
		if expr == nil {
			nonNull++
			continue
		}
		var err error
		v, err = it.Eval(expr, scopeForRow(row))
		if err != nil {
			return nil, err
		}
		if interp.IsNullish(v) {
			continue
		}
		nonNull++
		d, ok := interp.AsDecimal(v)
		if !ok {
			// Pattern bindings carry the store's string encoding, so a
			// numeric object such as "10" is parsed back to a decimal.
			s, isStr := v.(interp.Str)
			if !isStr {
				continue
			}
			parsed, err := decimal.Parse(string(s))
			if err != nil {
				continue
			}
			d = parsed
		}
		vals = append(vals, d)
	}

	switch agg {
	case AggCount:
		return interp.Int(nonNull), nil
	case AggSum:
		return interp.Dec{D: sumDecimals(vals)}, nil
	case AggAvg:
		if len(vals) == 0 {
			return interp.Null{}, nil
		}
		sum := sumDecimals(vals)
		avg, err := decimal.Div(sum, decimal.New(int64(len(vals))))
		if err != nil {
			return nil, err
		}
		return interp.Dec{D: avg}, nil
	case AggMin:
		return extremum(vals, -1)
	case AggMax:
		return extremum(vals, 1)
	default:
		return nil, fmt.Errorf("query: unknown aggregate %q", agg)
	}
}

func sumDecimals(vals []decimal.Decimal) decimal.Decimal {
	sum := decimal.New(0)
	for _, v := range vals {
		sum, _ = decimal.Add(sum, v)
	}
	return sum
}

func extremum(vals []decimal.Decimal, want int) (interp.Value, error) {
	if len(vals) == 0 {
		return interp.Null{}, nil
	}
	best := vals[0]
	for _, v := range vals[1:] {
		if decimal.Cmp(v, best) == want {
			best = v
		}
	}
	return interp.Dec{D: best}, nil
}

func orderBy(rows []Row, keys []OrderKey) []Row {
	if len(keys) == 0 {
		return rows
	}
	out := append([]Row(nil), rows...)
	for i := len(keys) - 1; i >= 0; i-- {
		k := keys[i]
		sort.SliceStable(out, func(a, b int) bool {
			less := lessValue(out[a][k.Var], out[b][k.Var])
			if k.Desc {
				return lessValue(out[b][k.Var], out[a][k.Var])
			}
			return less
		})
	}
	return out
}

func lessValue(a, b interp.Value) bool {
	if da, ok := interp.AsDecimal(a); ok {
		if db, ok := interp.AsDecimal(b); ok {
			return decimal.Cmp(da, db) < 0
		}
	}
	sa, _ := interp.Serialize(a)
	sb, _ := interp.Serialize(b)
	return sa < sb
}
