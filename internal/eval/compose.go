package eval

import (
	"errors"
	"strings"

	"github.com/roach88/ldc/internal/composer"
	"github.com/roach88/ldc/internal/diag"
	"github.com/roach88/ldc/internal/interp"
)

var errNotARollup = errors.New("eval: @rollup must be a shorthand string or an object")

// resolveComposerProps builds the "working copy" spec §4.10 describes:
// every top-level property shaped like `{"@ref": path}` or `{"@rollup":
// shorthand|object}` is replaced by its resolved value before the indexer
// ever sees the document, so the rest of evaluation treats it as an
// ordinary inert (or computable-over) value.
func resolveComposerProps(doc *interp.Object, rels composer.Relations, it *interp.Interpreter) (*interp.Object, []Diagnostic) {
	var diags []Diagnostic
	out := interp.NewObject()

	for _, key := range doc.Keys() {
		raw, _ := doc.Raw(key)
		if strings.HasPrefix(key, "@") {
			out.Set(key, raw)
			continue
		}

		obj, ok := raw.(*interp.Object)
		if !ok {
			out.Set(key, raw)
			continue
		}

		if refRaw, ok := obj.Raw("@ref"); ok {
			path, ok := refRaw.(interp.Str)
			if !ok {
				diags = append(diags, diag.New(diag.CodeBadRef, key, "@ref must be a string path"))
				out.Set(key, interp.Undefined{})
				continue
			}
			val, err := composer.ResolveRef(rels, string(path))
			if err != nil {
				diags = append(diags, diag.New(diag.CodeBadRef, key, err.Error()))
				out.Set(key, interp.Undefined{})
				continue
			}
			out.Set(key, val)
			continue
		}

		if rollupRaw, ok := obj.Raw("@rollup"); ok {
			r, err := parseRollupValue(rollupRaw)
			if err != nil {
				diags = append(diags, diag.New(diag.CodeBadRollup, key, err.Error()))
				out.Set(key, interp.Undefined{})
				continue
			}
			val, err := r.Resolve(rels, it)
			if err != nil {
				diags = append(diags, diag.New(diag.CodeBadRollup, key, err.Error()))
				out.Set(key, interp.Undefined{})
				continue
			}
			out.Set(key, val)
			continue
		}

		out.Set(key, raw)
	}

	return out, diags
}

func parseRollupValue(v interp.Value) (composer.Rollup, error) {
	switch t := v.(type) {
	case interp.Str:
		return composer.ParseRollupShorthand(string(t))
	case *interp.Object:
		r := composer.Rollup{}
		if s, ok := t.Raw("relation"); ok {
			if str, ok := s.(interp.Str); ok {
				r.Relation = string(str)
			}
		}
		if s, ok := t.Raw("property"); ok {
			if str, ok := s.(interp.Str); ok {
				r.Property = string(str)
			}
		}
		if s, ok := t.Raw("select"); ok {
			if str, ok := s.(interp.Str); ok {
				r.Select = string(str)
			}
		}
		if s, ok := t.Raw("filter"); ok {
			if str, ok := s.(interp.Str); ok {
				r.Filter = string(str)
			}
		}
		if s, ok := t.Raw("aggregate"); ok {
			if str, ok := s.(interp.Str); ok {
				r.Aggregate = string(str)
			}
		}
		return r, nil
	default:
		return composer.Rollup{}, errNotARollup
	}
}
