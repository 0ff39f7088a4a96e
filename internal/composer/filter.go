package composer

import (
	"fmt"

	"github.com/roach88/ldc/internal/interp"
	"github.com/roach88/ldc/internal/lang/parser"
)

// evalFilter parses src with the same expression parser `@expr`/`@constraint`
// use and evaluates it against elem, binding elem as `$this` — a rollup
// filter is just a boolean expression over one relation-array element, not
// a separate grammar (spec §9: "evaluates the filter as a boolean against
// each item — uniform semantics with the rest of the engine").
func evalFilter(src string, elem interp.Value, it *interp.Interpreter) (bool, error) {
	node, err := parser.Parse(src)
	if err != nil {
		return false, fmt.Errorf("composer: malformed rollup filter %q: %w", src, err)
	}
	scope := interp.NewScope()
	scope.Bind("$this", elem)
	if obj, ok := elem.(*interp.Object); ok {
		for _, k := range obj.Keys() {
			v, _ := obj.Raw(k)
			scope.Bind(k, v)
		}
	}
	val, err := it.Eval(node, scope)
	if err != nil {
		return false, err
	}
	return interp.Truthy(val), nil
}
