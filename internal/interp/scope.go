package interp

// Scope is a lexical mapping with a prototypal parent chain (spec §4.4).
// Lambdas capture the scope active at their definition site.
type Scope struct {
	parent *Scope
	vars   map[string]Value
}

// NewScope creates a root scope with no parent.
func NewScope() *Scope {
	return &Scope{vars: map[string]Value{}}
}

// Child creates a new scope whose parent is s.
func (s *Scope) Child() *Scope {
	return &Scope{parent: s, vars: map[string]Value{}}
}

// Bind assigns name in this scope frame (not a parent).
func (s *Scope) Bind(name string, v Value) {
	s.vars[name] = v
}

// Lookup walks the parent chain for name. ok is false if unbound anywhere
// in the chain.
func (s *Scope) Lookup(name string) (Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// This returns the scope's nearest `$this` binding, if any.
func (s *Scope) This() (Value, bool) {
	return s.Lookup("$this")
}
