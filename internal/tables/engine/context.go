package engine

import "maps"

// MaxDepth is the deepest context depth whose nested references are still
// rolled. References found while rolling deeper tables are left as
// truncated UnresolvedLeaf nodes: tables nested past 10 levels stop
// auto-expanding. This bounds cyclic reference graphs without detecting
// cycles.
const MaxDepth = 10

// Context is the immutable state threaded through recursive resolution.
// Every method returns a copy; a Context is never changed in place.
type Context struct {
	Depth int
	vars  map[string]int
}

// NewContext returns a depth-0 context holding a copy of vars.
func NewContext(vars map[string]int) Context {
	return Context{vars: maps.Clone(vars)}
}

// Var returns the value bound to key.
func (c Context) Var(key string) (int, bool) {
	v, ok := c.vars[key]
	return v, ok
}

// Vars returns a copy of the bound variables.
func (c Context) Vars() map[string]int {
	out := maps.Clone(c.vars)
	if out == nil {
		out = map[string]int{}
	}
	return out
}

// With returns a copy of c with key bound to value.
func (c Context) With(key string, value int) Context {
	return c.WithAll(map[string]int{key: value})
}

// WithAll returns a copy of c extended with values.
func (c Context) WithAll(values map[string]int) Context {
	if len(values) == 0 {
		return c
	}
	vars := make(map[string]int, len(c.vars)+len(values))
	maps.Copy(vars, c.vars)
	maps.Copy(vars, values)
	return Context{Depth: c.Depth, vars: vars}
}

// Child returns a copy of c one level deeper.
func (c Context) Child() Context {
	return Context{Depth: c.Depth + 1, vars: c.vars}
}
