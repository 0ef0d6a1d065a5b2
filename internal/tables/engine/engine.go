package engine

import (
	"github.com/louisbranch/rollable/internal/random"
	"github.com/louisbranch/rollable/internal/tables/dice"
	"github.com/louisbranch/rollable/internal/tables/ref"
	"github.com/louisbranch/rollable/internal/tables/table"
	"github.com/louisbranch/rollable/internal/tables/template"
)

// MaxRerolls bounds how many times one repeat re-rolls an ignored total.
// When the bound is hit the batch stops early.
const MaxRerolls = 100

// Engine resolves references against a registry.
type Engine struct {
	registry *table.Registry
}

// New returns an engine reading definitions from registry.
func New(registry *table.Registry) *Engine {
	return &Engine{registry: registry}
}

// Outcome is the result of resolving a reference.
type Outcome struct {
	Node Node
	// Context is the caller's context extended with the node's exports.
	Context Context
}

// Resolve rolls r, whose raw path is relative to the definition at from.
// Paths that do not resolve to a definition produce an UnresolvedLeaf.
func (e *Engine) Resolve(r ref.Ref, from string, ctx Context, src random.Source) (Outcome, random.Source) {
	n, src := e.resolve(r, from, ctx, src)
	return Outcome{Node: n, Context: ctx.WithAll(n.Exports())}, src
}

func (e *Engine) resolve(r ref.Ref, from string, ctx Context, src random.Source) (Node, random.Source) {
	resolved, err := e.registry.Resolve(r.Path, from)
	if err != nil {
		return &UnresolvedLeaf{Path: r.Path, Ref: r}, src
	}
	def, ok := e.registry.Lookup(resolved)
	if !ok {
		return &UnresolvedLeaf{Path: resolved, Ref: r}, src
	}
	switch def := def.(type) {
	case *table.Table:
		return e.rollTable(resolved, r, def, ctx, src)
	case *table.Bundle:
		return e.rollBundle(resolved, r, def, ctx, src)
	default:
		return &UnresolvedLeaf{Path: resolved, Ref: r}, src
	}
}

// nested resolves references found inside the definition at from. They roll
// one level deeper than depth, or stay truncated leaves past MaxDepth.
func (e *Engine) nested(refs []ref.Ref, from string, depth int, child Context, src random.Source) ([]Node, random.Source) {
	if len(refs) == 0 {
		return nil, src
	}
	out := make([]Node, len(refs))
	for i, r := range refs {
		if depth > MaxDepth {
			out[i] = e.truncated(r, from)
			continue
		}
		out[i], src = e.resolve(r, from, child, src)
	}
	return out, src
}

func (e *Engine) truncated(r ref.Ref, from string) *UnresolvedLeaf {
	resolved, err := e.registry.Resolve(r.Path, from)
	if err != nil {
		resolved = r.Path
	}
	return &UnresolvedLeaf{Path: resolved, Ref: r, Truncated: true}
}

func (e *Engine) rollTable(p string, r ref.Ref, def *table.Table, ctx Context, src random.Source) (*TableResult, random.Source) {
	in := r.Instructions
	expr := def.Dice
	if in.Dice != nil {
		expr = in.Dice
	}
	ignore := make(map[int]bool, len(in.Ignore))
	for _, v := range in.Ignore {
		ignore[v.Eval(ctx.vars)] = true
	}

	result := &TableResult{Path: p, Ref: r, Def: def}
	exports := map[string]int{}
	for i, n := 0, count(in, ctx); i < n; i++ {
		var (
			total int
			rolls []dice.DieRoll
			found bool
		)
		for attempt := 0; attempt <= MaxRerolls; attempt++ {
			total, rolls, src = rollTotal(expr, in, ctx, src)
			if !ignore[total] {
				found = true
				break
			}
		}
		if !found {
			break
		}

		var row Row
		row, src = e.rollRow(p, def, in, total, rolls, ctx, src)
		result.Rows = append(result.Rows, row)
		if rr, ok := row.(*RowResult); ok {
			for k, v := range rr.Exported {
				exports[k] = v
			}
		}
		if in.Unique {
			ignore[total] = true
		}
	}
	if len(exports) > 0 {
		result.Exported = exports
	}

	if len(def.Extra) > 0 {
		extraCtx := ctx.WithAll(result.Exported)
		res, next := template.Resolver{Vars: extraCtx.vars, Inputs: def.Inputs}.Resolve(def.Extra, src)
		result.Extra = res.Text
		result.ExtraRefs, src = e.nested(res.Refs, p, ctx.Depth, extraCtx.Child(), next)
	}
	return result, src
}

func count(in ref.Instructions, ctx Context) int {
	if in.Count == nil {
		return 1
	}
	return max(in.Count.Eval(ctx.vars), 0)
}

func rollTotal(expr dice.Expr, in ref.Instructions, ctx Context, src random.Source) (int, []dice.DieRoll, random.Source) {
	var (
		total int
		rolls []dice.DieRoll
	)
	if in.Total != nil {
		total = in.Total.Eval(ctx.vars)
	} else {
		var result dice.Result
		result, src = dice.Evaluate(expr, src)
		total, rolls = result.Total, result.Rolls
	}
	if in.Modifier != nil {
		total += in.Modifier.Eval(ctx.vars)
	}
	return total, rolls, src
}

func (e *Engine) rollRow(p string, def *table.Table, in ref.Instructions, total int, rolls []dice.DieRoll, ctx Context, src random.Source) (Row, random.Source) {
	idx, ok := def.Match(total)
	if !ok {
		return &RowMissing{Total: total}, src
	}
	row := def.Rows[idx]
	res, src := template.Resolver{Vars: ctx.vars, Inputs: def.Inputs}.Resolve(row.Template, src)

	exported := store(in.Store, func(inner string) (int, bool) {
		if v, ok := res.Last(inner); ok {
			return v, true
		}
		return ctx.Var(inner)
	})
	rr := &RowResult{
		Total:    total,
		Range:    row.Range,
		Rolls:    rolls,
		Text:     res.Text,
		Values:   res.Values,
		Exported: exported,
	}
	rr.Refs, src = e.nested(res.Refs, p, ctx.Depth, ctx.Child().WithAll(exported), src)
	return rr, src
}

func (e *Engine) rollBundle(p string, r ref.Ref, def *table.Bundle, ctx Context, src random.Source) (*BundleResult, random.Source) {
	result := &BundleResult{Path: p, Ref: r, Def: def}
	merged := map[string]int{}
	for i, n := 0, count(r.Instructions, ctx); i < n; i++ {
		child := ctx.Child()
		repeat := make([]Node, len(def.Refs))
		for i, cr := range def.Refs {
			if ctx.Depth > MaxDepth {
				repeat[i] = e.truncated(cr, p)
				continue
			}
			repeat[i], src = e.resolve(cr, p, child, src)
			exports := repeat[i].Exports()
			child = child.WithAll(exports)
			for k, v := range exports {
				merged[k] = v
			}
		}
		result.Repeats = append(result.Repeats, repeat)
	}
	result.Inherited = inherited(r.Instructions.Store, ctx.vars)
	result.Exported = bundleExports(r.Instructions.Store, merged, result.Inherited)
	return result, src
}

// inherited keeps the caller values a bundle's store may fall back to.
func inherited(s map[string]string, vars map[string]int) map[string]int {
	var out map[string]int
	for _, inner := range s {
		if v, ok := vars[inner]; ok {
			if out == nil {
				out = map[string]int{}
			}
			out[inner] = v
		}
	}
	return out
}

// bundleExports applies a bundle's store over the merged exports of its
// children, falling back to fallback for inner names no child exported.
func bundleExports(s map[string]string, merged, fallback map[string]int) map[string]int {
	return store(s, func(inner string) (int, bool) {
		if v, ok := merged[inner]; ok {
			return v, true
		}
		v, ok := fallback[inner]
		return v, ok
	})
}

func store(s map[string]string, lookup func(inner string) (int, bool)) map[string]int {
	if len(s) == 0 {
		return nil
	}
	out := make(map[string]int, len(s))
	for outer, inner := range s {
		if v, ok := lookup(inner); ok {
			out[outer] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
