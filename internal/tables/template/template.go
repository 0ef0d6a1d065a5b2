// Package template parses and resolves the row text mini-language of
// rollable tables.
//
// A line of row text mixes literal text with markers:
//
//	[key]              value produced earlier in the row under key
//	[key:c=red]        same, with display color (cbg= background, t= transform)
//	[key:[1]]          second value produced under key
//	[[@name:2d6+1]]    roll an expression and record it as name
//	[[1d4]]            roll an expression without recording it
//	[[30% text]]       percent chance; also [[30 percent text]]
//	[[@next:/path]]    nested reference to another rollable
//
// A line may start with "min-max|" or "n|" to declare the row's range.
// Use \[ and \] for literal brackets.
package template

import (
	"github.com/louisbranch/rollable/internal/tables/dice"
	"github.com/louisbranch/rollable/internal/tables/ref"
)

// Range is an inclusive band of totals matched by a row.
type Range struct {
	Min int
	Max int
}

// Single returns the range holding only n.
func Single(n int) Range {
	return Range{Min: n, Max: n}
}

// Matches reports whether x lies within the range.
func (r Range) Matches(x int) bool {
	return r.Min <= x && x <= r.Max
}

// Line is one parsed line of row text.
type Line struct {
	Components []Component
	// Range is set when the line declared an explicit range prefix.
	Range *Range
}

// Component is one parsed piece of a line.
type Component interface {
	component()
}

// Plain is literal text.
type Plain struct {
	Text string
}

// Modifiers adjust how an input placeholder is displayed.
type Modifiers struct {
	Color      string
	Background string
	Transform  string
	Index      int
}

// Input reads a value produced earlier in the same resolution pass.
type Input struct {
	Key       string
	Modifiers Modifiers
}

// Computed evaluates a dice expression. A named value is recorded for
// later placeholders and for the reference's store mapping.
type Computed struct {
	Name string
	Expr dice.Expr
}

// Percent selects Inner with the given chance. All percent components at the
// same nesting level share a single draw.
type Percent struct {
	Label   string
	Percent int
	Inner   []Component
}

// Reference embeds a nested rollable reference.
type Reference struct {
	Name string
	Ref  ref.Ref
}

func (Plain) component()     {}
func (Input) component()     {}
func (Computed) component()  {}
func (Percent) component()   {}
func (Reference) component() {}
