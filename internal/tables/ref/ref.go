// Package ref describes references to rollable definitions and the
// instructions that control how a reference is rolled.
package ref

import (
	"sort"
	"strconv"
	"strings"

	"github.com/louisbranch/rollable/internal/tables/dice"
)

// Variable is an integer that is either constant or read from the roll
// context by key.
type Variable struct {
	Key   string
	Value int
}

// Const returns a constant variable.
func Const(value int) Variable {
	return Variable{Value: value}
}

// Key returns a variable read from the context.
func Key(key string) Variable {
	return Variable{Key: key}
}

// IsKey reports whether v is read from the context.
func (v Variable) IsKey() bool {
	return v.Key != ""
}

// Eval resolves v against context vars. Missing keys evaluate to 0.
func (v Variable) Eval(vars map[string]int) int {
	if v.IsKey() {
		return vars[v.Key]
	}
	return v.Value
}

// String renders v in option syntax: "@key" or the number.
func (v Variable) String() string {
	if v.IsKey() {
		return "@" + v.Key
	}
	return strconv.Itoa(v.Value)
}

// Instructions control how a reference is rolled.
type Instructions struct {
	// Count is how many times the target is rolled. Defaults to 1.
	Count *Variable
	// Dice replaces the table's own dice expression.
	Dice dice.Expr
	// Total forces the rolled total instead of evaluating dice.
	Total *Variable
	// Modifier is added to every rolled total.
	Modifier *Variable
	// Unique ignores totals already produced in the same batch.
	Unique bool
	// Ignore lists totals that are re-rolled without consuming a repeat.
	Ignore []Variable
	// Store maps an outer context key to an inner value name. The inner
	// name is read from the row's computed values, then from the context.
	Store map[string]string
	// Title overrides the display title.
	Title string
}

// Ref is an unresolved reference: a raw path plus roll instructions.
type Ref struct {
	Path         string
	Instructions Instructions
}

// WithCount returns a copy of r rolled exactly count times.
func (r Ref) WithCount(count int) Ref {
	v := Const(count)
	r.Instructions.Count = &v
	return r
}

// Title returns the display title override, if any.
func (r Ref) Title() string {
	return r.Instructions.Title
}

// String renders r in the same syntax Parse accepts.
func (r Ref) String() string {
	var b strings.Builder
	b.WriteString(r.Path)
	in := r.Instructions
	if in.Count != nil {
		b.WriteString(";count=" + in.Count.String())
	}
	if in.Dice != nil {
		b.WriteString(";dice=" + strings.ReplaceAll(in.Dice.String(), " ", ""))
	}
	if in.Total != nil {
		b.WriteString(";total=" + in.Total.String())
	}
	if in.Modifier != nil {
		b.WriteString(";mod=" + in.Modifier.String())
	}
	if in.Unique {
		b.WriteString(";unique")
	}
	if len(in.Ignore) > 0 {
		parts := make([]string, len(in.Ignore))
		for i, v := range in.Ignore {
			parts[i] = v.String()
		}
		b.WriteString(";ignore=" + strings.Join(parts, ","))
	}
	if len(in.Store) > 0 {
		keys := make([]string, 0, len(in.Store))
		for k := range in.Store {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ":" + in.Store[k]
		}
		b.WriteString(";store=" + strings.Join(parts, ","))
	}
	if in.Title != "" {
		b.WriteString(";title=" + in.Title)
	}
	return b.String()
}
