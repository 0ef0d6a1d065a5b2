// Package dice parses and evaluates dice notation such as "2d6+3".
//
// # Grammar
//
//	expr := term (('+' | '-' | '*') term)*
//	term := '(' expr ')' | ['-'] int ['d' int]
//
// The three operators share one precedence level and fold strictly left to
// right, so "2+3*4" evaluates to 20, not 14. Parentheses are the only way to
// change grouping.
//
// # Determinism
//
// Evaluation draws from a random.Source and returns the source to use next.
// The same expression evaluated against the same source always produces the
// same Result.
package dice

import (
	"strconv"

	"github.com/louisbranch/rollable/internal/random"
)

// MaxCount bounds the number of dice in a single term.
const MaxCount = 1000

// Op is a binary operator.
type Op byte

const (
	OpAdd Op = '+'
	OpSub Op = '-'
	OpMul Op = '*'
)

// Expr is a parsed dice expression: Constant, Dice or Binary.
type Expr interface {
	eval(src random.Source, rolls []DieRoll) (int, random.Source, []DieRoll)
	String() string
}

// Constant is a literal integer.
type Constant struct {
	Value int
}

// Dice is an NdM term. Negative terms evaluate to the negated sum.
type Dice struct {
	Count    int
	Sides    int
	Negative bool
}

// Binary combines two evaluated children.
type Binary struct {
	Op    Op
	Left  Expr
	Right Expr
}

// DieRoll captures the individual draws of a single dice term.
type DieRoll struct {
	Sides   int
	Results []int
	Total   int
}

// Result is the outcome of evaluating an expression.
type Result struct {
	Total int
	Rolls []DieRoll
}

// Evaluate evaluates expr, drawing dice from src in term order.
func Evaluate(expr Expr, src random.Source) (Result, random.Source) {
	total, next, rolls := expr.eval(src, nil)
	return Result{Total: total, Rolls: rolls}, next
}

func (c Constant) eval(src random.Source, rolls []DieRoll) (int, random.Source, []DieRoll) {
	return c.Value, src, rolls
}

func (c Constant) String() string {
	return strconv.Itoa(c.Value)
}

func (d Dice) eval(src random.Source, rolls []DieRoll) (int, random.Source, []DieRoll) {
	results := make([]int, d.Count)
	total := 0
	for i := 0; i < d.Count; i++ {
		var value int
		value, src = random.Roll(src, d.Sides)
		results[i] = value
		total += value
	}
	rolls = append(rolls, DieRoll{
		Sides:   d.Sides,
		Results: results,
		Total:   total,
	})
	if d.Negative {
		total = -total
	}
	return total, src, rolls
}

func (d Dice) String() string {
	s := strconv.Itoa(d.Count) + "d" + strconv.Itoa(d.Sides)
	if d.Negative {
		return "-" + s
	}
	return s
}

func (b Binary) eval(src random.Source, rolls []DieRoll) (int, random.Source, []DieRoll) {
	left, src, rolls := b.Left.eval(src, rolls)
	right, src, rolls := b.Right.eval(src, rolls)
	switch b.Op {
	case OpAdd:
		return left + right, src, rolls
	case OpSub:
		return left - right, src, rolls
	case OpMul:
		return left * right, src, rolls
	default:
		// Parse only builds the three operators above.
		panic("dice: unknown operator " + string(b.Op))
	}
}

func (b Binary) String() string {
	right := b.Right.String()
	if _, ok := b.Right.(Binary); ok {
		right = "(" + right + ")"
	}
	return b.Left.String() + " " + string(b.Op) + " " + right
}
