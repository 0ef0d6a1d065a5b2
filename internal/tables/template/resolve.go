package template

import (
	"strconv"

	"github.com/louisbranch/rollable/internal/random"
	"github.com/louisbranch/rollable/internal/tables/dice"
	"github.com/louisbranch/rollable/internal/tables/ref"
)

// Text is one resolved piece of a line.
type Text interface {
	text()
}

// PlainText is literal text.
type PlainText struct {
	Text string
}

// ValueText is the outcome of a computed value.
type ValueText struct {
	Name  string
	Total int
	Rolls []dice.DieRoll
}

// InputText is a placeholder filled from an earlier value or the context.
type InputText struct {
	Key        string
	Value      string
	Missing    bool
	Color      string
	Background string
}

// ChanceText records a percent component and whether the shared draw
// selected it. Inner is only resolved for the selected component.
type ChanceText struct {
	Label    string
	Percent  int
	Draw     int
	Selected bool
	Inner    []Text
}

// RefText marks where the nested reference Refs[Index] is rendered.
type RefText struct {
	Name       string
	Index      int
	Transform  string
	Color      string
	Background string
}

func (PlainText) text()  {}
func (ValueText) text()  {}
func (InputText) text()  {}
func (ChanceText) text() {}
func (RefText) text()    {}

// Resolution is the outcome of resolving a line.
type Resolution struct {
	Text []Text
	// Values holds every named computed value, in production order.
	Values map[string][]int
	// Refs lists the nested references to roll, in encounter order.
	Refs []ref.Ref
}

// Last returns the most recent value produced under name.
func (r Resolution) Last(name string) (int, bool) {
	values := r.Values[name]
	if len(values) == 0 {
		return 0, false
	}
	return values[len(values)-1], true
}

// Resolver resolves parsed components at roll time.
type Resolver struct {
	// Vars are the roll context variables, consulted by placeholders that
	// no earlier computed value satisfies.
	Vars map[string]int
	// Inputs are the table's named input references, rolled for
	// placeholders that neither values nor vars satisfy.
	Inputs map[string]ref.Ref
}

// Resolve resolves components in order, drawing from src, and returns the
// source to use next.
//
// Percent components at one nesting level share a single [1,100] draw made
// at the first of them: walking in order and accumulating percentages, the
// first whose running total reaches the draw is selected and every other one
// is not. A selected component's inner text is a new nesting level with its
// own draw.
func (r Resolver) Resolve(components []Component, src random.Source) (Resolution, random.Source) {
	p := &pass{resolver: r, src: src, res: Resolution{Values: map[string][]int{}}}
	p.res.Text = p.level(components)
	return p.res, p.src
}

type pass struct {
	resolver Resolver
	src      random.Source
	res      Resolution
}

func (p *pass) level(components []Component) []Text {
	out := make([]Text, 0, len(components))
	drawn, selected := false, false
	draw, cumulative := 0, 0

	for _, component := range components {
		switch c := component.(type) {
		case Plain:
			out = append(out, PlainText(c))
		case Computed:
			var result dice.Result
			result, p.src = dice.Evaluate(c.Expr, p.src)
			if c.Name != "" {
				p.res.Values[c.Name] = append(p.res.Values[c.Name], result.Total)
			}
			out = append(out, ValueText{Name: c.Name, Total: result.Total, Rolls: result.Rolls})
		case Input:
			out = append(out, p.input(c))
		case Percent:
			if !drawn {
				draw, p.src = random.Percent(p.src)
				drawn = true
			}
			chance := ChanceText{Label: c.Label, Percent: c.Percent, Draw: draw}
			if !selected {
				cumulative += c.Percent
				if cumulative >= draw {
					selected = true
					chance.Selected = true
					chance.Inner = p.level(c.Inner)
				}
			}
			out = append(out, chance)
		case Reference:
			out = append(out, RefText{Name: c.Name, Index: len(p.res.Refs)})
			p.res.Refs = append(p.res.Refs, c.Ref)
		}
	}
	return out
}

func (p *pass) input(c Input) Text {
	text := InputText{
		Key:        c.Key,
		Color:      c.Modifiers.Color,
		Background: c.Modifiers.Background,
	}
	if values := p.res.Values[c.Key]; c.Modifiers.Index < len(values) {
		text.Value = ApplyTransform(c.Modifiers.Transform, strconv.Itoa(values[c.Modifiers.Index]))
		return text
	}
	if value, ok := p.resolver.Vars[c.Key]; ok && c.Modifiers.Index == 0 {
		text.Value = ApplyTransform(c.Modifiers.Transform, strconv.Itoa(value))
		return text
	}
	if input, ok := p.resolver.Inputs[c.Key]; ok {
		slot := RefText{
			Name:       c.Key,
			Index:      len(p.res.Refs),
			Transform:  c.Modifiers.Transform,
			Color:      c.Modifiers.Color,
			Background: c.Modifiers.Background,
		}
		p.res.Refs = append(p.res.Refs, input)
		return slot
	}
	text.Missing = true
	return text
}
