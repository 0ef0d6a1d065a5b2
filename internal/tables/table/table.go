// Package table defines rollable definitions and the registry they are
// looked up in during resolution.
package table

import (
	"strconv"
	"strings"

	"github.com/louisbranch/rollable/internal/tables/dice"
	"github.com/louisbranch/rollable/internal/tables/ref"
	"github.com/louisbranch/rollable/internal/tables/template"
)

// Range is an inclusive band of totals matched by a row.
type Range = template.Range

// Definition is a rollable: *Table or *Bundle.
type Definition interface {
	definition()
	DisplayTitle() string
}

// Row is one selectable row of a table.
type Row struct {
	Template []template.Component
	Range    Range
}

// Table selects rows by matching a rolled total against row ranges.
type Table struct {
	Title  string
	Dice   dice.Expr
	Rows   []Row
	Inputs map[string]ref.Ref
	Extra  []template.Component
}

// Bundle is a fixed, ordered list of references rolled together.
type Bundle struct {
	Title string
	Refs  []ref.Ref
}

func (*Table) definition()  {}
func (*Bundle) definition() {}

// DisplayTitle returns the table title.
func (t *Table) DisplayTitle() string { return t.Title }

// DisplayTitle returns the bundle title.
func (b *Bundle) DisplayTitle() string { return b.Title }

// Match returns the index of the first row whose range holds total.
func (t *Table) Match(total int) (int, bool) {
	for i, row := range t.Rows {
		if row.Range.Matches(total) {
			return i, true
		}
	}
	return 0, false
}

// Source holds the raw text of a table before parsing.
type Source struct {
	Title  string
	Dice   string
	Rows   []string
	Inputs map[string]string
	Extra  string
}

// New parses a table from its raw text. Rows without a range prefix match
// their 1-based position. Without dice the table rolls 1dN, N being the
// highest row maximum.
func New(src Source) (*Table, error) {
	t := &Table{Title: strings.TrimSpace(src.Title)}

	for i, raw := range src.Rows {
		line, err := template.Parse(raw)
		if err != nil {
			return nil, wrapRow(err, i)
		}
		row := Row{Template: line.Components, Range: template.Single(i + 1)}
		if line.Range != nil {
			row.Range = *line.Range
		}
		t.Rows = append(t.Rows, row)
	}

	if strings.TrimSpace(src.Dice) != "" {
		expr, err := dice.Parse(src.Dice)
		if err != nil {
			return nil, err
		}
		t.Dice = expr
	} else {
		t.Dice = dice.Dice{Count: 1, Sides: max(t.highest(), 1)}
	}

	if len(src.Inputs) > 0 {
		t.Inputs = make(map[string]ref.Ref, len(src.Inputs))
		for key, raw := range src.Inputs {
			r, err := ref.Parse(raw)
			if err != nil {
				return nil, err
			}
			t.Inputs[key] = r
		}
	}

	if strings.TrimSpace(src.Extra) != "" {
		extra, err := template.ParseText(src.Extra)
		if err != nil {
			return nil, err
		}
		t.Extra = extra
	}
	return t, nil
}

// NewBundle parses a bundle from raw reference strings.
func NewBundle(title string, refs []string) (*Bundle, error) {
	b := &Bundle{Title: strings.TrimSpace(title)}
	for _, raw := range refs {
		r, err := ref.Parse(raw)
		if err != nil {
			return nil, err
		}
		b.Refs = append(b.Refs, r)
	}
	return b, nil
}

func (t *Table) highest() int {
	highest := 0
	for _, row := range t.Rows {
		highest = max(highest, row.Range.Max)
	}
	return highest
}

// rowError tags a grammar error with the row it came from.
type rowError struct {
	row int
	err error
}

func (e *rowError) Error() string {
	return "row " + strconv.Itoa(e.row+1) + ": " + e.err.Error()
}

func (e *rowError) Unwrap() error {
	return e.err
}

func wrapRow(err error, row int) error {
	return &rowError{row: row, err: err}
}
