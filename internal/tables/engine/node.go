// Package engine resolves references against a registry into immutable
// result trees, and re-rolls single nodes of an existing tree by index path.
//
// # Index paths
//
// An index path addresses a node by descent. In a table result the head
// picks a row; a one-element path is the row slot itself, otherwise the next
// index picks one of the row's nested results and descent continues there.
// In a bundle result the head picks a repeat; a one-element path is the
// repeat slot, otherwise the next index picks a child of that repeat and
// descent continues there.
//
// References in a table's extra text have no index path. They are
// refreshed by re-rolling the whole table.
//
// Index paths come from the caller's own bookkeeping of rendered rows; the
// engine neither creates nor stores them.
package engine

import (
	"github.com/louisbranch/rollable/internal/tables/dice"
	"github.com/louisbranch/rollable/internal/tables/ref"
	"github.com/louisbranch/rollable/internal/tables/table"
	"github.com/louisbranch/rollable/internal/tables/template"
)

// Node is a resolved result: *TableResult, *BundleResult or *UnresolvedLeaf.
// Nodes are never modified after construction.
type Node interface {
	node()
	// Exports returns the values this node stores into its caller's context.
	Exports() map[string]int
}

// Row is one rolled row of a table result: *RowResult or *RowMissing.
type Row interface {
	row()
	RowTotal() int
}

// TableResult is a rolled table.
type TableResult struct {
	Path      string
	Ref       ref.Ref
	Def       *table.Table `json:"-"`
	Rows      []Row
	Extra     []template.Text
	ExtraRefs []Node
	Exported  map[string]int
}

// RowResult is a row that matched the rolled total.
type RowResult struct {
	Total    int
	Range    template.Range
	Rolls    []dice.DieRoll
	Text     []template.Text
	Values   map[string][]int
	Exported map[string]int
	Refs     []Node
}

// RowMissing records a total that no row range matched.
type RowMissing struct {
	Total int
}

// BundleResult is a rolled bundle; each repeat holds one result per child
// reference.
type BundleResult struct {
	Path     string
	Ref      ref.Ref
	Def      *table.Bundle `json:"-"`
	Repeats  [][]Node
	Exported map[string]int

	// Inherited holds the caller's values for the store's inner names at
	// roll time, used when no child exports one.
	Inherited map[string]int
}

// UnresolvedLeaf is a reference that was not rolled, either because its path
// is absent from the registry or because it sits past MaxDepth.
type UnresolvedLeaf struct {
	Path      string
	Ref       ref.Ref
	Truncated bool
}

func (*TableResult) node()    {}
func (*BundleResult) node()   {}
func (*UnresolvedLeaf) node() {}

func (*RowResult) row()  {}
func (*RowMissing) row() {}

// Exports implements Node.
func (t *TableResult) Exports() map[string]int { return t.Exported }

// Exports implements Node.
func (b *BundleResult) Exports() map[string]int { return b.Exported }

// Exports implements Node.
func (*UnresolvedLeaf) Exports() map[string]int { return nil }

// RowTotal implements Row.
func (r *RowResult) RowTotal() int { return r.Total }

// RowTotal implements Row.
func (r *RowMissing) RowTotal() int { return r.Total }

// Title returns the display title of a node: the reference's title override
// when set, else the definition title.
func Title(n Node) string {
	switch n := n.(type) {
	case *TableResult:
		if t := n.Ref.Title(); t != "" {
			return t
		}
		return n.Def.DisplayTitle()
	case *BundleResult:
		if t := n.Ref.Title(); t != "" {
			return t
		}
		return n.Def.DisplayTitle()
	case *UnresolvedLeaf:
		if t := n.Ref.Title(); t != "" {
			return t
		}
		return n.Path
	default:
		return ""
	}
}
