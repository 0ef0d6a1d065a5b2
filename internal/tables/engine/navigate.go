package engine

import (
	"slices"

	"github.com/louisbranch/rollable/internal/platform/errors"
	"github.com/louisbranch/rollable/internal/random"
	"github.com/louisbranch/rollable/internal/tables/ref"
	"github.com/louisbranch/rollable/internal/tables/table"
)

// WholeNode is the Location.Slot of a location addressing a node itself.
const WholeNode = -1

// Location is the target of an index path.
type Location struct {
	// Context is the context the target was rolled with.
	Context Context
	Node    Node
	// Slot is the addressed row or repeat of Node, or WholeNode.
	Slot int
}

// Locate walks indexPath from root. ctx must be the context root was
// resolved with. It reports false for out-of-range indices and for paths
// that descend through a node that was never rolled.
func Locate(root Node, indexPath []int, ctx Context) (Location, bool) {
	n := root
	for len(indexPath) > 0 {
		head, tail := indexPath[0], indexPath[1:]
		switch node := n.(type) {
		case *TableResult:
			if head < 0 || head >= len(node.Rows) {
				return Location{}, false
			}
			if len(tail) == 0 {
				return Location{Context: ctx, Node: node, Slot: head}, true
			}
			row, ok := node.Rows[head].(*RowResult)
			if !ok || tail[0] < 0 || tail[0] >= len(row.Refs) {
				return Location{}, false
			}
			ctx = ctx.Child().WithAll(row.Exported)
			n = row.Refs[tail[0]]
		case *BundleResult:
			if head < 0 || head >= len(node.Repeats) {
				return Location{}, false
			}
			if len(tail) == 0 {
				return Location{Context: ctx, Node: node, Slot: head}, true
			}
			repeat := node.Repeats[head]
			if tail[0] < 0 || tail[0] >= len(repeat) {
				return Location{}, false
			}
			child := ctx.Child()
			for _, sibling := range repeat[:tail[0]] {
				child = child.WithAll(sibling.Exports())
			}
			ctx = child
			n = repeat[tail[0]]
		default:
			return Location{}, false
		}
		indexPath = tail[1:]
	}
	return Location{Context: ctx, Node: n, Slot: WholeNode}, true
}

// Replace returns a copy of root with the target of indexPath replaced.
// Only nodes on the path from root to the target are copied; every other
// subtree is shared with root. When indexPath addresses a row or repeat
// slot, the first row or repeat of replacement is spliced into it.
func Replace(root Node, indexPath []int, replacement Node) (Node, error) {
	n, ok := replace(root, indexPath, replacement)
	if !ok {
		return nil, outOfRange(indexPath)
	}
	return n, nil
}

func replace(n Node, indexPath []int, replacement Node) (Node, bool) {
	if len(indexPath) == 0 {
		return replacement, true
	}
	head, tail := indexPath[0], indexPath[1:]
	switch node := n.(type) {
	case *TableResult:
		if head < 0 || head >= len(node.Rows) {
			return nil, false
		}
		var row Row
		if len(tail) == 0 {
			fresh, ok := replacement.(*TableResult)
			if !ok || len(fresh.Rows) == 0 {
				return nil, false
			}
			row = fresh.Rows[0]
		} else {
			old, ok := node.Rows[head].(*RowResult)
			if !ok || tail[0] < 0 || tail[0] >= len(old.Refs) {
				return nil, false
			}
			child, ok := replace(old.Refs[tail[0]], tail[1:], replacement)
			if !ok {
				return nil, false
			}
			copied := *old
			copied.Refs = slices.Clone(old.Refs)
			copied.Refs[tail[0]] = child
			row = &copied
		}
		copied := *node
		copied.Rows = slices.Clone(node.Rows)
		copied.Rows[head] = row
		copied.Exported = rowExports(copied.Rows)
		return &copied, true
	case *BundleResult:
		if head < 0 || head >= len(node.Repeats) {
			return nil, false
		}
		var repeat []Node
		if len(tail) == 0 {
			fresh, ok := replacement.(*BundleResult)
			if !ok || len(fresh.Repeats) == 0 {
				return nil, false
			}
			repeat = fresh.Repeats[0]
		} else {
			old := node.Repeats[head]
			if tail[0] < 0 || tail[0] >= len(old) {
				return nil, false
			}
			child, ok := replace(old[tail[0]], tail[1:], replacement)
			if !ok {
				return nil, false
			}
			repeat = slices.Clone(old)
			repeat[tail[0]] = child
		}
		copied := *node
		copied.Repeats = slices.Clone(node.Repeats)
		copied.Repeats[head] = repeat
		copied.Exported = bundleExports(node.Ref.Instructions.Store, repeatExports(copied.Repeats), node.Inherited)
		return &copied, true
	default:
		return nil, false
	}
}

func rowExports(rows []Row) map[string]int {
	out := map[string]int{}
	for _, row := range rows {
		if rr, ok := row.(*RowResult); ok {
			for k, v := range rr.Exported {
				out[k] = v
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func repeatExports(repeats [][]Node) map[string]int {
	out := map[string]int{}
	for _, repeat := range repeats {
		for _, n := range repeat {
			for k, v := range n.Exports() {
				out[k] = v
			}
		}
	}
	return out
}

// Reroll re-rolls the target of indexPath and returns the new tree. ctx must
// be the context root was resolved with. A row or repeat slot is re-rolled by
// rolling its container once; a whole node is re-rolled from its reference.
// Definitions are read from the engine's registry, not from the old tree.
func (e *Engine) Reroll(root Node, indexPath []int, ctx Context, src random.Source) (Node, random.Source, error) {
	loc, ok := Locate(root, indexPath, ctx)
	if !ok {
		return nil, src, outOfRange(indexPath)
	}

	var fresh Node
	switch node := loc.Node.(type) {
	case *TableResult:
		def, err := e.lookupTable(node.Path)
		if err != nil {
			return nil, src, err
		}
		r := node.Ref
		if loc.Slot != WholeNode {
			r = slotRef(r, node, loc.Slot)
		}
		var result *TableResult
		result, src = e.rollTable(node.Path, r, def, loc.Context, src)
		if loc.Slot != WholeNode && len(result.Rows) == 0 {
			// Every total was ignored; the slot keeps its row.
			return root, src, nil
		}
		fresh = result
	case *BundleResult:
		def, err := e.lookupBundle(node.Path)
		if err != nil {
			return nil, src, err
		}
		r := node.Ref
		if loc.Slot != WholeNode {
			r = r.WithCount(1)
		}
		fresh, src = e.rollBundle(node.Path, r, def, loc.Context, src)
	case *UnresolvedLeaf:
		if _, ok := e.registry.Lookup(node.Path); !ok {
			return nil, src, notFound(node.Path)
		}
		fresh, src = e.resolve(ref.Ref{Path: node.Path, Instructions: node.Ref.Instructions}, node.Path, loc.Context, src)
	}

	next, err := Replace(root, indexPath, fresh)
	if err != nil {
		return nil, src, err
	}
	return next, src, nil
}

// slotRef rolls a single row. In a unique batch the totals of the other rows
// stay excluded.
func slotRef(r ref.Ref, node *TableResult, slot int) ref.Ref {
	r = r.WithCount(1)
	if !r.Instructions.Unique {
		return r
	}
	ignore := slices.Clone(r.Instructions.Ignore)
	for i, row := range node.Rows {
		if i != slot {
			ignore = append(ignore, ref.Const(row.RowTotal()))
		}
	}
	r.Instructions.Ignore = ignore
	return r
}

func (e *Engine) lookupTable(p string) (*table.Table, error) {
	def, ok := e.registry.Lookup(p)
	if !ok {
		return nil, notFound(p)
	}
	t, ok := def.(*table.Table)
	if !ok {
		return nil, notFound(p)
	}
	return t, nil
}

func (e *Engine) lookupBundle(p string) (*table.Bundle, error) {
	def, ok := e.registry.Lookup(p)
	if !ok {
		return nil, notFound(p)
	}
	b, ok := def.(*table.Bundle)
	if !ok {
		return nil, notFound(p)
	}
	return b, nil
}

func notFound(p string) error {
	return errors.WithMetadata(errors.CodePathNotFound, "no definition at path", map[string]string{"Path": p})
}

func outOfRange(indexPath []int) error {
	return errors.WithMetadata(errors.CodeIndexOutOfRange, "index path does not address a rolled node", map[string]string{"IndexPath": formatIndexPath(indexPath)})
}

// Walk visits n and every node below it in depth-first order, rows before
// extra text. Returning false from visit skips the children of that node.
func Walk(n Node, visit func(Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	switch node := n.(type) {
	case *TableResult:
		for _, row := range node.Rows {
			if rr, ok := row.(*RowResult); ok {
				for _, child := range rr.Refs {
					Walk(child, visit)
				}
			}
		}
		for _, child := range node.ExtraRefs {
			Walk(child, visit)
		}
	case *BundleResult:
		for _, repeat := range node.Repeats {
			for _, child := range repeat {
				Walk(child, visit)
			}
		}
	}
}
