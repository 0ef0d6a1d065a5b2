package engine

import (
	"github.com/louisbranch/rollable/internal/platform/encoding"
	"github.com/louisbranch/rollable/internal/tables/template"
)

// Fingerprint returns a content hash of a result tree. Trees rolled from the
// same registry, reference, context and seed have equal fingerprints.
func Fingerprint(n Node) (string, error) {
	return encoding.ContentHash(Snapshot(n))
}

// Snapshot returns a JSON-ready view of a result tree in which every node,
// row and text value carries a "kind" discriminator.
func Snapshot(n Node) map[string]any {
	switch n := n.(type) {
	case *TableResult:
		rows := make([]any, len(n.Rows))
		for i, row := range n.Rows {
			rows[i] = snapshotRow(row)
		}
		return map[string]any{
			"kind":      "table",
			"path":      n.Path,
			"ref":       n.Ref.String(),
			"rows":      rows,
			"extra":     snapshotTexts(n.Extra),
			"extraRefs": snapshotNodes(n.ExtraRefs),
			"exported":  n.Exported,
		}
	case *BundleResult:
		repeats := make([]any, len(n.Repeats))
		for i, repeat := range n.Repeats {
			repeats[i] = snapshotNodes(repeat)
		}
		return map[string]any{
			"kind":     "bundle",
			"path":     n.Path,
			"ref":      n.Ref.String(),
			"repeats":  repeats,
			"exported": n.Exported,
		}
	case *UnresolvedLeaf:
		return map[string]any{
			"kind":      "unresolved",
			"path":      n.Path,
			"ref":       n.Ref.String(),
			"truncated": n.Truncated,
		}
	default:
		return map[string]any{"kind": "unknown"}
	}
}

func snapshotNodes(nodes []Node) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = Snapshot(n)
	}
	return out
}

func snapshotRow(row Row) map[string]any {
	switch row := row.(type) {
	case *RowResult:
		return map[string]any{
			"kind":     "row",
			"total":    row.Total,
			"range":    []int{row.Range.Min, row.Range.Max},
			"rolls":    row.Rolls,
			"text":     snapshotTexts(row.Text),
			"values":   row.Values,
			"exported": row.Exported,
			"refs":     snapshotNodes(row.Refs),
		}
	case *RowMissing:
		return map[string]any{"kind": "missing", "total": row.Total}
	default:
		return map[string]any{"kind": "unknown"}
	}
}

func snapshotTexts(texts []template.Text) []any {
	out := make([]any, len(texts))
	for i, t := range texts {
		switch t := t.(type) {
		case template.PlainText:
			out[i] = map[string]any{"kind": "plain", "text": t.Text}
		case template.ValueText:
			out[i] = map[string]any{"kind": "value", "name": t.Name, "total": t.Total, "rolls": t.Rolls}
		case template.InputText:
			out[i] = map[string]any{
				"kind": "input", "key": t.Key, "value": t.Value, "missing": t.Missing,
				"color": t.Color, "background": t.Background,
			}
		case template.ChanceText:
			out[i] = map[string]any{
				"kind": "chance", "label": t.Label, "percent": t.Percent, "draw": t.Draw,
				"selected": t.Selected, "inner": snapshotTexts(t.Inner),
			}
		case template.RefText:
			out[i] = map[string]any{
				"kind": "ref", "name": t.Name, "index": t.Index, "transform": t.Transform,
				"color": t.Color, "background": t.Background,
			}
		}
	}
	return out
}
