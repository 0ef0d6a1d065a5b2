package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/louisbranch/rollable/internal/tables/template"
)

// Render renders a result tree as plain text. Rows and bundle children are
// rendered one per line; nested results inside a row are rendered inline
// with their rows joined by ", ".
func Render(n Node) string {
	return render(n, "\n")
}

func render(n Node, sep string) string {
	switch n := n.(type) {
	case *TableResult:
		lines := make([]string, 0, len(n.Rows)+1)
		for _, row := range n.Rows {
			lines = append(lines, renderRow(row))
		}
		if len(n.Extra) > 0 {
			lines = append(lines, template.Render(n.Extra, inline(n.ExtraRefs)))
		}
		return strings.Join(lines, sep)
	case *BundleResult:
		var lines []string
		for _, repeat := range n.Repeats {
			for _, child := range repeat {
				if text := render(child, sep); text != "" {
					lines = append(lines, text)
				}
			}
		}
		return strings.Join(lines, sep)
	case *UnresolvedLeaf:
		return "{" + n.Path + "}"
	default:
		return ""
	}
}

func renderRow(row Row) string {
	switch row := row.(type) {
	case *RowResult:
		return template.Render(row.Text, inline(row.Refs))
	case *RowMissing:
		return fmt.Sprintf("(no row for %d)", row.Total)
	default:
		return ""
	}
}

func inline(refs []Node) func(int) string {
	return func(i int) string {
		if i < 0 || i >= len(refs) {
			return ""
		}
		return render(refs[i], ", ")
	}
}

func formatIndexPath(indexPath []int) string {
	parts := make([]string, len(indexPath))
	for i, idx := range indexPath {
		parts[i] = strconv.Itoa(idx)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
