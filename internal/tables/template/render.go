package template

import (
	"strconv"
	"strings"
)

// Render renders resolved text as plain text. refText renders the nested
// reference with the given index; RefText transforms are applied to its
// output.
func Render(texts []Text, refText func(index int) string) string {
	var b strings.Builder
	render(&b, texts, refText)
	return b.String()
}

func render(b *strings.Builder, texts []Text, refText func(int) string) {
	for _, t := range texts {
		switch t := t.(type) {
		case PlainText:
			b.WriteString(t.Text)
		case ValueText:
			b.WriteString(strconv.Itoa(t.Total))
		case InputText:
			if t.Missing {
				b.WriteString("[" + t.Key + "]")
				continue
			}
			b.WriteString(t.Value)
		case ChanceText:
			if t.Selected {
				render(b, t.Inner, refText)
			}
		case RefText:
			if refText != nil {
				b.WriteString(ApplyTransform(t.Transform, refText(t.Index)))
			}
		}
	}
}
