package template

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/rollable/internal/platform/errors"
	"github.com/louisbranch/rollable/internal/tables/dice"
	"github.com/louisbranch/rollable/internal/tables/ref"
)

var (
	rangePrefix   = regexp.MustCompile(`^\s*(-?\d+)(?:\s*-\s*(-?\d+))?\s*\|`)
	percentPrefix = regexp.MustCompile(`^(\d+)\s*(?:%|percent\b)`)
)

// Parse parses a single line of row text. Anything after the first newline
// is ignored. Errors carry the code MALFORMED_TEMPLATE and the byte offset of
// the offending marker.
func Parse(line string) (Line, error) {
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSuffix(line, "\r")

	var out Line
	body, offset := line, 0
	if m := rangePrefix.FindStringSubmatchIndex(line); m != nil {
		lo, err := strconv.Atoi(line[m[2]:m[3]])
		if err != nil {
			return Line{}, malformed(m[2], "range out of bounds")
		}
		hi := lo
		if m[4] >= 0 {
			if hi, err = strconv.Atoi(line[m[4]:m[5]]); err != nil {
				return Line{}, malformed(m[4], "range out of bounds")
			}
		}
		if lo > hi {
			return Line{}, malformed(m[2], "range minimum exceeds maximum")
		}
		out.Range = &Range{Min: lo, Max: hi}
		body, offset = line[m[1]:], m[1]
	}

	components, err := parseComponents(body, offset)
	if err != nil {
		return Line{}, err
	}
	out.Components = components
	return out, nil
}

// ParseText parses text that has no range prefix, such as a table's extra
// text.
func ParseText(text string) ([]Component, error) {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return parseComponents(text, 0)
}

func parseComponents(s string, base int) ([]Component, error) {
	var components []Component
	var buf strings.Builder
	flush := func() {
		if buf.Len() > 0 {
			components = append(components, Plain{Text: buf.String()})
			buf.Reset()
		}
	}

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && strings.IndexByte(`[]\`, s[i+1]) >= 0:
			buf.WriteByte(s[i+1])
			i += 2
		case c == '[':
			end := closing(s, i)
			if end < 0 {
				return nil, malformed(base+i, "unterminated marker")
			}
			flush()
			var (
				component Component
				err       error
			)
			if strings.HasPrefix(s[i:], "[[") {
				if s[end-1] != ']' || end-1 < i+2 {
					return nil, malformed(base+i, "marker must close with ]]")
				}
				component, err = parseMarker(s[i+2:end-1], base+i+2)
			} else {
				component, err = parseInput(s[i+1:end], base+i+1)
			}
			if err != nil {
				return nil, err
			}
			components = append(components, component)
			i = end + 1
		default:
			buf.WriteByte(c)
			i++
		}
	}
	flush()
	return components, nil
}

// closing returns the index of the bracket that balances the one at start,
// or -1.
func closing(s string, start int) int {
	depth := 0
	for j := start; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

func parseInput(content string, base int) (Component, error) {
	parts := splitTopLevel(content, ':')
	key := strings.TrimSpace(parts[0])
	if key == "" {
		return nil, malformed(base, "placeholder needs a key")
	}
	input := Input{Key: key}
	for _, part := range parts[1:] {
		mod := strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(mod, "[") && strings.HasSuffix(mod, "]"):
			n, err := strconv.Atoi(strings.TrimSpace(mod[1 : len(mod)-1]))
			if err != nil || n < 0 {
				return nil, malformed(base, "placeholder index must be a non-negative integer")
			}
			input.Modifiers.Index = n
		case strings.HasPrefix(mod, "cbg="):
			input.Modifiers.Background = strings.TrimPrefix(mod, "cbg=")
		case strings.HasPrefix(mod, "c="):
			input.Modifiers.Color = strings.TrimPrefix(mod, "c=")
		case strings.HasPrefix(mod, "t="):
			name := strings.TrimPrefix(mod, "t=")
			if !IsTransform(name) {
				return nil, malformed(base, "unknown transform "+name)
			}
			input.Modifiers.Transform = name
		default:
			return nil, malformed(base, "unknown placeholder modifier "+mod)
		}
	}
	return input, nil
}

// splitTopLevel splits s on sep outside of brackets.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, last := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	return append(parts, s[last:])
}

func parseMarker(content string, base int) (Component, error) {
	body, pos := trimLeft(content, base)
	body = strings.TrimRight(body, " \t")
	if body == "" {
		return nil, malformed(base, "empty marker")
	}

	name := ""
	if strings.HasPrefix(body, "@") {
		n, rest, ok := strings.Cut(body[1:], ":")
		name = strings.TrimSpace(n)
		if !ok || name == "" {
			return nil, malformed(pos, "computed value needs @name:expression")
		}
		body, pos = trimLeft(rest, pos+1+len(n)+1)
		if body == "" {
			return nil, malformed(pos, "computed value needs @name:expression")
		}
	}

	if m := percentPrefix.FindStringSubmatchIndex(body); m != nil && name == "" {
		percent, err := strconv.Atoi(body[m[2]:m[3]])
		if err != nil || percent > 100 {
			return nil, malformed(pos, "percent chance must be between 0 and 100")
		}
		inner, err := parseComponents(body[m[1]:], pos+m[1])
		if err != nil {
			return nil, err
		}
		return Percent{
			Label:   strings.TrimSpace(body[m[1]:]),
			Percent: percent,
			Inner:   inner,
		}, nil
	}

	if isPath(body) {
		r, err := ref.Parse(body)
		if err != nil {
			return nil, wrap(err, pos)
		}
		return Reference{Name: name, Ref: r}, nil
	}

	expr, err := dice.Parse(body)
	if err != nil {
		return nil, wrap(err, pos)
	}
	return Computed{Name: name, Expr: expr}, nil
}

func isPath(s string) bool {
	for _, prefix := range []string{"/", "./", "../", "$/"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func trimLeft(s string, pos int) (string, int) {
	trimmed := strings.TrimLeft(s, " \t")
	return trimmed, pos + len(s) - len(trimmed)
}

func malformed(pos int, message string) error {
	return apperrors.Syntax(apperrors.CodeMalformedTemplate, pos, message)
}

// wrap re-reports a nested grammar error as a template error at the
// matching line offset.
func wrap(err error, offset int) error {
	pos, _ := apperrors.GetPosition(err)
	message := err.Error()
	var inner *apperrors.Error
	if errors.As(err, &inner) {
		message = inner.Message
	}
	return &apperrors.Error{
		Code:     apperrors.CodeMalformedTemplate,
		Message:  message,
		Position: offset + pos,
		Cause:    err,
	}
}
