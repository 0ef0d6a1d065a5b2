package template

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Transform names accepted by the t= placeholder modifier.
const (
	TransformLowercase = "lowercase"
	TransformUppercase = "uppercase"
	TransformTitle     = "title"
	TransformSentence  = "sentence"
)

// IsTransform reports whether name is a known transform.
func IsTransform(name string) bool {
	switch name {
	case TransformLowercase, TransformUppercase, TransformTitle, TransformSentence:
		return true
	default:
		return false
	}
}

// ApplyTransform applies the named transform to s. Unknown or empty names
// leave s unchanged.
func ApplyTransform(name, s string) string {
	switch name {
	case TransformLowercase:
		return cases.Lower(language.Und).String(s)
	case TransformUppercase:
		return cases.Upper(language.Und).String(s)
	case TransformTitle:
		return cases.Title(language.Und).String(s)
	case TransformSentence:
		lower := cases.Lower(language.Und).String(s)
		for i, r := range lower {
			if unicode.IsLetter(r) {
				size := utf8.RuneLen(r)
				return lower[:i] + cases.Upper(language.Und).String(lower[i:i+size]) + lower[i+size:]
			}
		}
		return lower
	default:
		return s
	}
}
