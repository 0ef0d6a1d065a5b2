package ref

import (
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/rollable/internal/platform/errors"
	"github.com/louisbranch/rollable/internal/tables/dice"
)

// Parse parses a reference of the form
//
//	/path;count=2;dice=1d4;total=@t;mod=-1;unique;ignore=1,@x;store=gold:coins;title=Hoard
//
// Options are separated by ';' and may appear in any order.
func Parse(input string) (Ref, error) {
	parts := strings.Split(input, ";")
	path := strings.TrimSpace(parts[0])
	if path == "" {
		return Ref{}, malformed(input, 0, "missing path")
	}
	r := Ref{Path: path}
	offset := len(parts[0]) + 1
	for _, part := range parts[1:] {
		if err := parseOption(&r.Instructions, input, offset, part); err != nil {
			return Ref{}, err
		}
		offset += len(part) + 1
	}
	return r, nil
}

func parseOption(in *Instructions, input string, offset int, part string) error {
	name, value, hasValue := strings.Cut(part, "=")
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)

	if name == "" {
		return nil
	}
	if name == "unique" {
		in.Unique = true
		return nil
	}
	if !hasValue || value == "" {
		return malformed(input, offset, "option "+name+" needs a value")
	}

	var err error
	switch name {
	case "count", "x":
		in.Count, err = parseVariablePtr(value)
	case "total":
		in.Total, err = parseVariablePtr(value)
	case "mod", "modifier":
		in.Modifier, err = parseVariablePtr(value)
	case "dice":
		in.Dice, err = dice.Parse(value)
		if err != nil {
			return apperrors.Shift(err, offset+strings.Index(part, "=")+1)
		}
	case "ignore":
		for _, item := range strings.Split(value, ",") {
			var v Variable
			v, err = ParseVariable(item)
			if err != nil {
				break
			}
			in.Ignore = append(in.Ignore, v)
		}
	case "store":
		if in.Store == nil {
			in.Store = map[string]string{}
		}
		for _, item := range strings.Split(value, ",") {
			outer, inner, ok := strings.Cut(item, ":")
			outer, inner = strings.TrimSpace(outer), strings.TrimSpace(inner)
			if !ok {
				inner = outer
			}
			if outer == "" || inner == "" {
				return malformed(input, offset, "store entries are outer:inner")
			}
			in.Store[outer] = strings.TrimPrefix(inner, "@")
		}
	case "title":
		in.Title = value
	default:
		return malformed(input, offset, "unknown option "+name)
	}
	if err != nil {
		return malformed(input, offset, err.Error())
	}
	return nil
}

// ParseVariable parses "@key" or an integer literal.
func ParseVariable(input string) (Variable, error) {
	input = strings.TrimSpace(input)
	if key, ok := strings.CutPrefix(input, "@"); ok {
		if key == "" {
			return Variable{}, strconv.ErrSyntax
		}
		return Key(key), nil
	}
	value, err := strconv.Atoi(input)
	if err != nil {
		return Variable{}, strconv.ErrSyntax
	}
	return Const(value), nil
}

func parseVariablePtr(input string) (*Variable, error) {
	v, err := ParseVariable(input)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func malformed(input string, pos int, message string) error {
	err := apperrors.Syntax(apperrors.CodeMalformedReference, pos, message)
	err.Metadata = map[string]string{"Reference": input}
	return err
}
