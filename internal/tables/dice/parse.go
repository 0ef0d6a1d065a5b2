package dice

import (
	"strconv"
	"strings"

	"github.com/viant/parsly"

	apperrors "github.com/louisbranch/rollable/internal/platform/errors"
)

// Parse parses a dice expression. Errors carry the code
// MALFORMED_EXPRESSION and the byte offset where parsing failed.
func Parse(input string) (Expr, error) {
	if strings.TrimSpace(input) == "" {
		return nil, malformed(0, "empty expression")
	}
	cursor := parsly.NewCursor("", []byte(input), 0)
	return parseExpr(cursor)
}

// MustParse is like Parse but panics on error. It is meant for constant
// expressions in tests and defaults.
func MustParse(input string) Expr {
	expr, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return expr
}

func parseExpr(cursor *parsly.Cursor) (Expr, error) {
	left, err := parseTerm(cursor)
	if err != nil {
		return nil, err
	}
	for {
		pos := nextPos(cursor)
		matched := cursor.MatchAfterOptional(whitespaceMatcher, plusMatcher, minusMatcher, timesMatcher)
		var op Op
		switch matched.Code {
		case parsly.EOF:
			return left, nil
		case plusToken:
			op = OpAdd
		case minusToken:
			op = OpSub
		case timesToken:
			op = OpMul
		default:
			return nil, malformed(pos, "unexpected trailing input")
		}
		right, err := parseTerm(cursor)
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, Left: left, Right: right}
	}
}

func parseTerm(cursor *parsly.Cursor) (Expr, error) {
	pos := nextPos(cursor)
	matched := cursor.MatchAfterOptional(whitespaceMatcher, parenthesesMatcher, minusMatcher, intMatcher)
	switch matched.Code {
	case parenthesesToken:
		block := matched.Text(cursor)
		inner := block[1 : len(block)-1]
		if strings.TrimSpace(inner) == "" {
			return nil, malformed(pos+1, "missing operand")
		}
		sub := parsly.NewCursor("", []byte(inner), 0)
		expr, err := parseExpr(sub)
		if err != nil {
			return nil, apperrors.Shift(err, pos+1)
		}
		return expr, nil
	case minusToken:
		numPos := nextPos(cursor)
		number := cursor.MatchAfterOptional(whitespaceMatcher, intMatcher)
		if number.Code != intToken {
			return nil, malformed(numPos, "missing operand")
		}
		return parseNumber(cursor, numPos, number.Text(cursor), true)
	case intToken:
		return parseNumber(cursor, pos, matched.Text(cursor), false)
	case parsly.EOF:
		return nil, malformed(pos, "missing operand")
	default:
		if pos < cursor.InputSize && cursor.Input[pos] == '(' {
			return nil, malformed(pos, "unterminated parenthesis")
		}
		return nil, malformed(pos, "missing operand")
	}
}

// parseNumber turns an integer literal into a constant, or into a dice term
// when a 'd' follows.
func parseNumber(cursor *parsly.Cursor, pos int, literal string, negative bool) (Expr, error) {
	value, err := strconv.Atoi(literal)
	if err != nil {
		return nil, malformed(pos, "number out of range")
	}
	if cursor.MatchOne(diceMatcher).Code != diceToken {
		if negative {
			value = -value
		}
		return Constant{Value: value}, nil
	}

	sidesPos := cursor.Pos
	sides := cursor.MatchOne(intMatcher)
	if sides.Code != intToken {
		return nil, malformed(sidesPos, "missing dice sides")
	}
	sidesValue, err := strconv.Atoi(sides.Text(cursor))
	if err != nil {
		return nil, malformed(sidesPos, "number out of range")
	}
	if sidesValue <= 0 {
		return nil, malformed(sidesPos, "dice must have positive sides")
	}
	if value > MaxCount {
		return nil, malformed(pos, "too many dice")
	}
	return Dice{Count: value, Sides: sidesValue, Negative: negative}, nil
}

func malformed(pos int, message string) error {
	return apperrors.Syntax(apperrors.CodeMalformedExpression, pos, message)
}
