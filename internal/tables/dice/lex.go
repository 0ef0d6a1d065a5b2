package dice

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

const (
	whitespaceToken int = iota
	parenthesesToken
	intToken
	diceToken
	plusToken
	minusToken
	timesToken
)

var whitespaceMatcher = parsly.NewToken(whitespaceToken, "Whitespace", matcher.NewWhiteSpace())
var parenthesesMatcher = parsly.NewToken(parenthesesToken, "Parentheses", matcher.NewBlock('(', ')', '\\'))
var intMatcher = parsly.NewToken(intToken, "Int", &digitsMatcher{})
var diceMatcher = parsly.NewToken(diceToken, "Dice", matcher.NewFragmentsFold([]byte("d")))
var plusMatcher = parsly.NewToken(plusToken, "Plus", matcher.NewByte('+'))
var minusMatcher = parsly.NewToken(minusToken, "Minus", matcher.NewByte('-'))
var timesMatcher = parsly.NewToken(timesToken, "Times", matcher.NewByte('*'))

// digitsMatcher matches an unsigned run of decimal digits. Signs are parsed
// as their own token because '-' doubles as an operator.
type digitsMatcher struct{}

func (*digitsMatcher) Match(cursor *parsly.Cursor) (matched int) {
	for i := cursor.Pos; i < cursor.InputSize; i++ {
		if !isDigit(cursor.Input[i]) {
			break
		}
		matched++
	}
	return matched
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

// nextPos returns the offset of the next non-whitespace byte.
func nextPos(cursor *parsly.Cursor) int {
	pos := cursor.Pos
	for pos < cursor.InputSize && isSpace(cursor.Input[pos]) {
		pos++
	}
	return pos
}
