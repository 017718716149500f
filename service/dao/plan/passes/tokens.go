package passes

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Token codes
const (
	whitespaceCode = iota
	pathCode
	openSquareBracketCode
	closeSquareBracketCode
	openParenCode
	closeParenCode
	kindCode
	stageCode
)

// Token definitions
var (
	whitespaceToken         = parsly.NewToken(whitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	pathToken               = parsly.NewToken(pathCode, "Path", newPathMatcher())
	openSquareBracketToken  = parsly.NewToken(openSquareBracketCode, "[", matcher.NewByte('['))
	closeSquareBracketToken = parsly.NewToken(closeSquareBracketCode, "]", matcher.NewByte(']'))
	openParenToken          = parsly.NewToken(openParenCode, "(", matcher.NewByte('('))
	closeParenToken         = parsly.NewToken(closeParenCode, ")", matcher.NewByte(')'))
	kindToken               = parsly.NewToken(kindCode, "Kind", newKindMatcher())
	stageToken              = parsly.NewToken(stageCode, "Stage", newStageMatcher())
)

// Custom matchers
func newPathMatcher() parsly.Matcher {
	return &pathMatcher{}
}

func newKindMatcher() parsly.Matcher {
	return &kindMatcher{}
}

func newStageMatcher() parsly.Matcher {
	return &stageMatcher{}
}

// pathMatcher matches dotted parameter paths (e.g. lens.mass.centre)
type pathMatcher struct{}

func (m *pathMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	if pos >= size {
		return 0
	}

	// First character must be a letter or underscore
	if !isLetter(input[pos]) && input[pos] != '_' {
		return 0
	}

	matched := 1
	for i := pos + 1; i < size; i++ {
		c := input[i]
		if isLetter(c) || isDigit(c) || c == '_' || c == '.' {
			matched++
			continue
		}
		break
	}
	// a trailing dot is not a valid path
	if input[pos+matched-1] == '.' {
		return 0
	}
	return matched
}

// kindMatcher captures everything until the closing square bracket
type kindMatcher struct{}

func (m *kindMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	if pos >= size {
		return 0
	}

	matched := 0
	for i := pos; i < size; i++ {
		if input[i] == ']' {
			break
		}
		matched++
	}
	return matched
}

// stageMatcher captures everything until the closing parenthesis
type stageMatcher struct{}

func (m *stageMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	if pos >= size {
		return 0
	}

	matched := 0
	for i := pos; i < size; i++ {
		if input[i] == ')' {
			break
		}
		matched++
	}
	return matched
}

// Helper functions
func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
