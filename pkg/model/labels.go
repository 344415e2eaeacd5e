package model

import (
	"regexp"
	"strings"
)

var wordSeparators = regexp.MustCompile(`[_\-\s.]+`)

// Humanize turns an element or container identifier into a display label,
// splitting on separators and camelCase boundaries ("firstName" -> "First Name").
func Humanize(id string) string {
	if id == "" {
		return ""
	}

	var words []string
	for _, chunk := range wordSeparators.Split(id, -1) {
		if chunk == "" {
			continue
		}
		for _, word := range strings.Fields(splitCamel(chunk)) {
			words = append(words, capitalize(word))
		}
	}
	return strings.Join(words, " ")
}

func splitCamel(input string) string {
	var out strings.Builder
	for i, r := range input {
		if i > 0 && wordBoundary(rune(input[i-1]), r) {
			out.WriteRune(' ')
		}
		out.WriteRune(r)
	}
	return out.String()
}

func wordBoundary(prev, r rune) bool {
	return (isLower(prev) && isUpper(r)) || (isLetter(prev) && isDigit(r)) || (isDigit(prev) && isLetter(r))
}

func isUpper(r rune) bool  { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool  { return r >= 'a' && r <= 'z' }
func isDigit(r rune) bool  { return r >= '0' && r <= '9' }
func isLetter(r rune) bool { return isUpper(r) || isLower(r) }

func capitalize(word string) string {
	lower := strings.ToLower(word)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
