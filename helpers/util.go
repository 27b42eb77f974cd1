package helpers

import (
	"errors"
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	ratingTailRe = regexp.MustCompile(`\s*\(\d+\)\s*$`)
	alphabeticRe = regexp.MustCompile(`[a-zA-Z]`)
)

func GetSplitPart(target string, separate string, index int) (string, error) {
	parts := strings.Split(target, separate)
	if index >= len(parts) {
		return "", errors.New("index out of range")
	}
	return parts[index], nil
}

// CollapseWhitespace folds any run of whitespace into a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// TrimRatingCount removes a trailing parenthesized review count like "(12)".
func TrimRatingCount(s string) string {
	return strings.TrimSpace(ratingTailRe.ReplaceAllString(s, ""))
}

// AlphabeticCount returns the number of ASCII letters in s.
func AlphabeticCount(s string) int {
	return len(alphabeticRe.FindAllString(s, -1))
}
