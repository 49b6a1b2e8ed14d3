package validation

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	maxTitleLength    = 100
	maxCategoryLength = 50
)

// NormalizeText trims surrounding whitespace and converts to Unicode NFC, so
// visually identical titles typed on different devices compare equal.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ValidateTitle returns the normalized title or an *Error.
func ValidateTitle(title string) (string, error) {
	title = NormalizeText(title)

	if title == "" {
		return "", invalid("title", "title is required")
	}

	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", invalid("title", "title is too long (max 100 characters)")
	}

	return title, nil
}

// ValidateCategory normalizes a goal category, substituting def when empty.
func ValidateCategory(category, def string) (string, error) {
	category = NormalizeText(category)
	if category == "" {
		return def, nil
	}

	if utf8.RuneCountInString(category) > maxCategoryLength {
		return "", invalid("category", "category is too long (max 50 characters)")
	}

	return category, nil
}
