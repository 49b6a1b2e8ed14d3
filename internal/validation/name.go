package validation

import (
	"strings"
)

// ValidateName validates a display name coming from the identity provider.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return invalid("name", "name is required")
	}

	if len(trimmed) > 100 {
		return invalid("name", "name is too long (max 100 characters)")
	}

	return nil
}
