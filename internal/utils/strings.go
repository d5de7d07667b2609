package utils

import "strings"

// SanitizeInput trims surrounding whitespace and removes NUL bytes.
func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)
	return strings.ReplaceAll(input, "\x00", "")
}

// CollapseSpaces replaces every run of whitespace with a single space.
func CollapseSpaces(input string) string {
	return strings.Join(strings.Fields(input), " ")
}
