package textutil

import "strings"

const nonBreakingSpace = "\u00a0"

// NormalizeLabel collapses non-breaking spaces into regular spaces and trims
// surrounding whitespace. Sheet cells and dictionary keys are both compared
// in this form.
func NormalizeLabel(value string) string {
	if value == "" {
		return ""
	}
	return strings.TrimSpace(strings.ReplaceAll(value, nonBreakingSpace, " "))
}

// OrPlaceholder returns value, or "(empty)" when value is blank.
func OrPlaceholder(value string) string {
	if strings.TrimSpace(value) == "" {
		return "(empty)"
	}
	return value
}
