package domain

import "strings"

// NormalizeHumanName trims leading/trailing whitespace and collapses internal whitespace runs.
// It is used for company names and derived full names, never for name-slug matching.
func NormalizeHumanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// JoinFullName builds the display name from the name parts, skipping empty parts.
func JoinFullName(first, middle, last string) string {
	return NormalizeHumanName(first + " " + middle + " " + last)
}
