// Package normalize provides string canonicalization for the FGBMFI RMM
// application. Every equality or uniqueness comparison on names, phones,
// districts, chapters, ranks, and offices goes through this package so that
// "  Lagos " and "LAGOS" are the same district everywhere.
//
// Stored data is never mutated: comparisons fold case at comparison time.
package normalize

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize collapses every whitespace run to a single space and trims
// leading/trailing whitespace.
//
// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// Fold returns the normalized, uppercased form of s, suitable as a
// case-insensitive comparison or map key. Display values should use
// Normalize, not Fold.
func Fold(s string) string {
	return strings.ToUpper(Normalize(s))
}

// Equal reports whether two strings are equal after normalization and
// case folding.
func Equal(a, b string) bool {
	return Fold(a) == Fold(b)
}

// AttendanceKey builds the identity key used by attendance aggregation:
// normalized first name + last name + district + rank, uppercased.
//
// This key intentionally differs from MasterKey. Attendance answers "how many
// people of what rank/district attended", so rank is part of the identity and
// phone is not. Do not substitute one key for the other.
func AttendanceKey(firstName, lastName, district, rank string) string {
	return Fold(firstName) + "|" + Fold(lastName) + "|" + Fold(district) + "|" + Fold(rank)
}

// MasterKey builds the master-list dedup key for delegate records:
// normalized first name + last name + phone, uppercased. Used by the
// registration duplicate pre-check and the admin duplicate-cleanup report.
func MasterKey(firstName, lastName, phone string) string {
	return Fold(firstName) + "|" + Fold(lastName) + "|" + Fold(phone)
}
