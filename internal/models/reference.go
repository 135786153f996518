// Package models defines data structures for the FGBMFI RMM application.
// This file contains the reference-list value object used for districts,
// ranks, and offices.
package models

import "github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/normalize"

// Reference list kinds stored in the reference_items table.
const (
	ReferenceDistrict = "district"
	ReferenceRank     = "rank"
	ReferenceOffice   = "office"
)

// ReferenceList is an ordered, deduplicated set of canonical names for one
// reference kind (districts, ranks, or offices). Membership checks go through
// the normalization utility, never raw string equality, so "  lagos" matches
// the canonical "Lagos".
type ReferenceList struct {
	Kind  string   // One of the Reference* constants
	names []string // Canonical display forms, insertion-ordered
	index map[string]int
}

// NewReferenceList builds a ReferenceList from raw names, normalizing each
// entry and dropping duplicates while preserving first-seen order.
func NewReferenceList(kind string, names []string) *ReferenceList {
	l := &ReferenceList{Kind: kind, index: make(map[string]int)}
	for _, n := range names {
		l.Add(n)
	}
	return l
}

// Add inserts a name if its folded form is not already present.
// Returns true when the name was added.
func (l *ReferenceList) Add(name string) bool {
	display := normalize.Normalize(name)
	if display == "" {
		return false
	}
	key := normalize.Fold(display)
	if _, ok := l.index[key]; ok {
		return false
	}
	l.index[key] = len(l.names)
	l.names = append(l.names, display)
	return true
}

// Contains reports whether name matches a canonical entry after
// normalization and case folding.
func (l *ReferenceList) Contains(name string) bool {
	_, ok := l.index[normalize.Fold(name)]
	return ok
}

// Canonical returns the canonical display form for name, or "" when the name
// is not in the list. Used to normalize free-text district/rank/office input
// at registration and admin-edit time.
func (l *ReferenceList) Canonical(name string) string {
	if i, ok := l.index[normalize.Fold(name)]; ok {
		return l.names[i]
	}
	return ""
}

// Names returns the canonical names in order. The returned slice is a copy.
func (l *ReferenceList) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Len returns the number of canonical entries.
func (l *ReferenceList) Len() int {
	return len(l.names)
}
