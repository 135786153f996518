// Package codes implements delegate verification code derivation for the
// FGBMFI RMM application. A delegate's 4-digit code is a pure function of the
// (delegate id, event id) pair and is recomputed on demand; any code value
// stored on a delegate row is a denormalized cache only.
package codes

import (
	"fmt"
	"unicode/utf16"
)

// ZeroCode is returned when either identifier is missing.
// Lookups must treat it as "no code", never as a real delegate code.
const ZeroCode = "0000"

// DeriveCode derives the 4-digit verification code for a delegate at an event.
//
// The derivation must stay bit-for-bit stable across releases: codes printed
// on badges at past conventions were produced by this exact arithmetic, and a
// reimplementation that hashes differently would invalidate every code already
// issued. The algorithm is a 32-bit rolling hash (h = h*31 + codeUnit) over
// the UTF-16 code units of delegateID + eventID, with signed 32-bit
// wraparound, reduced to the range 0001-9999 and zero-padded.
//
// Properties:
//   - Deterministic: same inputs always yield the same code.
//   - Event-scoped: the same delegate gets different codes at different events.
//   - NOT collision-free: two delegates at one event may share a code.
//     Callers disambiguate with additional context (district) at check-in.
//
// Parameters:
//   - delegateID: opaque delegate identifier (decimal string for serial keys)
//   - eventID: opaque event identifier
//
// Returns:
//   - string: 4-character zero-padded numeric code, or ZeroCode ("0000")
//     when either input is empty (fails closed)
//
// Example:
//
//	code := codes.DeriveCode("42", "7") // "1583", always
func DeriveCode(delegateID, eventID string) string {
	if delegateID == "" || eventID == "" {
		return ZeroCode
	}

	salt := delegateID + eventID

	// Rolling hash over UTF-16 code units. int32 overflow wraps, which is
	// part of the contract, not an accident.
	var hash int32
	for _, unit := range utf16.Encode([]rune(salt)) {
		hash = hash*31 + int32(unit)
	}

	// abs() in 64-bit space so math.MinInt32 cannot overflow the negation.
	n := int64(hash)
	if n < 0 {
		n = -n
	}

	return fmt.Sprintf("%04d", n%9999+1)
}
