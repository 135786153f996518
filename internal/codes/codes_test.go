// Package codes_test verifies the delegate code derivation contract.
// The expected values below are frozen reference vectors: they match codes
// already issued in production and must never change.
package codes_test

import (
	"fmt"
	"testing"

	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/codes"
	"github.com/stretchr/testify/assert"
)

// TestDeriveCode_ReferenceVectors pins the derivation to known outputs.
// If any of these fail, the hash arithmetic drifted and issued badge codes
// are no longer honored.
func TestDeriveCode_ReferenceVectors(t *testing.T) {
	tests := []struct {
		name       string
		delegateID string
		eventID    string
		expected   string
	}{
		{"numeric ids", "42", "7", "1583"},
		{"adjacent event changes code", "42", "8", "1584"},
		{"argument order matters", "7", "42", "4523"},
		{"prefixed ids", "d-1001", "ev-2024", "2322"},
		{"prefixed ids next event", "d-1001", "ev-2025", "2323"},
		{"long ids overflow int32", "delegate-abc", "event-xyz", "9271"},
		{"minimal ids", "1", "1", "1569"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := codes.DeriveCode(tt.delegateID, tt.eventID)
			assert.Equal(t, tt.expected, got)
		})
	}
}

// TestDeriveCode_Deterministic verifies repeated calls return the identical
// zero-padded 4-character string.
func TestDeriveCode_Deterministic(t *testing.T) {
	for i := 0; i < 50; i++ {
		delegateID := fmt.Sprintf("%d", i*137+1)
		eventID := fmt.Sprintf("%d", i%5+1)

		first := codes.DeriveCode(delegateID, eventID)
		for j := 0; j < 10; j++ {
			assert.Equal(t, first, codes.DeriveCode(delegateID, eventID))
		}
		assert.Len(t, first, 4, "code must always be 4 characters")
		assert.Regexp(t, `^\d{4}$`, first)
	}
}

// TestDeriveCode_EventScoped checks that a fixed delegate generally receives
// different codes at different events. Not a strict invariant (codes are not
// collision-free), but it must hold across a representative sample.
func TestDeriveCode_EventScoped(t *testing.T) {
	const delegateID = "9817"

	seen := make(map[string]int)
	distinct := 0
	for event := 1; event <= 50; event++ {
		code := codes.DeriveCode(delegateID, fmt.Sprintf("%d", event))
		if seen[code] == 0 {
			distinct++
		}
		seen[code]++
	}

	// With 9999 buckets and 50 events, near-total distinctness is expected.
	assert.GreaterOrEqual(t, distinct, 45, "codes should vary by event")
}

// TestDeriveCode_FailsClosed verifies the empty-input contract.
func TestDeriveCode_FailsClosed(t *testing.T) {
	assert.Equal(t, "0000", codes.DeriveCode("", "X"))
	assert.Equal(t, "0000", codes.DeriveCode("X", ""))
	assert.Equal(t, "0000", codes.DeriveCode("", ""))
}

// TestDeriveCode_CollisionsTolerated documents that two distinct delegates
// can legitimately share a code within one event. Delegates 18 and 420 both
// map to 5487 at event 77; disambiguation is the check-in engine's job.
func TestDeriveCode_CollisionsTolerated(t *testing.T) {
	a := codes.DeriveCode("18", "77")
	b := codes.DeriveCode("420", "77")

	assert.Equal(t, "5487", a)
	assert.Equal(t, a, b, "known collision pair must collide")
}
