// Package services_test provides unit tests for the services layer.
// Search service tests cover the short-query guard, status annotation, and
// the optional district filter.
package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/services"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSearchService_ShortQueryRefused verifies queries under two characters
// never reach the database.
func TestSearchService_ShortQueryRefused(t *testing.T) {
	for _, q := range []string{"", " ", "j", "  j  "} {
		_, err := services.NewSearchService().Search(context.Background(), 1, nil, q, "")
		assert.ErrorIs(t, err, services.ErrValidation, "query %q", q)
	}
}

// TestSearchService_AnnotatesResults verifies each candidate carries its
// check-in status for the requested scope and a freshly derived code.
func TestSearchService_AnnotatesResults(t *testing.T) {
	testTime := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

	// Arrange
	mock := newMockDB(t)

	candidates := pgxmock.NewRows(svcDelegateColumns).
		AddRow(svcDelegateRow(42, "Jane", "Doe", "Lagos", "Elder", testTime)...).
		AddRow(svcDelegateRow(51, "Janet", "Dike", "Abuja", "Deacon", testTime)...)
	mock.ExpectQuery(`FROM delegates`).
		WithArgs("jan", 100).
		WillReturnRows(candidates)

	checked := pgxmock.NewRows([]string{"delegate_id"}).AddRow(42)
	mock.ExpectQuery(`SELECT delegate_id`).
		WithArgs(7, (*int)(nil), []int{42, 51}).
		WillReturnRows(checked)

	// Act
	results, err := services.NewSearchService().Search(context.Background(), 7, nil, " jan ", "")

	// Assert
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results[0].CheckedIn)
	assert.Equal(t, "1583", results[0].DerivedCode, "delegate 42 at event 7")
	assert.False(t, results[1].CheckedIn)
	assert.NotEmpty(t, results[1].DerivedCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestSearchService_DistrictFilter verifies the optional filter narrows by
// normalized district and only surviving ids hit the status lookup.
func TestSearchService_DistrictFilter(t *testing.T) {
	testTime := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

	mock := newMockDB(t)

	candidates := pgxmock.NewRows(svcDelegateColumns).
		AddRow(svcDelegateRow(42, "Jane", "Doe", "LAGOS", "Elder", testTime)...).
		AddRow(svcDelegateRow(51, "Janet", "Dike", "Abuja", "Deacon", testTime)...)
	mock.ExpectQuery(`FROM delegates`).
		WithArgs("jan", 100).
		WillReturnRows(candidates)

	mock.ExpectQuery(`SELECT delegate_id`).
		WithArgs(7, (*int)(nil), []int{42}).
		WillReturnRows(pgxmock.NewRows([]string{"delegate_id"}))

	results, err := services.NewSearchService().Search(context.Background(), 7, nil, "jan", "lagos")

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 42, results[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
