// Package repository provides data access layer for the FGBMFI RMM application.
// This file implements the reference repository for the canonical district,
// rank, and office lists.
package repository

import (
	"context"

	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/database"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/models"
)

// ReferenceRepository handles database operations for reference lists.
// Rows are loaded into a models.ReferenceList value object, which owns
// ordering, deduplication, and normalized membership checks.
type ReferenceRepository struct{}

// NewReferenceRepository creates a new instance of ReferenceRepository.
//
// Returns:
//   - *ReferenceRepository: Initialized repository instance
func NewReferenceRepository() *ReferenceRepository {
	return &ReferenceRepository{}
}

// List loads the reference list of one kind in position order.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - kind: models.ReferenceDistrict, ReferenceRank, or ReferenceOffice
//
// Returns:
//   - *models.ReferenceList: Ordered, deduplicated value object
//   - error: Database error if the query fails
func (r *ReferenceRepository) List(ctx context.Context, kind string) (*models.ReferenceList, error) {
	query := `SELECT name FROM reference_items WHERE kind = $1 ORDER BY position, id`

	rows, err := database.DB.Query(ctx, query, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return models.NewReferenceList(kind, names), nil
}

// Add appends a name to a reference list at the next position.
// The (kind, name) unique constraint rejects exact duplicates; normalized
// near-duplicates are caught by the service through the value object first.
func (r *ReferenceRepository) Add(ctx context.Context, kind, name string) error {
	query := `
        INSERT INTO reference_items (kind, name, position)
        VALUES ($1, $2, (SELECT COALESCE(MAX(position), 0) + 1 FROM reference_items WHERE kind = $1))
    `
	_, err := database.DB.Exec(ctx, query, kind, name)
	return err
}

// Remove deletes a name from a reference list.
// Delegate rows keep their free-text value; removal only stops new input
// from validating against the name.
func (r *ReferenceRepository) Remove(ctx context.Context, kind, name string) error {
	_, err := database.DB.Exec(ctx,
		`DELETE FROM reference_items WHERE kind = $1 AND name = $2`, kind, name)
	return err
}
