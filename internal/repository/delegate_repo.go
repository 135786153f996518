// Package repository provides data access layer for the FGBMFI RMM application.
// This file implements the delegate repository over the organization-wide
// master list.
package repository

import (
	"context"

	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/database"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/models"
	"github.com/jackc/pgx/v5"
)

// delegateColumns is the canonical column list scanned into models.Delegate.
const delegateColumns = `id, first_name, last_name, title, phone, email, district, chapter, rank, office, code, created_at`

// DelegateRepository handles all database operations on the delegate master
// list. Delegates belong to the organization, not to any event; they are
// created at registration or bulk import and hard-deleted only through the
// explicit admin merge/purge tools.
type DelegateRepository struct{}

// NewDelegateRepository creates and returns a new DelegateRepository instance.
//
// Returns:
//   - *DelegateRepository: A new repository instance
func NewDelegateRepository() *DelegateRepository {
	return &DelegateRepository{}
}

func scanDelegate(row pgx.Row) (*models.Delegate, error) {
	var d models.Delegate
	err := row.Scan(
		&d.ID, &d.FirstName, &d.LastName, &d.Title, &d.Phone, &d.Email,
		&d.District, &d.Chapter, &d.Rank, &d.Office, &d.Code, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func collectDelegates(rows pgx.Rows) ([]models.Delegate, error) {
	defer rows.Close()

	var delegates []models.Delegate
	for rows.Next() {
		var d models.Delegate
		if err := rows.Scan(
			&d.ID, &d.FirstName, &d.LastName, &d.Title, &d.Phone, &d.Email,
			&d.District, &d.Chapter, &d.Rank, &d.Office, &d.Code, &d.CreatedAt,
		); err != nil {
			return nil, err
		}
		delegates = append(delegates, d)
	}

	return delegates, rows.Err()
}

// GetByID retrieves a single delegate by primary key.
//
// Returns:
//   - *models.Delegate: The delegate, or nil when no row exists
//   - error: Database error if the query fails
func (r *DelegateRepository) GetByID(ctx context.Context, id int) (*models.Delegate, error) {
	query := `SELECT ` + delegateColumns + ` FROM delegates WHERE id = $1`

	d, err := scanDelegate(database.DB.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Search performs a case-insensitive partial match against first name, last
// name, or phone. The caller is responsible for refusing queries of length
// 0-1 (full-table-scan guard) and for post-normalization district filtering;
// this method only does the SQL-side candidate fetch.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - query: Substring to match (already trimmed by the caller)
//   - limit: Result cap (search layer uses 100)
//
// Returns:
//   - []models.Delegate: Matching candidates ordered by last, first name
//   - error: Database error if the query fails
func (r *DelegateRepository) Search(ctx context.Context, query string, limit int) ([]models.Delegate, error) {
	sql := `
        SELECT ` + delegateColumns + `
        FROM delegates
        WHERE first_name ILIKE '%' || $1 || '%'
           OR last_name ILIKE '%' || $1 || '%'
           OR phone ILIKE '%' || $1 || '%'
        ORDER BY last_name, first_name
        LIMIT $2
    `

	rows, err := database.DB.Query(ctx, sql, query, limit)
	if err != nil {
		return nil, err
	}
	return collectDelegates(rows)
}

// FindByPhone retrieves delegates whose phone matches exactly.
// Used by the registration duplicate pre-check; name comparison happens in
// the service with normalized, case-insensitive equality.
//
// Returns:
//   - []models.Delegate: All rows sharing the phone (duplicates possible)
//   - error: Database error if the query fails
func (r *DelegateRepository) FindByPhone(ctx context.Context, phone string) ([]models.Delegate, error) {
	query := `SELECT ` + delegateColumns + ` FROM delegates WHERE phone = $1`

	rows, err := database.DB.Query(ctx, query, phone)
	if err != nil {
		return nil, err
	}
	return collectDelegates(rows)
}

// ListPage retrieves one page of the master list ordered by id.
// The aggregation engine and the admin duplicate report page through the
// whole list with this; a single page is never treated as complete.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - limit: Page size
//   - offset: Page offset
//
// Returns:
//   - []models.Delegate: The page (short or empty page ends the scan)
//   - error: Database error if the query fails
func (r *DelegateRepository) ListPage(ctx context.Context, limit, offset int) ([]models.Delegate, error) {
	query := `SELECT ` + delegateColumns + ` FROM delegates ORDER BY id LIMIT $1 OFFSET $2`

	rows, err := database.DB.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectDelegates(rows)
}

// CountAll returns the total number of delegate rows.
// Used as the unfiltered stats denominator.
func (r *DelegateRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := database.DB.QueryRow(ctx, `SELECT COUNT(*) FROM delegates`).Scan(&count)
	return count, err
}

// Create inserts a new delegate into the master list.
//
// Side Effects:
//   - Sets d.ID and d.CreatedAt from the database
//
// Returns:
//   - error: Database error if insertion fails
func (r *DelegateRepository) Create(ctx context.Context, d *models.Delegate) error {
	query := `
        INSERT INTO delegates (first_name, last_name, title, phone, email, district, chapter, rank, office, code)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id, created_at
    `

	return database.DB.QueryRow(ctx, query,
		d.FirstName, d.LastName, d.Title, d.Phone, d.Email,
		d.District, d.Chapter, d.Rank, d.Office, d.Code,
	).Scan(&d.ID, &d.CreatedAt)
}

// Update rewrites the mutable fields of a delegate row.
// Used by admin edits (district/rank/office normalization included).
func (r *DelegateRepository) Update(ctx context.Context, d *models.Delegate) error {
	query := `
        UPDATE delegates
        SET first_name = $2, last_name = $3, title = $4, phone = $5, email = $6,
            district = $7, chapter = $8, rank = $9, office = $10, code = $11
        WHERE id = $1
    `

	_, err := database.DB.Exec(ctx, query,
		d.ID, d.FirstName, d.LastName, d.Title, d.Phone, d.Email,
		d.District, d.Chapter, d.Rank, d.Office, d.Code,
	)
	return err
}

// UpdateCode refreshes the cached code column for a delegate.
// The cache is cosmetic; every read path recomputes the code.
func (r *DelegateRepository) UpdateCode(ctx context.Context, delegateID int, code string) error {
	_, err := database.DB.Exec(ctx, `UPDATE delegates SET code = $2 WHERE id = $1`, delegateID, code)
	return err
}

// Delete hard-deletes a delegate row. Only the admin duplicate-merge tool
// calls this, after re-pointing the duplicate's check-ins.
func (r *DelegateRepository) Delete(ctx context.Context, delegateID int) error {
	_, err := database.DB.Exec(ctx, `DELETE FROM delegates WHERE id = $1`, delegateID)
	return err
}

// ReassignCheckIns moves check-in rows from one delegate to another during a
// duplicate merge. Rows that would collide with an existing scope of the
// surviving delegate are dropped instead of moved (the survivor is already
// checked in there).
func (r *DelegateRepository) ReassignCheckIns(ctx context.Context, fromID, toID int) error {
	query := `
        UPDATE check_ins ci
        SET delegate_id = $2
        WHERE ci.delegate_id = $1
          AND NOT EXISTS (
              SELECT 1 FROM check_ins dup
              WHERE dup.event_id = ci.event_id
                AND dup.delegate_id = $2
                AND COALESCE(dup.session_id, 0) = COALESCE(ci.session_id, 0)
          )
    `
	if _, err := database.DB.Exec(ctx, query, fromID, toID); err != nil {
		return err
	}

	// Leftovers are scopes the survivor already holds.
	_, err := database.DB.Exec(ctx, `DELETE FROM check_ins WHERE delegate_id = $1`, fromID)
	return err
}
