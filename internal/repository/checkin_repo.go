// Package repository provides data access layer for the FGBMFI RMM application.
// This file implements the check-in repository enforcing the one-row-per-scope
// idempotency contract.
package repository

import (
	"context"

	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/database"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/models"
	"github.com/jackc/pgx/v5"
)

// CheckInRepository handles all database operations related to delegate
// check-ins. Rows are immutable once written; the only delete path is the
// admin bulk event-data clear.
//
// Uniqueness Contract:
//
//	At most one check-in per (event_id, delegate_id, session_id-or-null).
//	Enforced by the check_ins_scope_key unique index over
//	(event_id, delegate_id, COALESCE(session_id, 0)); concurrent inserts for
//	the same scope race safely and the loser resolves to "already verified".
type CheckInRepository struct{}

// NewCheckInRepository creates and returns a new CheckInRepository instance.
//
// Returns:
//   - *CheckInRepository: A new repository instance
func NewCheckInRepository() *CheckInRepository {
	return &CheckInRepository{}
}

// AttendanceRow is one check-in joined with the delegate fields the
// aggregation engine needs to build its identity key. Raw rows are NOT
// deduplicated here; the stats service owns dedup.
type AttendanceRow struct {
	CheckIn   models.CheckIn
	FirstName string
	LastName  string
	District  string
	Rank      string
}

// Create inserts a new check-in row for the given scope.
// This method is the write half of the idempotency contract: a duplicate
// scope hits ON CONFLICT DO NOTHING, no row comes back, and Scan returns
// pgx.ErrNoRows — callers MUST treat that as "already verified", not as an
// error.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - ci: CheckIn to create (EventID, DelegateID, RecordedBy required;
//     SessionID nil for a master event arrival)
//
// Returns:
//   - error: pgx.ErrNoRows on a lost insert race, database error otherwise
//
// Side Effects:
//   - Sets ci.ID and ci.CheckedInAt from the database on a fresh insert
func (r *CheckInRepository) Create(ctx context.Context, ci *models.CheckIn) error {
	// The conflict target must match the check_ins_scope_key index
	// expression exactly, COALESCE included.
	query := `
        INSERT INTO check_ins (event_id, delegate_id, session_id, recorded_by)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (event_id, delegate_id, COALESCE(session_id, 0)) DO NOTHING
        RETURNING id, checked_in_at
    `

	return database.DB.QueryRow(ctx, query,
		ci.EventID, ci.DelegateID, ci.SessionID, ci.RecordedBy,
	).Scan(&ci.ID, &ci.CheckedInAt)
}

// Find retrieves the check-in for one (event, delegate, session-or-null)
// scope, or nil when the delegate has not checked in under that scope.
//
// IS NOT DISTINCT FROM makes a nil sessionID match the NULL-session row; this
// must stay aligned with the write-side scope or null-vs-empty duplicates
// corrupt the uniqueness invariant.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - eventID: Event scope
//   - delegateID: Delegate to look up
//   - sessionID: Session scope, nil for master event arrival
//
// Returns:
//   - *models.CheckIn: Existing row, or nil when none exists
//   - error: Database error if the query fails
func (r *CheckInRepository) Find(ctx context.Context, eventID, delegateID int, sessionID *int) (*models.CheckIn, error) {
	query := `
        SELECT id, event_id, delegate_id, session_id, checked_in_at, recorded_by
        FROM check_ins
        WHERE event_id = $1 AND delegate_id = $2 AND session_id IS NOT DISTINCT FROM $3
    `

	var ci models.CheckIn
	err := database.DB.QueryRow(ctx, query, eventID, delegateID, sessionID).Scan(
		&ci.ID, &ci.EventID, &ci.DelegateID, &ci.SessionID, &ci.CheckedInAt, &ci.RecordedBy,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &ci, nil
}

// CheckedInSet resolves check-in status for a set of delegates under one
// (event, session-or-null) scope. Used by the search layer to annotate
// candidates without one query per row.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - eventID: Event scope
//   - sessionID: Session scope, nil for master event arrival
//   - delegateIDs: Candidate delegate ids (empty set short-circuits)
//
// Returns:
//   - map[int]bool: Delegate id → true for every checked-in delegate
//   - error: Database error if the query fails
func (r *CheckInRepository) CheckedInSet(ctx context.Context, eventID int, sessionID *int, delegateIDs []int) (map[int]bool, error) {
	checked := make(map[int]bool)
	if len(delegateIDs) == 0 {
		return checked, nil
	}

	query := `
        SELECT delegate_id
        FROM check_ins
        WHERE event_id = $1 AND session_id IS NOT DISTINCT FROM $2 AND delegate_id = ANY($3)
    `

	rows, err := database.DB.Query(ctx, query, eventID, sessionID, delegateIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		checked[id] = true
	}

	return checked, rows.Err()
}

// ListEventPage retrieves one page of check-ins for an event joined with
// delegate identity fields, most recent first. The aggregation engine calls
// this repeatedly until an empty page (or its safety cap) — a single page is
// never the full picture on large events.
//
// Session check-ins and master arrivals are both included: aggregation counts
// unique identities, not rows.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - eventID: Event scope
//   - limit: Page size (aggregation uses 1000)
//   - offset: Page offset
//
// Returns:
//   - []AttendanceRow: Raw rows, ordered checked_in_at DESC, id DESC
//   - error: Database error if the query fails
func (r *CheckInRepository) ListEventPage(ctx context.Context, eventID, limit, offset int) ([]AttendanceRow, error) {
	// id DESC tie-break keeps pagination stable when timestamps collide.
	query := `
        SELECT
            ci.id, ci.event_id, ci.delegate_id, ci.session_id, ci.checked_in_at, ci.recorded_by,
            d.first_name, d.last_name, d.district, d.rank
        FROM check_ins ci
        JOIN delegates d ON d.id = ci.delegate_id
        WHERE ci.event_id = $1
        ORDER BY ci.checked_in_at DESC, ci.id DESC
        LIMIT $2 OFFSET $3
    `

	rows, err := database.DB.Query(ctx, query, eventID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var page []AttendanceRow
	for rows.Next() {
		var row AttendanceRow
		if err := rows.Scan(
			&row.CheckIn.ID, &row.CheckIn.EventID, &row.CheckIn.DelegateID,
			&row.CheckIn.SessionID, &row.CheckIn.CheckedInAt, &row.CheckIn.RecordedBy,
			&row.FirstName, &row.LastName, &row.District, &row.Rank,
		); err != nil {
			return nil, err
		}
		page = append(page, row)
	}

	return page, rows.Err()
}

// DeleteForEvent removes every check-in row for an event.
// Only the admin bulk event-data clear calls this.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - eventID: Event whose check-ins are purged
//
// Returns:
//   - int64: Number of rows deleted
//   - error: Database error if the delete fails
func (r *CheckInRepository) DeleteForEvent(ctx context.Context, eventID int) (int64, error) {
	tag, err := database.DB.Exec(ctx, `DELETE FROM check_ins WHERE event_id = $1`, eventID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
