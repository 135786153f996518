// Package repository provides data access layer for the FGBMFI RMM application.
// This file implements the finance repository covering offerings, pledges,
// and pledge redemptions.
package repository

import (
	"context"

	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/database"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/models"
	"github.com/jackc/pgx/v5"
)

// FinanceRepository handles all database operations for financial entries and
// pledges. Financial totals feed the dashboard independently of the
// attendance identity-dedup logic; a failure here must never abort headcount
// computation (the stats service degrades the field instead).
type FinanceRepository struct{}

// NewFinanceRepository creates and returns a new FinanceRepository instance.
//
// Returns:
//   - *FinanceRepository: A new repository instance
func NewFinanceRepository() *FinanceRepository {
	return &FinanceRepository{}
}

// CreateEntry records a financial entry (offering, redemption, ...).
//
// Side Effects:
//   - Sets entry.ID and entry.CreatedAt from the database
func (r *FinanceRepository) CreateEntry(ctx context.Context, entry *models.FinancialEntry) error {
	query := `
        INSERT INTO financial_entries (event_id, delegate_id, pledge_id, category, amount, recorded_by)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at
    `

	return database.DB.QueryRow(ctx, query,
		entry.EventID, entry.DelegateID, entry.PledgeID, entry.Category, entry.Amount, entry.RecordedBy,
	).Scan(&entry.ID, &entry.CreatedAt)
}

// SumForEvent returns the total of all financial entries for an event.
// COALESCE keeps an event with no entries at 0 rather than a NULL scan error.
func (r *FinanceRepository) SumForEvent(ctx context.Context, eventID int) (float64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM financial_entries WHERE event_id = $1`

	var total float64
	err := database.DB.QueryRow(ctx, query, eventID).Scan(&total)
	return total, err
}

// SumForEventByDistrict returns the event total scoped to one district via
// the pledge → delegate indirection: only entries attached to a pledge whose
// delegate belongs to the district are counted. District comparison folds
// case and trims in SQL; callers pass an already-normalized district.
func (r *FinanceRepository) SumForEventByDistrict(ctx context.Context, eventID int, district string) (float64, error) {
	query := `
        SELECT COALESCE(SUM(fe.amount), 0)
        FROM financial_entries fe
        JOIN pledges p ON p.id = fe.pledge_id
        JOIN delegates d ON d.id = p.delegate_id
        WHERE fe.event_id = $1 AND UPPER(TRIM(d.district)) = UPPER(TRIM($2))
    `

	var total float64
	err := database.DB.QueryRow(ctx, query, eventID, district).Scan(&total)
	return total, err
}

// CreatePledge records a new pledge.
//
// Side Effects:
//   - Sets p.ID and p.CreatedAt from the database
func (r *FinanceRepository) CreatePledge(ctx context.Context, p *models.Pledge) error {
	query := `
        INSERT INTO pledges (event_id, delegate_id, amount)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `

	return database.DB.QueryRow(ctx, query, p.EventID, p.DelegateID, p.Amount).
		Scan(&p.ID, &p.CreatedAt)
}

// GetPledge retrieves a pledge by id, or nil when it does not exist.
func (r *FinanceRepository) GetPledge(ctx context.Context, id int) (*models.Pledge, error) {
	query := `SELECT id, event_id, delegate_id, amount, redeemed, created_at FROM pledges WHERE id = $1`

	var p models.Pledge
	err := database.DB.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.EventID, &p.DelegateID, &p.Amount, &p.Redeemed, &p.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPledges retrieves an event's pledges, unredeemed first then newest.
func (r *FinanceRepository) ListPledges(ctx context.Context, eventID int) ([]models.Pledge, error) {
	query := `
        SELECT id, event_id, delegate_id, amount, redeemed, created_at
        FROM pledges
        WHERE event_id = $1
        ORDER BY redeemed, created_at DESC
    `

	rows, err := database.DB.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pledges []models.Pledge
	for rows.Next() {
		var p models.Pledge
		if err := rows.Scan(&p.ID, &p.EventID, &p.DelegateID, &p.Amount, &p.Redeemed, &p.CreatedAt); err != nil {
			return nil, err
		}
		pledges = append(pledges, p)
	}

	return pledges, rows.Err()
}

// MarkPledgeRedeemed flips a pledge to redeemed, guarding against double
// redemption: a pledge already redeemed matches zero rows and the caller
// sees redeemed=false.
//
// Returns:
//   - bool: Whether this call performed the redemption
//   - error: Database error if the update fails
func (r *FinanceRepository) MarkPledgeRedeemed(ctx context.Context, pledgeID int) (bool, error) {
	tag, err := database.DB.Exec(ctx,
		`UPDATE pledges SET redeemed = TRUE WHERE id = $1 AND redeemed = FALSE`, pledgeID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteForEvent removes every financial entry and pledge for an event.
// Part of the admin bulk event-data clear.
func (r *FinanceRepository) DeleteForEvent(ctx context.Context, eventID int) error {
	if _, err := database.DB.Exec(ctx, `DELETE FROM financial_entries WHERE event_id = $1`, eventID); err != nil {
		return err
	}
	_, err := database.DB.Exec(ctx, `DELETE FROM pledges WHERE event_id = $1`, eventID)
	return err
}
