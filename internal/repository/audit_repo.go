// Package repository provides data access layer for the FGBMFI RMM application.
// This file implements the audit repository for security and compliance logging.
package repository

import (
	"context"

	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/database"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/models"
)

// AuditRepository handles all database operations related to audit logging.
// It provides methods for creating and retrieving audit trail entries.
//
// Immutability Note:
//
//	Audit logs are never modified or deleted once created. They provide a
//	permanent record of check-ins, registrations, purges, and admin actions.
type AuditRepository struct{}

// NewAuditRepository creates and returns a new AuditRepository instance.
//
// Returns:
//   - *AuditRepository: A new repository instance ready for use
//
// Example:
//
//	repo := repository.NewAuditRepository()
//	err := repo.Log(ctx, auditEntry)
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

// Log creates a new audit log entry in the database.
// Records significant system actions for security monitoring and compliance.
//
// Common Action Types:
//   - "CHECK_IN", "CHECK_IN_BY_CODE"
//   - "REGISTER_DELEGATE", "MERGE_DELEGATES"
//   - "CREATE_EVENT", "CLEAR_EVENT_DATA"
//   - "CREATE_USER", "DELETE_USER"
//   - "RECORD_OFFERING", "REDEEM_PLEDGE"
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - entry: AuditLog entry to create (Action required; RequestID is the
//     correlation id minted by the request middleware)
//
// Returns:
//   - error: Database error if logging fails, nil on success
//
// Side Effects:
//   - Sets entry.ID and entry.CreatedAt from the database
func (r *AuditRepository) Log(ctx context.Context, entry *models.AuditLog) error {
	query := `
        INSERT INTO audit_log (actor_id, action, object_type, object_id, request_id, ip_address, user_agent)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at
    `

	return database.DB.QueryRow(ctx, query,
		entry.ActorID, entry.Action, entry.ObjectType, entry.ObjectID,
		entry.RequestID, entry.IPAddress, entry.UserAgent,
	).Scan(&entry.ID, &entry.CreatedAt)
}

// ListRecent retrieves the most recent audit log entries, newest first.
// Used by administrators for security monitoring and compliance review.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - limit: Maximum number of entries to retrieve (50 for the dashboard,
//     500 for the full audit view)
//
// Returns:
//   - []models.AuditLog: List of recent audit entries (empty slice if none)
//   - error: Database error if query fails, nil on success
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	query := `
        SELECT
            id, actor_id, action, object_type, object_id,
            request_id, ip_address, user_agent, created_at
        FROM audit_log
        ORDER BY created_at DESC
        LIMIT $1
    `

	rows, err := database.DB.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditLog
	for rows.Next() {
		var entry models.AuditLog
		if err := rows.Scan(
			&entry.ID,
			&entry.ActorID, // Nullable - NULL for system actions
			&entry.Action,
			&entry.ObjectType,
			&entry.ObjectID, // Nullable - NULL when no specific object
			&entry.RequestID,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
