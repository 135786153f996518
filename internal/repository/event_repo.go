// Package repository provides data access layer for the FGBMFI RMM application.
// This file implements the event repository covering events and their
// optional sessions.
package repository

import (
	"context"

	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/database"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/models"
	"github.com/jackc/pgx/v5"
)

// EventRepository handles all database operations for events and event
// sessions. Sessions are a sub-scope of exactly one event; a check-in with no
// session is a master event arrival.
type EventRepository struct{}

// NewEventRepository creates and returns a new EventRepository instance.
//
// Returns:
//   - *EventRepository: A new repository instance
func NewEventRepository() *EventRepository {
	return &EventRepository{}
}

// Create inserts a new event.
//
// Side Effects:
//   - Sets e.ID and e.CreatedAt from the database
func (r *EventRepository) Create(ctx context.Context, e *models.Event) error {
	query := `
        INSERT INTO events (name, starts_on, ends_on)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `

	return database.DB.QueryRow(ctx, query, e.Name, e.StartsOn, e.EndsOn).
		Scan(&e.ID, &e.CreatedAt)
}

// GetByID retrieves a single event, or nil when it does not exist.
func (r *EventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	query := `SELECT id, name, starts_on, ends_on, created_at FROM events WHERE id = $1`

	var e models.Event
	err := database.DB.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.Name, &e.StartsOn, &e.EndsOn, &e.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListAll retrieves every event, newest start date first.
// Used by the admin event picker; event counts are bounded (a handful per
// year), so no pagination here.
func (r *EventRepository) ListAll(ctx context.Context) ([]models.Event, error) {
	query := `SELECT id, name, starts_on, ends_on, created_at FROM events ORDER BY starts_on DESC`

	rows, err := database.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.StartsOn, &e.EndsOn, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// Delete removes an event. ON DELETE CASCADE takes sessions, check-ins,
// pledges, and financial entries with it — this is the destructive path
// behind the admin "clear event" confirmation.
func (r *EventRepository) Delete(ctx context.Context, eventID int) error {
	_, err := database.DB.Exec(ctx, `DELETE FROM events WHERE id = $1`, eventID)
	return err
}

// CreateSession inserts a session under an event.
//
// Side Effects:
//   - Sets s.ID from the database
func (r *EventRepository) CreateSession(ctx context.Context, s *models.EventSession) error {
	query := `
        INSERT INTO event_sessions (event_id, title, starts_at, ends_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `

	return database.DB.QueryRow(ctx, query, s.EventID, s.Title, s.StartsAt, s.EndsAt).
		Scan(&s.ID)
}

// GetSession retrieves a single session, or nil when it does not exist.
func (r *EventRepository) GetSession(ctx context.Context, id int) (*models.EventSession, error) {
	query := `SELECT id, event_id, title, starts_at, ends_at FROM event_sessions WHERE id = $1`

	var s models.EventSession
	err := database.DB.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.EventID, &s.Title, &s.StartsAt, &s.EndsAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSessions retrieves the sessions of an event in start order.
func (r *EventRepository) ListSessions(ctx context.Context, eventID int) ([]models.EventSession, error) {
	query := `SELECT id, event_id, title, starts_at, ends_at FROM event_sessions WHERE event_id = $1 ORDER BY starts_at`

	rows, err := database.DB.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.EventSession
	for rows.Next() {
		var s models.EventSession
		if err := rows.Scan(&s.ID, &s.EventID, &s.Title, &s.StartsAt, &s.EndsAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// DeleteSession removes one session; its check-ins cascade.
func (r *EventRepository) DeleteSession(ctx context.Context, sessionID int) error {
	_, err := database.DB.Exec(ctx, `DELETE FROM event_sessions WHERE id = $1`, sessionID)
	return err
}
