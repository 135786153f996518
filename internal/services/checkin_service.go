// Package services provides business logic layer for the FGBMFI RMM
// application. This file implements the check-in engine: idempotent arrival
// recording scoped by (event, delegate, session-or-null), plus the code fast
// path with its district authorization rule.
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/codes"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/models"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/normalize"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/repository"
	"github.com/jackc/pgx/v5"
)

// ============================================================================
// Constants
// ============================================================================

// Result messages surfaced to the registrar desk. These are stable strings
// the templates and tests key on.
const (
	MsgCheckedIn        = "Checked In"
	MsgAlreadyVerified  = "Already Verified"
	MsgDistrictMismatch = "District Mismatch"
	MsgInvalidCode      = "Invalid Code"
	MsgDelegateNotFound = "Delegate Not Found"
	MsgEventNotFound    = "Event Not Found"
	MsgSessionNotFound  = "Session Not Found"
)

const (
	// codeScanPageSize bounds each master-list page during a code lookup.
	codeScanPageSize = 1000

	// codeScanMaxPages caps the scan so a runaway table cannot pin a worker.
	// 100 pages of 1000 comfortably exceeds any real delegate list.
	codeScanMaxPages = 100
)

var codePattern = regexp.MustCompile(`^\d{4}$`)

// RequestInfo carries the correlation fields the audit trail records for
// every significant action. The middleware mints RequestID; handlers copy the
// rest off the incoming request.
type RequestInfo struct {
	RequestID string
	IPAddress string
	UserAgent string
}

// ============================================================================
// Service
// ============================================================================

// CheckInService implements delegate arrival recording.
//
// Idempotency Contract:
//
//	At most one check-in per (event, delegate, session-or-null). Repeating a
//	check-in is SUCCESS with "Already Verified", not an error — the registrar
//	desk must never show a failure for a delegate who is in the room.
//
// Authorization:
//
//	The district rule applies ONLY to the code fast path, and only to
//	district-scoped registrars. The search-then-tap path is unrestricted;
//	rejecting at check-in is the authoritative enforcement point.
type CheckInService struct {
	checkIns  *repository.CheckInRepository
	delegates *repository.DelegateRepository
	events    *repository.EventRepository
	audit     *repository.AuditRepository
}

// NewCheckInService creates a CheckInService wired to the repository layer.
func NewCheckInService() *CheckInService {
	return &CheckInService{
		checkIns:  repository.NewCheckInRepository(),
		delegates: repository.NewDelegateRepository(),
		events:    repository.NewEventRepository(),
		audit:     repository.NewAuditRepository(),
	}
}

// SafeSessionID maps a raw form value to the nullable session scope.
// Blank and whitespace-only input mean "master event arrival" (nil); anything
// else must parse as a positive integer. Existence and event membership are
// verified at check-in time, not here.
//
// Returns:
//   - *int: Parsed session id, or nil for a master event arrival
//   - error: ErrValidation (wrapped) when the value is non-blank and malformed
func SafeSessionID(raw string) (*int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}

	id, err := strconv.Atoi(trimmed)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("session id %q: %w", raw, ErrValidation)
	}
	return &id, nil
}

// CheckIn records a delegate arrival via the search-then-tap path.
// No district restriction applies here: any authenticated registrar can check
// in any delegate they located by search.
//
// Outcomes (Success=true): fresh "Checked In", or "Already Verified" when the
// scope already holds a row — including losing an insert race to a concurrent
// desk. Outcomes (Success=false): unknown event, session, or delegate.
//
// Parameters:
//   - ctx: Request context; bounded internally by the persistence timeout
//   - eventID: Event scope
//   - delegateID: Delegate to check in
//   - registrar: Acting principal (recorded, not restricted, on this path)
//   - sessionID: Session scope from SafeSessionID; nil = master arrival
//   - req: Correlation fields for the audit trail
//
// Returns:
//   - *models.CheckInResult: Typed business outcome, Code always recomputed
//   - error: Infrastructure failure only
func (s *CheckInService) CheckIn(ctx context.Context, eventID, delegateID int, registrar models.Registrar, sessionID *int, req RequestInfo) (*models.CheckInResult, error) {
	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, infraErr("check-in: load event", err)
	}
	if event == nil {
		return &models.CheckInResult{Success: false, Message: MsgEventNotFound}, nil
	}

	if sessionID != nil {
		session, err := s.events.GetSession(ctx, *sessionID)
		if err != nil {
			return nil, infraErr("check-in: load session", err)
		}
		if session == nil || session.EventID != eventID {
			return &models.CheckInResult{Success: false, Message: MsgSessionNotFound}, nil
		}
	}

	delegate, err := s.delegates.GetByID(ctx, delegateID)
	if err != nil {
		return nil, infraErr("check-in: load delegate", err)
	}
	if delegate == nil {
		return &models.CheckInResult{Success: false, Message: MsgDelegateNotFound}, nil
	}

	return s.record(ctx, event.ID, delegate, registrar, sessionID, req, "CHECK_IN")
}

// CheckInByCode records an arrival via the 4-digit code fast path.
//
// The code is matched by recomputation: the service pages through the master
// list deriving each delegate's code for this event and takes the first match
// in id order. The cached delegates.code column is never consulted — codes
// are event-scoped and the cache may be stale.
//
// District rule: a district-scoped registrar may only use this path for
// delegates of their own district (normalized, case-insensitive comparison).
// On a code collision the scan prefers an in-district match before reporting
// a mismatch.
//
// Returns:
//   - *models.CheckInResult: "Invalid Code" for an unmatched (well-formed)
//     code, "District Mismatch" for an out-of-scope match, otherwise as CheckIn
//   - error: ErrValidation (wrapped) for a malformed code, infra failure else
func (s *CheckInService) CheckInByCode(ctx context.Context, eventID int, code string, registrar models.Registrar, sessionID *int, req RequestInfo) (*models.CheckInResult, error) {
	code = strings.TrimSpace(code)
	if !codePattern.MatchString(code) {
		return nil, fmt.Errorf("code %q must be exactly 4 digits: %w", code, ErrValidation)
	}

	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, infraErr("check-in by code: load event", err)
	}
	if event == nil {
		return &models.CheckInResult{Success: false, Message: MsgEventNotFound}, nil
	}

	if sessionID != nil {
		session, err := s.events.GetSession(ctx, *sessionID)
		if err != nil {
			return nil, infraErr("check-in by code: load session", err)
		}
		if session == nil || session.EventID != eventID {
			return &models.CheckInResult{Success: false, Message: MsgSessionNotFound}, nil
		}
	}

	match, outOfDistrict, err := s.findByCode(ctx, eventID, code, registrar)
	if err != nil {
		return nil, err
	}
	if match == nil {
		if outOfDistrict {
			// A collision set existed but none of it was in scope.
			return &models.CheckInResult{Success: false, Message: MsgDistrictMismatch, Code: code}, nil
		}
		return &models.CheckInResult{Success: false, Message: MsgInvalidCode}, nil
	}

	return s.record(ctx, eventID, match, registrar, sessionID, req, "CHECK_IN_BY_CODE")
}

// findByCode scans the master list for delegates whose derived event code
// equals code. Returns the first usable match, plus whether any match was
// skipped by the district rule.
func (s *CheckInService) findByCode(ctx context.Context, eventID int, code string, registrar models.Registrar) (*models.Delegate, bool, error) {
	eventSalt := strconv.Itoa(eventID)
	skippedOutOfDistrict := false

	for page := 0; page < codeScanMaxPages; page++ {
		batch, err := s.delegates.ListPage(ctx, codeScanPageSize, page*codeScanPageSize)
		if err != nil {
			return nil, false, infraErr("check-in by code: scan delegates", err)
		}

		for i := range batch {
			d := &batch[i]
			if codes.DeriveCode(strconv.Itoa(d.ID), eventSalt) != code {
				continue
			}
			if registrar.Scoped() && !normalize.Equal(registrar.District, d.District) {
				skippedOutOfDistrict = true
				continue
			}
			return d, skippedOutOfDistrict, nil
		}

		if len(batch) < codeScanPageSize {
			break
		}
	}

	return nil, skippedOutOfDistrict, nil
}

// record is the shared idempotent write. Both paths converge here once the
// delegate is resolved and authorized.
func (s *CheckInService) record(ctx context.Context, eventID int, delegate *models.Delegate, registrar models.Registrar, sessionID *int, req RequestInfo, action string) (*models.CheckInResult, error) {
	derived := codes.DeriveCode(strconv.Itoa(delegate.ID), strconv.Itoa(eventID))

	existing, err := s.checkIns.Find(ctx, eventID, delegate.ID, sessionID)
	if err != nil {
		return nil, infraErr("check-in: lookup existing", err)
	}
	if existing != nil {
		return &models.CheckInResult{Success: true, Message: MsgAlreadyVerified, Code: derived}, nil
	}

	ci := &models.CheckIn{
		EventID:    eventID,
		DelegateID: delegate.ID,
		SessionID:  sessionID,
		RecordedBy: registrar.UserID,
	}
	if err := s.checkIns.Create(ctx, ci); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the insert race to a concurrent desk; same outcome.
			return &models.CheckInResult{Success: true, Message: MsgAlreadyVerified, Code: derived}, nil
		}
		return nil, infraErr("check-in: insert", err)
	}

	s.writeAudit(ctx, registrar.UserID, action, "delegate", delegate.ID, req)

	return &models.CheckInResult{Success: true, Message: MsgCheckedIn, Code: derived}, nil
}

// writeAudit is best-effort: a failed audit insert never rolls back a
// check-in a delegate just watched succeed.
func (s *CheckInService) writeAudit(ctx context.Context, actorID int, action, objectType string, objectID int, req RequestInfo) {
	entry := &models.AuditLog{
		ActorID:    &actorID,
		Action:     action,
		ObjectType: objectType,
		ObjectID:   &objectID,
		RequestID:  req.RequestID,
		IPAddress:  req.IPAddress,
		UserAgent:  req.UserAgent,
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		log.Printf("⚠️ Audit write failed for %s: %v", action, err)
	}
}
