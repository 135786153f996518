// Package services provides business logic layer for the FGBMFI RMM
// application. This file implements the admin toolbox: duplicate detection
// and merge, bulk event-data clearing, and reference-list management.
package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/models"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/normalize"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/repository"
)

// DuplicateGroup is one cluster of master rows sharing the master identity
// key (normalized first, last, phone). Candidates for an explicit merge —
// never merged automatically.
type DuplicateGroup struct {
	Key       string
	Delegates []models.Delegate
}

// AdminService implements administrator operations over the master list,
// events, and reference data.
type AdminService struct {
	delegates  *repository.DelegateRepository
	checkIns   *repository.CheckInRepository
	finance    *repository.FinanceRepository
	references *repository.ReferenceRepository
	audit      *repository.AuditRepository
}

// NewAdminService creates an AdminService wired to the repository layer.
func NewAdminService() *AdminService {
	return &AdminService{
		delegates:  repository.NewDelegateRepository(),
		checkIns:   repository.NewCheckInRepository(),
		finance:    repository.NewFinanceRepository(),
		references: repository.NewReferenceRepository(),
		audit:      repository.NewAuditRepository(),
	}
}

// DuplicateReport pages through the full master list and groups rows by the
// master identity key, returning only groups with more than one row. Groups
// are ordered by lowest member id for a stable report.
func (s *AdminService) DuplicateReport(ctx context.Context) ([]DuplicateGroup, error) {
	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	byKey := make(map[string][]models.Delegate)
	for page := 0; page < statsMaxPages; page++ {
		batch, err := s.delegates.ListPage(ctx, statsPageSize, page*statsPageSize)
		if err != nil {
			return nil, infraErr("duplicate report: scan delegates", err)
		}
		for _, d := range batch {
			key := normalize.MasterKey(d.FirstName, d.LastName, d.Phone)
			byKey[key] = append(byKey[key], d)
		}
		if len(batch) < statsPageSize {
			break
		}
	}

	var groups []DuplicateGroup
	for key, members := range byKey {
		if len(members) < 2 {
			continue
		}
		groups = append(groups, DuplicateGroup{Key: key, Delegates: members})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Delegates[0].ID < groups[j].Delegates[0].ID
	})

	return groups, nil
}

// MergeDelegates collapses a duplicate row into a surviving row: check-ins
// are re-pointed (colliding scopes dropped, the survivor already holds them)
// and the duplicate is hard-deleted. Both rows must exist and differ.
func (s *AdminService) MergeDelegates(ctx context.Context, keepID, removeID int, actor models.Registrar, req RequestInfo) error {
	if keepID == removeID {
		return fmt.Errorf("cannot merge a delegate into itself: %w", ErrValidation)
	}

	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	keep, err := s.delegates.GetByID(ctx, keepID)
	if err != nil {
		return infraErr("merge: load survivor", err)
	}
	remove, err := s.delegates.GetByID(ctx, removeID)
	if err != nil {
		return infraErr("merge: load duplicate", err)
	}
	if keep == nil || remove == nil {
		return fmt.Errorf("both merge parties must exist: %w", ErrValidation)
	}

	if err := s.delegates.ReassignCheckIns(ctx, removeID, keepID); err != nil {
		return infraErr("merge: reassign check-ins", err)
	}
	if err := s.delegates.Delete(ctx, removeID); err != nil {
		return infraErr("merge: delete duplicate", err)
	}

	s.writeAudit(ctx, actor.UserID, "MERGE_DELEGATES", "delegate", keepID, req)
	return nil
}

// ClearEventData purges an event's check-ins, financial entries, and pledges
// while leaving the event, its sessions, and the master list intact. This is
// the "re-run the rehearsal" reset; deleting the event itself is separate.
//
// Returns:
//   - int64: Number of check-in rows removed
//   - error: Infrastructure failure
func (s *AdminService) ClearEventData(ctx context.Context, eventID int, actor models.Registrar, req RequestInfo) (int64, error) {
	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	removed, err := s.checkIns.DeleteForEvent(ctx, eventID)
	if err != nil {
		return 0, infraErr("clear event: delete check-ins", err)
	}
	if err := s.finance.DeleteForEvent(ctx, eventID); err != nil {
		return removed, infraErr("clear event: delete finances", err)
	}

	s.writeAudit(ctx, actor.UserID, "CLEAR_EVENT_DATA", "event", eventID, req)
	return removed, nil
}

// ReferenceList loads the canonical list of one kind.
func (s *AdminService) ReferenceList(ctx context.Context, kind string) (*models.ReferenceList, error) {
	if !validReferenceKind(kind) {
		return nil, fmt.Errorf("unknown reference kind %q: %w", kind, ErrValidation)
	}

	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	list, err := s.references.List(ctx, kind)
	if err != nil {
		return nil, infraErr("load reference list", err)
	}
	return list, nil
}

// AddReferenceName appends a canonical name to a reference list, refusing
// normalized near-duplicates ("lagos" vs canonical "Lagos").
func (s *AdminService) AddReferenceName(ctx context.Context, kind, name string, actor models.Registrar, req RequestInfo) error {
	display := normalize.Normalize(name)
	if display == "" {
		return fmt.Errorf("reference name is required: %w", ErrValidation)
	}

	list, err := s.ReferenceList(ctx, kind)
	if err != nil {
		return err
	}
	if list.Contains(display) {
		return fmt.Errorf("%q already exists as %q: %w", display, list.Canonical(display), ErrValidation)
	}

	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	if err := s.references.Add(ctx, kind, display); err != nil {
		return infraErr("add reference name", err)
	}

	s.writeAudit(ctx, actor.UserID, "ADD_REFERENCE_NAME", kind, 0, req)
	return nil
}

// RemoveReferenceName deletes a canonical name. Existing delegate rows keep
// their free-text value.
func (s *AdminService) RemoveReferenceName(ctx context.Context, kind, name string, actor models.Registrar, req RequestInfo) error {
	if !validReferenceKind(kind) {
		return fmt.Errorf("unknown reference kind %q: %w", kind, ErrValidation)
	}

	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	if err := s.references.Remove(ctx, kind, normalize.Normalize(name)); err != nil {
		return infraErr("remove reference name", err)
	}

	s.writeAudit(ctx, actor.UserID, "REMOVE_REFERENCE_NAME", kind, 0, req)
	return nil
}

func validReferenceKind(kind string) bool {
	switch kind {
	case models.ReferenceDistrict, models.ReferenceRank, models.ReferenceOffice:
		return true
	}
	return false
}

func (s *AdminService) writeAudit(ctx context.Context, actorID int, action, objectType string, objectID int, req RequestInfo) {
	var objPtr *int
	if objectID != 0 {
		objPtr = &objectID
	}
	entry := &models.AuditLog{
		ActorID:    &actorID,
		Action:     action,
		ObjectType: objectType,
		ObjectID:   objPtr,
		RequestID:  req.RequestID,
		IPAddress:  req.IPAddress,
		UserAgent:  req.UserAgent,
	}
	// Best-effort, same policy as check-in audits.
	_ = s.audit.Log(ctx, entry)
}
