// Package services provides business logic layer for the FGBMFI RMM
// application. This file implements the finance desk: offerings, pledges, and
// pledge redemption.
package services

import (
	"context"
	"fmt"

	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/models"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/repository"
)

// FinanceService records event finances. Amounts are stored as entered;
// totals are derived at read time by the stats service.
type FinanceService struct {
	finance   *repository.FinanceRepository
	delegates *repository.DelegateRepository
	events    *repository.EventRepository
	audit     *repository.AuditRepository
}

// NewFinanceService creates a FinanceService wired to the repository layer.
func NewFinanceService() *FinanceService {
	return &FinanceService{
		finance:   repository.NewFinanceRepository(),
		delegates: repository.NewDelegateRepository(),
		events:    repository.NewEventRepository(),
		audit:     repository.NewAuditRepository(),
	}
}

// RecordOffering stores an offering entry. DelegateID 0 means an anonymous
// offering and stores NULL.
//
// Returns:
//   - *models.FinancialEntry: The stored entry
//   - error: ErrValidation (wrapped) for non-positive amounts or unknown
//     event/delegate, infra failure else
func (s *FinanceService) RecordOffering(ctx context.Context, form models.OfferingForm, actor models.Registrar, req RequestInfo) (*models.FinancialEntry, error) {
	if form.Amount <= 0 {
		return nil, fmt.Errorf("offering amount must be positive: %w", ErrValidation)
	}

	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	if err := s.requireEvent(ctx, form.EventID); err != nil {
		return nil, err
	}

	var delegateID *int
	if form.DelegateID != 0 {
		d, err := s.delegates.GetByID(ctx, form.DelegateID)
		if err != nil {
			return nil, infraErr("offering: load delegate", err)
		}
		if d == nil {
			return nil, fmt.Errorf("delegate %d not found: %w", form.DelegateID, ErrValidation)
		}
		delegateID = &d.ID
	}

	entry := &models.FinancialEntry{
		EventID:    form.EventID,
		DelegateID: delegateID,
		Category:   models.CategoryOffering,
		Amount:     form.Amount,
		RecordedBy: actor.UserID,
	}
	if err := s.finance.CreateEntry(ctx, entry); err != nil {
		return nil, infraErr("offering: insert entry", err)
	}

	s.writeAudit(ctx, actor.UserID, "RECORD_OFFERING", "financial_entry", entry.ID, req)
	return entry, nil
}

// RecordPledge stores a new pledge for a delegate. The pledge itself is a
// promise, not money: no financial entry exists until redemption.
func (s *FinanceService) RecordPledge(ctx context.Context, form models.PledgeForm, actor models.Registrar, req RequestInfo) (*models.Pledge, error) {
	if form.Amount <= 0 {
		return nil, fmt.Errorf("pledge amount must be positive: %w", ErrValidation)
	}

	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	if err := s.requireEvent(ctx, form.EventID); err != nil {
		return nil, err
	}

	d, err := s.delegates.GetByID(ctx, form.DelegateID)
	if err != nil {
		return nil, infraErr("pledge: load delegate", err)
	}
	if d == nil {
		return nil, fmt.Errorf("delegate %d not found: %w", form.DelegateID, ErrValidation)
	}

	pledge := &models.Pledge{
		EventID:    form.EventID,
		DelegateID: form.DelegateID,
		Amount:     form.Amount,
	}
	if err := s.finance.CreatePledge(ctx, pledge); err != nil {
		return nil, infraErr("pledge: insert", err)
	}

	s.writeAudit(ctx, actor.UserID, "RECORD_PLEDGE", "pledge", pledge.ID, req)
	return pledge, nil
}

// RedeemPledge converts a pledge to money: flips the redeemed flag and writes
// the matching financial entry for the pledged amount.
//
// The flag flip is the concurrency guard — two desks redeeming the same
// pledge race on the conditional UPDATE and exactly one writes an entry.
// The loser gets alreadyRedeemed=true, not an error.
//
// Returns:
//   - *models.FinancialEntry: The redemption entry, nil when already redeemed
//   - bool: True when the pledge had already been redeemed
//   - error: ErrValidation (wrapped) for an unknown pledge, infra failure else
func (s *FinanceService) RedeemPledge(ctx context.Context, pledgeID int, actor models.Registrar, req RequestInfo) (*models.FinancialEntry, bool, error) {
	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	pledge, err := s.finance.GetPledge(ctx, pledgeID)
	if err != nil {
		return nil, false, infraErr("redeem: load pledge", err)
	}
	if pledge == nil {
		return nil, false, fmt.Errorf("pledge %d not found: %w", pledgeID, ErrValidation)
	}

	redeemed, err := s.finance.MarkPledgeRedeemed(ctx, pledgeID)
	if err != nil {
		return nil, false, infraErr("redeem: mark pledge", err)
	}
	if !redeemed {
		return nil, true, nil
	}

	entry := &models.FinancialEntry{
		EventID:    pledge.EventID,
		DelegateID: &pledge.DelegateID,
		PledgeID:   &pledge.ID,
		Category:   models.CategoryPledgeRedemption,
		Amount:     pledge.Amount,
		RecordedBy: actor.UserID,
	}
	if err := s.finance.CreateEntry(ctx, entry); err != nil {
		return nil, false, infraErr("redeem: insert entry", err)
	}

	s.writeAudit(ctx, actor.UserID, "REDEEM_PLEDGE", "pledge", pledge.ID, req)
	return entry, false, nil
}

// ListPledges returns an event's pledges for the finance view.
func (s *FinanceService) ListPledges(ctx context.Context, eventID int) ([]models.Pledge, error) {
	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	pledges, err := s.finance.ListPledges(ctx, eventID)
	if err != nil {
		return nil, infraErr("list pledges", err)
	}
	return pledges, nil
}

func (s *FinanceService) requireEvent(ctx context.Context, eventID int) error {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return infraErr("load event", err)
	}
	if event == nil {
		return fmt.Errorf("event %d not found: %w", eventID, ErrValidation)
	}
	return nil
}

func (s *FinanceService) writeAudit(ctx context.Context, actorID int, action, objectType string, objectID int, req RequestInfo) {
	entry := &models.AuditLog{
		ActorID:    &actorID,
		Action:     action,
		ObjectType: objectType,
		ObjectID:   &objectID,
		RequestID:  req.RequestID,
		IPAddress:  req.IPAddress,
		UserAgent:  req.UserAgent,
	}
	// Best-effort, same policy as check-in audits.
	_ = s.audit.Log(ctx, entry)
}
