// Package services provides business logic layer for the FGBMFI RMM
// application. This file implements on-site delegate registration.
package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/codes"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/models"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/normalize"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/repository"
)

// RegistrationService adds delegates to the master list at the event desk.
//
// Duplicate Policy:
//
//	The master-list identity key is normalized (first, last, phone) — distinct
//	from the attendance identity used by the dashboard. A registration whose
//	key matches an existing row returns that row instead of inserting a
//	sibling; mismatched rows sharing only a phone (family members on one
//	number) register normally.
type RegistrationService struct {
	delegates *repository.DelegateRepository
	audit     *repository.AuditRepository
}

// NewRegistrationService creates a RegistrationService wired to the
// repository layer.
func NewRegistrationService() *RegistrationService {
	return &RegistrationService{
		delegates: repository.NewDelegateRepository(),
		audit:     repository.NewAuditRepository(),
	}
}

// Register creates a delegate from form input, or returns the existing master
// row when the duplicate pre-check matches.
//
// eventID seeds the cached display code for the event being worked; the cache
// is cosmetic and every authoritative path recomputes.
//
// Parameters:
//   - ctx: Request context; bounded internally by the persistence timeout
//   - form: Registration input (FirstName, LastName, Phone required)
//   - eventID: Event whose derived code is cached on the new row
//   - registrar: Acting principal, recorded in the audit trail
//   - req: Correlation fields for the audit trail
//
// Returns:
//   - *models.Delegate: The new or pre-existing master row
//   - bool: True when an existing row was returned instead of inserting
//   - error: ErrValidation (wrapped) for missing fields, infra failure else
func (s *RegistrationService) Register(ctx context.Context, form models.RegisterDelegateForm, eventID int, registrar models.Registrar, req RequestInfo) (*models.Delegate, bool, error) {
	first := normalize.Normalize(form.FirstName)
	last := normalize.Normalize(form.LastName)
	phone := normalize.Normalize(form.Phone)

	if first == "" || last == "" {
		return nil, false, fmt.Errorf("first and last name are required: %w", ErrValidation)
	}
	if phone == "" {
		return nil, false, fmt.Errorf("phone is required: %w", ErrValidation)
	}

	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	key := normalize.MasterKey(first, last, phone)

	sharingPhone, err := s.delegates.FindByPhone(ctx, phone)
	if err != nil {
		return nil, false, infraErr("register: duplicate pre-check", err)
	}
	for i := range sharingPhone {
		d := &sharingPhone[i]
		if normalize.MasterKey(d.FirstName, d.LastName, d.Phone) == key {
			return d, true, nil
		}
	}

	delegate := &models.Delegate{
		FirstName: first,
		LastName:  last,
		Title:     normalize.Normalize(form.Title),
		Phone:     phone,
		Email:     normalize.Normalize(form.Email),
		District:  normalize.Normalize(form.District),
		Chapter:   normalize.Normalize(form.Chapter),
		Rank:      normalize.Normalize(form.Rank),
		Office:    normalize.Normalize(form.Office),
	}
	if err := s.delegates.Create(ctx, delegate); err != nil {
		return nil, false, infraErr("register: insert delegate", err)
	}

	// The id exists only after insert, so the cached code is written in a
	// second statement. Failure here is cosmetic.
	delegate.Code = codes.DeriveCode(strconv.Itoa(delegate.ID), strconv.Itoa(eventID))
	if err := s.delegates.UpdateCode(ctx, delegate.ID, delegate.Code); err != nil {
		return nil, false, infraErr("register: cache code", err)
	}

	actor := registrar.UserID
	s.writeRegistrationAudit(ctx, actor, delegate.ID, req)

	return delegate, false, nil
}

func (s *RegistrationService) writeRegistrationAudit(ctx context.Context, actorID, delegateID int, req RequestInfo) {
	entry := &models.AuditLog{
		ActorID:    &actorID,
		Action:     "REGISTER_DELEGATE",
		ObjectType: "delegate",
		ObjectID:   &delegateID,
		RequestID:  req.RequestID,
		IPAddress:  req.IPAddress,
		UserAgent:  req.UserAgent,
	}
	// Best-effort, same policy as check-in audits.
	_ = s.audit.Log(ctx, entry)
}
