// Package handlers implements HTTP request handlers for FGBMFI RMM application.
// This file contains finance desk handlers for offerings, pledges, and pledge
// redemption.
package handlers

import (
	"errors"
	"strconv"

	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/middleware"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/models"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/repository"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// FinanceHandler handles all finance desk HTTP requests.
// Includes offering entry, pledge recording, and pledge redemption.
type FinanceHandler struct {
	store       *session.Store
	finance     *services.FinanceService
	eventRepo   *repository.EventRepository
	financeRepo *repository.FinanceRepository
}

// NewFinanceHandler creates a new instance of FinanceHandler.
//
// Parameters:
//   - store: Session store for managing user sessions
//
// Returns:
//   - *FinanceHandler: Initialized handler with all dependencies
func NewFinanceHandler(store *session.Store) *FinanceHandler {
	return &FinanceHandler{
		store:       store,
		finance:     services.NewFinanceService(),
		eventRepo:   repository.NewEventRepository(),
		financeRepo: repository.NewFinanceRepository(),
	}
}

// Dashboard displays the finance desk page for an event: running total,
// outstanding pledges, and the entry forms.
//
// Query Params: event_id (optional, defaults to latest)
// Template: finance/dashboard.html
func (h *FinanceHandler) Dashboard(c *fiber.Ctx) error {
	events, err := h.eventRepo.ListAll(c.Context())
	if err != nil {
		return err
	}

	eventID := c.QueryInt("event_id", 0)
	if eventID == 0 && len(events) > 0 {
		eventID = events[0].ID
	}

	var total float64
	var pledges []models.Pledge
	if eventID > 0 {
		total, err = h.financeRepo.SumForEvent(c.Context(), eventID)
		if err != nil {
			return err
		}
		pledges, err = h.finance.ListPledges(c.Context(), eventID)
		if err != nil {
			return err
		}
	}

	return c.Render("finance/dashboard", fiber.Map{
		"Title":    "Finance Desk - FGBMFI RMM",
		"UserName": c.Locals("user_name"),
		"UserRole": c.Locals("user_role"),
		"Events":   events,
		"EventID":  eventID,
		"Total":    total,
		"Pledges":  pledges,
	})
}

// RecordOffering handles offering entry form submission.
// A zero delegate id records an anonymous offering.
//
// Form Fields: event_id, delegate_id (optional), amount
// Audit: Logs RECORD_OFFERING action
func (h *FinanceHandler) RecordOffering(c *fiber.Ctx) error {
	eventID, err := strconv.Atoi(c.FormValue("event_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid event ID")
	}
	amount, err := strconv.ParseFloat(c.FormValue("amount"), 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid amount")
	}
	delegateID, _ := strconv.Atoi(c.FormValue("delegate_id"))

	form := models.OfferingForm{
		EventID:    eventID,
		DelegateID: delegateID,
		Amount:     amount,
	}

	if _, err := h.finance.RecordOffering(c.Context(), form, middleware.Principal(c), requestInfo(c)); err != nil {
		if errors.Is(err, services.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).SendString(err.Error())
		}
		return err
	}

	return c.Redirect("/finance/dashboard?event_id=" + strconv.Itoa(eventID))
}

// RecordPledge handles pledge entry form submission.
// Pledges always name a delegate; redemption happens later at the desk.
//
// Form Fields: event_id, delegate_id, amount
// Audit: Logs RECORD_PLEDGE action
func (h *FinanceHandler) RecordPledge(c *fiber.Ctx) error {
	eventID, err := strconv.Atoi(c.FormValue("event_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid event ID")
	}
	delegateID, err := strconv.Atoi(c.FormValue("delegate_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid delegate ID")
	}
	amount, err := strconv.ParseFloat(c.FormValue("amount"), 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid amount")
	}

	form := models.PledgeForm{
		EventID:    eventID,
		DelegateID: delegateID,
		Amount:     amount,
	}

	if _, err := h.finance.RecordPledge(c.Context(), form, middleware.Principal(c), requestInfo(c)); err != nil {
		if errors.Is(err, services.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).SendString(err.Error())
		}
		return err
	}

	return c.Redirect("/finance/dashboard?event_id=" + strconv.Itoa(eventID))
}

// RedeemPledge converts an outstanding pledge into a financial entry.
// Redeeming an already-redeemed pledge is a no-op, mirroring the check-in
// idempotency contract.
//
// URL Param: id (pledge ID)
// Audit: Logs REDEEM_PLEDGE action on first redemption only
func (h *FinanceHandler) RedeemPledge(c *fiber.Ctx) error {
	pledgeID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid pledge ID")
	}

	_, already, err := h.finance.RedeemPledge(c.Context(), pledgeID, middleware.Principal(c), requestInfo(c))
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			return c.Status(fiber.StatusNotFound).SendString("Pledge not found")
		}
		return err
	}

	dest := "/finance/dashboard?redeemed=1"
	if already {
		dest = "/finance/dashboard?already_redeemed=1"
	}
	return c.Redirect(dest)
}
