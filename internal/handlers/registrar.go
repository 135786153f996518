// Package handlers implements HTTP request handlers for FGBMFI RMM application.
// This file contains registrar desk handlers: dashboard, delegate search,
// check-in, and walk-in registration.
package handlers

import (
	"errors"
	"strconv"

	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/codes"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/middleware"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/models"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/repository"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// RegistrarHandler handles all registrar desk HTTP requests.
// Includes the live dashboard, delegate search, both check-in paths, and
// walk-in delegate registration.
type RegistrarHandler struct {
	store        *session.Store
	checkIns     *services.CheckInService
	search       *services.SearchService
	stats        *services.StatsService
	registration *services.RegistrationService
	eventRepo    *repository.EventRepository
	refRepo      *repository.ReferenceRepository
}

// NewRegistrarHandler creates a new instance of RegistrarHandler with
// initialized services.
//
// Parameters:
//   - store: Session store for managing user sessions
//
// Returns:
//   - *RegistrarHandler: Initialized handler with all service dependencies
func NewRegistrarHandler(store *session.Store) *RegistrarHandler {
	return &RegistrarHandler{
		store:        store,
		checkIns:     services.NewCheckInService(),
		search:       services.NewSearchService(),
		stats:        services.NewStatsService(),
		registration: services.NewRegistrationService(),
		eventRepo:    repository.NewEventRepository(),
		refRepo:      repository.NewReferenceRepository(),
	}
}

// activeEvent resolves the event the desk is working, preferring an explicit
// event_id query parameter and falling back to the most recent event.
func (h *RegistrarHandler) activeEvent(c *fiber.Ctx) (int, []models.Event, error) {
	events, err := h.eventRepo.ListAll(c.Context())
	if err != nil {
		return 0, nil, err
	}

	eventID := c.QueryInt("event_id", 0)
	if eventID == 0 && len(events) > 0 {
		eventID = events[0].ID
	}
	return eventID, events, nil
}

// districtFilter resolves the attendance filter for the acting principal.
// Scoped registrars always see their own district; admins and unscoped users
// may pick one via the district query parameter.
func districtFilter(c *fiber.Ctx, p models.Registrar) string {
	if p.Scoped() {
		return p.District
	}
	return c.Query("district")
}

// Dashboard displays the live registrar dashboard for an event.
// Shows deduplicated headcounts, rank and district breakdowns, financial
// totals, and the recent-arrivals feed.
//
// Query Params: event_id (optional, defaults to latest), district (unscoped users only)
// Template: registrar/dashboard.html with stats cards
func (h *RegistrarHandler) Dashboard(c *fiber.Ctx) error {
	p := middleware.Principal(c)

	eventID, events, err := h.activeEvent(c)
	if err != nil {
		return err
	}

	stats := &models.DashboardStats{}
	if eventID > 0 {
		stats, err = h.stats.Dashboard(c.Context(), eventID, districtFilter(c, p))
		if err != nil {
			if errors.Is(err, services.ErrValidation) {
				return c.Status(fiber.StatusNotFound).SendString("Event not found")
			}
			return err
		}
	}

	return c.Render("registrar/dashboard", fiber.Map{
		"Title":    "Registrar Dashboard - FGBMFI RMM",
		"UserName": c.Locals("user_name"),
		"UserRole": c.Locals("user_role"),
		"Events":   events,
		"EventID":  eventID,
		"District": districtFilter(c, p),
		"Stats":    stats,
	})
}

// ShowCheckIn displays the check-in desk page with the code entry form and
// delegate search box.
//
// Query Params: event_id (optional, defaults to latest)
// Template: registrar/checkin.html
func (h *RegistrarHandler) ShowCheckIn(c *fiber.Ctx) error {
	eventID, events, err := h.activeEvent(c)
	if err != nil {
		return err
	}

	var sessions []models.EventSession
	if eventID > 0 {
		sessions, err = h.eventRepo.ListSessions(c.Context(), eventID)
		if err != nil {
			return err
		}
	}

	return c.Render("registrar/checkin", fiber.Map{
		"Title":    "Check-In Desk - FGBMFI RMM",
		"UserName": c.Locals("user_name"),
		"UserRole": c.Locals("user_role"),
		"Events":   events,
		"EventID":  eventID,
		"Sessions": sessions,
	})
}

// Search handles delegate search from the check-in desk.
// Results are annotated with check-in status for the requested scope and the
// freshly derived code for each match.
//
// Query Params: q (min 2 chars), event_id, session_id (optional), district (unscoped users only)
// Template: registrar/search_results.html with annotated result rows
func (h *RegistrarHandler) Search(c *fiber.Ctx) error {
	p := middleware.Principal(c)

	eventID := c.QueryInt("event_id", 0)
	if eventID == 0 {
		return c.Status(fiber.StatusBadRequest).SendString("Missing event")
	}

	sessionID, err := services.SafeSessionID(c.Query("session_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid session")
	}

	results, err := h.search.Search(c.Context(), eventID, sessionID, c.Query("q"), districtFilter(c, p))
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			return c.Render("registrar/search_results", fiber.Map{
				"Title":   "Search - FGBMFI RMM",
				"Error":   "Enter at least two characters to search",
				"EventID": eventID,
			})
		}
		return err
	}

	return c.Render("registrar/search_results", fiber.Map{
		"Title":     "Search - FGBMFI RMM",
		"UserName":  c.Locals("user_name"),
		"UserRole":  c.Locals("user_role"),
		"EventID":   eventID,
		"SessionID": sessionID,
		"Query":     c.Query("q"),
		"Results":   results,
	})
}

// CheckIn handles a check-in submitted from a search result row.
// The delegate is already identified, so district scope does not apply.
//
// Form Fields: event_id, delegate_id, session_id (optional)
// Template: registrar/checkin_result.html with the typed outcome
func (h *RegistrarHandler) CheckIn(c *fiber.Ctx) error {
	p := middleware.Principal(c)

	eventID, err := strconv.Atoi(c.FormValue("event_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid event ID")
	}
	delegateID, err := strconv.Atoi(c.FormValue("delegate_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid delegate ID")
	}
	sessionID, err := services.SafeSessionID(c.FormValue("session_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid session")
	}

	result, err := h.checkIns.CheckIn(c.Context(), eventID, delegateID, p, sessionID, requestInfo(c))
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid check-in request")
		}
		return err
	}

	return h.renderResult(c, eventID, sessionID, result)
}

// CheckInByCode handles the code fast path: a 4-digit code typed at the desk.
// The code is matched by recomputation against the master list, never against
// stored values, and district scope applies to the match.
//
// Form Fields: event_id, code, session_id (optional)
// Template: registrar/checkin_result.html with the typed outcome
func (h *RegistrarHandler) CheckInByCode(c *fiber.Ctx) error {
	p := middleware.Principal(c)

	eventID, err := strconv.Atoi(c.FormValue("event_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid event ID")
	}
	sessionID, err := services.SafeSessionID(c.FormValue("session_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid session")
	}

	result, err := h.checkIns.CheckInByCode(c.Context(), eventID, c.FormValue("code"), p, sessionID, requestInfo(c))
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			result = &models.CheckInResult{Success: false, Message: services.MsgInvalidCode}
			return h.renderResult(c, eventID, sessionID, result)
		}
		return err
	}

	return h.renderResult(c, eventID, sessionID, result)
}

func (h *RegistrarHandler) renderResult(c *fiber.Ctx, eventID int, sessionID *int, result *models.CheckInResult) error {
	return c.Render("registrar/checkin_result", fiber.Map{
		"Title":     "Check-In - FGBMFI RMM",
		"UserName":  c.Locals("user_name"),
		"UserRole":  c.Locals("user_role"),
		"EventID":   eventID,
		"SessionID": sessionID,
		"Result":    result,
	})
}

// ShowRegisterForm displays the walk-in delegate registration form.
// District, rank, and office dropdowns come from the reference lists.
//
// Template: registrar/register.html
func (h *RegistrarHandler) ShowRegisterForm(c *fiber.Ctx) error {
	eventID, events, err := h.activeEvent(c)
	if err != nil {
		return err
	}

	districts, err := h.refRepo.List(c.Context(), models.ReferenceDistrict)
	if err != nil {
		return err
	}
	ranks, err := h.refRepo.List(c.Context(), models.ReferenceRank)
	if err != nil {
		return err
	}
	offices, err := h.refRepo.List(c.Context(), models.ReferenceOffice)
	if err != nil {
		return err
	}

	return c.Render("registrar/register", fiber.Map{
		"Title":     "Register Delegate - FGBMFI RMM",
		"UserName":  c.Locals("user_name"),
		"UserRole":  c.Locals("user_role"),
		"Events":    events,
		"EventID":   eventID,
		"Districts": districts.Names(),
		"Ranks":     ranks.Names(),
		"Offices":   offices.Names(),
	})
}

// Register handles walk-in delegate registration form submission.
// A delegate matching the master dedup key (name + phone) is reused rather
// than duplicated; either way the response carries the derived code so the
// desk can hand it to the delegate.
//
// Form Fields: first_name, last_name, title, phone, email, district, chapter,
// rank, office, event_id
// Template: registrar/registered.html with the delegate and code
func (h *RegistrarHandler) Register(c *fiber.Ctx) error {
	p := middleware.Principal(c)

	eventID, err := strconv.Atoi(c.FormValue("event_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid event ID")
	}

	form := models.RegisterDelegateForm{
		FirstName: c.FormValue("first_name"),
		LastName:  c.FormValue("last_name"),
		Title:     c.FormValue("title"),
		Phone:     c.FormValue("phone"),
		Email:     c.FormValue("email"),
		District:  c.FormValue("district"),
		Chapter:   c.FormValue("chapter"),
		Rank:      c.FormValue("rank"),
		Office:    c.FormValue("office"),
	}

	delegate, existing, err := h.registration.Register(c.Context(), form, eventID, p, requestInfo(c))
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).SendString("First name, last name, and phone are required")
		}
		return err
	}

	// Optional immediate master-arrival check-in for walk-ins already at the
	// door.
	var result *models.CheckInResult
	if c.FormValue("check_in") != "" {
		result, err = h.checkIns.CheckIn(c.Context(), eventID, delegate.ID, p, nil, requestInfo(c))
		if err != nil && !errors.Is(err, services.ErrValidation) {
			return err
		}
	}

	return c.Render("registrar/registered", fiber.Map{
		"Title":    "Delegate Registered - FGBMFI RMM",
		"UserName": c.Locals("user_name"),
		"UserRole": c.Locals("user_role"),
		"EventID":  eventID,
		"Delegate": delegate,
		"Existing": existing,
		"CheckIn":  result,
		// Recomputed for the active event; the stored code may belong to an
		// earlier one.
		"Code": codes.DeriveCode(strconv.Itoa(delegate.ID), strconv.Itoa(eventID)),
	})
}
