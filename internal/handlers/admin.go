// Package handlers implements HTTP request handlers for FGBMFI RMM application.
// This file contains administrator handlers: event and session management,
// user management, reference lists, the duplicate report, data clearing, and
// the attendance CSV export.
package handlers

import (
	"encoding/csv"
	"errors"
	"strconv"
	"time"

	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/middleware"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/models"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/repository"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/security"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// exportPageSize bounds each attendance page fetched during CSV export.
const exportPageSize = 1000

// AdminHandler handles all administrator-specific HTTP requests.
// Includes event lifecycle, user management, reference data, duplicate
// resolution, and reporting functionality.
type AdminHandler struct {
	store          *session.Store
	eventRepo      *repository.EventRepository
	userRepo       *repository.UserRepository
	auditRepo      *repository.AuditRepository
	checkinRepo    *repository.CheckInRepository
	admin          *services.AdminService
	stats          *services.StatsService
	authService    *services.AuthService
	validator      *security.ValidationService
	securityLogger *security.Logger
	monitor        *security.SecurityMonitor
	config         *security.SecurityConfig
}

// NewAdminHandler creates a new instance of AdminHandler with initialized
// repositories and services.
//
// Parameters:
//   - store: Session store for managing user sessions
//   - securityLogger: Logger for security events
//   - monitor: Security monitor used to flag oversized exports
//   - config: Security configuration (export caps, validation limits)
//
// Returns:
//   - *AdminHandler: Initialized handler with all dependencies
func NewAdminHandler(store *session.Store, securityLogger *security.Logger, monitor *security.SecurityMonitor, config *security.SecurityConfig) *AdminHandler {
	return &AdminHandler{
		store:          store,
		eventRepo:      repository.NewEventRepository(),
		userRepo:       repository.NewUserRepository(),
		auditRepo:      repository.NewAuditRepository(),
		checkinRepo:    repository.NewCheckInRepository(),
		admin:          services.NewAdminService(),
		stats:          services.NewStatsService(),
		authService:    services.NewAuthService(),
		validator:      security.NewValidationService(config),
		securityLogger: securityLogger,
		monitor:        monitor,
		config:         config,
	}
}

// Dashboard displays the admin dashboard with event-level statistics.
// Admins see the unfiltered aggregation; a district query parameter narrows it.
//
// Query Params: event_id (optional, defaults to latest), district (optional)
// Template: admin/dashboard.html with stats cards
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	events, err := h.eventRepo.ListAll(c.Context())
	if err != nil {
		return err
	}

	eventID := c.QueryInt("event_id", 0)
	if eventID == 0 && len(events) > 0 {
		eventID = events[0].ID
	}

	stats := &models.DashboardStats{}
	if eventID > 0 {
		stats, err = h.stats.Dashboard(c.Context(), eventID, c.Query("district"))
		if err != nil {
			if errors.Is(err, services.ErrValidation) {
				return c.Status(fiber.StatusNotFound).SendString("Event not found")
			}
			return err
		}
	}

	return c.Render("admin/dashboard", fiber.Map{
		"Title":    "Admin Dashboard - FGBMFI RMM",
		"UserName": c.Locals("user_name"),
		"UserRole": c.Locals("user_role"),
		"Events":   events,
		"EventID":  eventID,
		"Stats":    stats,
	})
}

// ==================== EVENT MANAGEMENT HANDLERS ====================

// ListEvents displays all events with links to sessions and actions.
//
// Template: admin/events.html with event table
func (h *AdminHandler) ListEvents(c *fiber.Ctx) error {
	events, err := h.eventRepo.ListAll(c.Context())
	if err != nil {
		return err
	}

	return c.Render("admin/events", fiber.Map{
		"Title":    "Events - FGBMFI RMM",
		"UserName": c.Locals("user_name"),
		"UserRole": c.Locals("user_role"),
		"Events":   events,
	})
}

// ShowCreateEventForm displays the form for creating a new event.
//
// Template: admin/event_create.html
func (h *AdminHandler) ShowCreateEventForm(c *fiber.Ctx) error {
	return c.Render("admin/event_create", fiber.Map{
		"Title":    "Create Event - FGBMFI RMM",
		"UserName": c.Locals("user_name"),
		"UserRole": c.Locals("user_role"),
	})
}

// CreateEvent handles event creation form submission.
//
// Form Fields: name, starts_on, ends_on (YYYY-MM-DD)
// Audit: Logs CREATE_EVENT action with new event ID
func (h *AdminHandler) CreateEvent(c *fiber.Ctx) error {
	name := h.validator.SanitizeString(c.FormValue("name"))
	startsOn := c.FormValue("starts_on")
	endsOn := c.FormValue("ends_on")

	if err := h.validator.ValidateRequired("name", name); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}
	if err := h.validator.ValidateDateRange(startsOn, endsOn); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}

	starts, _ := time.Parse("2006-01-02", startsOn)
	ends, _ := time.Parse("2006-01-02", endsOn)

	event := &models.Event{
		Name:     name,
		StartsOn: starts,
		EndsOn:   ends,
	}
	if err := h.eventRepo.Create(c.Context(), event); err != nil {
		return err
	}

	userID := c.Locals("user_id").(int)
	h.auditRepo.Log(c.Context(), &models.AuditLog{
		ActorID:    &userID,
		Action:     "CREATE_EVENT",
		ObjectType: "event",
		ObjectID:   &event.ID,
		RequestID:  requestInfo(c).RequestID,
		IPAddress:  c.IP(),
		UserAgent:  c.Get("User-Agent"),
	})

	return c.Redirect("/admin/events")
}

// DeleteEvent removes an event. Check-ins and finances survive only through
// the explicit clear operation; deletion of a non-empty event fails at the
// database layer.
//
// URL Param: id (event ID)
// Audit: Logs DELETE_EVENT action
func (h *AdminHandler) DeleteEvent(c *fiber.Ctx) error {
	eventID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid event ID")
	}

	if err := h.eventRepo.Delete(c.Context(), eventID); err != nil {
		return err
	}

	userID := c.Locals("user_id").(int)
	h.auditRepo.Log(c.Context(), &models.AuditLog{
		ActorID:    &userID,
		Action:     "DELETE_EVENT",
		ObjectType: "event",
		ObjectID:   &eventID,
		RequestID:  requestInfo(c).RequestID,
		IPAddress:  c.IP(),
		UserAgent:  c.Get("User-Agent"),
	})

	return c.Redirect("/admin/events")
}

// ViewSessions displays the sessions of an event.
//
// URL Param: id (event ID)
// Template: admin/sessions.html
func (h *AdminHandler) ViewSessions(c *fiber.Ctx) error {
	eventID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid event ID")
	}

	event, err := h.eventRepo.GetByID(c.Context(), eventID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString("Event not found")
	}

	sessions, err := h.eventRepo.ListSessions(c.Context(), eventID)
	if err != nil {
		return err
	}

	return c.Render("admin/sessions", fiber.Map{
		"Title":    "Event Sessions - FGBMFI RMM",
		"UserName": c.Locals("user_name"),
		"UserRole": c.Locals("user_role"),
		"Event":    event,
		"Sessions": sessions,
	})
}

// CreateSession handles session creation for an event.
//
// URL Param: id (event ID)
// Form Fields: title, starts_at, ends_at (RFC 3339 or YYYY-MM-DDTHH:MM)
func (h *AdminHandler) CreateSession(c *fiber.Ctx) error {
	eventID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid event ID")
	}

	title := h.validator.SanitizeString(c.FormValue("title"))
	if err := h.validator.ValidateRequired("title", title); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}

	sess := &models.EventSession{
		EventID: eventID,
		Title:   title,
	}
	// datetime-local inputs omit the zone; fall back accordingly.
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04"} {
		if t, perr := time.Parse(layout, c.FormValue("starts_at")); perr == nil {
			sess.StartsAt = t
			break
		}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04"} {
		if t, perr := time.Parse(layout, c.FormValue("ends_at")); perr == nil {
			sess.EndsAt = t
			break
		}
	}

	if err := h.eventRepo.CreateSession(c.Context(), sess); err != nil {
		return err
	}

	return c.Redirect("/admin/events/" + c.Params("id") + "/sessions")
}

// DeleteSession removes a session from an event.
//
// URL Params: id (event ID), session_id
func (h *AdminHandler) DeleteSession(c *fiber.Ctx) error {
	sessionID, err := strconv.Atoi(c.Params("session_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid session ID")
	}

	if err := h.eventRepo.DeleteSession(c.Context(), sessionID); err != nil {
		return err
	}

	return c.Redirect("/admin/events/" + c.Params("id") + "/sessions")
}

// ClearEventData deletes all check-ins, financial entries, and pledges for an
// event after an explicit confirmation. The event itself survives.
//
// URL Param: id (event ID)
// Form Field: confirm (must equal the event id)
// Audit: Logs CLEAR_EVENT_DATA with the removed check-in count
func (h *AdminHandler) ClearEventData(c *fiber.Ctx) error {
	eventID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid event ID")
	}

	// Type-the-id confirmation guards against a misplaced click.
	if c.FormValue("confirm") != strconv.Itoa(eventID) {
		return c.Status(fiber.StatusBadRequest).SendString("Confirmation does not match event")
	}

	removed, err := h.admin.ClearEventData(c.Context(), eventID, middleware.Principal(c), requestInfo(c))
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			return c.Status(fiber.StatusNotFound).SendString("Event not found")
		}
		return err
	}

	if h.securityLogger != nil {
		userID := c.Locals("user_id").(int)
		h.securityLogger.SecurityEvent(
			security.EventEventDataClear,
			&userID,
			c.Locals("user_email").(string),
			c.IP(),
			c.Get("User-Agent"),
			map[string]interface{}{
				"event_id": eventID,
				"removed":  removed,
			},
		)
	}

	return c.Redirect("/admin/events")
}

// ==================== USER MANAGEMENT HANDLERS ====================

// ListUsers displays all users in the system for management.
// Shows user email, name, role, district, and creation date.
//
// Template: admin/users.html with user table
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.userRepo.ListAll(c.Context())
	if err != nil {
		return err
	}

	return c.Render("admin/users", fiber.Map{
		"Title":    "User Management - FGBMFI RMM",
		"UserName": c.Locals("user_name"),
		"UserRole": c.Locals("user_role"),
		"Users":    users,
	})
}

// ShowCreateUserForm displays the form for creating a new user.
//
// Template: admin/user_create.html
func (h *AdminHandler) ShowCreateUserForm(c *fiber.Ctx) error {
	districts, err := repository.NewReferenceRepository().List(c.Context(), models.ReferenceDistrict)
	if err != nil {
		return err
	}

	return c.Render("admin/user_create", fiber.Map{
		"Title":     "Create User - FGBMFI RMM",
		"UserName":  c.Locals("user_name"),
		"UserRole":  c.Locals("user_role"),
		"Districts": districts.Names(),
	})
}

// CreateUser handles user creation form submission.
// Creates a new account with a bcrypt-hashed password. A district is only
// meaningful for the registrar role and scopes that registrar's desk.
//
// Form Fields: email, name, role, district, password
// Audit: Logs CREATE_USER action with new user ID
func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	email := c.FormValue("email")
	name := h.validator.SanitizeString(c.FormValue("name"))
	role := c.FormValue("role")
	district := h.validator.SanitizeString(c.FormValue("district"))
	password := c.FormValue("password")

	if err := h.validator.ValidateEmail(email); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}
	if err := h.validator.ValidateUserRole(role); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}
	if err := h.validator.ValidatePassword(password); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}

	hash, err := h.authService.HashPassword(password)
	if err != nil {
		return err
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		Role:         role,
		District:     district,
		PasswordHash: hash,
	}
	if err := h.userRepo.Create(c.Context(), user); err != nil {
		return err
	}

	actorID := c.Locals("user_id").(int)
	h.auditRepo.Log(c.Context(), &models.AuditLog{
		ActorID:    &actorID,
		Action:     "CREATE_USER",
		ObjectType: "user",
		ObjectID:   &user.ID,
		RequestID:  requestInfo(c).RequestID,
		IPAddress:  c.IP(),
		UserAgent:  c.Get("User-Agent"),
	})

	return c.Redirect("/admin/users")
}

// DeleteUser removes a user from the system.
//
// URL Param: id (user ID to delete)
// Audit: Logs DELETE_USER action with deleted user ID
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	userID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid user ID")
	}

	actorID := c.Locals("user_id").(int)
	if userID == actorID {
		return c.Status(fiber.StatusBadRequest).SendString("Cannot delete your own account")
	}

	if err := h.userRepo.Delete(c.Context(), userID); err != nil {
		return err
	}

	h.auditRepo.Log(c.Context(), &models.AuditLog{
		ActorID:    &actorID,
		Action:     "DELETE_USER",
		ObjectType: "user",
		ObjectID:   &userID,
		RequestID:  requestInfo(c).RequestID,
		IPAddress:  c.IP(),
		UserAgent:  c.Get("User-Agent"),
	})

	return c.Redirect("/admin/users")
}

// ==================== REFERENCE LIST HANDLERS ====================

// ViewReferences displays the three reference lists (districts, ranks,
// offices) with add/remove forms.
//
// Template: admin/references.html
func (h *AdminHandler) ViewReferences(c *fiber.Ctx) error {
	districts, err := h.admin.ReferenceList(c.Context(), models.ReferenceDistrict)
	if err != nil {
		return err
	}
	ranks, err := h.admin.ReferenceList(c.Context(), models.ReferenceRank)
	if err != nil {
		return err
	}
	offices, err := h.admin.ReferenceList(c.Context(), models.ReferenceOffice)
	if err != nil {
		return err
	}

	return c.Render("admin/references", fiber.Map{
		"Title":     "Reference Lists - FGBMFI RMM",
		"UserName":  c.Locals("user_name"),
		"UserRole":  c.Locals("user_role"),
		"Districts": districts.Names(),
		"Ranks":     ranks.Names(),
		"Offices":   offices.Names(),
	})
}

// AddReference adds a canonical name to a reference list.
// Near-duplicates (same name after normalization and folding) are refused.
//
// URL Param: kind (district, rank, or office)
// Form Field: name
func (h *AdminHandler) AddReference(c *fiber.Ctx) error {
	err := h.admin.AddReferenceName(c.Context(), c.Params("kind"), c.FormValue("name"), middleware.Principal(c), requestInfo(c))
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).SendString(err.Error())
		}
		return err
	}
	return c.Redirect("/admin/references")
}

// RemoveReference removes a canonical name from a reference list. Existing
// delegate rows keep their free-text value; only the dropdown shrinks.
//
// URL Param: kind (district, rank, or office)
// Form Field: name
func (h *AdminHandler) RemoveReference(c *fiber.Ctx) error {
	err := h.admin.RemoveReferenceName(c.Context(), c.Params("kind"), c.FormValue("name"), middleware.Principal(c), requestInfo(c))
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).SendString(err.Error())
		}
		return err
	}
	return c.Redirect("/admin/references")
}

// ==================== DUPLICATE RESOLUTION HANDLERS ====================

// ViewDuplicates displays groups of delegates sharing the master dedup key
// (name + phone) for manual resolution.
//
// Template: admin/duplicates.html with grouped rows
func (h *AdminHandler) ViewDuplicates(c *fiber.Ctx) error {
	groups, err := h.admin.DuplicateReport(c.Context())
	if err != nil {
		return err
	}

	return c.Render("admin/duplicates", fiber.Map{
		"Title":    "Duplicate Delegates - FGBMFI RMM",
		"UserName": c.Locals("user_name"),
		"UserRole": c.Locals("user_role"),
		"Groups":   groups,
	})
}

// MergeDelegates merges one delegate into another: check-ins move to the kept
// row, then the removed row is deleted.
//
// Form Fields: keep_id, remove_id
// Audit: Logs MERGE_DELEGATES action
func (h *AdminHandler) MergeDelegates(c *fiber.Ctx) error {
	keepID, err := strconv.Atoi(c.FormValue("keep_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid delegate ID")
	}
	removeID, err := strconv.Atoi(c.FormValue("remove_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid delegate ID")
	}

	if err := h.admin.MergeDelegates(c.Context(), keepID, removeID, middleware.Principal(c), requestInfo(c)); err != nil {
		if errors.Is(err, services.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).SendString(err.Error())
		}
		return err
	}

	return c.Redirect("/admin/duplicates")
}

// ==================== REPORTING HANDLERS ====================

// ExportCheckIns exports raw check-in rows for an event as a CSV download.
// Rows are fetched in pages and capped at the configured export maximum;
// exports past the alert threshold are flagged to the security monitor.
//
// URL Param: id (event ID)
// CSV Columns: First Name, Last Name, District, Rank, Session ID, Checked In At
// Content-Type: text/csv with attachment disposition
func (h *AdminHandler) ExportCheckIns(c *fiber.Ctx) error {
	eventID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid event ID")
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", "attachment; filename=checkins_"+strconv.Itoa(eventID)+".csv")

	w := csv.NewWriter(c)
	w.Write([]string{"First Name", "Last Name", "District", "Rank", "Session ID", "Checked In At"})

	written := 0
	for offset := 0; written < h.config.MaxExportRows; offset += exportPageSize {
		rows, err := h.checkinRepo.ListEventPage(c.Context(), eventID, exportPageSize, offset)
		if err != nil {
			return err
		}
		for i := range rows {
			if written >= h.config.MaxExportRows {
				break
			}
			r := &rows[i]
			sessionID := ""
			if r.CheckIn.SessionID != nil {
				sessionID = strconv.Itoa(*r.CheckIn.SessionID)
			}
			w.Write([]string{
				r.FirstName,
				r.LastName,
				r.District,
				r.Rank,
				sessionID,
				r.CheckIn.CheckedInAt.Format("2006-01-02 15:04:05"),
			})
			written++
		}
		if len(rows) < exportPageSize {
			break
		}
	}
	w.Flush()

	userEmail, _ := c.Locals("user_email").(string)
	if h.securityLogger != nil {
		userID := c.Locals("user_id").(int)
		h.securityLogger.SecurityEvent(
			security.EventExportGenerate,
			&userID,
			userEmail,
			c.IP(),
			c.Get("User-Agent"),
			map[string]interface{}{
				"event_id": eventID,
				"rows":     written,
			},
		)
	}
	if h.monitor != nil {
		h.monitor.MonitorLargeExport(userEmail, written, map[string]string{
			"event_id": strconv.Itoa(eventID),
		})
	}

	return nil
}

// ViewAuditLog displays the audit log for administrator review.
// Shows all system activities with actor, action, and timestamp information.
//
// Template: admin/audit_log.html with recent log entries
func (h *AdminHandler) ViewAuditLog(c *fiber.Ctx) error {
	logs, err := h.auditRepo.ListRecent(c.Context(), 100)
	if err != nil {
		return err
	}

	return c.Render("admin/audit_log", fiber.Map{
		"Title":    "Audit Log - FGBMFI RMM",
		"UserName": c.Locals("user_name"),
		"UserRole": c.Locals("user_role"),
		"Logs":     logs,
	})
}
