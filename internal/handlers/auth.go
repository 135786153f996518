// Package handlers implements HTTP request handlers for FGBMFI RMM application.
// This file handles authentication operations including login, logout, and session management.
package handlers

import (
	"strings"
	"time"

	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/middleware"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/security"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// AuthHandler handles authentication-related HTTP requests.
// Manages user login, logout, and session lifecycle operations.
type AuthHandler struct {
	store          *session.Store
	authService    *services.AuthService
	securityMW     *middleware.SecurityMiddleware
	securityLogger *security.Logger
}

// NewAuthHandler creates a new instance of AuthHandler.
//
// Parameters:
//   - store: Session store for managing user sessions
//   - securityMW: Security middleware for login throttling and lockout
//   - securityLogger: Logger for security events
//
// Returns:
//   - *AuthHandler: Initialized handler instance with all dependencies
func NewAuthHandler(store *session.Store, securityMW *middleware.SecurityMiddleware, securityLogger *security.Logger) *AuthHandler {
	return &AuthHandler{
		store:          store,
		authService:    services.NewAuthService(),
		securityMW:     securityMW,
		securityLogger: securityLogger,
	}
}

// requestInfo extracts the audit metadata every service call carries.
// The request id is minted by the request logger middleware.
func requestInfo(c *fiber.Ctx) services.RequestInfo {
	requestID, _ := c.Locals("request_id").(string)
	return services.RequestInfo{
		RequestID: requestID,
		IPAddress: c.IP(),
		UserAgent: c.Get("User-Agent"),
	}
}

// ShowLogin renders the login page for unauthenticated users.
// Displays login form using blank layout without navigation.
//
// Template: web/templates/login.html with layouts/blank layout
func (h *AuthHandler) ShowLogin(c *fiber.Ctx) error {
	data := fiber.Map{
		"Title": "Login - FGBMFI RMM",
	}
	if c.Query("expired") != "" {
		data["Error"] = "Your session has expired. Please log in again."
	}
	return c.Render("login", data, "layouts/blank")
}

// Login authenticates user credentials and creates a session.
// Validates email and password, creates session on success, and redirects
// based on user role.
//
// Form Data:
//   - email: User's email address for authentication
//   - password: User's password in plain text (hashed during validation)
//
// Side Effects:
//   - Creates session with user_id, user_email, user_name, user_role,
//     user_district, and issued_at on success
//   - Records failures against the account lockout counters
//   - Redirects to the role-appropriate dashboard
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")

	// Brute-force protection: per-IP rate limit plus per-account lockout.
	if err := h.securityMW.LoginRateLimit(email, c.IP()); err != nil {
		return c.Render("login", fiber.Map{
			"Title": "Login - FGBMFI RMM",
			"Error": err.Error(),
		}, "layouts/blank")
	}

	user, err := h.authService.Authenticate(c.Context(), email, password)
	if err != nil {
		// Same generic message for unknown email and wrong password.
		h.securityMW.RecordLoginFailure(email, c.IP())
		return c.Render("login", fiber.Map{
			"Title": "Login - FGBMFI RMM",
			"Error": "Invalid email or password",
		}, "layouts/blank")
	}

	sess, err := h.store.Get(c)
	if err != nil {
		return err
	}

	sess.Set("user_id", user.ID)
	sess.Set("user_email", user.Email)
	sess.Set("user_name", user.Name)
	sess.Set("user_role", user.Role)
	sess.Set("user_district", user.District)
	sess.Set("issued_at", time.Now().Unix())

	if err := sess.Save(); err != nil {
		return err
	}

	h.securityMW.RecordLoginSuccess(user.Email, c.IP(), user.ID)

	switch user.Role {
	case "admin":
		return c.Redirect("/admin/dashboard")
	case "finance":
		return c.Redirect("/finance/dashboard")
	default:
		return c.Redirect("/registrar/dashboard")
	}
}

// Logout destroys the user session and redirects to login page.
// Clears all session data and terminates authenticated session.
//
// Side Effects:
//   - Destroys session if exists
//   - Logs logout security event
//   - Redirects to /login regardless of session state
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sess, err := h.store.Get(c)
	if err != nil {
		return c.Redirect("/login")
	}

	// Capture actor before the session disappears.
	userID, _ := sess.Get("user_id").(int)
	userEmail, _ := sess.Get("user_email").(string)

	if h.securityLogger != nil && userID != 0 {
		h.securityLogger.SecurityEvent(
			security.EventLogout,
			&userID,
			userEmail,
			c.IP(),
			c.Get("User-Agent"),
			map[string]interface{}{},
		)
	}

	if err := sess.Destroy(); err != nil {
		return err
	}

	return c.Redirect("/login")
}
