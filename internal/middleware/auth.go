// Package middleware provides HTTP middleware functions for authentication and authorization.
// These middleware functions are used to protect routes and enforce role-based access control.
package middleware

import (
	"time"

	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/models"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// AuthRequired is a middleware that ensures the user is authenticated.
// It checks for a valid, unexpired session, redirecting to login if not found.
// An expired session surfaces as services.ErrSessionExpired so the app error
// handler can send the user back to login with context intact — expiry never
// triggers any broader reset.
//
// Context Locals Set:
//   - user_id: The authenticated user's ID (int)
//   - user_role: The user's role ("admin", "registrar", or "finance")
//   - user_name: The user's display name (string)
//   - user_email: The user's email (string)
//   - user_district: The registrar's district scope, "" when unscoped
//
// Example:
//
//	registrar := app.Group("/registrar", middleware.AuthRequired(store, 8*time.Hour))
func AuthRequired(store *session.Store, timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return c.Redirect("/login")
		}

		userID := sess.Get("user_id")
		if userID == nil {
			return c.Redirect("/login")
		}

		// Inactivity expiry: issued_at is refreshed on login only.
		if issued, ok := sess.Get("issued_at").(int64); ok {
			if time.Since(time.Unix(issued, 0)) > timeout {
				_ = sess.Destroy()
				return services.ErrSessionExpired
			}
		}

		c.Locals("user_id", userID)
		c.Locals("user_role", sess.Get("user_role"))
		c.Locals("user_name", sess.Get("user_name"))
		c.Locals("user_email", sess.Get("user_email"))
		c.Locals("user_district", sess.Get("user_district"))

		return c.Next()
	}
}

// RoleRequired ensures the user holds one of the allowed roles.
// MUST be chained after AuthRequired, which sets user_role.
//
// Example:
//
//	finance := app.Group("/finance",
//	    middleware.AuthRequired(store, timeout),
//	    middleware.RoleRequired(models.RoleFinance, models.RoleAdmin))
func RoleRequired(roles ...string) fiber.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		if !allowed[role] {
			return c.Status(fiber.StatusForbidden).SendString("Access denied")
		}
		return c.Next()
	}
}

// AdminOnly ensures the user has admin privileges.
// MUST be chained after AuthRequired.
func AdminOnly() fiber.Handler {
	return RoleRequired(models.RoleAdmin)
}

// Principal builds the acting principal from the session locals set by
// AuthRequired. Handlers pass this into the services layer explicitly.
func Principal(c *fiber.Ctx) models.Registrar {
	userID, _ := c.Locals("user_id").(int)
	role, _ := c.Locals("user_role").(string)
	district, _ := c.Locals("user_district").(string)

	return models.Registrar{
		UserID:   userID,
		Role:     role,
		District: district,
	}
}
