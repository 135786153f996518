// Package main is the entry point for the FGBMFI RMM application.
// It initializes the web server, database connection, and all HTTP routes.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/database"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/handlers"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/middleware"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/models"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/security"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/template/html/v2"
	"github.com/joho/godotenv"
)

func main() {
	// Local development reads DATABASE_URL and friends from a .env file;
	// deployed environments set real variables.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	// Initialize database connection pool and apply pending migrations.
	database.MustConnect(nil)
	defer database.Close()

	if err := database.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Security components: configuration, structured JSON logger, alerting,
	// and the middleware suite built on them.
	securityConfig := security.DefaultSecurityConfig()
	securityLogger := security.NewLogger()
	alerter := security.NewLogAlerter(securityLogger)

	securityMiddleware := middleware.NewSecurityMiddleware(
		securityLogger,
		securityConfig,
		alerter,
	)
	monitor := security.NewSecurityMonitor(securityLogger, securityConfig, alerter)

	// Endpoint rate limiters beyond the login path, which the auth handler
	// throttles itself.
	checkInRateLimiter := security.NewRateLimiter(
		securityConfig.RateLimitCheckIn, // 60 submissions
		time.Second,                     // per minute (60s / 60 = 1s refill)
	)
	defer checkInRateLimiter.Stop()

	exportRateLimiter := security.NewRateLimiter(
		securityConfig.RateLimitExport, // 10 exports
		6*time.Minute,                  // per hour (60min / 10 = 6min refill)
	)
	defer exportRateLimiter.Stop()

	// Initialize HTML template engine.
	// Templates are loaded from ./web/templates with .html extension.
	engine := html.New("./web/templates", ".html")
	if os.Getenv("ENV") != "production" {
		engine.Reload(true)
	}

	app := fiber.New(fiber.Config{
		Views:             engine,
		ViewsLayout:       "layouts/main",
		PassLocalsToViews: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// An expired session sends the user back to login with context
			// intact; it never resets anything else.
			if errors.Is(err, services.ErrSessionExpired) {
				return c.Redirect("/login?expired=1")
			}

			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).SendString(fe.Message)
			}

			securityLogger.Error("Unhandled request error", err)
			if services.IsTimeout(err) {
				return c.Status(fiber.StatusGatewayTimeout).SendString("The request timed out, please try again")
			}
			return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong")
		},
	})

	// Global middleware: panic recovery first, then request logging with
	// correlation ids, security headers, and injection detection.
	app.Use(recover.New())
	app.Use(securityMiddleware.RequestLogger())
	app.Use(securityMiddleware.SecureHeaders())
	app.Use(securityMiddleware.InputValidation())

	// Serve static files (CSS, JS, images).
	app.Static("/static", "./web/static")

	// Session store; expiration MUST be set here, inactivity timeout is
	// enforced by the auth middleware on top of it.
	store := session.New(session.Config{
		Expiration:     securityConfig.SessionTimeout,
		CookieSecure:   securityConfig.SessionSecure,
		CookieHTTPOnly: securityConfig.SessionHTTPOnly,
		CookieSameSite: securityConfig.SessionSameSite,
		CookieName:     securityConfig.SessionCookieName,
		CookiePath:     "/",
	})

	app.Use(securityMiddleware.SecureSession(store))
	app.Use(securityMiddleware.SetCSRFToken(store))

	authHandler := handlers.NewAuthHandler(store, securityMiddleware, securityLogger)
	registrarHandler := handlers.NewRegistrarHandler(store)
	adminHandler := handlers.NewAdminHandler(store, securityLogger, monitor, securityConfig)
	financeHandler := handlers.NewFinanceHandler(store)

	// Root route redirects authenticated users to their desk.
	app.Get("/", func(c *fiber.Ctx) error {
		sess, _ := store.Get(c)
		switch sess.Get("user_role") {
		case models.RoleAdmin:
			return c.Redirect("/admin/dashboard")
		case models.RoleFinance:
			return c.Redirect("/finance/dashboard")
		case models.RoleRegistrar:
			return c.Redirect("/registrar/dashboard")
		default:
			return c.Redirect("/login")
		}
	})

	// Public routes.
	app.Get("/login", authHandler.ShowLogin)
	app.Post("/login", authHandler.Login)
	app.Get("/logout", authHandler.Logout)

	// Registrar desk. Admins may work the desk too.
	registrar := app.Group("/registrar",
		middleware.AuthRequired(store, securityConfig.SessionTimeout),
		middleware.RoleRequired(models.RoleRegistrar, models.RoleAdmin),
		securityMiddleware.CSRFProtection(store),
	)
	registrar.Get("/dashboard", registrarHandler.Dashboard)
	registrar.Get("/checkin", registrarHandler.ShowCheckIn)
	registrar.Get("/search", registrarHandler.Search)
	registrar.Post("/checkin",
		securityMiddleware.RateLimit(checkInRateLimiter, "checkin"),
		registrarHandler.CheckIn,
	)
	registrar.Post("/checkin/code",
		securityMiddleware.RateLimit(checkInRateLimiter, "checkin_code"),
		registrarHandler.CheckInByCode,
	)
	registrar.Get("/register", registrarHandler.ShowRegisterForm)
	registrar.Post("/register", registrarHandler.Register)

	// Admin routes.
	admin := app.Group("/admin",
		middleware.AuthRequired(store, securityConfig.SessionTimeout),
		middleware.AdminOnly(),
		securityMiddleware.CSRFProtection(store),
	)
	admin.Get("/dashboard", adminHandler.Dashboard)

	admin.Get("/events", adminHandler.ListEvents)
	admin.Get("/events/create", adminHandler.ShowCreateEventForm)
	admin.Post("/events/create", adminHandler.CreateEvent)
	admin.Post("/events/:id/delete", adminHandler.DeleteEvent)
	admin.Get("/events/:id/sessions", adminHandler.ViewSessions)
	admin.Post("/events/:id/sessions", adminHandler.CreateSession)
	admin.Post("/events/:id/sessions/:session_id/delete", adminHandler.DeleteSession)
	admin.Post("/events/:id/clear", adminHandler.ClearEventData)

	admin.Get("/events/:id/export",
		securityMiddleware.RateLimit(exportRateLimiter, "export"),
		adminHandler.ExportCheckIns,
	)

	admin.Get("/users", adminHandler.ListUsers)
	admin.Get("/users/create", adminHandler.ShowCreateUserForm)
	admin.Post("/users/create", adminHandler.CreateUser)
	admin.Post("/users/:id/delete", adminHandler.DeleteUser)

	admin.Get("/references", adminHandler.ViewReferences)
	admin.Post("/references/:kind", adminHandler.AddReference)
	admin.Post("/references/:kind/remove", adminHandler.RemoveReference)

	admin.Get("/duplicates", adminHandler.ViewDuplicates)
	admin.Post("/duplicates/merge", adminHandler.MergeDelegates)

	admin.Get("/audit", adminHandler.ViewAuditLog)

	// Finance desk.
	finance := app.Group("/finance",
		middleware.AuthRequired(store, securityConfig.SessionTimeout),
		middleware.RoleRequired(models.RoleFinance, models.RoleAdmin),
		securityMiddleware.CSRFProtection(store),
	)
	finance.Get("/dashboard", financeHandler.Dashboard)
	finance.Post("/offerings", financeHandler.RecordOffering)
	finance.Post("/pledges", financeHandler.RecordPledge)
	finance.Post("/pledges/:id/redeem", financeHandler.RedeemPledge)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	fmt.Printf("🚀 FGBMFI RMM server starting on port %s\n", port)
	securityLogger.Info("Server started successfully")

	// TLS when certificates are configured; plain HTTP behind a terminating
	// proxy otherwise.
	certFile := os.Getenv("TLS_CERT_FILE")
	keyFile := os.Getenv("TLS_KEY_FILE")

	var err error
	if certFile != "" && keyFile != "" {
		err = app.ListenTLS(":"+port, certFile, keyFile)
	} else {
		err = app.Listen(":" + port)
	}
	if err != nil {
		securityLogger.Critical("Failed to start server", err)
		log.Fatalf("Failed to start server: %v", err)
	}
}
