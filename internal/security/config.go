// Package security provides centralized security configuration and utilities
// for the FGBMFI RMM application.
package security

import (
	"time"
)

// SecurityConfig holds all security-related configuration values.
// These values are tuned based on OWASP ASVS and NIST guidelines.
type SecurityConfig struct {
	// Password storage
	BcryptCost int // Cost factor for bcrypt hashing (recommended: 12)

	// Session management
	SessionTimeout    time.Duration // Session inactivity timeout
	SessionCookieName string        // Name of session cookie
	SessionSecure     bool          // Require HTTPS for session cookies
	SessionHTTPOnly   bool          // Prevent JavaScript access to session cookies
	SessionSameSite   string        // CSRF protection via SameSite attribute

	// Brute force protection
	AccountLockoutThreshold int           // Failed attempts before account lockout
	AccountLockoutDuration  time.Duration // How long account stays locked

	// Input validation limits
	MaxNameLength   int // Maximum characters in a person or event name
	MaxSearchLength int // Maximum characters in a search query
	MaxExportRows   int // Maximum rows in a CSV export

	// Rate limiting (requests per time window)
	RateLimitLogin   int // Login attempts per minute per IP
	RateLimitCheckIn int // Check-in submissions per minute per user
	RateLimitExport  int // Exports per hour per user

	// Security monitoring
	MonitoringInterval     time.Duration // How often failure counters reset
	AlertThresholdFailures int           // Failed logins from one IP before alerting
	AlertThresholdExport   int           // Export row count that triggers an alert
}

// DefaultSecurityConfig returns security configuration with recommended
// defaults. These values comply with OWASP ASVS 4.0 and NIST SP 800-53
// guidelines.
func DefaultSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		// Bcrypt cost 12 = 2^12 rounds
		BcryptCost: 12,

		// Sessions last a full conference day
		SessionTimeout:    8 * time.Hour,
		SessionCookieName: "rmm_session",
		SessionSecure:     true,     // Requires HTTPS
		SessionHTTPOnly:   true,     // No JavaScript access
		SessionSameSite:   "Strict", // Strong CSRF protection

		// Brute force protection
		AccountLockoutThreshold: 10,
		AccountLockoutDuration:  30 * time.Minute,

		// Input validation limits
		MaxNameLength:   100,
		MaxSearchLength: 100,
		MaxExportRows:   50000,

		// Rate limits
		RateLimitLogin:   5,  // per minute per IP
		RateLimitCheckIn: 60, // per minute per user; a busy desk is fast
		RateLimitExport:  10, // per hour per user

		// Security monitoring
		MonitoringInterval:     5 * time.Minute,
		AlertThresholdFailures: 5,
		AlertThresholdExport:   1000,
	}
}
