// Package security provides input validation functionality for form input
// arriving at the registrar, finance, and admin surfaces.
package security

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\s\-]{6,19}$`)
	codeFormat   = regexp.MustCompile(`^\d{4}$`)
	namePattern  = regexp.MustCompile(`^[\p{L}\p{M}'\.\s\-]+$`)
)

// ValidationService provides centralized input validation functions.
// All validation methods return descriptive errors that are safe to show to users.
type ValidationService struct {
	config *SecurityConfig
}

// NewValidationService creates a new validation service with security configuration.
func NewValidationService(config *SecurityConfig) *ValidationService {
	return &ValidationService{
		config: config,
	}
}

// ValidateEmail validates email address format according to RFC 5322.
// Returns error if email is invalid or too long.
func (v *ValidationService) ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}

	if len(email) > 255 {
		return fmt.Errorf("email must be less than 255 characters")
	}

	// Use Go's standard mail.ParseAddress for RFC 5322 compliance
	_, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format")
	}

	return nil
}

// ValidatePassword validates password meets minimum security requirements.
// Requirements: At least 8 characters, contains uppercase, lowercase, and number.
func (v *ValidationService) ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}

	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	if len(password) > 128 {
		return fmt.Errorf("password must be less than 128 characters")
	}

	hasUpper := regexp.MustCompile(`[A-Z]`).MatchString(password)
	hasLower := regexp.MustCompile(`[a-z]`).MatchString(password)
	hasNumber := regexp.MustCompile(`[0-9]`).MatchString(password)

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}

	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}

	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

// ValidatePersonName validates a first or last name: non-empty after trim,
// within the length limit, letters with the usual name punctuation.
func (v *ValidationService) ValidatePersonName(fieldName, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if utf8.RuneCountInString(name) > v.config.MaxNameLength {
		return fmt.Errorf("%s must be %d characters or less", fieldName, v.config.MaxNameLength)
	}

	if !namePattern.MatchString(name) {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidatePhone validates a phone number: digits with optional leading +,
// spaces and hyphens allowed, 7 to 20 characters.
func (v *ValidationService) ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return fmt.Errorf("phone is required")
	}

	if !phonePattern.MatchString(phone) {
		return fmt.Errorf("invalid phone number format")
	}

	return nil
}

// ValidateCheckInCode validates the 4-digit check-in code shape.
// Whether the code matches a delegate is the check-in engine's question.
func (v *ValidationService) ValidateCheckInCode(code string) error {
	if code == "" {
		return fmt.Errorf("code is required")
	}

	if !codeFormat.MatchString(strings.TrimSpace(code)) {
		return fmt.Errorf("code must be exactly 4 digits")
	}

	return nil
}

// ValidateAmount validates a monetary amount is positive and within sanity
// bounds.
func (v *ValidationService) ValidateAmount(amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	if amount > 1_000_000_000 {
		return fmt.Errorf("amount exceeds the maximum accepted value")
	}

	return nil
}

// ValidateDate validates date string format (ISO 8601).
// Expected format: "2026-01-15", "2026-12-31"
func (v *ValidationService) ValidateDate(dateStr string) error {
	if dateStr == "" {
		return fmt.Errorf("date is required")
	}

	_, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return fmt.Errorf("invalid date format (expected: YYYY-MM-DD)")
	}

	return nil
}

// ValidateDateRange validates that start date is not after end date.
// A one-day event may share start and end.
func (v *ValidationService) ValidateDateRange(start, end string) error {
	if err := v.ValidateDate(start); err != nil {
		return fmt.Errorf("start date: %w", err)
	}

	if end != "" {
		if err := v.ValidateDate(end); err != nil {
			return fmt.Errorf("end date: %w", err)
		}

		startTime, _ := time.Parse("2006-01-02", start)
		endTime, _ := time.Parse("2006-01-02", end)

		if startTime.After(endTime) {
			return fmt.Errorf("start date must not be after end date")
		}
	}

	return nil
}

// ValidateUserRole validates user role is one of the allowed values.
func (v *ValidationService) ValidateUserRole(role string) error {
	if role == "" {
		return fmt.Errorf("role is required")
	}

	allowedRoles := map[string]bool{
		"admin":     true,
		"registrar": true,
		"finance":   true,
	}

	if !allowedRoles[role] {
		return fmt.Errorf("invalid role (must be 'admin', 'registrar', or 'finance')")
	}

	return nil
}

// ValidateSearchQuery validates a delegate search query: at least two
// characters, within the length limit.
func (v *ValidationService) ValidateSearchQuery(query string) error {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < 2 {
		return fmt.Errorf("search query must be at least 2 characters")
	}

	if utf8.RuneCountInString(query) > v.config.MaxSearchLength {
		return fmt.Errorf("search query must be %d characters or less", v.config.MaxSearchLength)
	}

	return nil
}

// SanitizeString removes potentially dangerous characters from string input.
// Removes control characters and normalizes whitespace.
func (v *ValidationService) SanitizeString(input string) string {
	// Remove control characters (except newline and tab)
	input = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`).ReplaceAllString(input, "")

	// Normalize whitespace
	input = strings.TrimSpace(input)

	return input
}

// ValidateRequired checks if a required field is present and non-empty.
func (v *ValidationService) ValidateRequired(fieldName, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	return nil
}

// ValidateLength validates string length is within bounds.
func (v *ValidationService) ValidateLength(fieldName string, value string, min, max int) error {
	length := utf8.RuneCountInString(value)

	if length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}

	if length > max {
		return fmt.Errorf("%s must be %d characters or less", fieldName, max)
	}

	return nil
}
