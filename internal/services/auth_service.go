// Package services provides business logic layer for the FGBMFI RMM application.
// This file implements authentication services including user login validation
// and password hashing using bcrypt for secure credential management.
package services

import (
	"context"

	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/models"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles authentication and password management operations.
// Provides a layer of abstraction between HTTP handlers and the repository,
// implementing business logic for user authentication.
//
// Security Notes:
//   - Constant-time password comparison prevents timing attacks
//   - Never stores or logs plaintext passwords
type AuthService struct {
	userRepo *repository.UserRepository // Repository for user database operations
}

// NewAuthService creates and returns a new AuthService instance.
//
// Returns:
//   - *AuthService: Configured authentication service ready for use
func NewAuthService() *AuthService {
	return &AuthService{
		userRepo: repository.NewUserRepository(),
	}
}

// Authenticate verifies user credentials and returns the user record on success.
// Performs two-step validation: email lookup followed by password verification.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - email: User's email address
//   - password: Plaintext password provided by user
//
// Returns:
//   - *models.User: User record if authentication successful
//   - error: Authentication error (user not found or invalid password)
//
// Security Notes:
//   - bcrypt.CompareHashAndPassword is constant-time to prevent timing attacks
//   - Callers must present the same generic message for "user not found" and
//     "invalid password" to avoid revealing which accounts exist
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, err // ErrMismatchedHashAndPassword on failure
	}

	return user, nil
}

// RegistrarFor builds the acting principal the core operations receive.
// Services never read ambient session state; the handler resolves the user
// once and passes this value explicitly.
func (s *AuthService) RegistrarFor(user *models.User) models.Registrar {
	return models.Registrar{
		UserID:   user.ID,
		Role:     user.Role,
		District: user.District,
	}
}

// HashPassword generates a bcrypt hash of the provided plaintext password.
// Used when creating new users or updating passwords.
//
// Parameters:
//   - password: Plaintext password to hash
//
// Returns:
//   - string: Bcrypt hash string (includes salt and cost)
//   - error: Hashing error (typically only on invalid input)
//
// Security Notes:
//   - Never compare passwords using == operator
//   - Always use bcrypt.CompareHashAndPassword for verification
//   - Hash output is safe to store in database
func (s *AuthService) HashPassword(password string) (string, error) {
	// Cost 12 gives 2^12 rounds, per NIST SP 800-63B guidance.
	const bcryptCost = 12
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(hash), err
}
