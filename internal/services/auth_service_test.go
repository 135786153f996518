// Package services_test provides unit tests for the services layer.
// Tests validate business logic and security implementations using pgxmock
// for database isolation.
package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/models"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/services"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// TestAuthService_HashPassword verifies bcrypt password hashing functionality.
//
// Security Requirements Tested:
//   - Password hashing produces non-empty output
//   - Hash differs from plaintext (one-way function)
//   - Hash verifies against the original password
func TestAuthService_HashPassword(t *testing.T) {
	// Arrange - Create authentication service instance
	service := services.NewAuthService()

	// Act - Hash a test password
	hash, err := service.HashPassword("testpassword")

	// Assert - Verify hash generation succeeded
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "testpassword", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("testpassword")))
}

// TestAuthService_Authenticate verifies the login flow against a stored
// bcrypt hash, including the wrong-password rejection.
func TestAuthService_Authenticate(t *testing.T) {
	storedHash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	testTime := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		password    string
		expectError bool
	}{
		{"valid credentials", "correct-horse", false},
		{"wrong password rejected", "battery-staple", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			mock := newMockDB(t)

			rows := pgxmock.NewRows([]string{"id", "email", "name", "role", "district", "password_hash", "created_at"}).
				AddRow(4, "lagos@fgbmfi.example", "Lagos Desk", "registrar", "Lagos", string(storedHash), testTime)

			mock.ExpectQuery(`SELECT id, email, name, role, district, password_hash, created_at FROM users WHERE email`).
				WithArgs("lagos@fgbmfi.example").
				WillReturnRows(rows)

			service := services.NewAuthService()

			// Act
			user, err := service.Authenticate(context.Background(), "lagos@fgbmfi.example", tt.password)

			// Assert
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 4, user.ID)
				assert.Equal(t, models.RoleRegistrar, user.Role)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// TestAuthService_RegistrarFor verifies the principal carries the district
// claim that drives the code fast-path authorization.
func TestAuthService_RegistrarFor(t *testing.T) {
	service := services.NewAuthService()

	scoped := service.RegistrarFor(&models.User{ID: 4, Role: models.RoleRegistrar, District: "Lagos"})
	assert.True(t, scoped.Scoped())
	assert.Equal(t, "Lagos", scoped.District)

	admin := service.RegistrarFor(&models.User{ID: 1, Role: models.RoleAdmin, District: ""})
	assert.False(t, admin.Scoped())
}
