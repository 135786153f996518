package database

import (
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// migrationsSource returns the migrate source URL, overridable via
// MIGRATIONS_PATH for deployments that ship migrations elsewhere.
func migrationsSource() string {
	if path := os.Getenv("MIGRATIONS_PATH"); path != "" {
		return "file://" + path
	}
	return "file://migrations"
}

// RunMigrations automatically applies all pending database migrations.
// Called at startup before the first request is served; the check_ins
// uniqueness index the check-in engine relies on lives here.
func RunMigrations() error {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable not set")
	}

	log.Println("🗄️  Initializing database migrations...")

	m, err := migrate.New(migrationsSource(), dbURL)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer m.Close()

	// Handle dirty state left by an interrupted deploy
	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		log.Printf("⚠️  Could not get migration version: %v", err)
	}
	if dirty {
		log.Printf("⚠️  Database in dirty state at version %d, forcing clean...", version)
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
	}

	log.Println("📦 Applying pending migrations...")
	if err := m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			log.Println("✅ Database is up to date (no migrations needed)")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, _ = m.Version()
	log.Printf("✅ Migrations complete! Current version: %d", version)
	return nil
}

// RollbackMigration rolls back the last migration.
func RollbackMigration() error {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}

	m, err := migrate.New(migrationsSource(), dbURL)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer m.Close()

	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	version, _, _ := m.Version()
	log.Printf("✅ Rolled back to version: %d", version)
	return nil
}
