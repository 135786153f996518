// Package models defines the domain entities and data transfer objects for
// the FGBMFI RMM delegate check-in application. It includes database models
// mapped to PostgreSQL tables, form DTOs for user input, and view models for
// template rendering.
package models

import "time"

// ============================================================================
// Domain Models (Database Entities)
// ============================================================================

// User represents a system account with role-based access control.
// Registrars check delegates in, finance staff record offerings and pledges,
// and admins manage events, users, and reference data.
//
// Database Table: users
// Security Note: PasswordHash should never be exposed in API responses or logs
type User struct {
	ID           int       `db:"id"`            // Primary key, auto-increment
	Email        string    `db:"email"`         // Unique, used for login
	Name         string    `db:"name"`          // Display name
	Role         string    `db:"role"`          // "admin", "registrar", or "finance"
	District     string    `db:"district"`      // Registrar scope; empty = unscoped
	PasswordHash string    `db:"password_hash"` // bcrypt hashed password
	CreatedAt    time.Time `db:"created_at"`    // Account creation timestamp
}

// Role values stored on User.Role.
const (
	RoleAdmin     = "admin"
	RoleRegistrar = "registrar"
	RoleFinance   = "finance"
)

// Registrar is the principal acting on a check-in or search request.
// It is built from the authenticated session and passed explicitly into every
// core operation; services never read ambient session state.
type Registrar struct {
	UserID   int    // Acting user's id
	Role     string // Acting user's role
	District string // District scope for "registrar" role; empty = unscoped
}

// Scoped reports whether this principal is a district-scoped registrar,
// i.e. subject to the district-mismatch rule on the code fast path.
func (r Registrar) Scoped() bool {
	return r.Role == RoleRegistrar && r.District != ""
}

// Delegate represents an attendee in the organization-wide master list.
// Delegates are not owned by any event; check-ins are.
//
// Database Table: delegates
// Dedup Invariant: normalized (first_name, last_name, phone) should be unique;
// violating rows are surfaced by the admin duplicate report, never silently
// merged.
type Delegate struct {
	ID        int       `db:"id"`         // Primary key, auto-increment
	FirstName string    `db:"first_name"` // Given name
	LastName  string    `db:"last_name"`  // Family name
	Title     string    `db:"title"`      // Honorific (e.g., "Dr.", "Chief")
	Phone     string    `db:"phone"`      // Dedup key component
	Email     string    `db:"email"`      // Optional contact email
	District  string    `db:"district"`   // Free text; should match reference list
	Chapter   string    `db:"chapter"`    // Local chapter name
	Rank      string    `db:"rank"`       // Fellowship rank
	Office    string    `db:"office"`     // Held office, if any
	Code      string    `db:"code"`       // Cached derived code; recomputation is authoritative
	CreatedAt time.Time `db:"created_at"` // Registration timestamp
}

// Event represents a top-level conference instance. Events scope check-ins,
// sessions, and finances.
//
// Database Table: events
type Event struct {
	ID        int       `db:"id"`         // Primary key
	Name      string    `db:"name"`       // Event name (e.g., "RMM 2026")
	StartsOn  time.Time `db:"starts_on"`  // First day
	EndsOn    time.Time `db:"ends_on"`    // Last day
	CreatedAt time.Time `db:"created_at"` // Creation timestamp
}

// EventSession represents an optional sub-scope of an event, such as a
// specific service or banquet. A check-in with no session is a "master event
// arrival".
//
// Database Table: event_sessions
// Related: Event (many-to-one)
type EventSession struct {
	ID       int       `db:"id"`        // Primary key
	EventID  int       `db:"event_id"`  // Foreign key to events.id
	Title    string    `db:"title"`     // Session title
	StartsAt time.Time `db:"starts_at"` // Session start
	EndsAt   time.Time `db:"ends_at"`   // Session end
}

// CheckIn represents a delegate's arrival at an event or session.
//
// Database Table: check_ins
// Uniqueness Invariant: at most one row per (event_id, delegate_id,
// session_id-or-null); enforced by a unique index over
// (event_id, delegate_id, COALESCE(session_id, 0)).
// Immutability: rows are never updated; deleted only by bulk event-data clear.
type CheckIn struct {
	ID          int       `db:"id"`            // Primary key
	EventID     int       `db:"event_id"`      // Foreign key to events.id
	DelegateID  int       `db:"delegate_id"`   // Foreign key to delegates.id
	SessionID   *int      `db:"session_id"`    // Nullable; nil = master event arrival
	CheckedInAt time.Time `db:"checked_in_at"` // Server timestamp
	RecordedBy  int       `db:"recorded_by"`   // User id of the registrar
}

// Pledge represents a delegate's financial pledge at an event, redeemable
// later through the finance desk.
//
// Database Table: pledges
type Pledge struct {
	ID         int       `db:"id"`          // Primary key
	EventID    int       `db:"event_id"`    // Foreign key to events.id
	DelegateID int       `db:"delegate_id"` // Foreign key to delegates.id
	Amount     float64   `db:"amount"`      // Pledged amount
	Redeemed   bool      `db:"redeemed"`    // Whether a redemption entry exists
	CreatedAt  time.Time `db:"created_at"`  // Pledge timestamp
}

// FinancialEntry represents a single recorded amount for an event: an
// offering, a pledge redemption, or another category.
//
// Database Table: financial_entries
type FinancialEntry struct {
	ID         int       `db:"id"`          // Primary key
	EventID    int       `db:"event_id"`    // Foreign key to events.id
	DelegateID *int      `db:"delegate_id"` // Nullable; anonymous offerings have none
	PledgeID   *int      `db:"pledge_id"`   // Nullable; set for pledge redemptions
	Category   string    `db:"category"`    // "offering", "pledge_redemption", ...
	Amount     float64   `db:"amount"`      // Entry amount
	RecordedBy int       `db:"recorded_by"` // User id of the finance staff
	CreatedAt  time.Time `db:"created_at"`  // Entry timestamp
}

// Financial entry categories.
const (
	CategoryOffering         = "offering"
	CategoryPledgeRedemption = "pledge_redemption"
)

// AuditLog represents an audit trail entry for compliance and security
// monitoring. All significant actions (check-ins, registrations, purges,
// admin mutations) are logged here.
//
// Database Table: audit_log
type AuditLog struct {
	ID         int       // Primary key
	ActorID    *int      // User who performed the action (nullable for system actions)
	Action     string    // Action type (e.g., "CHECK_IN", "REGISTER_DELEGATE")
	ObjectType string    // Type of object affected (e.g., "delegate", "event")
	ObjectID   *int      // ID of affected object (nullable)
	RequestID  string    // Correlation id minted by the request middleware
	IPAddress  string    // Source IP address
	UserAgent  string    // Browser/client identifier
	CreatedAt  time.Time // When the action occurred
}

// ============================================================================
// Core Operation Results
// ============================================================================

// CheckInResult is the typed outcome of a check-in attempt. Business failures
// (invalid code, district mismatch) are carried here with Success=false;
// only infrastructure failures surface as Go errors.
type CheckInResult struct {
	Success bool   // Whether the delegate is (now or already) checked in
	Message string // "Checked In", "Already Verified", "District Mismatch", ...
	Code    string // Always the freshly derived code, never a stored value
}

// DelegateSearchResult is a delegate annotated for the registrar search view.
type DelegateSearchResult struct {
	Delegate
	CheckedIn   bool   // Whether a check-in exists for the requested scope
	DerivedCode string // Recomputed code for (delegate, event)
}

// RecentCheckIn is one entry of the dashboard's bounded recent-activity feed,
// drawn from the deduplicated identity set.
type RecentCheckIn struct {
	DelegateName string    // "First Last", normalized for display
	District     string    // Delegate's district
	Rank         string    // Delegate's rank
	CheckedInAt  time.Time // Most recent check-in for this identity
}

// DashboardStats holds the derived, never-persisted aggregation output.
// Headcounts are deduplicated by physical identity (name+district+rank),
// not by raw check-in rows or delegate ids.
type DashboardStats struct {
	TotalDelegates     int             // Delegate pool size under the active filter
	TotalCheckIns      int             // Unique checked-in identities under the filter
	CheckInsByRank     map[string]int  // Unique identities per rank
	CheckInsByDistrict map[string]int  // Unique identities per district
	TotalFinancials    float64         // Sum of financial entries for the event
	RecentActivity     []RecentCheckIn // Bounded, most-recent-first
	Warnings           []string        // Soft degradations (e.g., financials unavailable)
}

// ============================================================================
// Data Transfer Objects (DTOs) - Form Input
// ============================================================================

// LoginForm represents user login credentials from the login form.
type LoginForm struct {
	Email    string // User's email address
	Password string // Plain-text password (verified against bcrypt hash)
}

// RegisterDelegateForm represents data from the delegate registration form.
type RegisterDelegateForm struct {
	FirstName string
	LastName  string
	Title     string
	Phone     string
	Email     string
	District  string
	Chapter   string
	Rank      string
	Office    string
}

// OfferingForm represents a finance-desk offering entry.
type OfferingForm struct {
	EventID    int
	DelegateID int     // 0 for anonymous offerings
	Amount     float64 // Must be positive
}

// PledgeForm represents a new pledge recorded at the finance desk.
type PledgeForm struct {
	EventID    int
	DelegateID int
	Amount     float64
}
