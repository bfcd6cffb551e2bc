package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// OrganizationFixture represents test organization data
type OrganizationFixture struct {
	ID             string     `db:"id"`
	Name           string     `db:"name"`
	CreatedAt      time.Time  `db:"created_at"`
	LastActivityAt *time.Time `db:"last_activity_at"`
	HealthScore    *int       `db:"health_score"`
}

// ProfileFixture represents test profile data
type ProfileFixture struct {
	ID             string     `db:"id"`
	OrganizationID *string    `db:"organization_id"`
	Role           string     `db:"role"`
	IsActive       bool       `db:"is_active"`
	LastLogin      *time.Time `db:"last_login"`
}

// TicketFixture represents test support ticket data
type TicketFixture struct {
	ID             string    `db:"id"`
	OrganizationID string    `db:"organization_id"`
	Status         string    `db:"status"`
	CreatedAt      time.Time `db:"created_at"`
}

// FixtureFactory creates test fixtures with sensible defaults.
// Times default to Now, which is fixed per factory so fixtures line up with
// a clock.Fixed pinned to the same instant.
type FixtureFactory struct {
	Now      time.Time
	sequence int
}

// NewFixtureFactory creates a new fixture factory anchored at now
func NewFixtureFactory(now time.Time) *FixtureFactory {
	return &FixtureFactory{Now: now.UTC()}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Organization creates an organization fixture created 30 days before Now
func (f *FixtureFactory) Organization(opts ...func(*OrganizationFixture)) OrganizationFixture {
	seq := f.nextSeq()

	org := OrganizationFixture{
		ID:        uuid.New().String(),
		Name:      fmt.Sprintf("Test Organization %d", seq),
		CreatedAt: f.Now.AddDate(0, 0, -30),
	}

	for _, opt := range opts {
		opt(&org)
	}

	return org
}

// WithOrgName sets the organization name
func WithOrgName(name string) func(*OrganizationFixture) {
	return func(o *OrganizationFixture) {
		o.Name = name
	}
}

// WithCreatedAt sets the organization creation time
func WithCreatedAt(t time.Time) func(*OrganizationFixture) {
	return func(o *OrganizationFixture) {
		o.CreatedAt = t
	}
}

// WithLastActivity sets the organization's last activity time
func WithLastActivity(t time.Time) func(*OrganizationFixture) {
	return func(o *OrganizationFixture) {
		o.LastActivityAt = &t
	}
}

// WithHealthScore sets a previously stored score
func WithHealthScore(score int) func(*OrganizationFixture) {
	return func(o *OrganizationFixture) {
		o.HealthScore = &score
	}
}

// Profile creates an active profile fixture belonging to orgID
func (f *FixtureFactory) Profile(orgID string, opts ...func(*ProfileFixture)) ProfileFixture {
	f.nextSeq()

	p := ProfileFixture{
		ID:             uuid.New().String(),
		OrganizationID: &orgID,
		Role:           "user",
		IsActive:       true,
	}

	for _, opt := range opts {
		opt(&p)
	}

	return p
}

// SuperAdmin creates a super admin profile that belongs to no organization
func (f *FixtureFactory) SuperAdmin() ProfileFixture {
	f.nextSeq()

	return ProfileFixture{
		ID:       uuid.New().String(),
		Role:     "super_admin",
		IsActive: true,
	}
}

// WithRole sets the profile role
func WithRole(role string) func(*ProfileFixture) {
	return func(p *ProfileFixture) {
		p.Role = role
	}
}

// WithLastLogin sets the profile's last login time
func WithLastLogin(t time.Time) func(*ProfileFixture) {
	return func(p *ProfileFixture) {
		p.LastLogin = &t
	}
}

// Inactive marks the profile inactive
func Inactive() func(*ProfileFixture) {
	return func(p *ProfileFixture) {
		p.IsActive = false
	}
}

// Ticket creates a support ticket fixture created one day before Now
func (f *FixtureFactory) Ticket(orgID, status string, opts ...func(*TicketFixture)) TicketFixture {
	f.nextSeq()

	t := TicketFixture{
		ID:             uuid.New().String(),
		OrganizationID: orgID,
		Status:         status,
		CreatedAt:      f.Now.AddDate(0, 0, -1),
	}

	for _, opt := range opts {
		opt(&t)
	}

	return t
}

// WithTicketCreatedAt sets the ticket creation time
func WithTicketCreatedAt(at time.Time) func(*TicketFixture) {
	return func(t *TicketFixture) {
		t.CreatedAt = at
	}
}

// InsertOrganizations writes organization fixtures
func InsertOrganizations(ctx context.Context, db sqlx.ExtContext, orgs ...OrganizationFixture) error {
	for _, o := range orgs {
		_, err := sqlx.NamedExecContext(ctx, db, `
			INSERT INTO organizations (id, name, created_at, last_activity_at, health_score)
			VALUES (:id, :name, :created_at, :last_activity_at, :health_score)`, o)
		if err != nil {
			return fmt.Errorf("insert organization %s: %w", o.Name, err)
		}
	}
	return nil
}

// InsertProfiles writes profile fixtures
func InsertProfiles(ctx context.Context, db sqlx.ExtContext, profiles ...ProfileFixture) error {
	for _, p := range profiles {
		_, err := sqlx.NamedExecContext(ctx, db, `
			INSERT INTO profiles (id, organization_id, role, is_active, last_login)
			VALUES (:id, :organization_id, :role, :is_active, :last_login)`, p)
		if err != nil {
			return fmt.Errorf("insert profile %s: %w", p.ID, err)
		}
	}
	return nil
}

// InsertTickets writes support ticket fixtures
func InsertTickets(ctx context.Context, db sqlx.ExtContext, tickets ...TicketFixture) error {
	for _, t := range tickets {
		_, err := sqlx.NamedExecContext(ctx, db, `
			INSERT INTO support_tickets (id, organization_id, status, created_at)
			VALUES (:id, :organization_id, :status, :created_at)`, t)
		if err != nil {
			return fmt.Errorf("insert ticket %s: %w", t.ID, err)
		}
	}
	return nil
}
