package domain

import (
	"time"
)

// Organization is a tenant of the platform as seen by the health score engine
type Organization struct {
	ID             string     `json:"id" db:"id"`
	Name           string     `json:"name" db:"name"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty" db:"last_activity_at"`
	HealthScore    *int       `json:"health_score,omitempty" db:"health_score"`
}

// ActivityReference is the instant activity recency is measured from:
// last activity when known, creation time otherwise.
func (o *Organization) ActivityReference() time.Time {
	if o.LastActivityAt != nil {
		return *o.LastActivityAt
	}
	return o.CreatedAt
}

// Profile is a user account. Only the fields used for login counting and
// role checks are loaded.
type Profile struct {
	ID             string     `json:"id" db:"id"`
	OrganizationID *string    `json:"organization_id,omitempty" db:"organization_id"`
	Role           string     `json:"role" db:"role"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	LastLogin      *time.Time `json:"last_login,omitempty" db:"last_login"`
}

// TicketStatus is the lifecycle state of a support ticket
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusWaiting    TicketStatus = "waiting"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// IsOpen reports whether the ticket still needs work. Unknown statuses
// count as terminal.
func (s TicketStatus) IsOpen() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusWaiting:
		return true
	default:
		return false
	}
}
