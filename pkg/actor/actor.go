// Package actor identifies who started an operation, for logs and events.
//
// HTTP callers become an Actor once their bearer token is verified. The
// scheduler, healthctl and queued requests run as the system actor unless
// the request carried a profile ID.
package actor

import (
	"context"
	"fmt"
)

// SystemID is the actor ID used for operations no user started
const SystemID = "00000000-0000-0000-0000-000000000000"

// Actor represents the entity performing an action in the system.
type Actor struct {
	// ID is the caller's profile ID
	ID string `json:"id"`

	// Email is copied from the token when present
	Email string `json:"email,omitempty"`

	// RoleName is set once the caller's profile has been loaded
	RoleName string `json:"role_name,omitempty"`
}

// String returns a string representation of the actor for logging
func (a *Actor) String() string {
	if a.IsSystem() {
		return "system"
	}
	if a.Email != "" {
		return fmt.Sprintf("%s (%s)", a.ID, a.Email)
	}
	return a.ID
}

// IsSystem returns true if the actor represents the system.
func (a *Actor) IsSystem() bool {
	if a == nil {
		return true
	}
	return a.ID == SystemID
}

type contextKey string

const actorContextKey contextKey = "actor"

// FromContext retrieves the Actor from the context.
// Returns nil if no actor is present (e.g., system operations).
func FromContext(ctx context.Context) *Actor {
	if ctx == nil {
		return nil
	}
	a, ok := ctx.Value(actorContextKey).(*Actor)
	if !ok {
		return nil
	}
	return a
}

// WithActor returns a new context with the Actor attached.
func WithActor(ctx context.Context, a *Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey, a)
}

// SystemActor returns an Actor representing the system itself.
func SystemActor() *Actor {
	return &Actor{ID: SystemID}
}

// OrSystem returns the context's actor, falling back to the system actor
func OrSystem(ctx context.Context) *Actor {
	if a := FromContext(ctx); a != nil {
		return a
	}
	return SystemActor()
}
