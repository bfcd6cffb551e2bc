// Package scoring holds the pure step functions behind the organization
// health score. Nothing here reads the clock or the database.
package scoring

import (
	"time"

	"github.com/itamcloud/itam-backend/internal/healthscore/domain"
)

// Component maxima
const (
	MaxActivity = 40
	MaxLogins   = 30
	MaxTickets  = 30
	MaxTotal    = MaxActivity + MaxLogins + MaxTickets
)

// Trailing windows for the fact queries
const (
	LoginWindow  = 7 * 24 * time.Hour
	TicketWindow = 90 * 24 * time.Hour
)

const day = 24 * time.Hour

// DaysSince returns whole days elapsed from ref to now, rounding toward
// negative infinity. Both instants are compared in UTC so the result does not
// depend on the zone either value was loaded in.
func DaysSince(ref, now time.Time) int {
	d := now.UTC().Sub(ref.UTC())
	days := int(d / day)
	if d < 0 && d%day != 0 {
		days--
	}
	return days
}

// ActivityScore maps days since last activity onto 0..40
func ActivityScore(days int) int {
	switch {
	case days <= 1:
		return 40
	case days <= 7:
		return 30
	case days <= 30:
		return 20
	case days <= 90:
		return 10
	default:
		return 0
	}
}

// LoginScore maps the number of recently active profiles onto 0..30.
// It saturates at three profiles.
func LoginScore(recent int) int {
	switch {
	case recent >= 3:
		return 30
	case recent == 2:
		return 20
	case recent == 1:
		return 10
	default:
		return 0
	}
}

// TicketScore maps ticket statuses in the trailing window onto 0..30.
// No tickets scores the maximum. Otherwise the share of tickets not in an
// open state is banded at 0.9, 0.7 and 0.5, lower bounds inclusive.
func TicketScore(statuses []domain.TicketStatus) int {
	total := len(statuses)
	if total == 0 {
		return 30
	}

	resolved := 0
	for _, s := range statuses {
		if !s.IsOpen() {
			resolved++
		}
	}

	// resolved/total >= n/10 without floating point
	switch {
	case resolved*10 >= total*9:
		return 30
	case resolved*10 >= total*7:
		return 20
	case resolved*10 >= total*5:
		return 10
	default:
		return 0
	}
}

// Compute scores one organization from its facts as of now
func Compute(org *domain.Organization, facts domain.Facts, now time.Time) domain.Breakdown {
	return domain.Breakdown{
		Activity: ActivityScore(DaysSince(org.ActivityReference(), now)),
		Logins:   LoginScore(facts.RecentLogins),
		Tickets:  TicketScore(facts.Tickets),
	}
}

// LoginWindowStart is the earliest last_login counted as recent
func LoginWindowStart(now time.Time) time.Time {
	return now.Add(-LoginWindow)
}

// TicketWindowStart is the earliest created_at counted in the ticket ratio
func TicketWindowStart(now time.Time) time.Time {
	return now.Add(-TicketWindow)
}
