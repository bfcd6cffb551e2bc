package scoring

import (
	"testing"
	"time"

	"github.com/itamcloud/itam-backend/internal/healthscore/domain"
	"github.com/itamcloud/itam-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func TestActivityScore_BandEdges(t *testing.T) {
	tests := []struct {
		days int
		want int
	}{
		{-3, 40},
		{0, 40},
		{1, 40},
		{2, 30},
		{7, 30},
		{8, 20},
		{30, 20},
		{31, 10},
		{90, 10},
		{91, 0},
		{3650, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ActivityScore(tt.days), "days=%d", tt.days)
	}
}

func TestActivityScore_NonIncreasing(t *testing.T) {
	prev := ActivityScore(-1)
	for d := 0; d <= 120; d++ {
		s := ActivityScore(d)
		assert.LessOrEqual(t, s, prev, "days=%d", d)
		prev = s
	}
}

func TestLoginScore(t *testing.T) {
	testutil.RunTestCases(t, []testutil.TestCase[int, int]{
		{Name: "none", Input: 0, Expected: 0},
		{Name: "one", Input: 1, Expected: 10},
		{Name: "two", Input: 2, Expected: 20},
		{Name: "three", Input: 3, Expected: 30},
		{Name: "saturates", Input: 10, Expected: 30},
	}, func(count int) (int, error) {
		return LoginScore(count), nil
	})
}

func tickets(resolved, open int) []domain.TicketStatus {
	out := make([]domain.TicketStatus, 0, resolved+open)
	for i := 0; i < resolved; i++ {
		if i%2 == 0 {
			out = append(out, domain.TicketStatusResolved)
		} else {
			out = append(out, domain.TicketStatusClosed)
		}
	}
	openStates := []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusWaiting}
	for i := 0; i < open; i++ {
		out = append(out, openStates[i%len(openStates)])
	}
	return out
}

func TestTicketScore(t *testing.T) {
	tests := []struct {
		name     string
		statuses []domain.TicketStatus
		want     int
	}{
		{"no tickets", nil, 30},
		{"all resolved", tickets(4, 0), 30},
		{"0.9", tickets(9, 1), 30},
		{"0.7", tickets(7, 3), 20},
		{"0.5", tickets(5, 5), 10},
		{"0.4", tickets(4, 6), 0},
		{"all open", tickets(0, 3), 0},
		{"just under 0.9", tickets(89, 11), 20},
		{"unknown status counts as terminal", []domain.TicketStatus{"archived", domain.TicketStatusOpen}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TicketScore(tt.statuses))
		})
	}
}

func TestDaysSince(t *testing.T) {
	tests := []struct {
		name string
		ref  time.Time
		want int
	}{
		{"same instant", now, 0},
		{"23h59m ago", now.Add(-(24*time.Hour - time.Minute)), 0},
		{"exactly one day", now.Add(-24 * time.Hour), 1},
		{"three days and change", now.Add(-(72*time.Hour + 5*time.Hour)), 3},
		{"one hour in the future", now.Add(time.Hour), -1},
		{"two days in the future", now.Add(48 * time.Hour), -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysSince(tt.ref, now))
		})
	}
}

func TestDaysSince_ZoneIndependent(t *testing.T) {
	berlin := time.FixedZone("CEST", 2*60*60)
	ref := now.Add(-25 * time.Hour).In(berlin)

	assert.Equal(t, 1, DaysSince(ref, now))
	assert.Equal(t, 1, DaysSince(ref, now.In(berlin)))
}

func TestCompute_FallsBackToCreatedAt(t *testing.T) {
	org := &domain.Organization{CreatedAt: now.Add(-12 * time.Hour)}

	b := Compute(org, domain.Facts{}, now)

	assert.Equal(t, 40, b.Activity)
	assert.Equal(t, 0, b.Logins)
	assert.Equal(t, 30, b.Tickets)
	assert.Equal(t, 70, b.Total())
}

func TestCompute_EndToEndExample(t *testing.T) {
	lastActive := now.AddDate(0, 0, -3)
	org := &domain.Organization{
		CreatedAt:      now.AddDate(-1, 0, 0),
		LastActivityAt: &lastActive,
	}

	b := Compute(org, domain.Facts{
		RecentLogins: 2,
		Tickets:      tickets(4, 0),
	}, now)

	assert.Equal(t, domain.Breakdown{Activity: 30, Logins: 20, Tickets: 30}, b)
	assert.Equal(t, 80, b.Total())
}

func TestCompute_TotalWithinRange(t *testing.T) {
	for days := -2; days <= 100; days += 7 {
		for logins := 0; logins <= 4; logins++ {
			for open := 0; open <= 4; open++ {
				ref := now.AddDate(0, 0, -days)
				org := &domain.Organization{CreatedAt: ref}
				b := Compute(org, domain.Facts{RecentLogins: logins, Tickets: tickets(4-open, open)}, now)

				assert.Equal(t, b.Activity+b.Logins+b.Tickets, b.Total())
				assert.GreaterOrEqual(t, b.Total(), 0)
				assert.LessOrEqual(t, b.Total(), MaxTotal)
			}
		}
	}
}

func TestWindows(t *testing.T) {
	assert.Equal(t, now.AddDate(0, 0, -7), LoginWindowStart(now))
	assert.Equal(t, now.AddDate(0, 0, -90), TicketWindowStart(now))
}
