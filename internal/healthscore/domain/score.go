package domain

import (
	"time"
)

// Breakdown holds the three component scores
type Breakdown struct {
	Activity int `json:"activity"`
	Logins   int `json:"logins"`
	Tickets  int `json:"tickets"`
}

// Total is the composite health score
func (b Breakdown) Total() int {
	return b.Activity + b.Logins + b.Tickets
}

// Facts are the aggregated inputs for one organization, read at a single
// instant.
type Facts struct {
	RecentLogins int
	Tickets      []TicketStatus
}

// ScoreResult is the outcome for one organization in a pass. Exactly one of
// HealthScore/Breakdown or Error is set.
type ScoreResult struct {
	OrganizationID   string     `json:"organization_id"`
	OrganizationName string     `json:"organization_name"`
	HealthScore      *int       `json:"health_score,omitempty"`
	Breakdown        *Breakdown `json:"breakdown,omitempty"`
	Error            string     `json:"error,omitempty"`
}

// Succeeded reports whether the organization was scored and written
func (r *ScoreResult) Succeeded() bool {
	return r.Error == ""
}

// Report summarizes one pass over all organizations. Results follow the
// order organizations were listed in.
type Report struct {
	Processed  int           `json:"processed"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Results    []ScoreResult `json:"results"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// NewReport builds a report from ordered results, counting outcomes
func NewReport(results []ScoreResult, startedAt, finishedAt time.Time) *Report {
	r := &Report{
		Processed:  len(results),
		Results:    results,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	}
	for i := range results {
		if results[i].Succeeded() {
			r.Succeeded++
		} else {
			r.Failed++
		}
	}
	return r
}

// Duration is how long the pass took
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
