package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Health score events
	EventHealthScoreUpdated       = "organization.health_score.updated"
	EventHealthScorePassCompleted = "organization.health_score.pass_completed"

	// EventHealthScoreRequested asks the health service to rescore one organization
	EventHealthScoreRequested = "organization.health_score.requested"
)

// Exchange names
const (
	ExchangeOrganizationEvents = "organization.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Health Score Events

// ScoreBreakdown mirrors the three component scores
type ScoreBreakdown struct {
	Activity int `json:"activity"`
	Logins   int `json:"logins"`
	Tickets  int `json:"tickets"`
}

// HealthScoreUpdatedEvent is published after an organization's score is written
type HealthScoreUpdatedEvent struct {
	OrganizationID   string         `json:"organization_id"`
	OrganizationName string         `json:"organization_name"`
	HealthScore      int            `json:"health_score"`
	PreviousScore    *int           `json:"previous_score"` // nil when never scored
	Breakdown        ScoreBreakdown `json:"breakdown"`
	ScoredAt         time.Time      `json:"scored_at"`
}

// Changed reports whether the score differs from the previous one
func (e *HealthScoreUpdatedEvent) Changed() bool {
	return e.PreviousScore == nil || *e.PreviousScore != e.HealthScore
}

// HealthScorePassCompletedEvent is published when a full pass finishes
type HealthScorePassCompletedEvent struct {
	Processed  int   `json:"processed"`
	Succeeded  int   `json:"succeeded"`
	Failed     int   `json:"failed"`
	DurationMs int64 `json:"duration_ms"`
}

// HealthScoreRequestedEvent asks for one organization to be rescored
type HealthScoreRequestedEvent struct {
	OrganizationID string `json:"organization_id"`
	RequestedBy    string `json:"requested_by,omitempty"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return uuid.NewString()
}
