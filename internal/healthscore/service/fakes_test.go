package service_test

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/itamcloud/itam-backend/internal/healthscore/domain"
	"github.com/itamcloud/itam-backend/pkg/errors"
)

type fakeTicket struct {
	orgID     string
	status    domain.TicketStatus
	createdAt time.Time
}

// memoryStore implements the engine's three repositories over slices
type memoryStore struct {
	mu       sync.Mutex
	orgs     []*domain.Organization
	profiles []domain.Profile
	tickets  []fakeTicket

	listErr   error
	failOn    map[string]string // organization id -> step that fails
	panicOn   map[string]string // organization id -> step that panics
	listCalls int
	writes    int

	// listGate, when set, blocks ListAll until closed
	listGate chan struct{}
	// delay per organization id, used to shuffle completion order
	delay map[string]time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		failOn:  make(map[string]string),
		panicOn: make(map[string]string),
		delay:   make(map[string]time.Duration),
	}
}

var errInjected = stderrors.New("injected failure")

func (s *memoryStore) addOrg(org domain.Organization) *domain.Organization {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := org
	s.orgs = append(s.orgs, &o)
	return &o
}

func (s *memoryStore) addProfile(orgID string, active bool, lastLogin *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := orgID
	s.profiles = append(s.profiles, domain.Profile{
		ID:             fmt.Sprintf("p-%s-%d", orgID, len(s.profiles)),
		OrganizationID: &id,
		IsActive:       active,
		LastLogin:      lastLogin,
	})
}

func (s *memoryStore) addTicket(orgID string, status domain.TicketStatus, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = append(s.tickets, fakeTicket{orgID: orgID, status: status, createdAt: createdAt})
}

func (s *memoryStore) score(id string) *int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orgs {
		if o.ID == id {
			if o.HealthScore == nil {
				return nil
			}
			v := *o.HealthScore
			return &v
		}
	}
	return nil
}

func (s *memoryStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *memoryStore) fail(orgID, step string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panicOn[orgID] == step {
		panic("injected panic in " + step)
	}
	if s.failOn[orgID] == step {
		return errInjected
	}
	return nil
}

func (s *memoryStore) ListAll(ctx context.Context) ([]*domain.Organization, error) {
	if s.listGate != nil {
		<-s.listGate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}

	out := make([]*domain.Organization, len(s.orgs))
	for i, o := range s.orgs {
		c := *o
		out[i] = &c
	}
	return out, nil
}

func (s *memoryStore) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orgs {
		if o.ID == id {
			c := *o
			return &c, nil
		}
	}
	return nil, errors.NotFound("organization")
}

func (s *memoryStore) UpdateHealthScore(ctx context.Context, id string, score int) (*int, error) {
	if err := s.fail(id, "update health score"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orgs {
		if o.ID == id {
			prev := o.HealthScore
			v := score
			o.HealthScore = &v
			s.writes++
			return prev, nil
		}
	}
	return nil, errors.NotFound("organization")
}

func (s *memoryStore) CountRecentActiveLogins(ctx context.Context, orgID string, since, until time.Time) (int, error) {
	if err := s.fail(orgID, "count recent logins"); err != nil {
		return 0, err
	}

	s.mu.Lock()
	d := s.delay[orgID]
	count := 0
	for _, p := range s.profiles {
		if p.OrganizationID == nil || *p.OrganizationID != orgID || !p.IsActive || p.LastLogin == nil {
			continue
		}
		if !p.LastLogin.Before(since) && !p.LastLogin.After(until) {
			count++
		}
	}
	s.mu.Unlock()

	if d > 0 {
		time.Sleep(d)
	}
	return count, nil
}

func (s *memoryStore) ListStatusesSince(ctx context.Context, orgID string, since time.Time) ([]domain.TicketStatus, error) {
	if err := s.fail(orgID, "list tickets"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.TicketStatus
	for _, t := range s.tickets {
		if t.orgID == orgID && !t.createdAt.Before(since) {
			out = append(out, t.status)
		}
	}
	return out, nil
}
