package repository

import (
	"context"
	"time"

	"github.com/itamcloud/itam-backend/internal/healthscore/domain"
	"github.com/itamcloud/itam-backend/pkg/database"
)

// TicketRepository reads support tickets
type TicketRepository struct {
	db *database.DB
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *database.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// ListStatusesSince returns the status of every ticket of orgID created at or after since
func (r *TicketRepository) ListStatusesSince(ctx context.Context, orgID string, since time.Time) ([]domain.TicketStatus, error) {
	statuses := []domain.TicketStatus{}
	query := `SELECT status FROM support_tickets WHERE organization_id = $1 AND created_at >= $2`
	if err := r.db.SelectContext(ctx, &statuses, query, orgID, since); err != nil {
		return nil, err
	}
	return statuses, nil
}
