package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/itamcloud/itam-backend/internal/healthscore/domain"
	"github.com/itamcloud/itam-backend/pkg/database"
	"github.com/itamcloud/itam-backend/pkg/errors"
	"github.com/jmoiron/sqlx"
)

// OrganizationRepository reads organizations and writes their health score
type OrganizationRepository struct {
	db *database.DB
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *database.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

const organizationColumns = `id, name, created_at, last_activity_at, health_score`

// ListAll returns every organization, oldest first
func (r *OrganizationRepository) ListAll(ctx context.Context) ([]*domain.Organization, error) {
	var orgs []*domain.Organization
	query := `SELECT ` + organizationColumns + ` FROM organizations ORDER BY created_at, id`
	if err := r.db.SelectContext(ctx, &orgs, query); err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	return orgs, nil
}

// GetByID gets an organization by ID
func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	var org domain.Organization
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`
	if err := r.db.GetContext(ctx, &org, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("organization")
		}
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}
	return &org, nil
}

// UpdateHealthScore stores score and returns the score it replaced.
// The row is locked for the read-then-write so concurrent writers serialize
// per organization.
func (r *OrganizationRepository) UpdateHealthScore(ctx context.Context, id string, score int) (*int, error) {
	var previous sql.NullInt64

	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		lockQuery := `SELECT health_score FROM organizations WHERE id = $1 FOR UPDATE`
		if err := tx.GetContext(ctx, &previous, lockQuery, id); err != nil {
			if err == sql.ErrNoRows {
				return errors.NotFound("organization")
			}
			return err
		}

		updateQuery := `UPDATE organizations SET health_score = $2 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, updateQuery, id, score); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}

	if !previous.Valid {
		return nil, nil
	}
	prev := int(previous.Int64)
	return &prev, nil
}
