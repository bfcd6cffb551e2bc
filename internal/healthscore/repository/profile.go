package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/itamcloud/itam-backend/internal/healthscore/domain"
	"github.com/itamcloud/itam-backend/pkg/database"
	"github.com/itamcloud/itam-backend/pkg/errors"
)

// ProfileRepository reads user profiles
type ProfileRepository struct {
	db *database.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// CountRecentActiveLogins counts distinct active profiles of orgID whose
// last login falls in [since, until]
func (r *ProfileRepository) CountRecentActiveLogins(ctx context.Context, orgID string, since, until time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(DISTINCT id) FROM profiles
		WHERE organization_id = $1
			AND is_active = TRUE
			AND last_login >= $2
			AND last_login <= $3
	`
	if err := r.db.GetContext(ctx, &count, query, orgID, since, until); err != nil {
		return 0, err
	}
	return count, nil
}

// GetByID gets a profile by ID
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	var p domain.Profile
	query := `SELECT id, organization_id, role, is_active, last_login FROM profiles WHERE id = $1`
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("profile")
		}
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}
	return &p, nil
}
