package repository_test

import (
	"context"
	stderrors "errors"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/itamcloud/itam-backend/internal/healthscore/domain"
	"github.com/itamcloud/itam-backend/internal/healthscore/repository"
	"github.com/itamcloud/itam-backend/pkg/errors"
	"github.com/itamcloud/itam-backend/pkg/testutil"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

const orgID = "6f1c1b3e-5d0a-4b7e-9f43-2b1d8c7a9e10"

func TestOrganizationRepository_ListAll(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	lastActive := now.AddDate(0, 0, -3)
	mockDB.ExpectQuery("SELECT id, name, created_at, last_activity_at, health_score FROM organizations ORDER BY created_at, id").
		WillReturnRows(testutil.MockRows("id", "name", "created_at", "last_activity_at", "health_score").
			AddRow(orgID, "Acme", now.AddDate(-1, 0, 0), lastActive, 72).
			AddRow("7a2d0c4f-1e3b-4c5d-8e6f-0a1b2c3d4e5f", "Globex", now.AddDate(0, -1, 0), nil, nil))

	repo := repository.NewOrganizationRepository(mockDB.Database())
	orgs, err := repo.ListAll(context.Background())

	require.NoError(t, err)
	require.Len(t, orgs, 2)
	assert.Equal(t, "Acme", orgs[0].Name)
	require.NotNil(t, orgs[0].LastActivityAt)
	assert.True(t, lastActive.Equal(*orgs[0].LastActivityAt))
	assert.Equal(t, testutil.PtrInt(72), orgs[0].HealthScore)
	assert.Nil(t, orgs[1].LastActivityAt)
	assert.Nil(t, orgs[1].HealthScore)
	mockDB.ExpectationsWereMet(t)
}

func TestOrganizationRepository_ListAll_Error(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("FROM organizations ORDER BY").WillReturnError(stderrors.New("connection refused"))

	repo := repository.NewOrganizationRepository(mockDB.Database())
	_, err := repo.ListAll(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "list organizations")
	mockDB.ExpectationsWereMet(t)
}

func TestOrganizationRepository_GetByID_NotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("FROM organizations WHERE id = $1").
		WithArgs(orgID).
		WillReturnRows(testutil.MockRows("id", "name", "created_at", "last_activity_at", "health_score"))

	repo := repository.NewOrganizationRepository(mockDB.Database())
	_, err := repo.GetByID(context.Background(), orgID)

	assert.Equal(t, http.StatusNotFound, errors.StatusCode(err))
	mockDB.ExpectationsWereMet(t)
}

func TestOrganizationRepository_GetByID_InvalidUUID(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("FROM organizations WHERE id = $1").
		WithArgs("nope").
		WillReturnError(&pq.Error{Code: "22P02"})

	repo := repository.NewOrganizationRepository(mockDB.Database())
	_, err := repo.GetByID(context.Background(), "nope")

	assert.Equal(t, http.StatusBadRequest, errors.StatusCode(err))
	mockDB.ExpectationsWereMet(t)
}

func TestOrganizationRepository_UpdateHealthScore(t *testing.T) {
	t.Run("returns previous score", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()

		mockDB.ExpectBegin()
		mockDB.ExpectQuery("SELECT health_score FROM organizations WHERE id = $1 FOR UPDATE").
			WithArgs(orgID).
			WillReturnRows(testutil.MockRows("health_score").AddRow(55))
		mockDB.ExpectExec("UPDATE organizations SET health_score = $2 WHERE id = $1").
			WithArgs(orgID, 80).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mockDB.ExpectCommit()

		repo := repository.NewOrganizationRepository(mockDB.Database())
		prev, err := repo.UpdateHealthScore(context.Background(), orgID, 80)

		require.NoError(t, err)
		assert.Equal(t, testutil.PtrInt(55), prev)
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("never scored", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()

		mockDB.ExpectBegin()
		mockDB.ExpectQuery("FOR UPDATE").
			WithArgs(orgID).
			WillReturnRows(testutil.MockRows("health_score").AddRow(nil))
		mockDB.ExpectExec("UPDATE organizations SET health_score").
			WithArgs(orgID, 70).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mockDB.ExpectCommit()

		repo := repository.NewOrganizationRepository(mockDB.Database())
		prev, err := repo.UpdateHealthScore(context.Background(), orgID, 70)

		require.NoError(t, err)
		assert.Nil(t, prev)
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("missing organization rolls back", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()

		mockDB.ExpectBegin()
		mockDB.ExpectQuery("FOR UPDATE").
			WithArgs(orgID).
			WillReturnRows(testutil.MockRows("health_score"))
		mockDB.ExpectRollback()

		repo := repository.NewOrganizationRepository(mockDB.Database())
		_, err := repo.UpdateHealthScore(context.Background(), orgID, 70)

		assert.Equal(t, http.StatusNotFound, errors.StatusCode(err))
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("check constraint maps to validation error", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()

		mockDB.ExpectBegin()
		mockDB.ExpectQuery("FOR UPDATE").
			WithArgs(orgID).
			WillReturnRows(testutil.MockRows("health_score").AddRow(10))
		mockDB.ExpectExec("UPDATE organizations SET health_score").
			WithArgs(orgID, 101).
			WillReturnError(&pq.Error{Code: "23514", Constraint: "organizations_health_score_range"})
		mockDB.ExpectRollback()

		repo := repository.NewOrganizationRepository(mockDB.Database())
		_, err := repo.UpdateHealthScore(context.Background(), orgID, 101)

		var appErr *errors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
		mockDB.ExpectationsWereMet(t)
	})
}

func TestProfileRepository_CountRecentActiveLogins(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	since := now.AddDate(0, 0, -7)
	mockDB.ExpectQuery("SELECT COUNT(DISTINCT id) FROM profiles").
		WithArgs(orgID, testutil.AnyTime{}, testutil.AnyTime{}).
		WillReturnRows(testutil.MockRows("count").AddRow(2))

	repo := repository.NewProfileRepository(mockDB.Database())
	count, err := repo.CountRecentActiveLogins(context.Background(), orgID, since, now)

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	mockDB.ExpectationsWereMet(t)
}

func TestProfileRepository_GetByID(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	profileID := "0d9c8b7a-6f5e-4d3c-2b1a-0f9e8d7c6b5a"
	mockDB.ExpectQuery("SELECT id, organization_id, role, is_active, last_login FROM profiles WHERE id = $1").
		WithArgs(profileID).
		WillReturnRows(testutil.MockRows("id", "organization_id", "role", "is_active", "last_login").
			AddRow(profileID, nil, "super_admin", true, now))

	repo := repository.NewProfileRepository(mockDB.Database())
	p, err := repo.GetByID(context.Background(), profileID)

	require.NoError(t, err)
	assert.Equal(t, "super_admin", p.Role)
	assert.Nil(t, p.OrganizationID)
	mockDB.ExpectationsWereMet(t)
}

func TestProfileRepository_GetByID_NotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("FROM profiles WHERE id = $1").
		WillReturnRows(testutil.MockRows("id", "organization_id", "role", "is_active", "last_login"))

	repo := repository.NewProfileRepository(mockDB.Database())
	_, err := repo.GetByID(context.Background(), "0d9c8b7a-6f5e-4d3c-2b1a-0f9e8d7c6b5a")

	assert.Equal(t, http.StatusNotFound, errors.StatusCode(err))
	mockDB.ExpectationsWereMet(t)
}

func TestTicketRepository_ListStatusesSince(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT status FROM support_tickets WHERE organization_id = $1 AND created_at >= $2").
		WithArgs(orgID, testutil.AnyTime{}).
		WillReturnRows(testutil.MockRows("status").
			AddRow("resolved").
			AddRow("waiting").
			AddRow("closed"))

	repo := repository.NewTicketRepository(mockDB.Database())
	statuses, err := repo.ListStatusesSince(context.Background(), orgID, now.AddDate(0, 0, -90))

	require.NoError(t, err)
	assert.Equal(t, []domain.TicketStatus{domain.TicketStatusResolved, domain.TicketStatusWaiting, domain.TicketStatusClosed}, statuses)
	mockDB.ExpectationsWereMet(t)
}

func TestTicketRepository_ListStatusesSince_Empty(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("FROM support_tickets").
		WillReturnRows(testutil.MockRows("status"))

	repo := repository.NewTicketRepository(mockDB.Database())
	statuses, err := repo.ListStatusesSince(context.Background(), orgID, now)

	require.NoError(t, err)
	assert.Empty(t, statuses)
	mockDB.ExpectationsWereMet(t)
}
