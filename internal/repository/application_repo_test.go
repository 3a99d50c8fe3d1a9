package repository_test

import (
	"context"
	"testing"
	"time"

	"campus-backend/internal/model"
	"campus-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedApplication(t *testing.T, db *gorm.DB, status string, deadline time.Time) *model.Application {
	t.Helper()
	app := &model.Application{
		Kind:         model.KindScholarship,
		Title:        "test",
		Payload:      "{}",
		Status:       status,
		CurrentLevel: 1,
		MaxLevel:     3,
		SubmittedBy:  uuid.New(),
		Deadline:     deadline,
	}
	require.NoError(t, db.Create(app).Error)
	return app
}

func TestUpdateVersionedGuardsConcurrentWriters(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewApplicationRepository(db)
	ctx := context.Background()

	app := seedApplication(t, db, model.StatusPending, time.Now().Add(24*time.Hour))

	affected, err := repo.UpdateVersioned(ctx, app.ID, app.Version, map[string]interface{}{
		"current_level": 2,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	// The same stale version loses the race.
	affected, err = repo.UpdateVersioned(ctx, app.ID, app.Version, map[string]interface{}{
		"status": model.StatusRejected,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 0, affected)

	reloaded, err := repo.FindByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.CurrentLevel)
	assert.Equal(t, model.StatusPending, reloaded.Status)
	assert.Equal(t, app.Version+1, reloaded.Version)
}

func TestFindOverdueAndUpcoming(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewApplicationRepository(db)
	ctx := context.Background()
	now := time.Now()

	past := seedApplication(t, db, model.StatusPending, now.Add(-2*time.Hour))
	soon := seedApplication(t, db, model.StatusPending, now.Add(6*time.Hour))
	seedApplication(t, db, model.StatusPending, now.Add(80*time.Hour))
	seedApplication(t, db, model.StatusApproved, now.Add(-2*time.Hour))

	overdue, err := repo.FindOverdue(ctx, now, 100)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, past.ID, overdue[0].ID)

	upcoming, err := repo.FindDeadlineWithin(ctx, now, 24*time.Hour, 100)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, soon.ID, upcoming[0].ID)
}

func TestMarkOverdue(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewApplicationRepository(db)
	ctx := context.Background()

	app := seedApplication(t, db, model.StatusPending, time.Now().Add(-time.Hour))
	require.NoError(t, repo.MarkOverdue(ctx, app.ID))

	reloaded, err := repo.FindByID(ctx, app.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsOverdue)
}

func TestListFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewApplicationRepository(db)
	ctx := context.Background()

	submitter := uuid.New()
	approver := uuid.New()
	mine := &model.Application{
		Kind: model.KindRefund, Title: "mine", Payload: "{}",
		Status: model.StatusPending, CurrentLevel: 1, MaxLevel: 2,
		SubmittedBy: submitter, CurrentApproverID: &approver,
		Deadline: time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, db.Create(mine).Error)
	seedApplication(t, db, model.StatusRejected, time.Now())

	byStatus, total, err := repo.List(ctx, repository.ApplicationFilter{Status: model.StatusPending, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, byStatus, 1)
	assert.Equal(t, mine.ID, byStatus[0].ID)

	byKind, _, err := repo.List(ctx, repository.ApplicationFilter{Kind: model.KindRefund, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, byKind, 1)

	bySubmitter, _, err := repo.List(ctx, repository.ApplicationFilter{SubmittedBy: &submitter, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, bySubmitter, 1)

	byApprover, _, err := repo.List(ctx, repository.ApplicationFilter{ApproverID: &approver, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, byApprover, 1)
}
