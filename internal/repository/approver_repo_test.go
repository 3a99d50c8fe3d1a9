package repository_test

import (
	"context"
	"testing"

	"campus-backend/internal/database"
	"campus-backend/internal/model"
	"campus-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username, role string) *model.User {
	t.Helper()
	user := &model.User{
		Username: username,
		Email:    username + "@campus.edu",
		Phone:    "000",
		Password: "hashed",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestApproverLoadCounters(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewApproverRepository(db)
	ctx := context.Background()

	teacher := seedUser(t, db, "prof.bob", model.RoleTeacher)
	require.NoError(t, repo.Upsert(ctx, &model.ApproverAssignment{Level: 1, UserID: teacher.ID}))

	require.NoError(t, repo.IncrementLoad(ctx, teacher.ID, 1))
	require.NoError(t, repo.IncrementLoad(ctx, teacher.ID, 1))

	assignment, err := repo.FindByLevelAndUser(ctx, 1, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, assignment.PendingCount)

	require.NoError(t, repo.DecrementLoad(ctx, teacher.ID, 1))
	require.NoError(t, repo.DecrementLoad(ctx, teacher.ID, 1))
	// Floored at zero: a stray extra decrement is a no-op.
	require.NoError(t, repo.DecrementLoad(ctx, teacher.ID, 1))

	assignment, err = repo.FindByLevelAndUser(ctx, 1, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, assignment.PendingCount)
}

func TestApproverUpsertKeepsLoad(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewApproverRepository(db)
	ctx := context.Background()

	teacher := seedUser(t, db, "prof.bob", model.RoleTeacher)
	require.NoError(t, repo.Upsert(ctx, &model.ApproverAssignment{Level: 1, UserID: teacher.ID}))
	require.NoError(t, repo.IncrementLoad(ctx, teacher.ID, 1))

	// Re-adding the same user to the same level must not reset the counter
	// or create a second row.
	require.NoError(t, repo.Upsert(ctx, &model.ApproverAssignment{Level: 1, UserID: teacher.ID}))

	assignments, err := repo.FindByLevel(ctx, 1)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, 1, assignments[0].PendingCount)
}

func TestFindByLevelOrdersByLoad(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewApproverRepository(db)
	ctx := context.Background()

	busy := seedUser(t, db, "prof.busy", model.RoleTeacher)
	idle := seedUser(t, db, "prof.idle", model.RoleTeacher)
	require.NoError(t, repo.Upsert(ctx, &model.ApproverAssignment{Level: 1, UserID: busy.ID, PendingCount: 3}))
	require.NoError(t, repo.Upsert(ctx, &model.ApproverAssignment{Level: 1, UserID: idle.ID}))

	assignments, err := repo.FindByLevel(ctx, 1)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, idle.ID, assignments[0].UserID)
	require.NotNil(t, assignments[0].User)
	assert.Equal(t, "prof.idle", assignments[0].User.Username)
}

func TestRemoveApprover(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewApproverRepository(db)
	ctx := context.Background()

	teacher := seedUser(t, db, "prof.bob", model.RoleTeacher)
	require.NoError(t, repo.Upsert(ctx, &model.ApproverAssignment{Level: 1, UserID: teacher.ID}))
	require.NoError(t, repo.Remove(ctx, 1, teacher.ID))

	_, err := repo.FindByLevelAndUser(ctx, 1, teacher.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRemoveUnknownApproverIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewApproverRepository(db)

	assert.NoError(t, repo.Remove(context.Background(), 1, uuid.New()))
}
