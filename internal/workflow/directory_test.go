package workflow_test

import (
	"context"
	"testing"

	"campus-backend/internal/model"
	"campus-backend/internal/repository"
	"campus-backend/internal/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}

func TestAssignPicksLeastLoadedApprover(t *testing.T) {
	db := newTestDB(t)
	busy := createUser(t, db, "prof.busy", model.RoleTeacher)
	idle := createUser(t, db, "prof.idle", model.RoleTeacher)

	require.NoError(t, db.Create(&model.ApproverAssignment{Level: 1, UserID: busy.ID, PendingCount: 4}).Error)
	require.NoError(t, db.Create(&model.ApproverAssignment{Level: 1, UserID: idle.ID, PendingCount: 0}).Error)

	directory := workflow.NewDirectory(repository.NewApproverRepository(db), repository.NewUserRepository(db))
	picked, err := directory.Assign(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, picked)
	assert.Equal(t, idle.ID, picked.ID)
}

func TestAssignSkipsInactivePoolMembers(t *testing.T) {
	db := newTestDB(t)
	disabled := createUser(t, db, "prof.gone", model.RoleTeacher)
	require.NoError(t, db.Model(disabled).Update("is_active", false).Error)
	active := createUser(t, db, "prof.here", model.RoleTeacher)

	require.NoError(t, db.Create(&model.ApproverAssignment{Level: 1, UserID: disabled.ID, PendingCount: 0}).Error)
	require.NoError(t, db.Create(&model.ApproverAssignment{Level: 1, UserID: active.ID, PendingCount: 9}).Error)

	directory := workflow.NewDirectory(repository.NewApproverRepository(db), repository.NewUserRepository(db))
	picked, err := directory.Assign(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, picked)
	assert.Equal(t, active.ID, picked.ID)
}

func TestAssignFallsBackToRoleHolder(t *testing.T) {
	db := newTestDB(t)
	// No pool configured for level 2, but a dean exists.
	dean := createUser(t, db, "dean.carol", model.RoleDean)

	directory := workflow.NewDirectory(repository.NewApproverRepository(db), repository.NewUserRepository(db))
	picked, err := directory.Assign(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, picked)
	assert.Equal(t, dean.ID, picked.ID)
}

func TestAssignReturnsNilWhenNobodyEligible(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "alice", model.RoleStudent)

	directory := workflow.NewDirectory(repository.NewApproverRepository(db), repository.NewUserRepository(db))
	picked, err := directory.Assign(context.Background(), 3)
	require.NoError(t, err)
	assert.Nil(t, picked)
}

func TestHasPermission(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	student := createUser(t, db, "alice", model.RoleStudent)
	teacher := createUser(t, db, "prof.bob", model.RoleTeacher)
	admin := createUser(t, db, "admin.dave", model.RoleAdmin)
	inactive := createUser(t, db, "dean.gone", model.RoleDean)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	// A student explicitly placed in a pool may approve there despite the role.
	poolStudent := createUser(t, db, "ta.eve", model.RoleStudent)
	assignApprover(t, db, 2, poolStudent.ID)

	directory := workflow.NewDirectory(repository.NewApproverRepository(db), repository.NewUserRepository(db))

	appAt := func(level int) *model.Application {
		return &model.Application{CurrentLevel: level}
	}

	cases := []struct {
		name    string
		userID  string
		level   int
		allowed bool
	}{
		{"teacher at level 1 via role", teacher.ID.String(), 1, true},
		{"teacher at level 2 denied", teacher.ID.String(), 2, false},
		{"admin covers level 2", admin.ID.String(), 2, true},
		{"admin covers level 3", admin.ID.String(), 3, true},
		{"admin has no level 1 authority", admin.ID.String(), 1, false},
		{"student denied", student.ID.String(), 1, false},
		{"pool assignment overrides role", poolStudent.ID.String(), 2, true},
		{"inactive dean denied", inactive.ID.String(), 2, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uid := mustParseUUID(t, tc.userID)
			allowed, err := directory.HasPermission(ctx, appAt(tc.level), uid)
			require.NoError(t, err)
			assert.Equal(t, tc.allowed, allowed)
		})
	}
}

func TestRoleLevelsMapping(t *testing.T) {
	assert.Equal(t, []int{1}, workflow.RoleLevels(model.RoleTeacher))
	assert.Equal(t, []int{2}, workflow.RoleLevels(model.RoleDean))
	assert.Equal(t, []int{2, 3}, workflow.RoleLevels(model.RoleAdmin))
	assert.Empty(t, workflow.RoleLevels(model.RoleStudent))
	assert.Nil(t, workflow.RoleLevels("registrar"))

	assert.True(t, workflow.RoleCoversLevel(model.RoleAdmin, 3))
	assert.False(t, workflow.RoleCoversLevel(model.RoleTeacher, 3))
}
