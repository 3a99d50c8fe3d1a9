package workflow_test

import (
	"context"
	"testing"
	"time"

	"campus-backend/internal/model"
	"campus-backend/internal/repository"
	"campus-backend/internal/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createApplication(t *testing.T, db *gorm.DB, status string, deadline time.Time, approverID *uuid.UUID) *model.Application {
	t.Helper()
	app := &model.Application{
		Kind:              model.KindScholarship,
		Title:             "test",
		Payload:           "{}",
		Status:            status,
		CurrentLevel:      1,
		MaxLevel:          3,
		CurrentApproverID: approverID,
		SubmittedBy:       uuid.New(),
		Deadline:          deadline,
	}
	require.NoError(t, db.Create(app).Error)
	return app
}

func TestOverdueSweepFlagsOnceButKeepsReminding(t *testing.T) {
	db := newTestDB(t)
	notifier := &captureNotifier{}
	monitor := workflow.NewMonitor(repository.NewApplicationRepository(db), notifier, time.Minute)
	ctx := context.Background()

	overdue := createApplication(t, db, model.StatusPending, time.Now().Add(-48*time.Hour), nil)
	createApplication(t, db, model.StatusPending, time.Now().Add(72*time.Hour), nil)
	createApplication(t, db, model.StatusApproved, time.Now().Add(-48*time.Hour), nil)

	require.NoError(t, monitor.RunOverdueSweep(ctx))

	var reloaded model.Application
	require.NoError(t, db.First(&reloaded, "id = ?", overdue.ID).Error)
	assert.True(t, reloaded.IsOverdue)
	assert.Equal(t, []string{"Approval overdue"}, notifier.titles())

	// Second sweep leaves the flag alone but re-notifies.
	require.NoError(t, monitor.RunOverdueSweep(ctx))
	assert.Equal(t, []string{"Approval overdue", "Approval overdue reminder"}, notifier.titles())

	for _, note := range notifier.notes {
		assert.Equal(t, model.RoleAdmin, note.Role)
	}
}

func TestUpcomingSweepRemindsCurrentApprover(t *testing.T) {
	db := newTestDB(t)
	notifier := &captureNotifier{}
	monitor := workflow.NewMonitor(repository.NewApplicationRepository(db), notifier, time.Minute)
	ctx := context.Background()

	approverID := uuid.New()
	createApplication(t, db, model.StatusPending, time.Now().Add(6*time.Hour), &approverID)
	// Outside the 24h window.
	createApplication(t, db, model.StatusPending, time.Now().Add(30*time.Hour), &approverID)
	// Inside the window but approver slot is vacant: nothing to send.
	createApplication(t, db, model.StatusPending, time.Now().Add(6*time.Hour), nil)

	require.NoError(t, monitor.RunUpcomingSweep(ctx))

	require.Len(t, notifier.notes, 1)
	require.NotNil(t, notifier.notes[0].UserID)
	assert.Equal(t, approverID, *notifier.notes[0].UserID)
	assert.Equal(t, "Approval deadline approaching", notifier.notes[0].Title)
}
