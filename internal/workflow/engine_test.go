package workflow_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"campus-backend/internal/database"
	"campus-backend/internal/model"
	"campus-backend/internal/repository"
	"campus-backend/internal/strategy"
	"campus-backend/internal/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// capturedNote records one Notify call for assertions.
type capturedNote struct {
	UserID *uuid.UUID
	Role   string
	Title  string
}

type captureNotifier struct {
	mu    sync.Mutex
	notes []capturedNote
}

func (n *captureNotifier) Notify(_ context.Context, targetUserID *uuid.UUID, targetRole, title, _, _, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, capturedNote{UserID: targetUserID, Role: targetRole, Title: title})
}

func (n *captureNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.notes))
	for _, note := range n.notes {
		out = append(out, note.Title)
	}
	return out
}

type engineFixture struct {
	db        *gorm.DB
	engine    *workflow.Engine
	notifier  *captureNotifier
	approvers repository.ApproverRepository
	records   repository.RecordRepository
	apps      repository.ApplicationRepository

	student *model.User
	teacher *model.User
	dean    *model.User
	admin   *model.User
	subject *model.Student
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username, role string) *model.User {
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

func assignApprover(t *testing.T, db *gorm.DB, level int, userID uuid.UUID) {
	t.Helper()
	require.NoError(t, db.Create(&model.ApproverAssignment{Level: level, UserID: userID}).Error)
}

// newEngineFixture wires a full engine against an in-memory database with one
// approver configured per level and a student record to operate on.
func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	db := newTestDB(t)

	f := &engineFixture{
		db:        db,
		notifier:  &captureNotifier{},
		approvers: repository.NewApproverRepository(db),
		records:   repository.NewRecordRepository(db),
		apps:      repository.NewApplicationRepository(db),
	}

	f.student = createUser(t, db, "alice", model.RoleStudent)
	f.teacher = createUser(t, db, "prof.bob", model.RoleTeacher)
	f.dean = createUser(t, db, "dean.carol", model.RoleDean)
	f.admin = createUser(t, db, "admin.dave", model.RoleAdmin)

	assignApprover(t, db, 1, f.teacher.ID)
	assignApprover(t, db, 2, f.dean.ID)
	assignApprover(t, db, 3, f.admin.ID)

	f.subject = &model.Student{StudentNo: "S-1001", Name: "Alice", Status: model.StudentActive}
	require.NoError(t, db.Create(f.subject).Error)

	directory := workflow.NewDirectory(f.approvers, repository.NewUserRepository(db))
	strategies := workflow.NewStrategyRegistry(
		strategy.NewStatusChange(db),
		strategy.NewScholarship(db),
		strategy.NewRefund(db),
		strategy.NewBooking(db),
		strategy.NewDisciplineAppeal(db),
	)
	f.engine = workflow.NewEngine(
		repository.NewTransactionManager(db),
		f.apps,
		f.records,
		f.approvers,
		repository.NewConfigRepository(db),
		repository.NewAuditRepository(db),
		directory,
		strategies,
		f.notifier,
	)
	return f
}

func (f *engineFixture) submitStatusChange(t *testing.T) *model.Application {
	t.Helper()
	app, err := f.engine.Submit(context.Background(), workflow.SubmitInput{
		Kind:        model.KindStatusChange,
		Title:       "Suspend enrollment",
		Payload:     `{"student_id":"` + f.subject.ID.String() + `","new_status":"SUSPENDED","reason":"medical leave"}`,
		SubmittedBy: f.student.ID,
	})
	require.NoError(t, err)
	return app
}

func (f *engineFixture) pendingCount(t *testing.T, userID uuid.UUID, level int) int {
	t.Helper()
	var assignment model.ApproverAssignment
	require.NoError(t, f.db.First(&assignment, "user_id = ? AND level = ?", userID, level).Error)
	return assignment.PendingCount
}

func TestSubmitAssignsLevelOneApprover(t *testing.T) {
	f := newEngineFixture(t)

	app := f.submitStatusChange(t)

	assert.Equal(t, model.StatusPending, app.Status)
	assert.Equal(t, 1, app.CurrentLevel)
	assert.Equal(t, 3, app.MaxLevel)
	require.NotNil(t, app.CurrentApproverID)
	assert.Equal(t, f.teacher.ID, *app.CurrentApproverID)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, model.DefaultDeadlineDays), app.Deadline, time.Minute)

	assert.Equal(t, 1, f.pendingCount(t, f.teacher.ID, 1))
	assert.Contains(t, f.notifier.titles(), "Approval requested")
}

func TestSubmitUnknownKindFails(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.Submit(context.Background(), workflow.SubmitInput{
		Kind:        "VACATION",
		Title:       "nope",
		Payload:     `{}`,
		SubmittedBy: f.student.ID,
	})
	assert.ErrorIs(t, err, workflow.ErrUnknownKind)
}

func TestSubmitWithNobodyToApproveFails(t *testing.T) {
	db := newTestDB(t)
	student := createUser(t, db, "alice", model.RoleStudent)
	subject := &model.Student{StudentNo: "S-1", Name: "Alice", Status: model.StudentActive}
	require.NoError(t, db.Create(subject).Error)

	engine := workflow.NewEngine(
		repository.NewTransactionManager(db),
		repository.NewApplicationRepository(db),
		repository.NewRecordRepository(db),
		repository.NewApproverRepository(db),
		repository.NewConfigRepository(db),
		repository.NewAuditRepository(db),
		workflow.NewDirectory(repository.NewApproverRepository(db), repository.NewUserRepository(db)),
		workflow.NewStrategyRegistry(strategy.NewStatusChange(db)),
		nil,
	)

	// No pool and no teacher anywhere: level 1 cannot be staffed.
	_, err := engine.Submit(context.Background(), workflow.SubmitInput{
		Kind:        model.KindStatusChange,
		Title:       "Suspend",
		Payload:     `{"student_id":"` + subject.ID.String() + `","new_status":"SUSPENDED","reason":"x"}`,
		SubmittedBy: student.ID,
	})
	assert.ErrorIs(t, err, workflow.ErrConfigurationMissing)

	// Nothing may be left behind from the rolled-back submit.
	var count int64
	require.NoError(t, db.Model(&model.Application{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestFullThreeLevelApproval(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	app := f.submitStatusChange(t)

	app2, err := f.engine.Decide(ctx, app.ID, f.teacher.ID, model.ActionApprove, "looks fine")
	require.NoError(t, err)
	assert.Equal(t, 2, app2.CurrentLevel)
	require.NotNil(t, app2.CurrentApproverID)
	assert.Equal(t, f.dean.ID, *app2.CurrentApproverID)
	assert.Equal(t, 0, f.pendingCount(t, f.teacher.ID, 1))
	assert.Equal(t, 1, f.pendingCount(t, f.dean.ID, 2))

	app3, err := f.engine.Decide(ctx, app.ID, f.dean.ID, model.ActionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, 3, app3.CurrentLevel)

	final, err := f.engine.Decide(ctx, app.ID, f.admin.ID, model.ActionApprove, "granted")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, final.Status)
	assert.Nil(t, final.CurrentApproverID)
	require.NotNil(t, final.DecidedAt)

	// Side effect ran exactly once: the student is suspended.
	var subject model.Student
	require.NoError(t, f.db.First(&subject, "id = ?", f.subject.ID).Error)
	assert.Equal(t, model.StudentSuspended, subject.Status)

	history, err := f.engine.History(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 1, history[0].Level)
	assert.Equal(t, 2, history[1].Level)
	assert.Equal(t, 3, history[2].Level)
	for _, rec := range history {
		assert.Equal(t, model.ActionApprove, rec.Action)
	}
}

func TestTwoLevelRefundIssuesVoucher(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	app, err := f.engine.Submit(ctx, workflow.SubmitInput{
		Kind:        model.KindRefund,
		Title:       "Tuition refund",
		Payload:     `{"student_id":"` + f.subject.ID.String() + `","amount":"1250.50","reason":"course cancelled"}`,
		SubmittedBy: f.student.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, app.MaxLevel)

	_, err = f.engine.Decide(ctx, app.ID, f.teacher.ID, model.ActionApprove, "")
	require.NoError(t, err)
	final, err := f.engine.Decide(ctx, app.ID, f.dean.ID, model.ActionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, final.Status)

	var voucher model.RefundVoucher
	require.NoError(t, f.db.First(&voucher, "application_id = ?", app.ID).Error)
	assert.True(t, strings.HasPrefix(voucher.VoucherNo, "RFD-"), "voucher no %q", voucher.VoucherNo)
	assert.Equal(t, "1250.5", voucher.Amount.String())
}

func TestRejectIsTerminal(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	app := f.submitStatusChange(t)

	_, err := f.engine.Decide(ctx, app.ID, f.teacher.ID, model.ActionApprove, "")
	require.NoError(t, err)

	rejected, err := f.engine.Decide(ctx, app.ID, f.dean.ID, model.ActionReject, "insufficient documentation")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, rejected.Status)
	assert.Nil(t, rejected.CurrentApproverID)
	require.NotNil(t, rejected.DecidedAt)
	assert.Equal(t, 0, f.pendingCount(t, f.dean.ID, 2))

	// The side effect must not have run.
	var subject model.Student
	require.NoError(t, f.db.First(&subject, "id = ?", f.subject.ID).Error)
	assert.Equal(t, model.StudentActive, subject.Status)

	// No further decisions on a terminal application.
	_, err = f.engine.Decide(ctx, app.ID, f.admin.ID, model.ActionApprove, "")
	assert.ErrorIs(t, err, workflow.ErrInvalidState)
}

func TestReturnRestartsAtLevelOne(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	app := f.submitStatusChange(t)

	_, err := f.engine.Decide(ctx, app.ID, f.teacher.ID, model.ActionApprove, "")
	require.NoError(t, err)
	_, err = f.engine.Decide(ctx, app.ID, f.dean.ID, model.ActionApprove, "")
	require.NoError(t, err)

	returned, err := f.engine.Decide(ctx, app.ID, f.admin.ID, model.ActionReturn, "needs a medical certificate")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, returned.Status)
	assert.Equal(t, 1, returned.CurrentLevel)
	require.NotNil(t, returned.CurrentApproverID)
	assert.Equal(t, f.teacher.ID, *returned.CurrentApproverID)

	// The trail keeps everything from before the return.
	history, err := f.engine.History(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, model.ActionReturn, history[2].Action)

	// The return started a fresh pass, so level 1 may be decided again.
	again, err := f.engine.Decide(ctx, app.ID, f.teacher.ID, model.ActionApprove, "certificate attached")
	require.NoError(t, err)
	assert.Equal(t, 2, again.CurrentLevel)
}

func TestDuplicateLevelDecisionRejected(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	app := f.submitStatusChange(t)

	// Forge a record at the current level, as a lost race would leave behind.
	require.NoError(t, f.records.Append(ctx, &model.ApprovalRecord{
		ApplicationID: app.ID,
		Level:         1,
		ApproverID:    f.teacher.ID,
		Action:        model.ActionApprove,
		DecidedAt:     time.Now(),
	}))

	_, err := f.engine.Decide(ctx, app.ID, f.teacher.ID, model.ActionApprove, "")
	assert.ErrorIs(t, err, workflow.ErrAlreadyDecided)
}

func TestDecidePermissions(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	app := f.submitStatusChange(t)

	// The submitter cannot decide their own level.
	_, err := f.engine.Decide(ctx, app.ID, f.student.ID, model.ActionApprove, "")
	assert.ErrorIs(t, err, workflow.ErrForbidden)

	// The dean has no authority at level 1.
	_, err = f.engine.Decide(ctx, app.ID, f.dean.ID, model.ActionApprove, "")
	assert.ErrorIs(t, err, workflow.ErrForbidden)

	// Unknown application.
	_, err = f.engine.Decide(ctx, uuid.New(), f.teacher.ID, model.ActionApprove, "")
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}

func TestCancelOnlyBySubmitterWhilePending(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	app := f.submitStatusChange(t)

	_, err := f.engine.Cancel(ctx, app.ID, f.teacher.ID)
	assert.ErrorIs(t, err, workflow.ErrForbidden)

	cancelled, err := f.engine.Cancel(ctx, app.ID, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)
	assert.Nil(t, cancelled.CurrentApproverID)
	assert.Equal(t, 0, f.pendingCount(t, f.teacher.ID, 1))

	_, err = f.engine.Cancel(ctx, app.ID, f.student.ID)
	assert.ErrorIs(t, err, workflow.ErrInvalidState)
	_, err = f.engine.Decide(ctx, app.ID, f.teacher.ID, model.ActionApprove, "")
	assert.ErrorIs(t, err, workflow.ErrInvalidState)
}

func TestFinalSideEffectFailureRollsBackDecision(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	record := &model.DisciplineRecord{
		StudentID: f.subject.ID,
		Reason:    "curfew violation",
		Status:    model.DisciplineActive,
		IssuedAt:  time.Now(),
	}
	require.NoError(t, f.db.Create(record).Error)

	app, err := f.engine.Submit(ctx, workflow.SubmitInput{
		Kind:        model.KindDisciplineAppeal,
		Title:       "Appeal curfew record",
		Payload:     `{"discipline_record_id":"` + record.ID.String() + `","statement":"I was volunteering"}`,
		SubmittedBy: f.student.ID,
	})
	require.NoError(t, err)

	_, err = f.engine.Decide(ctx, app.ID, f.teacher.ID, model.ActionApprove, "")
	require.NoError(t, err)
	_, err = f.engine.Decide(ctx, app.ID, f.dean.ID, model.ActionApprove, "")
	require.NoError(t, err)

	// Revoke the record out-of-band so the final side effect must fail.
	require.NoError(t, f.db.Model(record).Update("status", model.DisciplineRevoked).Error)

	_, err = f.engine.Decide(ctx, app.ID, f.admin.ID, model.ActionApprove, "")
	require.Error(t, err)

	// The whole decision rolled back: still pending at level 3, trail unchanged.
	var reloaded model.Application
	require.NoError(t, f.db.First(&reloaded, "id = ?", app.ID).Error)
	assert.Equal(t, model.StatusPending, reloaded.Status)
	assert.Equal(t, 3, reloaded.CurrentLevel)

	history, err := f.engine.History(ctx, app.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestBookingLifecycle(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	starts := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	ends := starts.Add(2 * time.Hour)
	app, err := f.engine.Submit(ctx, workflow.SubmitInput{
		Kind:        model.KindBooking,
		Title:       "Book lecture hall",
		Payload:     `{"room_id":"HALL-3","starts_at":"` + starts.Format(time.RFC3339) + `","ends_at":"` + ends.Format(time.RFC3339) + `"}`,
		SubmittedBy: f.student.ID,
	})
	require.NoError(t, err)

	// Submission creates the booking in REQUESTED state.
	var booking model.RoomBooking
	require.NoError(t, f.db.First(&booking, "application_id = ?", app.ID).Error)
	assert.Equal(t, model.BookingRequested, booking.Status)
	assert.Equal(t, "HALL-3", booking.RoomID)

	_, err = f.engine.Decide(ctx, app.ID, f.teacher.ID, model.ActionApprove, "")
	require.NoError(t, err)
	_, err = f.engine.Decide(ctx, app.ID, f.dean.ID, model.ActionApprove, "")
	require.NoError(t, err)

	require.NoError(t, f.db.First(&booking, "application_id = ?", app.ID).Error)
	assert.Equal(t, model.BookingConfirmed, booking.Status)
}

func TestAdvanceWithoutApproverNotifiesAdmins(t *testing.T) {
	db := newTestDB(t)
	notifier := &captureNotifier{}
	student := createUser(t, db, "alice", model.RoleStudent)
	teacher := createUser(t, db, "prof.bob", model.RoleTeacher)
	assignApprover(t, db, 1, teacher.ID)
	// No level-2 pool and no dean anywhere.

	subject := &model.Student{StudentNo: "S-1", Name: "Alice", Status: model.StudentActive}
	require.NoError(t, db.Create(subject).Error)

	approverRepo := repository.NewApproverRepository(db)
	engine := workflow.NewEngine(
		repository.NewTransactionManager(db),
		repository.NewApplicationRepository(db),
		repository.NewRecordRepository(db),
		approverRepo,
		repository.NewConfigRepository(db),
		repository.NewAuditRepository(db),
		workflow.NewDirectory(approverRepo, repository.NewUserRepository(db)),
		workflow.NewStrategyRegistry(strategy.NewRefund(db)),
		notifier,
	)

	ctx := context.Background()
	app, err := engine.Submit(ctx, workflow.SubmitInput{
		Kind:        model.KindRefund,
		Title:       "Refund",
		Payload:     `{"student_id":"` + subject.ID.String() + `","amount":"10","reason":"x"}`,
		SubmittedBy: student.ID,
	})
	require.NoError(t, err)

	advanced, err := engine.Decide(ctx, app.ID, teacher.ID, model.ActionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, 2, advanced.CurrentLevel)
	assert.Nil(t, advanced.CurrentApproverID)

	found := false
	for _, note := range notifier.notes {
		if note.Role == model.RoleAdmin && note.Title == "Approver missing" {
			found = true
		}
	}
	assert.True(t, found, "admins should be asked to intervene")
}
