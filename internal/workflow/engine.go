package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"campus-backend/internal/model"
	"campus-backend/internal/notify"
	"campus-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Engine orchestrates the multi-level approval workflow shared by every
// application kind: permission checks, the state machine, approver load
// accounting, audit records and notifications. Kind-specific behavior comes
// in through the strategy registry.
type Engine struct {
	txm        repository.TransactionManager
	apps       repository.ApplicationRepository
	records    repository.RecordRepository
	approvers  repository.ApproverRepository
	configs    repository.ConfigRepository
	audit      repository.AuditRepository
	directory  *Directory
	strategies *StrategyRegistry
	notifier   notify.Notifier
}

func NewEngine(
	txm repository.TransactionManager,
	apps repository.ApplicationRepository,
	records repository.RecordRepository,
	approvers repository.ApproverRepository,
	configs repository.ConfigRepository,
	audit repository.AuditRepository,
	directory *Directory,
	strategies *StrategyRegistry,
	notifier notify.Notifier,
) *Engine {
	return &Engine{
		txm:        txm,
		apps:       apps,
		records:    records,
		approvers:  approvers,
		configs:    configs,
		audit:      audit,
		directory:  directory,
		strategies: strategies,
		notifier:   notifier,
	}
}

// SubmitInput describes a new application.
type SubmitInput struct {
	Kind        string
	Title       string
	Payload     string // JSON snapshot of the request
	SubmittedBy uuid.UUID
}

// pendingNote is a notification deferred until the transaction commits.
type pendingNote struct {
	userID  *uuid.UUID
	role    string
	title   string
	body    string
	refKind string
	refID   string
}

// Submit creates a PENDING application at level 1, assigns the least-loaded
// level-1 approver, sets the deadline from the kind's SLA and runs the
// strategy's OnSubmit hook. Fails with ErrConfigurationMissing when nobody
// can approve level 1.
func (e *Engine) Submit(ctx context.Context, in SubmitInput) (*model.Application, error) {
	strategy, err := e.strategies.ForKind(in.Kind)
	if err != nil {
		return nil, err
	}

	deadlineDays, err := e.configs.DeadlineDays(ctx, in.Kind)
	if err != nil {
		return nil, err
	}

	var app *model.Application
	var notes []pendingNote

	err = e.txm.RunInTx(ctx, func(txCtx context.Context) error {
		approver, err := e.directory.Assign(txCtx, 1)
		if err != nil {
			return err
		}
		if approver == nil {
			return ErrConfigurationMissing
		}

		app = &model.Application{
			Kind:              in.Kind,
			Title:             in.Title,
			Payload:           in.Payload,
			Status:            model.StatusPending,
			CurrentLevel:      1,
			MaxLevel:          strategy.MaxLevel(),
			CurrentApproverID: &approver.ID,
			SubmittedBy:       in.SubmittedBy,
			Deadline:          time.Now().AddDate(0, 0, deadlineDays),
		}
		if err := e.apps.Create(txCtx, app); err != nil {
			return err
		}

		if err := strategy.OnSubmit(txCtx, app); err != nil {
			return err
		}

		if err := e.approvers.IncrementLoad(txCtx, approver.ID, 1); err != nil {
			return err
		}

		if err := e.writeAudit(txCtx, &in.SubmittedBy, model.ActionSubmitApplication, app, map[string]interface{}{
			"kind":     in.Kind,
			"approver": approver.ID.String(),
		}); err != nil {
			return err
		}

		notes = append(notes, pendingNote{
			userID:  &approver.ID,
			title:   "Approval requested",
			body:    "A new " + in.Kind + " application is waiting for your review.",
			refKind: in.Kind,
			refID:   app.ID.String(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.flushNotes(ctx, notes)
	return app, nil
}

// Decide applies one approval action. The whole sequence — validation, record
// append, load adjustment, state transition and (on terminal approval) the
// kind's side effect — commits or rolls back as one transaction. The
// application row is guarded by its version column, so of two concurrent
// decisions exactly one survives.
func (e *Engine) Decide(ctx context.Context, applicationID, approverID uuid.UUID, action, comment string) (*model.Application, error) {
	var app *model.Application
	var notes []pendingNote

	err := e.txm.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		app, err = e.apps.FindByID(txCtx, applicationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if app.Status != model.StatusPending {
			return ErrInvalidState
		}

		allowed, err := e.directory.HasPermission(txCtx, app, approverID)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrForbidden
		}

		history, err := e.records.FindByApplication(txCtx, app.ID)
		if err != nil {
			return err
		}
		if levelAlreadyDecided(history, app.CurrentLevel) {
			return ErrAlreadyDecided
		}

		now := time.Now()
		record := &model.ApprovalRecord{
			ApplicationID: app.ID,
			Level:         app.CurrentLevel,
			ApproverID:    approverID,
			Action:        action,
			Comment:       comment,
			DecidedAt:     now,
		}
		if err := e.records.Append(txCtx, record); err != nil {
			return err
		}

		if app.CurrentApproverID != nil {
			if err := e.approvers.DecrementLoad(txCtx, *app.CurrentApproverID, app.CurrentLevel); err != nil {
				return err
			}
		}

		fields, auditAction, err := e.applyTransition(txCtx, app, action, now, &notes)
		if err != nil {
			return err
		}

		affected, err := e.apps.UpdateVersioned(txCtx, app.ID, app.Version, fields)
		if err != nil {
			return err
		}
		if affected == 0 {
			// A concurrent decision committed between our read and write.
			return ErrAlreadyDecided
		}

		if err := e.writeAudit(txCtx, &approverID, auditAction, app, map[string]interface{}{
			"action":  action,
			"level":   record.Level,
			"comment": comment,
		}); err != nil {
			return err
		}

		notes = append(notes, pendingNote{
			userID:  &app.SubmittedBy,
			title:   "Application " + app.Status,
			body:    "Your " + app.Kind + " application was processed at level " + itoa(record.Level) + ": " + action,
			refKind: app.Kind,
			refID:   app.ID.String(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.flushNotes(ctx, notes)
	return app, nil
}

// applyTransition mutates app in memory according to the action and returns
// the column set for the guarded update plus the audit action name.
func (e *Engine) applyTransition(ctx context.Context, app *model.Application, action string, now time.Time, notes *[]pendingNote) (map[string]interface{}, string, error) {
	switch action {
	case model.ActionApprove:
		if app.CurrentLevel < app.MaxLevel {
			return e.advanceLevel(ctx, app, app.CurrentLevel+1, notes)
		}
		return e.finalApprove(ctx, app, now)

	case model.ActionReject:
		app.Status = model.StatusRejected
		app.CurrentApproverID = nil
		app.DecidedAt = &now
		return map[string]interface{}{
			"status":              model.StatusRejected,
			"current_approver_id": nil,
			"decided_at":          now,
		}, model.ActionRejectApplication, nil

	case model.ActionReturn:
		// RETURN always restarts the chain at level 1, whatever the current
		// level. Prior records stay in the trail.
		fields, auditAction, err := e.advanceLevel(ctx, app, 1, notes)
		if err != nil {
			return nil, "", err
		}
		return fields, auditAction, nil

	default:
		return nil, "", ErrInvalidState
	}
}

// advanceLevel moves the application to the given level (forward on approve,
// back to 1 on return), reassigns an approver and resets the deadline. A level
// with nobody to approve still advances: the approver stays null, the gap is
// logged and administrators are asked to intervene.
func (e *Engine) advanceLevel(ctx context.Context, app *model.Application, level int, notes *[]pendingNote) (map[string]interface{}, string, error) {
	deadlineDays, err := e.configs.DeadlineDays(ctx, app.Kind)
	if err != nil {
		return nil, "", err
	}
	deadline := time.Now().AddDate(0, 0, deadlineDays)

	approver, err := e.directory.Assign(ctx, level)
	if err != nil {
		return nil, "", err
	}

	auditAction := model.ActionApproveLevel
	if level == 1 {
		auditAction = model.ActionReturnApplication
	}

	app.CurrentLevel = level
	app.Deadline = deadline

	fields := map[string]interface{}{
		"current_level": level,
		"deadline":      deadline,
		"status":        model.StatusPending,
	}

	if approver == nil {
		app.CurrentApproverID = nil
		fields["current_approver_id"] = nil
		log.Printf("WARNING: application %s advanced to level %d with no eligible approver", app.ID, level)
		*notes = append(*notes, pendingNote{
			role:    model.RoleAdmin,
			title:   "Approver missing",
			body:    "Application " + app.ID.String() + " reached level " + itoa(level) + " but no approver is configured. Manual intervention required.",
			refKind: app.Kind,
			refID:   app.ID.String(),
		})
		return fields, auditAction, nil
	}

	app.CurrentApproverID = &approver.ID
	fields["current_approver_id"] = approver.ID
	if err := e.approvers.IncrementLoad(ctx, approver.ID, level); err != nil {
		return nil, "", err
	}

	*notes = append(*notes, pendingNote{
		userID:  &approver.ID,
		title:   "Approval requested",
		body:    "Application " + app.ID.String() + " is waiting for your level " + itoa(level) + " review.",
		refKind: app.Kind,
		refID:   app.ID.String(),
	})
	return fields, auditAction, nil
}

// finalApprove runs the kind's side effect and marks the application
// APPROVED. Both happen in the caller's transaction: a side-effect failure
// rolls back the approval itself.
func (e *Engine) finalApprove(ctx context.Context, app *model.Application, now time.Time) (map[string]interface{}, string, error) {
	strategy, err := e.strategies.ForKind(app.Kind)
	if err != nil {
		return nil, "", err
	}

	if err := strategy.OnFinalApprove(ctx, app); err != nil {
		return nil, "", err
	}

	app.Status = model.StatusApproved
	app.CurrentApproverID = nil
	app.DecidedAt = &now

	return map[string]interface{}{
		"status":              model.StatusApproved,
		"current_approver_id": nil,
		"decided_at":          now,
	}, model.ActionFinalApprove, nil
}

// Cancel withdraws a PENDING application. Only the original submitter may
// cancel; the approval history is left untouched.
func (e *Engine) Cancel(ctx context.Context, applicationID, callerID uuid.UUID) (*model.Application, error) {
	var app *model.Application
	var notes []pendingNote

	err := e.txm.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		app, err = e.apps.FindByID(txCtx, applicationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if app.Status != model.StatusPending {
			return ErrInvalidState
		}
		if app.SubmittedBy != callerID {
			return ErrForbidden
		}

		if app.CurrentApproverID != nil {
			if err := e.approvers.DecrementLoad(txCtx, *app.CurrentApproverID, app.CurrentLevel); err != nil {
				return err
			}
			notes = append(notes, pendingNote{
				userID:  app.CurrentApproverID,
				title:   "Application cancelled",
				body:    "Application " + app.ID.String() + " was withdrawn by its submitter.",
				refKind: app.Kind,
				refID:   app.ID.String(),
			})
		}

		now := time.Now()
		affected, err := e.apps.UpdateVersioned(txCtx, app.ID, app.Version, map[string]interface{}{
			"status":              model.StatusCancelled,
			"current_approver_id": nil,
			"decided_at":          now,
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInvalidState
		}

		app.Status = model.StatusCancelled
		app.CurrentApproverID = nil
		app.DecidedAt = &now

		return e.writeAudit(txCtx, &callerID, model.ActionCancelApplication, app, nil)
	})
	if err != nil {
		return nil, err
	}

	e.flushNotes(ctx, notes)
	return app, nil
}

// History returns the full approval trail, including records from before any
// RETURN reset.
func (e *Engine) History(ctx context.Context, applicationID uuid.UUID) ([]model.ApprovalRecord, error) {
	return e.records.FindByApplication(ctx, applicationID)
}

// levelAlreadyDecided walks the trail in order and reports whether the level
// already carries a record in the current forward pass. A RETURN starts a
// fresh pass, so everything before it stops counting.
func levelAlreadyDecided(records []model.ApprovalRecord, level int) bool {
	decided := make(map[int]bool)
	for _, rec := range records {
		if rec.Action == model.ActionReturn {
			decided = make(map[int]bool)
			continue
		}
		decided[rec.Level] = true
	}
	return decided[level]
}

func (e *Engine) writeAudit(ctx context.Context, userID *uuid.UUID, action string, app *model.Application, details map[string]interface{}) error {
	payload := ""
	if details != nil {
		raw, _ := json.Marshal(details)
		payload = string(raw)
	}
	return e.audit.Log(ctx, &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   app.ID.String(),
		EntityName: app.Kind,
		Details:    payload,
	})
}

// flushNotes delivers deferred notifications after the transaction committed.
// Delivery is best-effort by contract.
func (e *Engine) flushNotes(ctx context.Context, notes []pendingNote) {
	if e.notifier == nil {
		return
	}
	for _, n := range notes {
		e.notifier.Notify(ctx, n.userID, n.role, n.title, n.body, n.refKind, n.refID)
	}
}

func itoa(level int) string {
	return strconv.Itoa(level)
}
