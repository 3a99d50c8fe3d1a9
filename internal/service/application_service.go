package service

import (
	"context"
	"fmt"
	"time"

	"campus-backend/internal/model"
	"campus-backend/internal/repository"
	"campus-backend/internal/workflow"

	"github.com/google/uuid"
)

// --- DTOs ---

type SubmitApplicationDTO struct {
	Kind    string `json:"kind" binding:"required,oneof=STATUS_CHANGE SCHOLARSHIP REFUND BOOKING DISCIPLINE_APPEAL"`
	Title   string `json:"title" binding:"required"`
	Payload string `json:"payload" binding:"required"` // JSON snapshot
}

type DecideDTO struct {
	Comment string `json:"comment"`
}

type ApplicationListFilter struct {
	Status     string
	Kind       string
	Mine       bool // submitted by the caller
	AssignedTo bool // waiting on the caller
	CallerID   string
	Page       int
	Limit      int
}

type ApplicationResponse struct {
	ID                string  `json:"id"`
	Kind              string  `json:"kind"`
	Title             string  `json:"title"`
	Payload           string  `json:"payload"`
	Status            string  `json:"status"`
	CurrentLevel      int     `json:"current_level"`
	MaxLevel          int     `json:"max_level"`
	CurrentApproverID *string `json:"current_approver_id"`
	ApproverName      string  `json:"approver_name,omitempty"`
	SubmittedBy       string  `json:"submitted_by"`
	SubmitterName     string  `json:"submitter_name,omitempty"`
	Deadline          string  `json:"deadline"`
	IsOverdue         bool    `json:"is_overdue"`
	DecidedAt         *string `json:"decided_at"`
	CreatedAt         string  `json:"created_at"`
}

type ApprovalRecordResponse struct {
	Level        int    `json:"level"`
	ApproverID   string `json:"approver_id"`
	ApproverName string `json:"approver_name,omitempty"`
	Action       string `json:"action"`
	Comment      string `json:"comment"`
	DecidedAt    string `json:"decided_at"`
}

type ApplicationDetailResponse struct {
	ApplicationResponse
	History []ApprovalRecordResponse `json:"history"`
}

// --- Interface ---

type ApplicationService interface {
	Submit(ctx context.Context, userID string, req SubmitApplicationDTO) (ApplicationResponse, error)
	List(ctx context.Context, filter ApplicationListFilter) ([]ApplicationResponse, int64, error)
	Get(ctx context.Context, id string) (ApplicationDetailResponse, error)
	Decide(ctx context.Context, id, userID, action, comment string) (ApplicationResponse, error)
	Cancel(ctx context.Context, id, userID string) (ApplicationResponse, error)
}

type applicationService struct {
	engine *workflow.Engine
	apps   repository.ApplicationRepository
}

func NewApplicationService(engine *workflow.Engine, apps repository.ApplicationRepository) ApplicationService {
	return &applicationService{engine: engine, apps: apps}
}

// --- Implementation ---

func (s *applicationService) Submit(ctx context.Context, userID string, req SubmitApplicationDTO) (ApplicationResponse, error) {
	submitterID, err := uuid.Parse(userID)
	if err != nil {
		return ApplicationResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	app, err := s.engine.Submit(ctx, workflow.SubmitInput{
		Kind:        req.Kind,
		Title:       req.Title,
		Payload:     req.Payload,
		SubmittedBy: submitterID,
	})
	if err != nil {
		return ApplicationResponse{}, err
	}

	return toApplicationResponse(app), nil
}

func (s *applicationService) List(ctx context.Context, filter ApplicationListFilter) ([]ApplicationResponse, int64, error) {
	repoFilter := repository.ApplicationFilter{
		Status: filter.Status,
		Kind:   filter.Kind,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	if repoFilter.Page <= 0 {
		repoFilter.Page = 1
	}
	if repoFilter.Limit <= 0 {
		repoFilter.Limit = 20
	}

	if filter.Mine || filter.AssignedTo {
		callerID, err := uuid.Parse(filter.CallerID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid user id: %w", err)
		}
		if filter.Mine {
			repoFilter.SubmittedBy = &callerID
		}
		if filter.AssignedTo {
			repoFilter.ApproverID = &callerID
			repoFilter.Status = model.StatusPending
		}
	}

	apps, total, err := s.apps.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}

	result := make([]ApplicationResponse, 0, len(apps))
	for i := range apps {
		result = append(result, toApplicationResponse(&apps[i]))
	}
	return result, total, nil
}

func (s *applicationService) Get(ctx context.Context, id string) (ApplicationDetailResponse, error) {
	appID, err := uuid.Parse(id)
	if err != nil {
		return ApplicationDetailResponse{}, fmt.Errorf("invalid application id: %w", err)
	}

	app, err := s.apps.FindByIDWithRelations(ctx, appID)
	if err != nil {
		return ApplicationDetailResponse{}, workflow.ErrNotFound
	}

	records, err := s.engine.History(ctx, appID)
	if err != nil {
		return ApplicationDetailResponse{}, err
	}

	detail := ApplicationDetailResponse{
		ApplicationResponse: toApplicationResponse(app),
		History:             make([]ApprovalRecordResponse, 0, len(records)),
	}
	for _, rec := range records {
		item := ApprovalRecordResponse{
			Level:      rec.Level,
			ApproverID: rec.ApproverID.String(),
			Action:     rec.Action,
			Comment:    rec.Comment,
			DecidedAt:  rec.DecidedAt.Format(time.RFC3339),
		}
		if rec.Approver != nil {
			item.ApproverName = rec.Approver.Username
		}
		detail.History = append(detail.History, item)
	}

	return detail, nil
}

func (s *applicationService) Decide(ctx context.Context, id, userID, action, comment string) (ApplicationResponse, error) {
	appID, err := uuid.Parse(id)
	if err != nil {
		return ApplicationResponse{}, fmt.Errorf("invalid application id: %w", err)
	}
	approverID, err := uuid.Parse(userID)
	if err != nil {
		return ApplicationResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	app, err := s.engine.Decide(ctx, appID, approverID, action, comment)
	if err != nil {
		return ApplicationResponse{}, err
	}
	return toApplicationResponse(app), nil
}

func (s *applicationService) Cancel(ctx context.Context, id, userID string) (ApplicationResponse, error) {
	appID, err := uuid.Parse(id)
	if err != nil {
		return ApplicationResponse{}, fmt.Errorf("invalid application id: %w", err)
	}
	callerID, err := uuid.Parse(userID)
	if err != nil {
		return ApplicationResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	app, err := s.engine.Cancel(ctx, appID, callerID)
	if err != nil {
		return ApplicationResponse{}, err
	}
	return toApplicationResponse(app), nil
}

// --- Helpers ---

func toApplicationResponse(a *model.Application) ApplicationResponse {
	resp := ApplicationResponse{
		ID:           a.ID.String(),
		Kind:         a.Kind,
		Title:        a.Title,
		Payload:      a.Payload,
		Status:       a.Status,
		CurrentLevel: a.CurrentLevel,
		MaxLevel:     a.MaxLevel,
		SubmittedBy:  a.SubmittedBy.String(),
		Deadline:     a.Deadline.Format(time.RFC3339),
		IsOverdue:    a.IsOverdue,
		CreatedAt:    a.CreatedAt.Format(time.RFC3339),
	}

	if a.CurrentApproverID != nil {
		s := a.CurrentApproverID.String()
		resp.CurrentApproverID = &s
	}
	if a.CurrentApprover != nil {
		resp.ApproverName = a.CurrentApprover.Username
	}
	if a.Submitter != nil {
		resp.SubmitterName = a.Submitter.Username
	}
	if a.DecidedAt != nil {
		s := a.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &s
	}

	return resp
}
