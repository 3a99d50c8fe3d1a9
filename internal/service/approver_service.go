package service

import (
	"context"
	"encoding/json"
	"fmt"

	"campus-backend/internal/model"
	"campus-backend/internal/repository"
	"campus-backend/internal/workflow"

	"github.com/google/uuid"
)

// --- DTOs ---

type ConfigureApproverDTO struct {
	Level  int    `json:"level" binding:"required,min=1,max=3"`
	UserID string `json:"user_id" binding:"required"`
}

type UpdateDeadlineDTO struct {
	Kind         string `json:"kind" binding:"required,oneof=STATUS_CHANGE SCHOLARSHIP REFUND BOOKING DISCIPLINE_APPEAL"`
	DeadlineDays int    `json:"deadline_days" binding:"required,min=1"`
}

type ApproverResponse struct {
	Level        int    `json:"level"`
	UserID       string `json:"user_id"`
	Username     string `json:"username,omitempty"`
	Role         string `json:"role,omitempty"`
	PendingCount int    `json:"pending_count"`
}

// --- Interface ---

// ApproverService manages the per-level approver pools and the per-kind SLA
// configuration.
type ApproverService interface {
	Configure(ctx context.Context, adminID string, req ConfigureApproverDTO) error
	Remove(ctx context.Context, adminID string, level int, userID string) error
	List(ctx context.Context) ([]ApproverResponse, error)
	UpdateDeadline(ctx context.Context, adminID string, req UpdateDeadlineDTO) error
	ListConfigs(ctx context.Context) ([]model.ApprovalConfig, error)
}

type approverService struct {
	approvers repository.ApproverRepository
	users     repository.UserRepository
	configs   repository.ConfigRepository
	audit     repository.AuditRepository
}

func NewApproverService(
	approvers repository.ApproverRepository,
	users repository.UserRepository,
	configs repository.ConfigRepository,
	audit repository.AuditRepository,
) ApproverService {
	return &approverService{approvers: approvers, users: users, configs: configs, audit: audit}
}

// --- Implementation ---

func (s *approverService) Configure(ctx context.Context, adminID string, req ConfigureApproverDTO) error {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}
	if !user.IsActive {
		return fmt.Errorf("user %s is disabled", user.Username)
	}
	if len(workflow.RoleLevels(user.Role)) == 0 {
		return fmt.Errorf("role %q has no approval authority", user.Role)
	}

	if err := s.approvers.Upsert(ctx, &model.ApproverAssignment{
		Level:  req.Level,
		UserID: userID,
	}); err != nil {
		return err
	}

	return s.logAudit(ctx, adminID, model.ActionConfigureApprover, req.UserID, user.Username, map[string]interface{}{
		"level": req.Level,
	})
}

func (s *approverService) Remove(ctx context.Context, adminID string, level int, userID string) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	if err := s.approvers.Remove(ctx, level, id); err != nil {
		return err
	}

	return s.logAudit(ctx, adminID, model.ActionRemoveApprover, userID, "", map[string]interface{}{
		"level": level,
	})
}

func (s *approverService) List(ctx context.Context) ([]ApproverResponse, error) {
	assignments, err := s.approvers.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]ApproverResponse, 0, len(assignments))
	for _, a := range assignments {
		item := ApproverResponse{
			Level:        a.Level,
			UserID:       a.UserID.String(),
			PendingCount: a.PendingCount,
		}
		if a.User != nil {
			item.Username = a.User.Username
			item.Role = a.User.Role
		}
		result = append(result, item)
	}
	return result, nil
}

func (s *approverService) UpdateDeadline(ctx context.Context, adminID string, req UpdateDeadlineDTO) error {
	if err := s.configs.Upsert(ctx, &model.ApprovalConfig{
		Kind:         req.Kind,
		DeadlineDays: req.DeadlineDays,
	}); err != nil {
		return err
	}

	return s.logAudit(ctx, adminID, model.ActionUpdateDeadline, req.Kind, req.Kind, map[string]interface{}{
		"deadline_days": req.DeadlineDays,
	})
}

func (s *approverService) ListConfigs(ctx context.Context) ([]model.ApprovalConfig, error) {
	return s.configs.ListAll(ctx)
}

func (s *approverService) logAudit(ctx context.Context, adminID, action, entityID, entityName string, details map[string]interface{}) error {
	var userID *uuid.UUID
	if parsed, err := uuid.Parse(adminID); err == nil {
		userID = &parsed
	}
	raw, _ := json.Marshal(details)
	return s.audit.Log(ctx, &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(raw),
	})
}
