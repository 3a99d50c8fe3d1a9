package service

import (
	"context"
	"fmt"

	"campus-backend/internal/repository"

	"github.com/google/uuid"
)

type NotificationResponse struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Body          string `json:"body"`
	ReferenceKind string `json:"reference_kind"`
	ReferenceID   string `json:"reference_id"`
	IsRead        bool   `json:"is_read"`
	CreatedAt     string `json:"created_at"`
}

type NotificationService interface {
	ListForUser(ctx context.Context, userID, role string, page, limit int) ([]NotificationResponse, int64, error)
	MarkRead(ctx context.Context, id string) error
}

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) ListForUser(ctx context.Context, userID, role string, page, limit int) ([]NotificationResponse, int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid user id: %w", err)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	notifications, total, err := s.repo.ListForUser(ctx, uid, role, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		result = append(result, NotificationResponse{
			ID:            n.ID.String(),
			Title:         n.Title,
			Body:          n.Body,
			ReferenceKind: n.ReferenceKind,
			ReferenceID:   n.ReferenceID,
			IsRead:        n.IsRead,
			CreatedAt:     n.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return result, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id string) error {
	nid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid notification id: %w", err)
	}
	return s.repo.MarkRead(ctx, nid)
}
