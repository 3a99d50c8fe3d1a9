package notify

import (
	"context"
	"encoding/json"
	"log"

	"campus-backend/internal/model"
	"campus-backend/internal/repository"
	"campus-backend/internal/websocket"

	"github.com/google/uuid"
)

// Notifier is the engine's outbound notification port. Implementations are
// best-effort: they log failures and never return them, so a broken delivery
// channel can never fail an approval transition.
type Notifier interface {
	Notify(ctx context.Context, targetUserID *uuid.UUID, targetRole, title, body, referenceKind, referenceID string)
}

// HubNotifier persists a Notification row and pushes a JSON copy to connected
// websocket clients through the hub.
type HubNotifier struct {
	repo repository.NotificationRepository
	hub  *websocket.Hub
}

func NewHubNotifier(repo repository.NotificationRepository, hub *websocket.Hub) *HubNotifier {
	return &HubNotifier{repo: repo, hub: hub}
}

func (n *HubNotifier) Notify(ctx context.Context, targetUserID *uuid.UUID, targetRole, title, body, referenceKind, referenceID string) {
	notification := &model.Notification{
		TargetUserID:  targetUserID,
		TargetRole:    targetRole,
		Title:         title,
		Body:          body,
		ReferenceKind: referenceKind,
		ReferenceID:   referenceID,
	}

	if err := n.repo.Create(ctx, notification); err != nil {
		log.Printf("notification: failed to persist %q for ref %s/%s: %v", title, referenceKind, referenceID, err)
		return
	}

	if n.hub == nil {
		return
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		log.Printf("notification: failed to marshal %q: %v", title, err)
		return
	}

	// Never block an approval call on a slow hub.
	select {
	case n.hub.Broadcast <- payload:
	default:
		log.Printf("notification: hub busy, dropped websocket push for ref %s/%s", referenceKind, referenceID)
	}
}
