package service

import (
	"context"
	"fmt"

	"github.com/krush/market-core/internal/core/domain"
	"github.com/krush/market-core/internal/core/ports"
)

// InboxService serves a user's notifications. All reads are side-effect free
// so clients can poll them.
type InboxService struct {
	repo     ports.NotificationRepository
	maxLimit int
}

// NewInboxService returns an InboxService whose listings never exceed maxLimit
// entries. maxLimit <= 0 falls back to domain.DefaultInboxLimit.
func NewInboxService(repo ports.NotificationRepository, maxLimit int) *InboxService {
	if maxLimit <= 0 {
		maxLimit = domain.DefaultInboxLimit
	}
	return &InboxService{repo: repo, maxLimit: maxLimit}
}

// List returns the actor's most recent notifications. A limit outside
// (0, maxLimit] is clamped to maxLimit.
func (s *InboxService) List(ctx context.Context, actor domain.Actor, limit int) ([]*domain.Notification, error) {
	if actor.Anonymous() {
		return nil, domain.ErrUnauthorized
	}
	if limit <= 0 || limit > s.maxLimit {
		limit = s.maxLimit
	}

	items, err := s.repo.ListByRecipient(ctx, actor.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

// MarkRead flags one of the actor's notifications as read. Another user's
// notification is reported as not found.
func (s *InboxService) MarkRead(ctx context.Context, notificationID string, actor domain.Actor) (*domain.Notification, error) {
	if actor.Anonymous() {
		return nil, domain.ErrUnauthorized
	}

	n, err := s.repo.MarkRead(ctx, notificationID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("mark notification %s read: %w", notificationID, err)
	}
	return n, nil
}

// UnreadCounts returns per-kind unread totals for the actor.
func (s *InboxService) UnreadCounts(ctx context.Context, actor domain.Actor) (domain.UnreadCounts, error) {
	if actor.Anonymous() {
		return domain.UnreadCounts{}, domain.ErrUnauthorized
	}

	counts, err := s.repo.CountUnread(ctx, actor.ID)
	if err != nil {
		return domain.UnreadCounts{}, fmt.Errorf("count unread: %w", err)
	}
	return counts, nil
}
