package ports

import (
	"context"

	"github.com/krush/market-core/internal/core/domain"
)

// NotificationRepository persists inbox entries.
type NotificationRepository interface {
	// Insert stores n and sets its ID.
	Insert(ctx context.Context, n *domain.Notification) error
	// ListByRecipient returns at most limit notifications, newest first.
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*domain.Notification, error)
	// MarkRead flips the read flag of a notification owned by recipientID.
	// It returns domain.ErrNotFound when the id is unknown or owned by someone else.
	MarkRead(ctx context.Context, notificationID, recipientID string) (*domain.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (domain.UnreadCounts, error)
}
