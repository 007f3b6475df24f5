package ports

import (
	"context"

	"github.com/krush/market-core/internal/core/domain"
)

// Notifier computes recipients for a triggering event and writes one
// notification per recipient.
type Notifier interface {
	// NotifyChat notifies the other party of room about msg.
	NotifyChat(ctx context.Context, room *domain.ChatRoom, msg domain.Message) error
	// NotifyProductChange notifies every liker except the actor, one
	// notification per changed dimension. It returns the number written.
	NotifyProductChange(ctx context.Context, change domain.ProductChange) (int, error)
}

// ProductChangeSink accepts product changes for fan-out. Implementations may
// run the fan-out inline or hand it to background workers.
type ProductChangeSink interface {
	Submit(ctx context.Context, change domain.ProductChange)
}

// ProductChangeSinkFunc adapts a function to ProductChangeSink.
type ProductChangeSinkFunc func(ctx context.Context, change domain.ProductChange)

func (f ProductChangeSinkFunc) Submit(ctx context.Context, change domain.ProductChange) {
	f(ctx, change)
}

// InboxService exposes a user's notifications.
type InboxService interface {
	List(ctx context.Context, actor domain.Actor, limit int) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, notificationID string, actor domain.Actor) (*domain.Notification, error)
	UnreadCounts(ctx context.Context, actor domain.Actor) (domain.UnreadCounts, error)
}
