package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/krush/market-core/internal/core/domain"
	"github.com/krush/market-core/internal/core/ports"
	"github.com/krush/market-core/internal/pkg/metrics"
)

const (
	defaultFanoutConcurrency = 8
	chatNotificationTitle    = "새 메시지"
)

// FanoutEngine writes notifications for chat messages and product changes.
// Each recipient's write is independent: one failure never blocks the rest.
type FanoutEngine struct {
	notifications ports.NotificationRepository
	likes         ports.LikeRepository
	log           zerolog.Logger
	concurrency   int
	now           func() time.Time
	printer       *message.Printer
}

// NewFanoutEngine returns a FanoutEngine. concurrency bounds parallel writes
// per product change; values <= 0 use the default.
func NewFanoutEngine(notifications ports.NotificationRepository, likes ports.LikeRepository, concurrency int, log zerolog.Logger) *FanoutEngine {
	if concurrency <= 0 {
		concurrency = defaultFanoutConcurrency
	}
	return &FanoutEngine{
		notifications: notifications,
		likes:         likes,
		log:           log,
		concurrency:   concurrency,
		now:           func() time.Time { return time.Now().UTC() },
		printer:       message.NewPrinter(language.Korean),
	}
}

// NotifyChat writes a single chat notification to the party of room that did
// not send msg.
func (e *FanoutEngine) NotifyChat(ctx context.Context, room *domain.ChatRoom, msg domain.Message) error {
	start := time.Now()
	defer func() {
		metrics.FanoutDuration.WithLabelValues("chat").Observe(time.Since(start).Seconds())
	}()

	recipient := room.Counterpart(msg.SenderID)
	if recipient == "" {
		return fmt.Errorf("notify chat: sender %s is not in room %s: %w", msg.SenderID, room.ID, domain.ErrForbidden)
	}

	n := &domain.Notification{
		RecipientID: recipient,
		Kind:        domain.KindChat,
		Title:       chatNotificationTitle,
		Message:     msg.Content,
		ProductID:   room.ProductID,
		ChatRoomID:  room.ID,
		CreatedAt:   e.now(),
	}
	if err := e.notifications.Insert(ctx, n); err != nil {
		metrics.NotificationsFailedTotal.WithLabelValues(string(domain.KindChat)).Inc()
		return fmt.Errorf("notify chat: %w: %w", domain.ErrTransient, err)
	}

	metrics.NotificationsEmittedTotal.WithLabelValues(string(domain.KindChat)).Inc()
	return nil
}

// NotifyProductChange notifies every user in the product's like-set except the
// actor. Price and status changes each produce their own notification.
func (e *FanoutEngine) NotifyProductChange(ctx context.Context, change domain.ProductChange) (int, error) {
	if !change.Changed() {
		return 0, nil
	}

	start := time.Now()
	defer func() {
		metrics.FanoutDuration.WithLabelValues("product_change").Observe(time.Since(start).Seconds())
	}()

	likers, err := e.likes.Likers(ctx, change.After.ID)
	if err != nil {
		return 0, fmt.Errorf("notify product change: load likers: %w: %w", domain.ErrTransient, err)
	}

	pending := e.productNotifications(change, recipients(likers, change.ActorID))
	if len(pending) == 0 {
		return 0, nil
	}

	var failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for _, n := range pending {
		n := n
		g.Go(func() error {
			if err := e.notifications.Insert(ctx, n); err != nil {
				failed.Add(1)
				metrics.NotificationsFailedTotal.WithLabelValues(string(n.Kind)).Inc()
				e.log.Warn().Err(err).
					Str("product_id", n.ProductID).
					Str("recipient_id", n.RecipientID).
					Str("kind", string(n.Kind)).
					Msg("notification write failed")
				return nil
			}
			metrics.NotificationsEmittedTotal.WithLabelValues(string(n.Kind)).Inc()
			return nil
		})
	}
	_ = g.Wait()

	written := len(pending) - int(failed.Load())
	if f := failed.Load(); f > 0 {
		return written, fmt.Errorf("notify product change: %d of %d writes failed: %w", f, len(pending), domain.ErrTransient)
	}
	return written, nil
}

// productNotifications builds the notifications for change, per recipient in
// price-then-status order.
func (e *FanoutEngine) productNotifications(change domain.ProductChange, to []string) []*domain.Notification {
	now := e.now()
	after := change.After

	var priceMsg, statusMsg string
	if change.PriceChanged() {
		priceMsg = e.printer.Sprintf("가격이 %d원에서 %d원으로 변경되었습니다.", change.Before.Price, after.Price)
	}
	if change.StatusChanged() {
		statusMsg = fmt.Sprintf("판매 상태가 %s에서 %s(으)로 변경되었습니다.", change.Before.Status.Label(), after.Status.Label())
	}

	out := make([]*domain.Notification, 0, 2*len(to))
	for _, userID := range to {
		if priceMsg != "" {
			out = append(out, &domain.Notification{
				RecipientID: userID,
				Kind:        domain.KindPrice,
				Title:       after.Title,
				Message:     priceMsg,
				ProductID:   after.ID,
				CreatedAt:   now,
			})
		}
		if statusMsg != "" {
			out = append(out, &domain.Notification{
				RecipientID: userID,
				Kind:        domain.KindStatus,
				Title:       after.Title,
				Message:     statusMsg,
				ProductID:   after.ID,
				CreatedAt:   now,
			})
		}
	}
	return out
}

// recipients returns the distinct likers, minus the actor, in like-set order.
func recipients(likers []string, actorID string) []string {
	seen := make(map[string]struct{}, len(likers))
	out := make([]string, 0, len(likers))
	for _, id := range likers {
		if id == "" || id == actorID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
