package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krush/market-core/internal/core/domain"
)

func seedNotifications(repo *stubNotificationRepo, recipient string, n int, kind domain.NotificationKind) {
	for i := 0; i < n; i++ {
		_ = repo.Insert(context.Background(), &domain.Notification{
			RecipientID: recipient,
			Kind:        kind,
			Title:       fmt.Sprintf("t%d", i),
			ProductID:   "prod-1",
		})
	}
}

func TestInboxService_List_NewestFirstAndBounded(t *testing.T) {
	repo := newStubNotificationRepo()
	seedNotifications(repo, buyerA.ID, 5, domain.KindPrice)
	seedNotifications(repo, buyerB.ID, 2, domain.KindPrice)
	svc := NewInboxService(repo, 3)

	items, err := svc.List(context.Background(), buyerA, 0)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "t4", items[0].Title)
	assert.Equal(t, "t2", items[2].Title)

	items, err = svc.List(context.Background(), buyerA, 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = svc.List(context.Background(), buyerA, 500)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestInboxService_DefaultLimit(t *testing.T) {
	svc := NewInboxService(newStubNotificationRepo(), 0)
	assert.Equal(t, domain.DefaultInboxLimit, svc.maxLimit)
}

func TestInboxService_MarkRead(t *testing.T) {
	repo := newStubNotificationRepo()
	seedNotifications(repo, buyerA.ID, 1, domain.KindChat)
	svc := NewInboxService(repo, 0)
	id := repo.forRecipient(buyerA.ID)[0].ID

	n, err := svc.MarkRead(context.Background(), id, buyerA)
	require.NoError(t, err)
	assert.True(t, n.Read)

	// Marking twice is harmless.
	n, err = svc.MarkRead(context.Background(), id, buyerA)
	require.NoError(t, err)
	assert.True(t, n.Read)
}

func TestInboxService_MarkRead_OtherUsersNotificationIsNotFound(t *testing.T) {
	repo := newStubNotificationRepo()
	seedNotifications(repo, buyerA.ID, 1, domain.KindChat)
	svc := NewInboxService(repo, 0)
	id := repo.forRecipient(buyerA.ID)[0].ID

	_, err := svc.MarkRead(context.Background(), id, buyerB)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotErrorIs(t, err, domain.ErrForbidden)
	assert.False(t, repo.forRecipient(buyerA.ID)[0].Read)

	_, err = svc.MarkRead(context.Background(), "n-999", buyerB)
	assert.Equal(t, domain.CodeNotFound, domain.Code(err))
}

func TestInboxService_UnreadCounts(t *testing.T) {
	repo := newStubNotificationRepo()
	seedNotifications(repo, buyerA.ID, 2, domain.KindChat)
	seedNotifications(repo, buyerA.ID, 1, domain.KindStatus)
	svc := NewInboxService(repo, 0)

	counts, err := svc.UnreadCounts(context.Background(), buyerA)
	require.NoError(t, err)
	assert.Equal(t, domain.UnreadCounts{Chat: 2, Status: 1}, counts)

	_, err = svc.MarkRead(context.Background(), repo.forRecipient(buyerA.ID)[0].ID, buyerA)
	require.NoError(t, err)

	counts, err = svc.UnreadCounts(context.Background(), buyerA)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Chat)
	assert.Equal(t, 2, counts.Total())
}

func TestInboxService_RequiresActor(t *testing.T) {
	svc := NewInboxService(newStubNotificationRepo(), 0)

	_, err := svc.List(context.Background(), domain.Actor{}, 10)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = svc.MarkRead(context.Background(), "n-1", domain.Actor{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = svc.UnreadCounts(context.Background(), domain.Actor{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
