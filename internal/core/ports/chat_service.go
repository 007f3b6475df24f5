package ports

import (
	"context"

	"github.com/krush/market-core/internal/core/domain"
)

// ChatService is the chat room registry and message log.
type ChatService interface {
	GetOrCreateRoom(ctx context.Context, productID string, actor domain.Actor) (*domain.ChatRoom, error)
	GetRoom(ctx context.Context, roomID string, actor domain.Actor) (*domain.ChatRoom, error)
	ListRooms(ctx context.Context, actor domain.Actor) ([]*domain.ChatRoom, error)
	AppendMessage(ctx context.Context, roomID string, actor domain.Actor, content string) (*domain.ChatRoom, error)
}
