package ports

import (
	"context"

	"github.com/krush/market-core/internal/core/domain"
)

// RoomRepository persists chat rooms with their embedded message log.
type RoomRepository interface {
	// FindByKey returns domain.ErrNotFound when no room exists for key.
	FindByKey(ctx context.Context, key domain.RoomKey) (*domain.ChatRoom, error)
	// Insert stores a new room and sets its ID. It returns domain.ErrConflict
	// when the storage layer already holds a room for the same key.
	Insert(ctx context.Context, room *domain.ChatRoom) error
	FindByID(ctx context.Context, roomID string) (*domain.ChatRoom, error)
	// ListByParticipant returns rooms where userID is buyer or seller,
	// most recently updated first.
	ListByParticipant(ctx context.Context, userID string) ([]*domain.ChatRoom, error)
	// AppendMessage pushes msg onto the room's log, assigns msg.ID and bumps
	// the room's updated marker. It returns the room after the append.
	AppendMessage(ctx context.Context, roomID string, msg *domain.Message) (*domain.ChatRoom, error)
}
