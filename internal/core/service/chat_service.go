package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/krush/market-core/internal/core/domain"
	"github.com/krush/market-core/internal/core/ports"
	"github.com/krush/market-core/internal/pkg/metrics"
)

// ChatService owns the one-room-per-(product, buyer, seller) invariant and the
// append-only message log of each room.
type ChatService struct {
	rooms    ports.RoomRepository
	products ports.ProductRepository
	notifier ports.Notifier
	log      zerolog.Logger
	now      func() time.Time
}

func NewChatService(rooms ports.RoomRepository, products ports.ProductRepository, notifier ports.Notifier, log zerolog.Logger) *ChatService {
	return &ChatService{
		rooms:    rooms,
		products: products,
		notifier: notifier,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GetOrCreateRoom returns the actor's room for productID, creating it on first
// contact. A concurrent creator that loses the insert race re-reads the
// winner's room instead of failing.
func (s *ChatService) GetOrCreateRoom(ctx context.Context, productID string, actor domain.Actor) (*domain.ChatRoom, error) {
	if actor.Anonymous() {
		return nil, domain.ErrUnauthorized
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get or create room: product %s: %w", productID, err)
	}
	if product.SellerID == actor.ID {
		return nil, fmt.Errorf("you are the seller of this product, use the room list: %w", domain.ErrSelfChatForbidden)
	}

	key := domain.RoomKey{ProductID: product.ID, BuyerID: actor.ID, SellerID: product.SellerID}
	room, err := s.rooms.FindByKey(ctx, key)
	switch {
	case err == nil:
		return s.withProduct(room, product), nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("get or create room: %w", err)
	}

	now := s.now()
	room = &domain.ChatRoom{
		ProductID: key.ProductID,
		BuyerID:   key.BuyerID,
		SellerID:  key.SellerID,
		Messages:  []domain.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.rooms.Insert(ctx, room)
	switch {
	case err == nil:
		metrics.RoomsCreatedTotal.Inc()
		s.log.Info().
			Str("room_id", room.ID).
			Str("product_id", key.ProductID).
			Str("buyer_id", key.BuyerID).
			Msg("chat room created")
	case errors.Is(err, domain.ErrConflict):
		s.log.Debug().Str("product_id", key.ProductID).Str("buyer_id", key.BuyerID).Msg("room creation race lost, re-reading")
		room, err = s.rooms.FindByKey(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("get or create room: re-read after conflict: %w", err)
		}
	default:
		return nil, fmt.Errorf("get or create room: %w", err)
	}

	return s.withProduct(room, product), nil
}

// GetRoom returns a room the actor participates in. A room id alone does not
// grant access.
func (s *ChatService) GetRoom(ctx context.Context, roomID string, actor domain.Actor) (*domain.ChatRoom, error) {
	room, err := s.authorizedRoom(ctx, roomID, actor)
	if err != nil {
		return nil, err
	}
	s.attachProducts(ctx, room)
	return room, nil
}

// ListRooms returns the rooms where the actor is buyer or seller, most
// recently updated first.
func (s *ChatService) ListRooms(ctx context.Context, actor domain.Actor) ([]*domain.ChatRoom, error) {
	if actor.Anonymous() {
		return nil, domain.ErrUnauthorized
	}

	rooms, err := s.rooms.ListByParticipant(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	s.attachProducts(ctx, rooms...)
	return rooms, nil
}

// AppendMessage appends content to the room log and notifies the other party.
// The append is the durable effect; a failed notification is logged and does
// not fail the call.
func (s *ChatService) AppendMessage(ctx context.Context, roomID string, actor domain.Actor, content string) (*domain.ChatRoom, error) {
	room, err := s.authorizedRoom(ctx, roomID, actor)
	if err != nil {
		return nil, err
	}

	if err := domain.ValidateMessageContent(content); err != nil {
		return nil, err
	}

	msg := domain.Message{
		SenderID:  actor.ID,
		Content:   content,
		CreatedAt: s.now(),
	}
	updated, err := s.rooms.AppendMessage(ctx, room.ID, &msg)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	metrics.MessagesAppendedTotal.Inc()

	if err := s.notifier.NotifyChat(ctx, updated, msg); err != nil {
		s.log.Error().Err(err).
			Str("room_id", updated.ID).
			Str("sender_id", actor.ID).
			Msg("chat notification failed, message kept")
	}

	s.attachProducts(ctx, updated)
	return updated, nil
}

func (s *ChatService) authorizedRoom(ctx context.Context, roomID string, actor domain.Actor) (*domain.ChatRoom, error) {
	if actor.Anonymous() {
		return nil, domain.ErrUnauthorized
	}

	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("room %s: %w", roomID, err)
	}
	if !room.IsParticipant(actor.ID) {
		return nil, fmt.Errorf("room %s: not a participant: %w", roomID, domain.ErrForbidden)
	}
	return room, nil
}

func (s *ChatService) withProduct(room *domain.ChatRoom, product *domain.Product) *domain.ChatRoom {
	summary := product.Summary()
	room.Product = &summary
	return room
}

// attachProducts decorates rooms with their product summary in one lookup.
// A failed lookup leaves the summaries empty rather than failing the read.
func (s *ChatService) attachProducts(ctx context.Context, rooms ...*domain.ChatRoom) {
	if len(rooms) == 0 {
		return
	}

	ids := make([]string, 0, len(rooms))
	seen := make(map[string]struct{}, len(rooms))
	for _, r := range rooms {
		if _, ok := seen[r.ProductID]; ok {
			continue
		}
		seen[r.ProductID] = struct{}{}
		ids = append(ids, r.ProductID)
	}

	summaries, err := s.products.Summaries(ctx, ids)
	if err != nil {
		s.log.Warn().Err(err).Int("rooms", len(rooms)).Msg("product summary lookup failed")
		return
	}
	for _, r := range rooms {
		if sum, ok := summaries[r.ProductID]; ok {
			r.Product = &sum
		}
	}
}
