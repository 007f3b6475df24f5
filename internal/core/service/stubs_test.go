package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/krush/market-core/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Clock
// ---------------------------------------------------------------------------

// fakeClock advances one second on every call so timestamps are distinct.
type fakeClock struct {
	mu  sync.Mutex
	cur time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{cur: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

// ---------------------------------------------------------------------------
// Rooms
// ---------------------------------------------------------------------------

// stubRoomRepo enforces the (product, buyer, seller) uniqueness the way the
// Mongo unique index does: a second Insert for the same key is rejected.
type stubRoomRepo struct {
	mu    sync.Mutex
	rooms map[string]*domain.ChatRoom
	order []string
	seq   int

	missLookups int // FindByKey reports not-found this many times, simulating a lost race
	inserts     int
	appendErr   error
}

func newStubRoomRepo() *stubRoomRepo {
	return &stubRoomRepo{rooms: make(map[string]*domain.ChatRoom)}
}

func cloneRoom(r *domain.ChatRoom) *domain.ChatRoom {
	c := *r
	c.Messages = append([]domain.Message(nil), r.Messages...)
	if r.Product != nil {
		p := *r.Product
		c.Product = &p
	}
	return &c
}

func (r *stubRoomRepo) FindByKey(_ context.Context, key domain.RoomKey) (*domain.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.missLookups > 0 {
		r.missLookups--
		return nil, domain.ErrNotFound
	}
	for _, id := range r.order {
		if room := r.rooms[id]; room.Key() == key {
			return cloneRoom(room), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubRoomRepo) Insert(_ context.Context, room *domain.ChatRoom) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserts++
	for _, existing := range r.rooms {
		if existing.Key() == room.Key() {
			return domain.ErrConflict
		}
	}
	r.seq++
	room.ID = fmt.Sprintf("room-%d", r.seq)
	r.rooms[room.ID] = cloneRoom(room)
	r.order = append(r.order, room.ID)
	return nil
}

func (r *stubRoomRepo) FindByID(_ context.Context, id string) (*domain.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneRoom(room), nil
}

func (r *stubRoomRepo) ListByParticipant(_ context.Context, userID string) ([]*domain.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ChatRoom
	for _, id := range r.order {
		if room := r.rooms[id]; room.BuyerID == userID || room.SellerID == userID {
			out = append(out, cloneRoom(room))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *stubRoomRepo) AppendMessage(_ context.Context, roomID string, msg *domain.Message) (*domain.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return nil, r.appendErr
	}
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	r.seq++
	msg.ID = fmt.Sprintf("msg-%d", r.seq)
	room.Messages = append(room.Messages, *msg)
	room.UpdatedAt = msg.CreatedAt
	return cloneRoom(room), nil
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

type stubProductRepo struct {
	mu        sync.Mutex
	products  map[string]*domain.Product
	likersErr error
	updateErr error
}

func newStubProductRepo(products ...*domain.Product) *stubProductRepo {
	r := &stubProductRepo{products: make(map[string]*domain.Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *stubProductRepo) FindByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *p
	c.Likes = append([]string(nil), p.Likes...)
	return &c, nil
}

func (r *stubProductRepo) Summaries(_ context.Context, ids []string) (map[string]domain.ProductSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]domain.ProductSummary, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out[id] = p.Summary()
		}
	}
	return out, nil
}

func (r *stubProductRepo) Update(_ context.Context, id, sellerID string, patch domain.ProductPatch, at time.Time) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	p, ok := r.products[id]
	if !ok || p.SellerID != sellerID {
		return nil, domain.ErrNotFound
	}
	before := *p
	before.Likes = append([]string(nil), p.Likes...)
	after := p.Apply(patch)
	after.UpdatedAt = at
	r.products[id] = &after
	return &before, nil
}

func (r *stubProductRepo) ToggleLike(_ context.Context, id, userID string) (domain.LikeState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return domain.LikeState{}, domain.ErrNotFound
	}
	if p.LikedBy(userID) {
		kept := p.Likes[:0:0]
		for _, l := range p.Likes {
			if l != userID {
				kept = append(kept, l)
			}
		}
		p.Likes = kept
	} else {
		p.Likes = append(p.Likes, userID)
	}
	return p.LikeState(userID), nil
}

func (r *stubProductRepo) Likers(_ context.Context, id string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.likersErr != nil {
		return nil, r.likersErr
	}
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]string(nil), p.Likes...), nil
}

// ---------------------------------------------------------------------------
// Notifications
// ---------------------------------------------------------------------------

type stubNotificationRepo struct {
	mu      sync.Mutex
	items   []*domain.Notification
	seq     int
	failFor map[string]bool // recipient ids whose writes fail
}

func newStubNotificationRepo() *stubNotificationRepo {
	return &stubNotificationRepo{failFor: make(map[string]bool)}
}

var errStoreDown = errors.New("store unavailable")

func (r *stubNotificationRepo) Insert(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[n.RecipientID] {
		return errStoreDown
	}
	r.seq++
	n.ID = fmt.Sprintf("n-%d", r.seq)
	c := *n
	r.items = append(r.items, &c)
	return nil
}

func (r *stubNotificationRepo) ListByRecipient(_ context.Context, recipientID string, limit int) ([]*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Notification
	for i := len(r.items) - 1; i >= 0 && len(out) < limit; i-- {
		if n := r.items[i]; n.RecipientID == recipientID {
			c := *n
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *stubNotificationRepo) MarkRead(_ context.Context, id, recipientID string) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		if n.ID == id && n.RecipientID == recipientID {
			n.Read = true
			c := *n
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubNotificationRepo) CountUnread(_ context.Context, recipientID string) (domain.UnreadCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var counts domain.UnreadCounts
	for _, n := range r.items {
		if n.RecipientID == recipientID && !n.Read {
			counts.Add(n.Kind, 1)
		}
	}
	return counts, nil
}

func (r *stubNotificationRepo) forRecipient(id string) []*domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Notification
	for _, n := range r.items {
		if n.RecipientID == id {
			out = append(out, n)
		}
	}
	return out
}

func (r *stubNotificationRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// stubNotifier records chat notifications and can be told to fail.
type stubNotifier struct {
	mu      sync.Mutex
	chats   []domain.Message
	changes []domain.ProductChange
	err     error
}

func (n *stubNotifier) NotifyChat(_ context.Context, _ *domain.ChatRoom, msg domain.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.chats = append(n.chats, msg)
	return nil
}

func (n *stubNotifier) NotifyProductChange(_ context.Context, change domain.ProductChange) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, change)
	return 0, n.err
}
