package domain

import "time"

// NotificationKind identifies what triggered a notification.
type NotificationKind string

const (
	KindChat   NotificationKind = "chat"
	KindPrice  NotificationKind = "price"
	KindStatus NotificationKind = "status"
)

// DefaultInboxLimit is the recency window returned by an inbox listing.
const DefaultInboxLimit = 100

// Notification is one inbox entry. ChatRoomID is set only for KindChat.
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient_id"`
	Kind        NotificationKind `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	ProductID   string           `json:"product_id"`
	ChatRoomID  string           `json:"chat_room_id,omitempty"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
}

// UnreadCounts holds per-kind unread totals for a user's inbox tabs.
type UnreadCounts struct {
	Chat   int `json:"chat"`
	Price  int `json:"price"`
	Status int `json:"status"`
}

// Add increments the counter for kind by n.
func (u *UnreadCounts) Add(kind NotificationKind, n int) {
	switch kind {
	case KindChat:
		u.Chat += n
	case KindPrice:
		u.Price += n
	case KindStatus:
		u.Status += n
	}
}

// Total returns the sum across kinds.
func (u UnreadCounts) Total() int {
	return u.Chat + u.Price + u.Status
}
