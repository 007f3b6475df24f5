package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMessageLength caps message content, in characters.
const MaxMessageLength = 1000

// Message is a single immutable entry in a room's log.
type Message struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomKey identifies the one room allowed per (product, buyer, seller).
type RoomKey struct {
	ProductID string
	BuyerID   string
	SellerID  string
}

// ChatRoom is a conversation about one product between its seller and one buyer.
// Messages are kept in append order.
type ChatRoom struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	BuyerID   string          `json:"buyer_id"`
	SellerID  string          `json:"seller_id"`
	Messages  []Message       `json:"messages"`
	Product   *ProductSummary `json:"product,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Key returns the uniqueness key of the room.
func (r *ChatRoom) Key() RoomKey {
	return RoomKey{ProductID: r.ProductID, BuyerID: r.BuyerID, SellerID: r.SellerID}
}

// IsParticipant reports whether userID is the room's buyer or seller.
func (r *ChatRoom) IsParticipant(userID string) bool {
	return userID != "" && (userID == r.BuyerID || userID == r.SellerID)
}

// Counterpart returns the other party of userID, or "" if userID is not a participant.
func (r *ChatRoom) Counterpart(userID string) string {
	switch userID {
	case r.BuyerID:
		return r.SellerID
	case r.SellerID:
		return r.BuyerID
	default:
		return ""
	}
}

// ValidateMessageContent rejects blank content and content above MaxMessageLength.
func ValidateMessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("message content is empty: %w", ErrInvalidContent)
	}
	if n := utf8.RuneCountInString(content); n > MaxMessageLength {
		return fmt.Errorf("message content is %d characters, limit is %d: %w", n, MaxMessageLength, ErrInvalidContent)
	}
	return nil
}
