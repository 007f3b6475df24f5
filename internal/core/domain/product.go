package domain

import (
	"fmt"
	"strings"
	"time"
)

// ProductStatus represents the sale state of a listing.
type ProductStatus string

const (
	StatusSelling  ProductStatus = "selling"
	StatusReserved ProductStatus = "reserved"
	StatusSold     ProductStatus = "sold"
)

// statusLabels is the fixed display table used in status notifications.
var statusLabels = map[ProductStatus]string{
	StatusSelling:  "판매중",
	StatusReserved: "예약중",
	StatusSold:     "판매완료",
}

// Valid reports whether s is one of the known statuses.
func (s ProductStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the human-readable label for s.
func (s ProductStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Product is a marketplace listing. Likes holds the ids of users who liked it.
type Product struct {
	ID        string        `json:"id"`
	SellerID  string        `json:"seller_id"`
	Title     string        `json:"title"`
	Price     int64         `json:"price"`
	Status    ProductStatus `json:"status"`
	Images    []string      `json:"images"`
	Likes     []string      `json:"-"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// LikedBy reports whether userID is in the like-set.
func (p *Product) LikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// LikeState returns the like view of p for userID.
func (p *Product) LikeState(userID string) LikeState {
	return LikeState{Liked: p.LikedBy(userID), LikeCount: len(p.Likes)}
}

// Summary returns the compact view embedded in chat rooms.
func (p *Product) Summary() ProductSummary {
	s := ProductSummary{ID: p.ID, Title: p.Title, Price: p.Price}
	if len(p.Images) > 0 {
		s.Image = p.Images[0]
	}
	return s
}

// Apply returns a copy of p with the fields present in patch overwritten.
func (p Product) Apply(patch ProductPatch) Product {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	return p
}

// ProductSummary is the product view attached to chat rooms.
type ProductSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Price int64  `json:"price"`
	Image string `json:"image,omitempty"`
}

// ProductPatch carries a seller's partial update. Nil fields are untouched.
type ProductPatch struct {
	Title  *string
	Price  *int64
	Status *ProductStatus
}

// Empty reports whether the patch changes nothing.
func (p ProductPatch) Empty() bool {
	return p.Title == nil && p.Price == nil && p.Status == nil
}

// Validate checks field bounds.
func (p ProductPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("title must not be empty: %w", ErrInvalidContent)
	}
	if p.Price != nil && *p.Price < 0 {
		return fmt.Errorf("price must be non-negative: %w", ErrInvalidContent)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("unknown status %q: %w", *p.Status, ErrInvalidContent)
	}
	return nil
}

// ProductChange is the before/after pair handed to notification fan-out.
type ProductChange struct {
	Before  Product
	After   Product
	ActorID string
}

func (c ProductChange) PriceChanged() bool {
	return c.Before.Price != c.After.Price
}

func (c ProductChange) StatusChanged() bool {
	return c.Before.Status != c.After.Status
}

// Changed reports whether any notifiable dimension differs.
func (c ProductChange) Changed() bool {
	return c.PriceChanged() || c.StatusChanged()
}

// LikeState is the result of a like toggle or read.
type LikeState struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}
