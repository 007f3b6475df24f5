package handler

import "github.com/krush/market-core/internal/core/domain"

// errorResponse documents the envelope rendered by the API error handler on
// every 4xx/5xx response.
type errorResponse struct {
	Error   string `json:"error" example:"not_found"`
	Message string `json:"message,omitempty"`
}

// --- Requests ---

type sendMessageRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}

// updateProductRequest is a partial update; absent fields stay untouched.
type updateProductRequest struct {
	Title  *string `json:"title"`
	Price  *int64  `json:"price"  validate:"omitempty,gte=0"`
	Status *string `json:"status" validate:"omitempty,oneof=selling reserved sold"`
}

func (r updateProductRequest) patch() domain.ProductPatch {
	p := domain.ProductPatch{Title: r.Title, Price: r.Price}
	if r.Status != nil {
		s := domain.ProductStatus(*r.Status)
		p.Status = &s
	}
	return p
}

// --- Responses ---

type roomResponse struct {
	Room *domain.ChatRoom `json:"room"`
}

type roomListResponse struct {
	Rooms []*domain.ChatRoom `json:"rooms"`
}

type alarmListResponse struct {
	Alarms []*domain.Notification `json:"alarms"`
}

type alarmResponse struct {
	Alarm *domain.Notification `json:"alarm"`
}

type unreadCountsResponse struct {
	domain.UnreadCounts
	Total int `json:"total"`
}

type productResponse struct {
	Product *domain.Product `json:"product"`
}
