package ports

import (
	"context"
	"time"

	"github.com/krush/market-core/internal/core/domain"
)

// ProductRepository is the narrow view of the product catalog this core needs.
type ProductRepository interface {
	FindByID(ctx context.Context, productID string) (*domain.Product, error)
	// Summaries returns product summaries keyed by id. Missing ids are omitted.
	Summaries(ctx context.Context, productIDs []string) (map[string]domain.ProductSummary, error)
	// Update applies patch to the product owned by sellerID in a single write
	// and returns the document as it was before the write.
	Update(ctx context.Context, productID, sellerID string, patch domain.ProductPatch, at time.Time) (*domain.Product, error)
	LikeRepository
}

// LikeRepository manages the like-set embedded in each product.
type LikeRepository interface {
	// ToggleLike flips userID's membership atomically and returns the new state.
	ToggleLike(ctx context.Context, productID, userID string) (domain.LikeState, error)
	// Likers returns the current like-set of a product.
	Likers(ctx context.Context, productID string) ([]string, error)
}
