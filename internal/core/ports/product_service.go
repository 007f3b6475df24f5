package ports

import (
	"context"

	"github.com/krush/market-core/internal/core/domain"
)

// ProductService covers the product mutations that drive notification fan-out.
type ProductService interface {
	UpdateProduct(ctx context.Context, productID string, actor domain.Actor, patch domain.ProductPatch) (*domain.Product, error)
	ToggleLike(ctx context.Context, productID string, actor domain.Actor) (domain.LikeState, error)
	LikeState(ctx context.Context, productID string, actor domain.Actor) (domain.LikeState, error)
}
