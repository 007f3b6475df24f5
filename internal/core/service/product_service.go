package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/krush/market-core/internal/core/domain"
	"github.com/krush/market-core/internal/core/ports"
	"github.com/krush/market-core/internal/pkg/metrics"
)

// ProductService handles seller edits and like toggles.
type ProductService struct {
	repo ports.ProductRepository
	sink ports.ProductChangeSink
	log  zerolog.Logger
	now  func() time.Time
}

// NewProductService returns a ProductService that hands price/status changes
// to sink.
func NewProductService(repo ports.ProductRepository, sink ports.ProductChangeSink, log zerolog.Logger) *ProductService {
	return &ProductService{
		repo: repo,
		sink: sink,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// InlineSink runs fan-out on the caller's goroutine. Failures are logged.
func InlineSink(n ports.Notifier, log zerolog.Logger) ports.ProductChangeSink {
	return ports.ProductChangeSinkFunc(func(ctx context.Context, change domain.ProductChange) {
		if _, err := n.NotifyProductChange(ctx, change); err != nil {
			log.Warn().Err(err).Str("product_id", change.After.ID).Msg("product change fan-out incomplete")
		}
	})
}

// UpdateProduct applies a seller's edit. When price or status changed, the
// before/after pair is submitted for fan-out; the edit succeeds regardless of
// what happens to the notifications.
func (s *ProductService) UpdateProduct(ctx context.Context, productID string, actor domain.Actor, patch domain.ProductPatch) (*domain.Product, error) {
	if actor.Anonymous() {
		return nil, domain.ErrUnauthorized
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	current, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("update product %s: %w", productID, err)
	}
	if current.SellerID != actor.ID {
		return nil, fmt.Errorf("update product %s: only the seller may edit: %w", productID, domain.ErrForbidden)
	}
	if patch.Empty() {
		return current, nil
	}

	now := s.now()
	before, err := s.repo.Update(ctx, productID, actor.ID, patch, now)
	if err != nil {
		return nil, fmt.Errorf("update product %s: %w", productID, err)
	}

	after := before.Apply(patch)
	after.UpdatedAt = now

	change := domain.ProductChange{Before: *before, After: after, ActorID: actor.ID}
	if change.Changed() {
		s.log.Info().
			Str("product_id", productID).
			Bool("price_changed", change.PriceChanged()).
			Bool("status_changed", change.StatusChanged()).
			Msg("product changed, fanning out")
		s.sink.Submit(ctx, change)
	}

	return &after, nil
}

// ToggleLike flips the actor's membership in the product's like-set.
func (s *ProductService) ToggleLike(ctx context.Context, productID string, actor domain.Actor) (domain.LikeState, error) {
	if actor.Anonymous() {
		return domain.LikeState{}, domain.ErrUnauthorized
	}

	state, err := s.repo.ToggleLike(ctx, productID, actor.ID)
	if err != nil {
		return domain.LikeState{}, fmt.Errorf("toggle like on %s: %w", productID, err)
	}

	result := "unliked"
	if state.Liked {
		result = "liked"
	}
	metrics.LikeTogglesTotal.WithLabelValues(result).Inc()
	return state, nil
}

// LikeState reads the actor's like state without changing it.
func (s *ProductService) LikeState(ctx context.Context, productID string, actor domain.Actor) (domain.LikeState, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return domain.LikeState{}, fmt.Errorf("like state of %s: %w", productID, err)
	}
	return product.LikeState(actor.ID), nil
}
