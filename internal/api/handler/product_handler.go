package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/krush/market-core/internal/core/ports"
)

// ProductHandler exposes the product mutations that trigger fan-out.
type ProductHandler struct {
	service ports.ProductService
}

func NewProductHandler(service ports.ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

// Update handles PUT /api/products/:id.
//
// @Summary      Update a listing's title, price or status
// @Description  Seller only. Price and status changes notify every user who liked the product.
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Product id"
// @Param        body  body      updateProductRequest  true  "Fields to change"
// @Success      200   {object}  productResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/products/{id} [put]
func (h *ProductHandler) Update(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req updateProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	product, err := h.service.UpdateProduct(c.Request().Context(), c.Param("id"), actor, req.patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, productResponse{Product: product})
}

// ToggleLike handles POST /api/products/:id/like.
//
// @Summary      Toggle the caller's like on a product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product id"
// @Success      200  {object}  domain.LikeState
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/products/{id}/like [post]
func (h *ProductHandler) ToggleLike(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	state, err := h.service.ToggleLike(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

// LikeState handles GET /api/products/:id/like.
//
// @Summary      Read the caller's like state without changing it
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product id"
// @Success      200  {object}  domain.LikeState
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/products/{id}/like [get]
func (h *ProductHandler) LikeState(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	state, err := h.service.LikeState(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}
