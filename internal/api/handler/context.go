package handler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/krush/market-core/internal/api/middleware"
	"github.com/krush/market-core/internal/core/domain"
)

// ctxActor extracts the actor injected by the Auth middleware. A missing or
// anonymous actor means the route was mounted without Auth; fail closed.
func ctxActor(c echo.Context) (domain.Actor, error) {
	actor, _ := c.Get(middleware.ActorKey).(domain.Actor)
	if actor.Anonymous() {
		return domain.Actor{}, fmt.Errorf("missing identity: %w", domain.ErrUnauthorized)
	}
	return actor, nil
}

// bindAndValidate binds the request body into req and runs the registered
// validator. Validation failures surface as domain.ErrInvalidContent.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	if err := c.Validate(req); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), domain.ErrInvalidContent)
	}
	return nil
}
