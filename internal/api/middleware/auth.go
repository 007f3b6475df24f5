package middleware

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/krush/market-core/internal/core/domain"
	"github.com/krush/market-core/internal/core/ports"
)

// ActorKey is the echo context key holding the resolved domain.Actor.
const ActorKey = "actor"

// Auth resolves the caller's credential and injects the actor into context.
// The credential is read from the Authorization bearer header, falling back
// to cookieName when the header is absent.
func Auth(resolver ports.IdentityResolver, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			credential, err := credentialFrom(c, cookieName)
			if err != nil {
				return err
			}

			actor, ok := resolver.Resolve(credential)
			if !ok {
				return fmt.Errorf("invalid or expired credential: %w", domain.ErrUnauthorized)
			}

			c.Set(ActorKey, actor)
			return next(c)
		}
	}
}

func credentialFrom(c echo.Context, cookieName string) (string, error) {
	if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return "", fmt.Errorf("invalid authorization header: %w", domain.ErrUnauthorized)
		}
		return strings.TrimSpace(parts[1]), nil
	}

	if cookieName != "" {
		if ck, err := c.Cookie(cookieName); err == nil && ck.Value != "" {
			return ck.Value, nil
		}
	}
	return "", fmt.Errorf("missing credential: %w", domain.ErrUnauthorized)
}
