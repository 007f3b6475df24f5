package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/krush/market-core/internal/core/domain"
)

type countingLimiter struct {
	limit int
	calls map[string]int
	err   error
}

func (l *countingLimiter) Allow(_ context.Context, action, subject string) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	if l.calls == nil {
		l.calls = map[string]int{}
	}
	l.calls[action+":"+subject]++
	return l.calls[action+":"+subject] <= l.limit, nil
}

func callLimited(t *testing.T, limiter Limiter, actor *domain.Actor) (bool, error) {
	t.Helper()
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())
	if actor != nil {
		c.Set(ActorKey, *actor)
	}
	called := false
	err := RateLimit(limiter, "chat_message", zerolog.Nop())(func(c echo.Context) error {
		called = true
		return nil
	})(c)
	return called, err
}

func TestRateLimit_BlocksAfterBudget(t *testing.T) {
	l := &countingLimiter{limit: 2}
	alice := &domain.Actor{ID: "u1"}

	for i := 0; i < 2; i++ {
		if called, err := callLimited(t, l, alice); !called || err != nil {
			t.Fatalf("call %d: called=%v err=%v", i, called, err)
		}
	}
	called, err := callLimited(t, l, alice)
	if called {
		t.Fatal("third call should be blocked")
	}
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}

	if called, _ := callLimited(t, l, &domain.Actor{ID: "u2"}); !called {
		t.Fatal("budget must be per actor")
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	l := &countingLimiter{err: errors.New("redis: connection refused")}
	called, err := callLimited(t, l, &domain.Actor{ID: "u1"})
	if !called || err != nil {
		t.Fatalf("expected fail-open, called=%v err=%v", called, err)
	}
}

func TestRateLimit_NoActorPassesThrough(t *testing.T) {
	called, err := callLimited(t, &countingLimiter{limit: 0}, nil)
	if !called || err != nil {
		t.Fatalf("called=%v err=%v", called, err)
	}
}
