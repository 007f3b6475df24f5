package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type fakeMongo struct{ err error }

func (f fakeMongo) Ping(context.Context, *readpref.ReadPref) error { return f.err }

type fakeRedis struct{ err error }

func (f fakeRedis) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", f.err)
}

func TestHealthHandler_Liveness(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/health", "", nil)
	if err := NewHealthHandler().Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	cases := []struct {
		name   string
		mongo  error
		redis  error
		status int
	}{
		{"all up", nil, nil, http.StatusOK},
		{"mongo down", errors.New("no primary"), nil, http.StatusServiceUnavailable},
		{"redis down", nil, errors.New("connection refused"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		c, rec := newContext(http.MethodGet, "/health/ready", "", nil)
		h := NewHealthDependenciesHandler(fakeMongo{err: tc.mongo}, fakeRedis{err: tc.redis})
		if err := h.Readiness(c); err != nil {
			t.Fatalf("%s: handler error: %v", tc.name, err)
		}
		if rec.Code != tc.status {
			t.Errorf("%s: status = %d, want %d", tc.name, rec.Code, tc.status)
		}
		resp := decode[readinessResponse](t, rec)
		if tc.mongo != nil && resp.Dependencies["mongodb"].Status != "unhealthy" {
			t.Errorf("%s: mongodb should be unhealthy", tc.name)
		}
		if tc.redis != nil && resp.Dependencies["redis"].Status != "unhealthy" {
			t.Errorf("%s: redis should be unhealthy", tc.name)
		}
	}
}
