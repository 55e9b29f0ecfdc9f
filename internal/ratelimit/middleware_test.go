package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

type countingLimiter struct {
	limit int
	hits  map[string]int
	err   error
}

func (l *countingLimiter) Allow(_ context.Context, key string) (Result, error) {
	if l.err != nil {
		return Result{}, l.err
	}
	l.hits[key]++
	n := l.hits[key]
	res := Result{Allowed: n <= l.limit, Limit: l.limit, Remaining: max(l.limit-n, 0)}
	if !res.Allowed {
		res.RetryAfter = 1500 * time.Millisecond
	}
	return res, nil
}

func newTestApp(limiter Limiter) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	app.Post("/login", Middleware(limiter, ByIP, nil), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	return app
}

func TestMiddleware_RejectsAfterLimit(t *testing.T) {
	app := newTestApp(&countingLimiter{limit: 2, hits: map[string]int{}})

	statuses := make([]int, 0, 3)
	var last *http.Response
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
		statuses = append(statuses, resp.StatusCode)
		last = resp
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
	assert.Equal(t, "2", last.Header.Get(fiber.HeaderRetryAfter))
	assert.Equal(t, "0", last.Header.Get("X-RateLimit-Remaining"))
}

func TestMiddleware_FailsOpen(t *testing.T) {
	app := newTestApp(&countingLimiter{limit: 1, err: errors.New("redis down")})

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestMiddleware_NilLimiterDisabled(t *testing.T) {
	app := newTestApp(nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
