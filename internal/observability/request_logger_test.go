package observability

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRequestLogger_KeysMetricsByRoute(t *testing.T) {
	metrics := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), metrics))
	app.Get("/api/users/:login", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i := 0; i < 50; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, fmt.Sprintf("/random/%d", i), nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

		resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, fmt.Sprintf("/api/users/user%d", i), nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	snap := metrics.Snapshot()
	require.Len(t, snap.Requests, 2)
	paths := map[string]int64{}
	for _, row := range snap.Requests {
		paths[row.Path] = row.Count
	}
	assert.Equal(t, map[string]int64{UnmatchedRoute: 50, "/api/users/:login": 50}, paths)
}
