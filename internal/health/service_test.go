package health

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct{ err error }

func (s *stubChecker) HealthCheck(context.Context) error { return s.err }

func getHealth(t *testing.T, app *fiber.App) (int, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/v1/health", nil), -1)
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestHealthReportsStartingUntilReady(t *testing.T) {
	h := NewHealthHandler(&stubChecker{})
	app := fiber.New()
	app.Get("/v1/health", h.HandleHealth)

	code, body := getHealth(t, app)
	assert.Equal(t, fiber.StatusServiceUnavailable, code)
	assert.Contains(t, body, `"overall_status":"starting"`)

	h.SetReady()

	code, body = getHealth(t, app)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, `"overall_status":"ok"`)
	assert.Contains(t, body, `"redis":{"status":"ok"}`)
}

func TestHealthReportsComponentFailure(t *testing.T) {
	h := NewHealthHandler(&stubChecker{err: errors.New("redis ping failed")})
	h.SetReady()
	app := fiber.New()
	app.Get("/v1/health", h.HandleHealth)

	code, body := getHealth(t, app)
	assert.Equal(t, fiber.StatusServiceUnavailable, code)
	assert.Contains(t, body, `"overall_status":"error"`)
	assert.Contains(t, body, "redis ping failed")
}

func TestSetReadyIsSafeUnderConcurrentReads(t *testing.T) {
	h := NewHealthHandler(&stubChecker{})
	app := fiber.New()
	app.Get("/v1/health", h.HandleHealth)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = app.Test(httptest.NewRequest(fiber.MethodGet, "/v1/health", nil), -1)
		}()
	}
	h.SetReady()
	wg.Wait()

	code, _ := getHealth(t, app)
	assert.Equal(t, fiber.StatusOK, code)
}
