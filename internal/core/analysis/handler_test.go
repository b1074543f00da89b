package analysis

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"curator/internal/core/job"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*fiber.App, *job.Service, *captureEnqueuer) {
	t.Helper()
	jobs := job.NewService(newMemKV(), time.Hour)
	enq := &captureEnqueuer{}
	svc := NewService(jobs, &fakeLibrary{}, nil, enq, 3, time.Hour)
	h := NewHandler(jobs, svc, 85, 80)

	app := fiber.New()
	app.Post("/v1/analysis", h.HandleStart)
	app.Post("/v1/analysis/scraped", h.HandleStartScraped)
	app.Get("/v1/analysis/:jobId", h.HandleGetStatus)
	return app, jobs, enq
}

func postJSON(t *testing.T, app *fiber.App, path, body, token string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestHandleStartRequiresToken(t *testing.T) {
	app, _, enq := newTestApp(t)

	code, _ := postJSON(t, app, "/v1/analysis", `{"albumId":"alb1"}`, "")
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Empty(t, enq.captured)
}

func TestHandleStartRejectsBadThreshold(t *testing.T) {
	app, _, enq := newTestApp(t)

	code, body := postJSON(t, app, "/v1/analysis", `{"albumId":"alb1","photoThreshold":150}`, "tok")
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Contains(t, body, "threshold")
	// Rejected before any job record or task exists.
	assert.Empty(t, enq.captured)
}

func TestHandleStartReturnsJobID(t *testing.T) {
	app, jobs, enq := newTestApp(t)

	code, raw := postJSON(t, app, "/v1/analysis", `{"albumId":"alb1"}`, "tok")
	require.Equal(t, fiber.StatusOK, code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			JobID string `json:"jobId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &body))
	assert.True(t, body.Success)
	require.NotEmpty(t, body.Data.JobID)
	require.Len(t, enq.captured, 1)

	j, err := jobs.Get(context.Background(), body.Data.JobID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusProcessing, j.Status)
}

func TestHandleStartScrapedRejectsEmptyList(t *testing.T) {
	app, _, enq := newTestApp(t)

	code, body := postJSON(t, app, "/v1/analysis/scraped", `{"photos":[]}`, "")
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Contains(t, body, "photos list is required")
	assert.Empty(t, enq.captured)
}

func TestHandleStartScrapedNeedsNoToken(t *testing.T) {
	app, _, enq := newTestApp(t)

	code, _ := postJSON(t, app, "/v1/analysis/scraped",
		`{"photos":[{"id":"scraped_1","baseUrl":"https://lh3.googleusercontent.com/x","filename":"photo_1.jpg"}]}`, "")
	assert.Equal(t, fiber.StatusOK, code)
	require.Len(t, enq.captured, 1)
}

func TestHandleGetStatusUnknownJob(t *testing.T) {
	app, _, _ := newTestApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/v1/analysis/no-such-job", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(b), "not_found")
}

func TestHandleGetStatusReturnsSnapshot(t *testing.T) {
	app, jobs, _ := newTestApp(t)
	ctx := context.Background()

	id, err := jobs.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, jobs.Update(ctx, id, func(j *job.Job) {
		j.Stage = job.StageAnalyzingPhotos
		j.Progress = 44
		j.CurrentPhoto = 3
		j.TotalPhotos = 5
	}))

	req := httptest.NewRequest(fiber.MethodGet, "/v1/analysis/"+id, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Success bool    `json:"success"`
		Data    job.Job `json:"data"`
	}
	b, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(b, &body))
	assert.Equal(t, job.StageAnalyzingPhotos, body.Data.Stage)
	assert.Equal(t, float64(44), body.Data.Progress)
	assert.Equal(t, 3, body.Data.CurrentPhoto)
}

func TestWriteEventFormat(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	require.NoError(t, writeEvent(w, fiber.Map{"status": "processing"}))
	assert.Equal(t, "data: {\"status\":\"processing\"}\n\n", buf.String())
}

// ─── stream loop ─────────────────────────────────────────────────────────────

// tickChan returns a closed channel preloaded with n ticks, so the loop under
// test runs at most n iterations and must stop on its own exit conditions.
func tickChan(n int) <-chan time.Time {
	ch := make(chan time.Time, n)
	for i := 0; i < n; i++ {
		ch <- time.Now()
	}
	close(ch)
	return ch
}

type brokenPipe struct{ writes int }

func (b *brokenPipe) Write([]byte) (int, error) {
	b.writes++
	return 0, errors.New("broken pipe")
}

func newStreamHandler(kv job.KV) (*Handler, *job.Service) {
	jobs := job.NewService(kv, time.Hour)
	svc := NewService(jobs, &fakeLibrary{}, nil, &captureEnqueuer{}, 3, time.Hour)
	return NewHandler(jobs, svc, 85, 80), jobs
}

func TestStreamUnknownJobEmitsNotFoundOnce(t *testing.T) {
	h, _ := newStreamHandler(newMemKV())

	var buf bytes.Buffer
	h.streamJob(context.Background(), &buf, "no-such-job", tickChan(3))

	// Even with more ticks available, exactly one event and then the stream
	// is closed.
	assert.Equal(t, "data: {\"error\":\"job not found\"}\n\n", buf.String())
}

func TestStreamClosesAfterTerminalSnapshot(t *testing.T) {
	h, jobs := newStreamHandler(newMemKV())
	ctx := context.Background()

	id, err := jobs.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, jobs.Complete(ctx, id, &job.Result{}))

	var buf bytes.Buffer
	h.streamJob(ctx, &buf, id, tickChan(3))

	assert.Equal(t, 1, strings.Count(buf.String(), "data: "))
	assert.Contains(t, buf.String(), `"status":"completed"`)
}

func TestStreamEmitsEverySnapshotWhileProcessing(t *testing.T) {
	h, jobs := newStreamHandler(newMemKV())
	ctx := context.Background()

	id, err := jobs.Create(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	h.streamJob(ctx, &buf, id, tickChan(3))

	assert.Equal(t, 3, strings.Count(buf.String(), "data: "))
	assert.Contains(t, buf.String(), `"status":"processing"`)
}

func TestStreamStopsWhenPeerGone(t *testing.T) {
	h, jobs := newStreamHandler(newMemKV())
	ctx := context.Background()

	id, err := jobs.Create(ctx)
	require.NoError(t, err)

	pipe := &brokenPipe{}
	h.streamJob(ctx, pipe, id, tickChan(3))

	// First failed write releases the loop, no retries against a dead peer.
	assert.Equal(t, 1, pipe.writes)
}

func TestStreamRetriesTransientStoreError(t *testing.T) {
	kv := &flakyKV{memKV: newMemKV()}
	h, jobs := newStreamHandler(kv)
	ctx := context.Background()

	id, err := jobs.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, jobs.Complete(ctx, id, &job.Result{}))

	// The first tick hits a failing redis; the stream must not report the job
	// as missing, it skips the tick and delivers on the next one.
	kv.failures = 1

	var buf bytes.Buffer
	h.streamJob(ctx, &buf, id, tickChan(3))

	assert.NotContains(t, buf.String(), "job not found")
	assert.Equal(t, 1, strings.Count(buf.String(), "data: "))
	assert.Contains(t, buf.String(), `"status":"completed"`)
}
