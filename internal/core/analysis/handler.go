package analysis

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"curator/internal/core/job"
	"curator/internal/logger"
	"curator/internal/utils/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type Handler struct {
	jobs *job.Service
	svc  *Service

	defaultPhotoThreshold int
	defaultVideoThreshold int
	log                   *logger.Logger
}

func NewHandler(jobs *job.Service, svc *Service, defaultPhotoThreshold, defaultVideoThreshold int) *Handler {
	return &Handler{
		jobs:                  jobs,
		svc:                   svc,
		defaultPhotoThreshold: defaultPhotoThreshold,
		defaultVideoThreshold: defaultVideoThreshold,
		log:                   logger.New("AnalysisHandler"),
	}
}

// HandleStart starts an authenticated album analysis. Malformed requests are
// rejected here, before any job record exists.
func (h *Handler) HandleStart(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "missing access token"})
	}

	var req StartRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid body"})
	}
	if !validate.AlbumID(req.AlbumID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid album id"})
	}

	photoThreshold := h.defaultPhotoThreshold
	if req.PhotoThreshold != nil {
		photoThreshold = *req.PhotoThreshold
	}
	videoThreshold := h.defaultVideoThreshold
	if req.VideoThreshold != nil {
		videoThreshold = *req.VideoThreshold
	}
	if !validate.Threshold(photoThreshold) || !validate.Threshold(videoThreshold) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "threshold must be between 0 and 100"})
	}

	id, err := h.svc.EnqueueAlbum(c.Context(), req, token, photoThreshold, videoThreshold)
	if err != nil {
		errMsg := err.Error()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": errMsg})
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"jobId":   id,
		"message": "analysis started",
	}})
}

// HandleStartScraped starts an analysis over a pre-extracted photo list. No
// credential is required; there is no write-back in this mode.
func (h *Handler) HandleStartScraped(c *fiber.Ctx) error {
	var req ScrapedStartRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid body"})
	}
	if len(req.Photos) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "photos list is required"})
	}

	photoThreshold := h.defaultPhotoThreshold
	if req.PhotoThreshold != nil {
		photoThreshold = *req.PhotoThreshold
	}
	if !validate.Threshold(photoThreshold) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "threshold must be between 0 and 100"})
	}

	id, err := h.svc.EnqueueScraped(c.Context(), req.Photos, photoThreshold)
	if err != nil {
		errMsg := err.Error()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": errMsg})
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"jobId":   id,
		"message": "scraped analysis started",
	}})
}

// HandleGetStatus returns a single on-demand snapshot.
func (h *Handler) HandleGetStatus(c *fiber.Ctx) error {
	id := c.Params("jobId")
	j, err := h.jobs.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "not_found"})
		}
		errMsg := err.Error()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": errMsg})
	}
	return c.JSON(fiber.Map{"success": true, "data": j})
}

// HandleStream pushes job snapshots over SSE once per second until the job is
// terminal or gone. A failed flush means the peer disconnected; the ticker is
// released immediately either way.
func (h *Handler) HandleStream(c *fiber.Ctx) error {
	id := c.Params("jobId")

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	h.log.LogInfof("sse stream opened: %s", id)

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		// The fiber context is recycled once the handler returns, so the
		// stream loop reads the store with its own context.
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		defer h.log.LogInfof("sse stream closed: %s", id)

		h.streamJob(context.Background(), w, id, ticker.C)
	}))
	return nil
}

// streamJob pushes one snapshot per tick. It returns when the job is unknown
// (after a single "job not found" event), when the job turned terminal (after
// its final snapshot), or when a write fails, which means the peer went away.
// A transient store error is retried on the next tick instead of ending the
// stream.
func (h *Handler) streamJob(ctx context.Context, w io.Writer, id string, tick <-chan time.Time) {
	for range tick {
		j, err := h.jobs.Get(ctx, id)
		if errors.Is(err, job.ErrNotFound) {
			_ = writeEvent(w, fiber.Map{"error": "job not found"})
			return
		}
		if err != nil {
			continue
		}
		if writeEvent(w, j) != nil {
			return
		}
		if j.Status != job.StatusProcessing {
			return
		}
	}
}

func writeEvent(w io.Writer, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
		return err
	}
	if f, ok := w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

func bearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
