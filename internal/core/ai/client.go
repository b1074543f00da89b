package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"curator/internal/core/photos"
	"curator/internal/logger"
	"curator/prompts"
)

// Scorer produces one Verdict per media item. Implementations must not fail
// outward: any internal error becomes a degraded discard Verdict so batch
// progress survives partial upstream failures.
type Scorer interface {
	ScorePhoto(ctx context.Context, item photos.MediaItem, threshold int) Verdict
	ScoreVideo(ctx context.Context, item photos.MediaItem, threshold int) Verdict
}

// VisionModel is the outbound model call. Satisfied by platform/gemini.Service.
type VisionModel interface {
	GenerateVision(ctx context.Context, model, prompt string, data []byte, mimeType string) (string, error)
}

type Config struct {
	PhotoModel string
	VideoModel string
}

// Service scores media items with Gemini vision models.
type Service struct {
	vision VisionModel
	cfg    Config
	http   *http.Client
	log    *logger.Logger
}

func NewService(vision VisionModel, cfg Config) *Service {
	return &Service{
		vision: vision,
		cfg:    cfg,
		http:   &http.Client{Timeout: 60 * time.Second},
		log:    logger.New("AIService"),
	}
}

// ScorePhoto fetches the photo bytes and asks the flash model for a verdict.
func (s *Service) ScorePhoto(ctx context.Context, item photos.MediaItem, threshold int) Verdict {
	data, err := s.fetchMedia(ctx, item.BaseURL)
	if err != nil {
		s.log.LogErrorf("photo fetch failed for %s: %v", item.Filename, err)
		return degraded(item, 0, "failed to fetch media")
	}

	mimeType := item.MimeType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	text, err := s.vision.GenerateVision(ctx, s.cfg.PhotoModel, prompts.PhotoScoring(threshold), data, mimeType)
	if err != nil {
		s.log.LogErrorf("photo analysis failed for %s: %v", item.Filename, err)
		return degraded(item, 0, "analysis error")
	}

	v, ok := parseVerdict(text)
	if !ok {
		s.log.LogWarnf("unparsable model response for %s", item.Filename)
		return degraded(item, 50, "analysis failed")
	}
	v.ItemID = item.ID
	v.Filename = item.Filename
	s.log.LogDebugf("photo scored: %s -> %d (%s)", item.Filename, v.Score, v.Recommendation)
	return v
}

// ScoreVideo scores a video through its representative thumbnail (the "=d"
// variant of the base URL) with the pro model; a playable stream is not
// retrievable for scraped items and not needed for keepability.
func (s *Service) ScoreVideo(ctx context.Context, item photos.MediaItem, threshold int) Verdict {
	data, err := s.fetchMedia(ctx, item.BaseURL+"=d")
	if err != nil {
		s.log.LogErrorf("video thumbnail fetch failed for %s: %v", item.Filename, err)
		return degraded(item, 0, "failed to fetch media")
	}

	text, err := s.vision.GenerateVision(ctx, s.cfg.VideoModel, prompts.VideoScoring(threshold), data, "image/jpeg")
	if err != nil {
		s.log.LogErrorf("video analysis failed for %s: %v", item.Filename, err)
		return degraded(item, 0, "analysis error")
	}

	v, ok := parseVerdict(text)
	if !ok {
		s.log.LogWarnf("unparsable model response for %s", item.Filename)
		return degraded(item, 50, "analysis failed")
	}
	v.ItemID = item.ID
	v.Filename = item.Filename
	s.log.LogDebugf("video scored: %s -> %d (%s)", item.Filename, v.Score, v.Recommendation)
	return v
}

func (s *Service) fetchMedia(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media fetch status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// parseVerdict extracts the first well-formed JSON object from the raw model
// text. Models often wrap the payload in prose or markdown fences.
func parseVerdict(text string) (Verdict, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return Verdict{}, false
	}
	var v Verdict
	if err := json.Unmarshal([]byte(text[start:end+1]), &v); err != nil {
		return Verdict{}, false
	}
	if v.Recommendation != RecommendationKeep && v.Recommendation != RecommendationDiscard {
		return Verdict{}, false
	}
	return v, true
}

func degraded(item photos.MediaItem, score int, reason string) Verdict {
	return Verdict{
		ItemID:         item.ID,
		Filename:       item.Filename,
		Score:          score,
		Recommendation: RecommendationDiscard,
		Reason:         reason,
	}
}
