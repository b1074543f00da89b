package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"curator/internal/core/photos"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── fake vision model ───────────────────────────────────────────────────────

type fakeVision struct {
	response string
	err      error
	models   []string
	prompts  []string
}

func (f *fakeVision) GenerateVision(_ context.Context, model, prompt string, _ []byte, _ string) (string, error) {
	f.models = append(f.models, model)
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func mediaServer(t *testing.T, paths *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if paths != nil {
			*paths = append(*paths, r.URL.Path)
		}
		w.Write([]byte("jpegbytes"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// ─── tests ───────────────────────────────────────────────────────────────────

func TestScorePhotoParsesProseWrappedJSON(t *testing.T) {
	srv := mediaServer(t, nil)
	vision := &fakeVision{response: "Sure! Here is the assessment:\n```json\n" +
		`{"score": 91, "composition": 9, "exposure": 8, "sharpness": 9, "color": 9, "recommendation": "keep", "reason": "sharp and well framed"}` +
		"\n```\nLet me know if you need anything else."}
	svc := NewService(vision, Config{PhotoModel: "gemini-1.5-flash", VideoModel: "gemini-1.5-pro"})

	v := svc.ScorePhoto(context.Background(), photos.MediaItem{ID: "p1", Filename: "a.jpg", BaseURL: srv.URL + "/p1"}, 85)

	assert.Equal(t, "p1", v.ItemID)
	assert.Equal(t, "a.jpg", v.Filename)
	assert.Equal(t, 91, v.Score)
	assert.Equal(t, RecommendationKeep, v.Recommendation)
	assert.Equal(t, 9, v.Composition)
	require.Len(t, vision.models, 1)
	assert.Equal(t, "gemini-1.5-flash", vision.models[0])
}

func TestScorePhotoUnparsableResponse(t *testing.T) {
	srv := mediaServer(t, nil)
	vision := &fakeVision{response: "I cannot assess this image."}
	svc := NewService(vision, Config{PhotoModel: "m"})

	v := svc.ScorePhoto(context.Background(), photos.MediaItem{ID: "p1", Filename: "a.jpg", BaseURL: srv.URL}, 85)

	assert.Equal(t, 50, v.Score)
	assert.Equal(t, RecommendationDiscard, v.Recommendation)
	assert.Equal(t, "analysis failed", v.Reason)
	assert.Equal(t, "p1", v.ItemID)
}

func TestScorePhotoUnknownRecommendationIsUnparsable(t *testing.T) {
	srv := mediaServer(t, nil)
	vision := &fakeVision{response: `{"score": 60, "recommendation": "maybe", "reason": "unsure"}`}
	svc := NewService(vision, Config{PhotoModel: "m"})

	v := svc.ScorePhoto(context.Background(), photos.MediaItem{ID: "p1", BaseURL: srv.URL}, 85)

	assert.Equal(t, 50, v.Score)
	assert.Equal(t, RecommendationDiscard, v.Recommendation)
}

func TestScorePhotoModelError(t *testing.T) {
	srv := mediaServer(t, nil)
	vision := &fakeVision{err: errors.New("quota exceeded")}
	svc := NewService(vision, Config{PhotoModel: "m"})

	v := svc.ScorePhoto(context.Background(), photos.MediaItem{ID: "p1", BaseURL: srv.URL}, 85)

	assert.Equal(t, 0, v.Score)
	assert.Equal(t, RecommendationDiscard, v.Recommendation)
	assert.Equal(t, "analysis error", v.Reason)
}

func TestScorePhotoFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()
	vision := &fakeVision{response: `{"score": 99, "recommendation": "keep"}`}
	svc := NewService(vision, Config{PhotoModel: "m"})

	v := svc.ScorePhoto(context.Background(), photos.MediaItem{ID: "p1", BaseURL: srv.URL}, 85)

	assert.Equal(t, 0, v.Score)
	assert.Equal(t, RecommendationDiscard, v.Recommendation)
	assert.Equal(t, "failed to fetch media", v.Reason)
	assert.Empty(t, vision.models)
}

func TestScoreVideoFetchesDownloadVariant(t *testing.T) {
	var paths []string
	srv := mediaServer(t, &paths)
	vision := &fakeVision{response: `{"score": 82, "stability": 8, "excitement": 8, "audio": 7, "highlights": ["goal celebration"], "recommendation": "keep", "reason": "steady action"}`}
	svc := NewService(vision, Config{PhotoModel: "flash", VideoModel: "pro"})

	v := svc.ScoreVideo(context.Background(), photos.MediaItem{ID: "v1", Filename: "clip.mp4", BaseURL: srv.URL + "/v1"}, 80)

	require.Len(t, paths, 1)
	assert.Equal(t, "/v1=d", paths[0])
	require.Len(t, vision.models, 1)
	assert.Equal(t, "pro", vision.models[0])
	assert.Equal(t, 82, v.Score)
	assert.Equal(t, 8, v.Stability)
	assert.Equal(t, []string{"goal celebration"}, v.Highlights)
	assert.Equal(t, RecommendationKeep, v.Recommendation)
}

func TestParseVerdictRejectsGarbage(t *testing.T) {
	for _, text := range []string{"", "no json here", "{broken", `{"score": "high"}`} {
		_, ok := parseVerdict(text)
		assert.False(t, ok, "text %q", text)
	}
}
