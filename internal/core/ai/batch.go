package ai

import (
	"context"
	"math"
	"time"

	"curator/internal/core/photos"
	"curator/internal/logger"
)

// Batch drives a Scorer over an ordered item list, strictly sequentially,
// with a mandatory delay between calls. Sequential pacing is the rate-limit
// strategy: the scoring quota is the true bottleneck, and one bad item never
// aborts the batch.
type Batch struct {
	scorer     Scorer
	photoDelay time.Duration
	videoDelay time.Duration
	log        *logger.Logger
}

func NewBatch(scorer Scorer, photoDelay, videoDelay time.Duration) *Batch {
	return &Batch{
		scorer:     scorer,
		photoDelay: photoDelay,
		videoDelay: videoDelay,
		log:        logger.New("BatchScorer"),
	}
}

// ScorePhotos returns one Verdict per input item, order preserved. onProgress
// is invoked after every item. No delay follows the final item.
func (b *Batch) ScorePhotos(ctx context.Context, items []photos.MediaItem, threshold int, onProgress func(Progress)) []Verdict {
	return b.run(ctx, items, threshold, b.photoDelay, onProgress, b.scorer.ScorePhoto)
}

// ScoreVideos behaves like ScorePhotos with the larger video delay; the pro
// model's per-minute quota is far tighter than flash's.
func (b *Batch) ScoreVideos(ctx context.Context, items []photos.MediaItem, threshold int, onProgress func(Progress)) []Verdict {
	return b.run(ctx, items, threshold, b.videoDelay, onProgress, b.scorer.ScoreVideo)
}

func (b *Batch) run(
	ctx context.Context,
	items []photos.MediaItem,
	threshold int,
	delay time.Duration,
	onProgress func(Progress),
	score func(context.Context, photos.MediaItem, int) Verdict,
) []Verdict {
	total := len(items)
	if total == 0 {
		return nil
	}
	b.log.LogInfof("scoring %d items (threshold %d)", total, threshold)

	results := make([]Verdict, 0, total)
	for i, item := range items {
		results = append(results, score(ctx, item, threshold))

		if onProgress != nil {
			onProgress(Progress{
				Current:    i + 1,
				Total:      total,
				Percentage: int(math.Round(float64(i+1) / float64(total) * 100)),
			})
		}

		if i < total-1 {
			time.Sleep(delay)
		}
	}

	kept := 0
	for _, v := range results {
		if v.Recommendation == RecommendationKeep {
			kept++
		}
	}
	b.log.LogInfof("scoring complete: %d/%d kept", kept, total)
	return results
}
