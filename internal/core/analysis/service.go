package analysis

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"curator/internal/core/ai"
	"curator/internal/core/job"
	"curator/internal/core/photos"
	"curator/internal/logger"
	tasks "curator/internal/platform/tasks"

	"github.com/hibiken/asynq"
)

// PhotoLibrary is the album listing/mutation collaborator the orchestrator
// drives. Satisfied by photos.Service.
type PhotoLibrary interface {
	GetAlbum(ctx context.Context, albumID, accessToken string) (*photos.Album, error)
	GetAlbumItems(ctx context.Context, albumID, accessToken string) (*photos.AlbumItems, error)
	CreateAlbum(ctx context.Context, title, accessToken string) (*photos.Album, error)
	AddItems(ctx context.Context, albumID string, itemIDs []string, accessToken string) (int, error)
}

// TaskEnqueuer dispatches background tasks. Satisfied by tasks.Client.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, queue string, maxRetries int) error
}

// Service is the job orchestrator: it accepts analysis requests, creates the
// job record synchronously so the id is pollable before any work lands, and
// drives the scoring pipeline from the worker side.
type Service struct {
	jobs       *job.Service
	library    PhotoLibrary
	batch      *ai.Batch
	tasks      TaskEnqueuer
	maxRetries int
	retention  time.Duration
	log        *logger.Logger
}

func NewService(jobs *job.Service, library PhotoLibrary, batch *ai.Batch, enqueuer TaskEnqueuer, maxRetries int, retention time.Duration) *Service {
	return &Service{
		jobs:       jobs,
		library:    library,
		batch:      batch,
		tasks:      enqueuer,
		maxRetries: maxRetries,
		retention:  retention,
		log:        logger.New("AnalysisService"),
	}
}

// EnqueueAlbum registers a job for an authenticated album analysis and
// returns its id immediately.
func (s *Service) EnqueueAlbum(ctx context.Context, req StartRequest, accessToken string, photoThreshold, videoThreshold int) (string, error) {
	id, err := s.jobs.Create(ctx)
	if err != nil {
		return "", err
	}
	payload, _ := json.Marshal(albumTaskPayload{
		JobID:          id,
		AlbumID:        req.AlbumID,
		AccessToken:    accessToken,
		PhotoThreshold: photoThreshold,
		VideoThreshold: videoThreshold,
	})
	if err := s.tasks.Enqueue(asynq.NewTask(tasks.TaskTypeAnalyzeAlbum, payload), "default", s.maxRetries); err != nil {
		// Back out the record; a task that never reached the queue would
		// otherwise sit processing until the sweep.
		_ = s.jobs.Delete(ctx, id)
		return "", err
	}
	s.log.LogInfof("enqueued album analysis %s for album %s (thresholds %d/%d)", id, req.AlbumID, photoThreshold, videoThreshold)
	return id, nil
}

// EnqueueScraped registers a job over a caller-supplied item list.
func (s *Service) EnqueueScraped(ctx context.Context, items []photos.MediaItem, photoThreshold int) (string, error) {
	id, err := s.jobs.Create(ctx)
	if err != nil {
		return "", err
	}
	payload, _ := json.Marshal(scrapedTaskPayload{JobID: id, Photos: items, PhotoThreshold: photoThreshold})
	if err := s.tasks.Enqueue(asynq.NewTask(tasks.TaskTypeAnalyzeScraped, payload), "default", s.maxRetries); err != nil {
		_ = s.jobs.Delete(ctx, id)
		return "", err
	}
	s.log.LogInfof("enqueued scraped analysis %s over %d photos (threshold %d)", id, len(items), photoThreshold)
	return id, nil
}

// HandleAlbumTask runs the authenticated-mode pipeline. Pipeline errors mark
// the job failed and are not returned: a failed job is terminal, and retrying
// against a terminal record would be a no-op.
func (s *Service) HandleAlbumTask(ctx context.Context, task *asynq.Task) error {
	var p albumTaskPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return err
	}
	s.log.LogInfof("processing album analysis %s", p.JobID)
	if err := s.processAlbum(ctx, p); err != nil {
		s.log.LogErrorf("album analysis %s failed: %v", p.JobID, err)
		_ = s.jobs.Fail(ctx, p.JobID, err.Error())
	}
	return nil
}

// HandleScrapedTask runs the scraped-mode pipeline.
func (s *Service) HandleScrapedTask(ctx context.Context, task *asynq.Task) error {
	var p scrapedTaskPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return err
	}
	s.log.LogInfof("processing scraped analysis %s", p.JobID)
	if err := s.processScraped(ctx, p); err != nil {
		s.log.LogErrorf("scraped analysis %s failed: %v", p.JobID, err)
		_ = s.jobs.Fail(ctx, p.JobID, err.Error())
	}
	return nil
}

// HandleSweepTask removes job records older than the retention window. Runs
// on the scheduler's hourly tick.
func (s *Service) HandleSweepTask(ctx context.Context, _ *asynq.Task) error {
	removed, err := s.jobs.Sweep(ctx, s.retention)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.log.LogInfof("retention sweep removed %d jobs", removed)
	}
	return nil
}

func (s *Service) processAlbum(ctx context.Context, p albumTaskPayload) error {
	created, err := s.jobs.Get(ctx, p.JobID)
	if err != nil {
		return err
	}

	album, err := s.library.GetAlbum(ctx, p.AlbumID, p.AccessToken)
	if err != nil {
		return err
	}
	albumName := album.Title
	if albumName == "" {
		albumName = "My_Album"
	}
	if err := s.jobs.Update(ctx, p.JobID, func(j *job.Job) {
		j.Stage = job.StageFetching
		j.Progress = 10
		j.AlbumName = albumName
	}); err != nil {
		return err
	}

	items, err := s.library.GetAlbumItems(ctx, p.AlbumID, p.AccessToken)
	if err != nil {
		return err
	}
	if err := s.jobs.Update(ctx, p.JobID, func(j *job.Job) {
		j.Stage = job.StageAnalyzing
		j.Progress = 20
		j.TotalPhotos = items.PhotoCount
		j.TotalVideos = items.VideoCount
	}); err != nil {
		return err
	}

	// Photo scoring fills 20-60%, video scoring 60-80%.
	photoResults := s.batch.ScorePhotos(ctx, items.Photos, p.PhotoThreshold, func(pr ai.Progress) {
		_ = s.jobs.Update(ctx, p.JobID, func(j *job.Job) {
			j.Stage = job.StageAnalyzingPhotos
			j.Progress = 20 + float64(pr.Percentage)*0.4
			j.CurrentPhoto = pr.Current
			j.TotalPhotos = pr.Total
		})
	})
	videoResults := s.batch.ScoreVideos(ctx, items.Videos, p.VideoThreshold, func(pr ai.Progress) {
		_ = s.jobs.Update(ctx, p.JobID, func(j *job.Job) {
			j.Stage = job.StageAnalyzingVideos
			j.Progress = 60 + float64(pr.Percentage)*0.2
			j.CurrentVideo = pr.Current
			j.TotalVideos = pr.Total
		})
	})

	selectedPhotos := keepers(photoResults)
	selectedVideos := keepers(videoResults)
	s.log.LogInfof("[%s] selection: %d/%d photos, %d/%d videos",
		p.JobID, len(selectedPhotos), items.PhotoCount, len(selectedVideos), items.VideoCount)

	if err := s.jobs.Update(ctx, p.JobID, func(j *job.Job) {
		j.Stage = job.StageCreatingAlbums
		j.Progress = 85
	}); err != nil {
		return err
	}

	// Materialize a new album per category, skipping empty ones: no empty
	// album is ever created.
	newAlbums := []photos.NewAlbum{}
	if len(selectedPhotos) > 0 {
		a, err := s.materialize(ctx, "photos", "Selected_Photos_from_"+albumName, selectedPhotos, p.AccessToken)
		if err != nil {
			return err
		}
		newAlbums = append(newAlbums, *a)
	}
	if len(selectedVideos) > 0 {
		a, err := s.materialize(ctx, "videos", "Selected_Videos_from_"+albumName, selectedVideos, p.AccessToken)
		if err != nil {
			return err
		}
		newAlbums = append(newAlbums, *a)
	}

	result := &job.Result{
		OriginalAlbum: job.OriginalAlbum{
			ID:         p.AlbumID,
			Name:       albumName,
			PhotoCount: items.PhotoCount,
			VideoCount: items.VideoCount,
		},
		Analysis: job.Analysis{
			Photos: summarize(items.PhotoCount, photoResults, selectedPhotos),
			Videos: summarize(items.VideoCount, videoResults, selectedVideos),
		},
		NewAlbums:      newAlbums,
		ProcessingTime: time.Now().UnixMilli() - created.StartTime,
	}
	if err := s.jobs.Complete(ctx, p.JobID, result); err != nil {
		return err
	}
	s.log.LogInfof("album analysis %s completed in %dms", p.JobID, result.ProcessingTime)
	return nil
}

func (s *Service) processScraped(ctx context.Context, p scrapedTaskPayload) error {
	created, err := s.jobs.Get(ctx, p.JobID)
	if err != nil {
		return err
	}

	if err := s.jobs.Update(ctx, p.JobID, func(j *job.Job) {
		j.Stage = job.StageAnalyzing
		j.TotalPhotos = len(p.Photos)
	}); err != nil {
		return err
	}

	// Single compressed 0-100% range: there is no listing or album-creation
	// phase in this mode.
	verdicts := s.batch.ScorePhotos(ctx, p.Photos, p.PhotoThreshold, func(pr ai.Progress) {
		_ = s.jobs.Update(ctx, p.JobID, func(j *job.Job) {
			j.Stage = job.StageAnalyzingPhotos
			j.Progress = float64(pr.Percentage)
			j.CurrentPhoto = pr.Current
			j.TotalPhotos = pr.Total
		})
	})
	selected := keepers(verdicts)

	result := &job.Result{
		OriginalAlbum: job.OriginalAlbum{
			ID:         "scraped",
			Name:       "Shared_Album",
			PhotoCount: len(p.Photos),
		},
		Analysis: job.Analysis{
			Photos: summarize(len(p.Photos), verdicts, selected),
		},
		NewAlbums:      []photos.NewAlbum{},
		ProcessingTime: time.Now().UnixMilli() - created.StartTime,
		// Scraped mode has no written-back album to inspect, so the full
		// per-item list ships with the result for client display.
		Verdicts: verdicts,
	}
	if err := s.jobs.Complete(ctx, p.JobID, result); err != nil {
		return err
	}
	s.log.LogInfof("scraped analysis %s completed in %dms", p.JobID, result.ProcessingTime)
	return nil
}

func (s *Service) materialize(ctx context.Context, category, name string, kept []ai.Verdict, accessToken string) (*photos.NewAlbum, error) {
	created, err := s.library.CreateAlbum(ctx, name, accessToken)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(kept))
	for i, v := range kept {
		ids[i] = v.ItemID
	}
	added, err := s.library.AddItems(ctx, created.ID, ids, accessToken)
	if err != nil {
		return nil, err
	}
	s.log.LogDebugf("added %d items to album %q", added, name)
	return &photos.NewAlbum{
		Type:       category,
		Name:       name,
		ID:         created.ID,
		ProductURL: created.ProductURL,
		ItemCount:  len(kept),
	}, nil
}

func keepers(verdicts []ai.Verdict) []ai.Verdict {
	kept := make([]ai.Verdict, 0, len(verdicts))
	for _, v := range verdicts {
		if v.Recommendation == ai.RecommendationKeep {
			kept = append(kept, v)
		}
	}
	return kept
}

func summarize(total int, verdicts, selected []ai.Verdict) job.CategorySummary {
	return job.CategorySummary{
		Total:        total,
		Analyzed:     len(verdicts),
		Selected:     len(selected),
		AverageScore: averageScore(verdicts),
	}
}

func averageScore(verdicts []ai.Verdict) int {
	if len(verdicts) == 0 {
		return 0
	}
	sum := 0
	for _, v := range verdicts {
		sum += v.Score
	}
	return int(math.Round(float64(sum) / float64(len(verdicts))))
}
