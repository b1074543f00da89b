package job

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"curator/internal/logger"
	rds "curator/internal/platform/redis"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get for unknown job ids. Callers must be able to
// tell an unknown job apart from a job with empty progress.
var ErrNotFound = errors.New("job not found")

// KV is the storage contract the job service needs. Implemented by
// platform/redis.Service; tests substitute an in-memory table. CacheGet must
// return redis.ErrCacheMiss for absent keys; any other error is treated as a
// store failure, not absence.
type KV interface {
	CacheGet(ctx context.Context, key string, dest interface{}) error
	CacheSet(ctx context.Context, key string, val interface{}, ttl time.Duration) error
	CacheDelete(ctx context.Context, keys ...string) error
	CacheKeys(ctx context.Context, pattern string) ([]string, error)
	Publish(ctx context.Context, channel, payload string) error
}

// Service owns all job state mutation. Updates are read-modify-write under a
// process-wide mutex so concurrent pipeline callbacks cannot interleave
// partial writes for the same id.
type Service struct {
	kv        KV
	retention time.Duration
	mu        sync.Mutex
	log       *logger.Logger
}

func NewService(kv KV, retention time.Duration) *Service {
	return &Service{kv: kv, retention: retention, log: logger.New("JobService")}
}

// Create registers a fresh processing job and returns its id. The record is
// readable as soon as this returns, before any pipeline work starts.
func (s *Service) Create(ctx context.Context) (string, error) {
	id := uuid.New().String()
	j := Job{
		JobID:     id,
		Status:    StatusProcessing,
		Stage:     StageFetching,
		Progress:  0,
		StartTime: time.Now().UnixMilli(),
	}
	if err := s.put(ctx, &j); err != nil {
		return "", err
	}
	return id, nil
}

// Get returns the job snapshot, ErrNotFound for unknown ids, or the store
// error itself when redis is unreachable. The distinction matters: a transient
// redis failure must not read as "this job never existed".
func (s *Service) Get(ctx context.Context, id string) (*Job, error) {
	var j Job
	if err := s.kv.CacheGet(ctx, key(id), &j); err != nil {
		if errors.Is(err, rds.ErrCacheMiss) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read job %s: %w", id, err)
	}
	return &j, nil
}

// Update applies mutate to a fresh read of the record and writes it back.
// Terminal jobs are immutable: updates against them are dropped. Progress is
// clamped non-decreasing while the job is processing.
func (s *Service) Update(ctx context.Context, id string, mutate func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var j Job
	if err := s.kv.CacheGet(ctx, key(id), &j); err != nil {
		if errors.Is(err, rds.ErrCacheMiss) {
			return ErrNotFound
		}
		return fmt.Errorf("read job %s: %w", id, err)
	}
	if j.Status != StatusProcessing {
		return nil
	}

	prev := j.Progress
	mutate(&j)
	if j.Status == StatusProcessing && j.Progress < prev {
		j.Progress = prev
	}
	return s.put(ctx, &j)
}

// Complete replaces the live-progress shape with the final result.
func (s *Service) Complete(ctx context.Context, id string, result *Result) error {
	return s.Update(ctx, id, func(j *Job) {
		j.Status = StatusCompleted
		j.Stage = StageCompleted
		j.Progress = 100
		j.AlbumName = ""
		j.TotalPhotos = 0
		j.TotalVideos = 0
		j.CurrentPhoto = 0
		j.CurrentVideo = 0
		j.Result = result
	})
}

// Fail marks the job failed with the upstream message. Finer-grained progress
// detail is intentionally lost.
func (s *Service) Fail(ctx context.Context, id, message string) error {
	return s.Update(ctx, id, func(j *Job) {
		j.Status = StatusFailed
		j.Stage = ""
		j.Progress = 0
		j.AlbumName = ""
		j.TotalPhotos = 0
		j.TotalVideos = 0
		j.CurrentPhoto = 0
		j.CurrentVideo = 0
		j.Result = nil
		j.Error = message
	})
}

// Delete removes the record outright. Used to back out a job whose task never
// made it onto the queue.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.kv.CacheDelete(ctx, key(id))
}

// Sweep deletes every job, terminal or not, whose age exceeds the window.
// Returns the number of removed records.
func (s *Service) Sweep(ctx context.Context, window time.Duration) (int, error) {
	keys, err := s.kv.CacheKeys(ctx, "job:*")
	if err != nil {
		return 0, err
	}
	now := time.Now().UnixMilli()
	removed := 0
	for _, k := range keys {
		var j Job
		if err := s.kv.CacheGet(ctx, k, &j); err != nil {
			continue
		}
		if j.StartTime > 0 && now-j.StartTime > window.Milliseconds() {
			if err := s.kv.CacheDelete(ctx, k); err != nil {
				s.log.LogErrorf("sweep delete %s: %v", k, err)
				continue
			}
			removed++
			s.log.LogDebugf("swept old job %s", j.JobID)
		}
	}
	return removed, nil
}

func (s *Service) put(ctx context.Context, j *Job) error {
	if err := s.kv.CacheSet(ctx, key(j.JobID), j, s.retention); err != nil {
		return err
	}
	// Change notice for any listeners on the job's channel.
	_ = s.kv.Publish(ctx, key(j.JobID), "updated")
	return nil
}

func key(id string) string { return "job:" + id }
