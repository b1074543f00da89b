package job

import (
	"curator/internal/core/ai"
	"curator/internal/core/photos"
)

// Status for job tracking. A job is created as processing and reaches exactly
// one terminal status.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Stage is a human-readable label for the job's current phase. Advisory only;
// control flow branches on Status.
type Stage string

const (
	StageFetching        Stage = "fetching"
	StageAnalyzing       Stage = "analyzing"
	StageAnalyzingPhotos Stage = "analyzing_photos"
	StageAnalyzingVideos Stage = "analyzing_videos"
	StageCreatingAlbums  Stage = "creating_albums"
	StageCompleted       Stage = "completed"
)

// Job is the stored state of one analysis run. While processing it carries
// live-progress fields; on completion those are dropped and Result is set; on
// failure only Error survives alongside the identity fields.
type Job struct {
	JobID     string  `json:"jobId"`
	Status    Status  `json:"status"`
	Stage     Stage   `json:"stage,omitempty"`
	Progress  float64 `json:"progress"`
	StartTime int64   `json:"startTime,omitempty"` // unix milliseconds

	AlbumName    string `json:"albumName,omitempty"`
	TotalPhotos  int    `json:"totalPhotos,omitempty"`
	TotalVideos  int    `json:"totalVideos,omitempty"`
	CurrentPhoto int    `json:"currentPhoto,omitempty"`
	CurrentVideo int    `json:"currentVideo,omitempty"`

	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// OriginalAlbum records where the analyzed items came from.
type OriginalAlbum struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PhotoCount int    `json:"photoCount"`
	VideoCount int    `json:"videoCount"`
}

// CategorySummary sums up one media category's analysis.
type CategorySummary struct {
	Total        int `json:"total"`
	Analyzed     int `json:"analyzed"`
	Selected     int `json:"selected"`
	AverageScore int `json:"averageScore"`
}

type Analysis struct {
	Photos CategorySummary `json:"photos"`
	Videos CategorySummary `json:"videos"`
}

// Result is the final report of a completed job. Verdicts carries the full
// per-item list only in scraped mode, where there is no written-back album to
// inspect afterward.
type Result struct {
	OriginalAlbum  OriginalAlbum     `json:"originalAlbum"`
	Analysis       Analysis          `json:"analysis"`
	NewAlbums      []photos.NewAlbum `json:"newAlbums"`
	ProcessingTime int64             `json:"processingTime"` // milliseconds
	Verdicts       []ai.Verdict      `json:"results,omitempty"`
}
