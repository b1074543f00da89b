package analysis

import "curator/internal/core/photos"

// StartRequest starts an authenticated album analysis.
type StartRequest struct {
	AlbumID        string `json:"albumId"`
	PhotoThreshold *int   `json:"photoThreshold,omitempty"`
	VideoThreshold *int   `json:"videoThreshold,omitempty"`
}

// ScrapedStartRequest starts an analysis over a pre-extracted item list from
// a public share page. Photos only; the scraper cannot recover playable
// video streams.
type ScrapedStartRequest struct {
	Photos         []photos.MediaItem `json:"photos"`
	PhotoThreshold *int               `json:"photoThreshold,omitempty"`
}

type albumTaskPayload struct {
	JobID          string `json:"job_id"`
	AlbumID        string `json:"album_id"`
	AccessToken    string `json:"access_token"`
	PhotoThreshold int    `json:"photo_threshold"`
	VideoThreshold int    `json:"video_threshold"`
}

type scrapedTaskPayload struct {
	JobID          string             `json:"job_id"`
	Photos         []photos.MediaItem `json:"photos"`
	PhotoThreshold int                `json:"photo_threshold"`
}
