package ai

const (
	RecommendationKeep    = "keep"
	RecommendationDiscard = "discard"
)

// Verdict is the scoring outcome for one media item. The scoring model is the
// sole authority on Recommendation; downstream code partitions on the field
// and never recomputes it from Score.
type Verdict struct {
	ItemID   string `json:"itemId"`
	Filename string `json:"filename"`
	Score    int    `json:"score"`

	// Photo sub-scores
	Composition int `json:"composition,omitempty"`
	Exposure    int `json:"exposure,omitempty"`
	Sharpness   int `json:"sharpness,omitempty"`
	Color       int `json:"color,omitempty"`

	// Video sub-scores
	Stability  int      `json:"stability,omitempty"`
	Excitement int      `json:"excitement,omitempty"`
	Audio      int      `json:"audio,omitempty"`
	Highlights []string `json:"highlights,omitempty"`

	Recommendation string `json:"recommendation"`
	Reason         string `json:"reason"`
}

// Progress reports batch position after each scored item.
type Progress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}
