package photos

// Album is the subset of album metadata the engine cares about.
type Album struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ProductURL string `json:"productUrl,omitempty"`
	ItemCount  int64  `json:"itemCount,omitempty"`
	CoverURL   string `json:"coverUrl,omitempty"`
}

// MediaItem is one photo or video, either from the Photos API or synthesized
// by the share-link scraper.
type MediaItem struct {
	ID       string `json:"id"`
	BaseURL  string `json:"baseUrl"`
	MimeType string `json:"mimeType"`
	Filename string `json:"filename"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

// AlbumItems is the classified content of one album.
type AlbumItems struct {
	Photos     []MediaItem `json:"photos"`
	Videos     []MediaItem `json:"videos"`
	PhotoCount int         `json:"photoCount"`
	VideoCount int         `json:"videoCount"`
}

// NewAlbum describes an album materialized for kept items.
type NewAlbum struct {
	Type       string `json:"type"`
	Name       string `json:"name"`
	ID         string `json:"id"`
	ProductURL string `json:"productUrl"`
	ItemCount  int    `json:"itemCount"`
}
