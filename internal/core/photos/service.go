package photos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"curator/internal/logger"
)

// addItemsChunkSize is the Photos API cap on media items per batch-add call.
const addItemsChunkSize = 50

const listPageSize = 100

// Service is a thin client for the Google Photos Library REST API. The OAuth
// access token is supplied per call by the requester; this service never
// exchanges or refreshes tokens.
type Service struct {
	BaseURL string
	http    *http.Client
	log     *logger.Logger
}

func NewService(baseURL string) *Service {
	return &Service{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     logger.New("PhotosService"),
	}
}

type listAlbumsResponse struct {
	Albums []struct {
		ID                string `json:"id"`
		Title             string `json:"title"`
		ProductURL        string `json:"productUrl"`
		MediaItemsCount   string `json:"mediaItemsCount"`
		CoverPhotoBaseURL string `json:"coverPhotoBaseUrl"`
	} `json:"albums"`
	NextPageToken string `json:"nextPageToken"`
}

// ListAlbums returns all albums visible to the credential, following
// pagination until the API stops returning a continuation token.
func (s *Service) ListAlbums(ctx context.Context, accessToken string) ([]Album, error) {
	var out []Album
	pageToken := ""
	for {
		url := fmt.Sprintf("%s/albums?pageSize=50", s.BaseURL)
		if pageToken != "" {
			url += "&pageToken=" + pageToken
		}
		var page listAlbumsResponse
		if err := s.do(ctx, http.MethodGet, url, accessToken, nil, &page); err != nil {
			return nil, fmt.Errorf("list albums: %w", err)
		}
		for _, a := range page.Albums {
			count, _ := strconv.ParseInt(a.MediaItemsCount, 10, 64)
			out = append(out, Album{
				ID:         a.ID,
				Title:      a.Title,
				ProductURL: a.ProductURL,
				ItemCount:  count,
				CoverURL:   a.CoverPhotoBaseURL,
			})
		}
		if page.NextPageToken == "" {
			return out, nil
		}
		pageToken = page.NextPageToken
	}
}

// GetAlbum fetches metadata for a single album.
func (s *Service) GetAlbum(ctx context.Context, albumID, accessToken string) (*Album, error) {
	var raw struct {
		ID              string `json:"id"`
		Title           string `json:"title"`
		ProductURL      string `json:"productUrl"`
		MediaItemsCount string `json:"mediaItemsCount"`
	}
	url := fmt.Sprintf("%s/albums/%s", s.BaseURL, albumID)
	if err := s.do(ctx, http.MethodGet, url, accessToken, nil, &raw); err != nil {
		return nil, fmt.Errorf("get album %s: %w", albumID, err)
	}
	count, _ := strconv.ParseInt(raw.MediaItemsCount, 10, 64)
	return &Album{ID: raw.ID, Title: raw.Title, ProductURL: raw.ProductURL, ItemCount: count}, nil
}

type searchResponse struct {
	MediaItems []struct {
		ID       string `json:"id"`
		BaseURL  string `json:"baseUrl"`
		MimeType string `json:"mimeType"`
		Filename string `json:"filename"`
	} `json:"mediaItems"`
	NextPageToken string `json:"nextPageToken"`
}

// GetAlbumItems fetches the full item listing of an album, looping pages
// until no continuation token is returned, and classifies items by media
// type.
func (s *Service) GetAlbumItems(ctx context.Context, albumID, accessToken string) (*AlbumItems, error) {
	items := &AlbumItems{Photos: []MediaItem{}, Videos: []MediaItem{}}
	pageToken := ""
	for {
		body := map[string]interface{}{"albumId": albumID, "pageSize": listPageSize}
		if pageToken != "" {
			body["pageToken"] = pageToken
		}
		var page searchResponse
		url := s.BaseURL + "/mediaItems:search"
		if err := s.do(ctx, http.MethodPost, url, accessToken, body, &page); err != nil {
			return nil, fmt.Errorf("list album items %s: %w", albumID, err)
		}
		for _, m := range page.MediaItems {
			item := MediaItem{ID: m.ID, BaseURL: m.BaseURL, MimeType: m.MimeType, Filename: m.Filename}
			if strings.HasPrefix(m.MimeType, "video/") {
				items.Videos = append(items.Videos, item)
			} else {
				items.Photos = append(items.Photos, item)
			}
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}
	items.PhotoCount = len(items.Photos)
	items.VideoCount = len(items.Videos)
	s.log.LogInfof("album %s listed: %d photos, %d videos", albumID, items.PhotoCount, items.VideoCount)
	return items, nil
}

// CreateAlbum creates a new remote album with the given title.
func (s *Service) CreateAlbum(ctx context.Context, title, accessToken string) (*Album, error) {
	body := map[string]interface{}{"album": map[string]string{"title": title}}
	var raw struct {
		ID         string `json:"id"`
		Title      string `json:"title"`
		ProductURL string `json:"productUrl"`
	}
	if err := s.do(ctx, http.MethodPost, s.BaseURL+"/albums", accessToken, body, &raw); err != nil {
		return nil, fmt.Errorf("create album %q: %w", title, err)
	}
	s.log.LogInfof("created album %q (%s)", title, raw.ID)
	return &Album{ID: raw.ID, Title: raw.Title, ProductURL: raw.ProductURL}, nil
}

// AddItems assigns media items to an album in sequential chunks of at most
// addItemsChunkSize ids. The returned count only reflects chunks that were
// submitted successfully; chunks applied before a later failure are not
// rolled back.
func (s *Service) AddItems(ctx context.Context, albumID string, itemIDs []string, accessToken string) (int, error) {
	added := 0
	for start := 0; start < len(itemIDs); start += addItemsChunkSize {
		end := start + addItemsChunkSize
		if end > len(itemIDs) {
			end = len(itemIDs)
		}
		chunk := itemIDs[start:end]
		body := map[string]interface{}{"mediaItemIds": chunk}
		url := fmt.Sprintf("%s/albums/%s:batchAddMediaItems", s.BaseURL, albumID)
		if err := s.do(ctx, http.MethodPost, url, accessToken, body, &struct{}{}); err != nil {
			return added, fmt.Errorf("add items to album %s (after %d added): %w", albumID, added, err)
		}
		added += len(chunk)
	}
	return added, nil
}

func (s *Service) do(ctx context.Context, method, url, accessToken string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("photos api %s: status %d: %s", url, resp.StatusCode, truncate(string(raw), 200))
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
