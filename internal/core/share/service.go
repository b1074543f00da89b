package share

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"curator/internal/core/photos"
	"curator/internal/logger"

	"github.com/PuerkitoBio/goquery"
)

// minDimension filters out avatars and icons embedded in the share page.
const minDimension = 100

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Photo URLs in the share page's bootstrap scripts appear as
// "https://lh3.googleusercontent.com/...", width, height triples.
var photoPattern = regexp.MustCompile(`"(https://lh3\.googleusercontent\.com/[^"]+)",\s*(\d+),\s*(\d+)`)

// Service extracts media items from a public Google Photos share page. It is
// a one-shot, stateless extraction; the share URL redirects to the album
// page whose inline scripts carry the photo data.
type Service struct {
	http *http.Client
	log  *logger.Logger
}

func NewService() *Service {
	return &Service{
		http: &http.Client{Timeout: 30 * time.Second},
		log:  logger.New("ShareService"),
	}
}

// ParseSharedAlbum fetches the share page and returns the photos it lists,
// de-duplicated by URL and filtered by a minimum pixel-dimension floor.
func (s *Service) ParseSharedAlbum(ctx context.Context, shareURL string) ([]photos.MediaItem, error) {
	s.log.LogInfof("parsing shared album: %s", shareURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, shareURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch share page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch share page: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse share page: %w", err)
	}

	// The photo data lives in AF_initDataCallback script bodies. This is a
	// heuristic against Google's markup and may break on structure changes.
	var scripts strings.Builder
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		scripts.WriteString(sel.Text())
		scripts.WriteString(" ")
	})

	seen := make(map[string]struct{})
	var items []photos.MediaItem
	for _, m := range photoPattern.FindAllStringSubmatch(scripts.String(), -1) {
		url := m[1]
		width, _ := strconv.Atoi(m[2])
		height, _ := strconv.Atoi(m[3])
		if width <= minDimension || height <= minDimension {
			continue
		}
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		n := len(items) + 1
		items = append(items, photos.MediaItem{
			ID:       fmt.Sprintf("scraped_%d", n),
			BaseURL:  url,
			MimeType: "image/jpeg",
			Filename: fmt.Sprintf("photo_%d.jpg", n),
			Width:    width,
			Height:   height,
		})
	}

	if len(items) == 0 {
		s.log.LogWarn("no photos found in share page, markup may have changed or the link is invalid")
	}
	s.log.LogInfof("share parse complete: %d photos", len(items))
	return items, nil
}
