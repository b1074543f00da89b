package validate

import "regexp"

var shareURLPattern = regexp.MustCompile(`^https://photos\.app\.goo\.gl/[a-zA-Z0-9]+$`)

// ShareURL reports whether the string looks like a Google Photos share link.
func ShareURL(url string) bool {
	return shareURLPattern.MatchString(url)
}

// AlbumID applies a basic format check on an album identifier.
func AlbumID(id string) bool {
	return len(id) > 0 && len(id) < 200
}

// Threshold reports whether a scoring threshold is within 0-100.
func Threshold(t int) bool {
	return t >= 0 && t <= 100
}
