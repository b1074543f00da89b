package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShareURL(t *testing.T) {
	cases := []struct {
		url  string
		want bool
	}{
		{"https://photos.app.goo.gl/AbCd1234eF", true},
		{"https://photos.app.goo.gl/x", true},
		{"http://photos.app.goo.gl/AbCd1234eF", false},
		{"https://photos.google.com/share/AbCd", false},
		{"https://photos.app.goo.gl/", false},
		{"https://photos.app.goo.gl/AbCd?key=1", false},
		{"https://photos.app.goo.gl/AbCd/extra", false},
		{"", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ShareURL(c.url), "url %q", c.url)
	}
}

func TestAlbumID(t *testing.T) {
	assert.True(t, AlbumID("a"))
	assert.True(t, AlbumID(strings.Repeat("x", 199)))
	assert.False(t, AlbumID(""))
	assert.False(t, AlbumID(strings.Repeat("x", 200)))
}

func TestThreshold(t *testing.T) {
	assert.True(t, Threshold(0))
	assert.True(t, Threshold(85))
	assert.True(t, Threshold(100))
	assert.False(t, Threshold(-1))
	assert.False(t, Threshold(101))
}
