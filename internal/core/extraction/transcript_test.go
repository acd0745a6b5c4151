package extraction

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cookclip/internal/core/recipe"
	"cookclip/internal/infrastructure/config"
	"cookclip/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectPlatform(t *testing.T) {
	cases := map[string]recipe.Platform{
		"https://www.youtube.com/watch?v=abc":    recipe.PlatformYouTube,
		"https://youtu.be/abc":                   recipe.PlatformYouTube,
		"https://www.TikTok.com/@chef/video/123": recipe.PlatformTikTok,
		"https://instagram.com/reel/xyz":         recipe.PlatformInstagram,
	}
	for url, want := range cases {
		got, err := DetectPlatform(url)
		require.NoError(t, err, url)
		assert.Equal(t, want, got, url)
	}

	_, err := DetectPlatform("https://vimeo.com/123")
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.ErrCodeUnsupportedPlatform))
}

func newTranscriptServer(t *testing.T, handler http.HandlerFunc) *TranscriptClient {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewTranscriptClient(config.TranscriptConfig{APIKey: "sc-key", BaseURL: srv.URL, Timeout: 5 * time.Second})
}

func TestTranscriptFetchUsesPlatformEndpoint(t *testing.T) {
	client := newTranscriptServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/tiktok/video/transcript", r.URL.Path)
		assert.Equal(t, "sc-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "https://www.tiktok.com/@chef/video/1", r.URL.Query().Get("url"))
		assert.Equal(t, "ko", r.URL.Query().Get("language"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"transcript":"add the kimchi","title":"Kimchi rice","thumbnail":"https://t/1.jpg"}`))
	})

	tr, err := client.Fetch(context.Background(), "https://www.tiktok.com/@chef/video/1", "ko")
	require.NoError(t, err)
	assert.Equal(t, "add the kimchi", tr.Text)
	assert.Equal(t, "Kimchi rice", tr.Title)
	assert.Equal(t, recipe.PlatformTikTok, tr.Platform)
}

func TestTranscriptFetchJoinsSegments(t *testing.T) {
	client := newTranscriptServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/youtube/video/transcript", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transcript":[{"text":"boil water"},{"text":" "},{"text":"add pasta"}]}`))
	})

	tr, err := client.Fetch(context.Background(), "https://youtu.be/abc", "en")
	require.NoError(t, err)
	assert.Equal(t, "boil water add pasta", tr.Text)
}

func TestTranscriptFetchFailures(t *testing.T) {
	t.Run("non 2xx", func(t *testing.T) {
		client := newTranscriptServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusPaymentRequired)
			_, _ = w.Write([]byte(`{"error":"out of credits"}`))
		})
		_, err := client.Fetch(context.Background(), "https://instagram.com/reel/x", "en")
		require.Error(t, err)
		assert.True(t, common.HasCode(err, common.ErrCodeUpstreamFetch))
	})

	t.Run("empty transcript", func(t *testing.T) {
		client := newTranscriptServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"transcript":""}`))
		})
		_, err := client.Fetch(context.Background(), "https://instagram.com/reel/x", "en")
		require.Error(t, err)
		assert.True(t, common.HasCode(err, common.ErrCodeUpstreamFetch))
	})

	t.Run("unsupported platform makes no request", func(t *testing.T) {
		called := false
		client := newTranscriptServer(t, func(w http.ResponseWriter, r *http.Request) { called = true })
		_, err := client.Fetch(context.Background(), "https://vimeo.com/1", "en")
		require.Error(t, err)
		assert.False(t, called)
	})
}
