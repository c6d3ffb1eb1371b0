package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cosette/src/playlist"
	"cosette/src/storage"
)

type noSearch struct{}

func (noSearch) Search(ctx context.Context, query string, out chan<- playlist.Track) error {
	return nil
}

func get(t *testing.T, server *httptest.Server, path string) (*http.Response, string) {
	t.Helper()
	res, err := http.Get(server.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(body)
}

func TestShufflePlaylist(t *testing.T) {
	tracks := make([]playlist.Track, 20)
	for i := range tracks {
		tracks[i] = playlist.Track{ID: string(rune('a' + i))}
	}
	for i := 0; i < 10; i++ {
		shuffled := append([]playlist.Track(nil), tracks...)
		ShufflePlaylist(shuffled)
		assert.Equal(t, tracks[0], shuffled[0])
		assert.ElementsMatch(t, tracks, shuffled)
	}
	ShufflePlaylist(nil)
}

func TestBrowserPage(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.AddToPlaylist(ctx, storage.GlobalPlaylist, playlist.Track{ID: "old", Name: "Old"}, 50))
	require.NoError(t, store.AddToPlaylist(ctx, storage.GlobalPlaylist, playlist.Track{ID: "new", Name: "New"}, 50))
	server := httptest.NewServer(New("release", "test", "/", store, noSearch{}, nil))
	defer server.Close()

	res, body := get(t, server, "/")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", res.Header.Get("Content-Type"))
	assert.Contains(t, body, "GLOBAL_PLAYLIST")
	assert.Contains(t, body, "playlist-items")
	newAt := strings.Index(body, `"youtubeId":"new"`)
	oldAt := strings.Index(body, `"youtubeId":"old"`)
	require.True(t, newAt >= 0 && oldAt >= 0, body)
	assert.Less(t, newAt, oldAt)
}

func TestBrowserPageEmptyPlaylist(t *testing.T) {
	server := httptest.NewServer(New("release", "test", "/", storage.NewMemoryStore(), noSearch{}, nil))
	defer server.Close()

	_, body := get(t, server, "/")
	assert.Contains(t, body, "GLOBAL_PLAYLIST = [];")
}

func TestBrowserPageLeavesIframeAPIToClient(t *testing.T) {
	server := httptest.NewServer(New("release", "test", "/", storage.NewMemoryStore(), noSearch{}, nil))
	defer server.Close()

	// The client installs onYouTubeIframeAPIReady before it loads the API, so
	// the page must not load it on its own.
	_, body := get(t, server, "/")
	assert.NotContains(t, body, "iframe_api")
	wasmExec := strings.Index(body, "client/wasm_exec.js")
	wasm := strings.Index(body, "client/main.wasm")
	require.True(t, wasmExec >= 0 && wasm >= 0, body)
	assert.Less(t, wasmExec, wasm)
}

func TestStylesheet(t *testing.T) {
	server := httptest.NewServer(New("release", "test", "/", storage.NewMemoryStore(), noSearch{}, nil))
	defer server.Close()

	res, body := get(t, server, "/style.css")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/css; charset=utf-8", res.Header.Get("Content-Type"))
	assert.Contains(t, body, ".playlist-item")
	assert.NotContains(t, body, "\n\t")
}

func TestAPIMounted(t *testing.T) {
	server := httptest.NewServer(New("release", "test", "/", storage.NewMemoryStore(), noSearch{}, nil))
	defer server.Close()

	res, body := get(t, server, "/tracks?q=x")
	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))
	assert.Contains(t, body, "event: finish")
}
