package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cosette/src/playlist"
)

func newTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	st, err := NewRedisStore(context.Background(), mr.Addr(), 0)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st, mr
}

func TestRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err := NewRedisStore(context.Background(), addr, 0)
	assert.Error(t, err)
}

func TestRedisVideo(t *testing.T) {
	ctx := context.Background()
	st, mr := newTestRedis(t)

	_, err := st.Video(ctx, "a - b")
	assert.ErrorIs(t, err, ErrNotFound)

	video := Video{ID: "id", ThumbnailURL: "url", ThumbnailWidth: 120, ThumbnailHeight: 90}
	require.NoError(t, st.SetVideo(ctx, "a - b", video))
	got, err := st.Video(ctx, "a - b")
	require.NoError(t, err)
	assert.Equal(t, video, got)
	assert.Equal(t, "id", mr.HGet("track:a - b", "youtube_id"))
	assert.Equal(t, "120", mr.HGet("track:a - b", "thumbnail_width"))
}

func TestRedisCachedLists(t *testing.T) {
	ctx := context.Background()
	st, mr := newTestRedis(t)

	_, err := st.SimilarArtists(ctx, "Pink Floyd")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.SetSimilarArtists(ctx, "Pink Floyd", []string{"Camel", "Yes"}))
	similar, err := st.SimilarArtists(ctx, "Pink Floyd")
	require.NoError(t, err)
	assert.Equal(t, []string{"Camel", "Yes"}, similar)
	list, err := mr.List("similar:Pink Floyd")
	require.NoError(t, err)
	assert.Equal(t, []string{"Camel", "Yes"}, list)

	isArtist, err := st.IsArtist(ctx, "camel")
	require.NoError(t, err)
	assert.True(t, isArtist, "similar artists become known artists")

	require.NoError(t, st.SetSimilarArtists(ctx, "Nobody", nil))
	similar, err = st.SimilarArtists(ctx, "Nobody")
	require.NoError(t, err)
	assert.Empty(t, similar)
	members, err := mr.SMembers("hasnosimilarartist")
	require.NoError(t, err)
	assert.Equal(t, []string{"Nobody"}, members)

	require.NoError(t, st.SetTopArtists(ctx, "not a tag", nil))
	artists, err := st.TopArtists(ctx, "not a tag")
	require.NoError(t, err)
	assert.Empty(t, artists)
	assert.True(t, mr.Exists("isnottag"))
	_, err = st.TopArtists(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.SetTopArtists(ctx, "rock", []string{"Queen"}))
	artists, err = st.TopArtists(ctx, "rock")
	require.NoError(t, err)
	assert.Equal(t, []string{"Queen"}, artists)
	assert.True(t, mr.Exists("topartists:rock"))
}

func TestRedisTopTracksOrdered(t *testing.T) {
	ctx := context.Background()
	st, mr := newTestRedis(t)

	_, err := st.TopTracks(ctx, "a", 2)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.SetTopTracks(ctx, "a", []TopTrack{
		{"low", 10}, {"high", 1000}, {"mid", 100},
	}))
	tracks, err := st.TopTracks(ctx, "a", 2)
	require.NoError(t, err)
	assert.Equal(t, []TopTrack{{"high", 1000}, {"mid", 100}}, tracks)

	score, err := mr.ZScore("toptracks:a", "low")
	require.NoError(t, err)
	assert.Equal(t, 10.0, score)
}

func TestRedisPlaylistTrimmed(t *testing.T) {
	ctx := context.Background()
	st, mr := newTestRedis(t)

	tracks, err := st.Playlist(ctx, GlobalPlaylist)
	require.NoError(t, err)
	assert.Empty(t, tracks)

	for i := 0; i < 60; i++ {
		track := playlist.Track{ID: fmt.Sprint(i), ThumbnailURL: "thumb", Name: fmt.Sprintf("track %d", i)}
		require.NoError(t, st.AddToPlaylist(ctx, GlobalPlaylist, track, 50))
	}
	tracks, err = st.Playlist(ctx, GlobalPlaylist)
	require.NoError(t, err)
	require.Len(t, tracks, 50)
	assert.Equal(t, "59", tracks[0].ID, "newest first")
	assert.Equal(t, "10", tracks[49].ID)

	list, err := mr.List(GlobalPlaylist)
	require.NoError(t, err)
	assert.Equal(t, "59|thumb|track 59", list[0])
}

func TestRedisRecords(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	st, mr := newTestRedis(t)
	events := st.Listen(ctx)

	require.NoError(t, st.SaveBrokenTrack(ctx, "vid", "Artist - Song"))
	select {
	case ev := <-events:
		assert.Equal(t, UpdateEvent{}, ev)
	case <-time.After(time.Second):
		t.Fatal("no update event")
	}
	broken, err := mr.SMembers("broken_tracks")
	require.NoError(t, err)
	assert.Equal(t, []string{"vid|Artist - Song"}, broken)

	require.NoError(t, st.SaveHits(ctx, "A - a", "B - b"))
	require.NoError(t, st.AddTags(ctx, "Rock"))
	require.NoError(t, st.SetBrokenReason(ctx, "vid", "embedding disabled"))
	assert.Equal(t, "embedding disabled", mr.HGet("broken_reasons", "vid"))
	require.NoError(t, st.SetVideo(ctx, "A - a", Video{ID: "x"}))
	require.NoError(t, st.SetSimilarArtists(ctx, "A", []string{"B"}))
	require.NoError(t, st.AddToPlaylist(ctx, GlobalPlaylist, playlist.Track{ID: "x", Name: "A - a"}, 50))

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Artists: 1, Tracks: 1, Tags: 1, BrokenTracks: 1, SavedHits: 2, Playlist: 1}, stats)

	isTag, err := st.IsTag(ctx, "rock")
	require.NoError(t, err)
	assert.True(t, isTag)
}
