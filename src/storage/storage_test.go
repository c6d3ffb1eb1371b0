package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cosette/src/playlist"
)

var _ Store = &MemoryStore{}
var _ Store = &RedisStore{}

func TestPlaylistEntry(t *testing.T) {
	track := playlist.Track{ID: "abc", ThumbnailURL: "https://img/x.jpg", Name: "Band | Other - Song"}
	decoded, err := decodePlaylistEntry(encodePlaylistEntry(track))
	require.NoError(t, err)
	assert.Equal(t, track, decoded)

	_, err = decodePlaylistEntry("no separators")
	assert.Error(t, err)
}

func TestMemoryVideo(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	_, err := st.Video(ctx, "a - b")
	assert.ErrorIs(t, err, ErrNotFound)

	video := Video{ID: "id", ThumbnailURL: "url", ThumbnailWidth: 120, ThumbnailHeight: 90}
	require.NoError(t, st.SetVideo(ctx, "a - b", video))
	got, err := st.Video(ctx, "a - b")
	require.NoError(t, err)
	assert.Equal(t, video, got)
}

func TestMemoryCachedLists(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	_, err := st.SimilarArtists(ctx, "Pink Floyd")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.SetSimilarArtists(ctx, "Pink Floyd", []string{"Camel", "Yes"}))
	similar, err := st.SimilarArtists(ctx, "Pink Floyd")
	require.NoError(t, err)
	assert.Equal(t, []string{"Camel", "Yes"}, similar)

	isArtist, err := st.IsArtist(ctx, "camel")
	require.NoError(t, err)
	assert.True(t, isArtist, "similar artists become known artists")

	require.NoError(t, st.SetSimilarArtists(ctx, "Nobody", nil))
	similar, err = st.SimilarArtists(ctx, "Nobody")
	require.NoError(t, err)
	assert.Empty(t, similar)

	require.NoError(t, st.SetTopArtists(ctx, "not a tag", nil))
	artists, err := st.TopArtists(ctx, "not a tag")
	require.NoError(t, err)
	assert.Empty(t, artists)
	_, err = st.TopArtists(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryTopTracksOrdered(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	require.NoError(t, st.SetTopTracks(ctx, "a", []TopTrack{
		{"low", 10}, {"high", 1000}, {"mid", 100},
	}))
	tracks, err := st.TopTracks(ctx, "a", 2)
	require.NoError(t, err)
	assert.Equal(t, []TopTrack{{"high", 1000}, {"mid", 100}}, tracks)
}

func TestMemoryPlaylistTrimmed(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	for i := 0; i < 5; i++ {
		track := playlist.Track{ID: fmt.Sprint(i), Name: fmt.Sprintf("track %d", i)}
		require.NoError(t, st.AddToPlaylist(ctx, GlobalPlaylist, track, 3))
	}
	tracks, err := st.Playlist(ctx, GlobalPlaylist)
	require.NoError(t, err)
	require.Len(t, tracks, 3)
	assert.Equal(t, "4", tracks[0].ID, "newest first")
	assert.Equal(t, "2", tracks[2].ID)
}

func TestMemoryRecordsEmitUpdates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	st := NewMemoryStore()
	events := st.Listen(ctx)

	require.NoError(t, st.SaveBrokenTrack(ctx, "vid", "Artist - Song"))
	select {
	case ev := <-events:
		assert.Equal(t, UpdateEvent{}, ev)
	case <-time.After(time.Second):
		t.Fatal("no update event")
	}
	assert.Equal(t, []string{"vid|Artist - Song"}, st.Members(keyBrokenTracks))

	require.NoError(t, st.SaveHits(ctx, "A - a", "B - b"))
	require.NoError(t, st.AddTags(ctx, "Rock"))
	require.NoError(t, st.SetBrokenReason(ctx, "vid", "embedding disabled"))
	assert.Equal(t, "embedding disabled", st.BrokenReason("vid"))

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Tags: 1, BrokenTracks: 1, SavedHits: 2}, stats)

	isTag, err := st.IsTag(ctx, "rock")
	require.NoError(t, err)
	assert.True(t, isTag)
}

func TestUpdatesAreMerged(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	st := NewMemoryStore()
	events := st.Listen(ctx)

	require.NoError(t, st.SaveHits(ctx, "A - a"))
	require.NoError(t, st.SaveHits(ctx, "B - b"))
	require.NoError(t, st.SaveBrokenTrack(ctx, "vid", "C - c"))

	select {
	case <-events:
	case <-time.After(time.Second):
		t.Fatal("no update event")
	}
	select {
	case ev := <-events:
		t.Fatalf("unexpected second event %v", ev)
	case <-time.After(2 * updateRelease):
	}
}

func TestMemoryStatsCountsTracks(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	require.NoError(t, st.SetVideo(ctx, "A - a", Video{ID: "x"}))
	require.NoError(t, st.SetVideo(ctx, "B - b", Video{ID: "y"}))
	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Tracks)
}
