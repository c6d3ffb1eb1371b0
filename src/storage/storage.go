// Package storage keeps the caches and records of the search server.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cosette/src/playlist"
	"cosette/src/util"
)

// ErrNotFound is returned when a cache has no entry for a key.
var ErrNotFound = errors.New("not found")

// GlobalPlaylist is the name of the playlist that collects recent hits.
const GlobalPlaylist = "global_playlist"

// UpdateEvent is emitted when records that show up in the stats change.
type UpdateEvent struct{}

// updateRelease merges bursts of updates, e.g. saving the hits of a search,
// into a single UpdateEvent.
const updateRelease = 200 * time.Millisecond

// Video is the YouTube video a track name resolved to.
type Video struct {
	ID              string
	ThumbnailURL    string
	ThumbnailWidth  int64
	ThumbnailHeight int64
}

// TopTrack is one of the most played tracks of an artist.
type TopTrack struct {
	Name      string
	Playcount int64
}

// Stats summarizes the stored records.
type Stats struct {
	Artists      int64 `json:"artists"`
	Tracks       int64 `json:"tracks"`
	Tags         int64 `json:"tags"`
	BrokenTracks int64 `json:"brokenTracks"`
	SavedHits    int64 `json:"savedHits"`
	Playlist     int64 `json:"playlist"`
}

// A Store holds everything the server remembers between requests.
type Store interface {
	util.Eventer

	// Video returns the cached video for a "<artist> - <track>" query or
	// ErrNotFound.
	Video(ctx context.Context, query string) (Video, error)
	SetVideo(ctx context.Context, query string, video Video) error

	// SimilarArtists returns ErrNotFound if nothing is known about the
	// artist and an empty list if the artist is known to have no similar
	// artists.
	SimilarArtists(ctx context.Context, artist string) ([]string, error)
	SetSimilarArtists(ctx context.Context, artist string, similar []string) error

	// TopTracks returns at most n tracks ordered by descending playcount or
	// ErrNotFound.
	TopTracks(ctx context.Context, artist string, n int) ([]TopTrack, error)
	SetTopTracks(ctx context.Context, artist string, tracks []TopTrack) error

	// TopArtists returns ErrNotFound if nothing is known about the tag and an
	// empty list if the name is known not to be a tag.
	TopArtists(ctx context.Context, tag string) ([]string, error)
	SetTopArtists(ctx context.Context, tag string, artists []string) error

	IsArtist(ctx context.Context, name string) (bool, error)
	IsTag(ctx context.Context, name string) (bool, error)
	AddTags(ctx context.Context, tags ...string) error

	SaveBrokenTrack(ctx context.Context, videoID, name string) error
	SetBrokenReason(ctx context.Context, videoID, reason string) error
	SaveHits(ctx context.Context, names ...string) error

	// AddToPlaylist pushes the track to the front of the named playlist and
	// drops everything beyond length.
	AddToPlaylist(ctx context.Context, name string, track playlist.Track, length int) error
	Playlist(ctx context.Context, name string) ([]playlist.Track, error)

	Stats(ctx context.Context) (Stats, error)
	Close() error
}

func encodePlaylistEntry(track playlist.Track) string {
	return fmt.Sprintf("%s|%s|%s", track.ID, track.ThumbnailURL, track.Name)
}

func decodePlaylistEntry(entry string) (playlist.Track, error) {
	parts := strings.SplitN(entry, "|", 3)
	if len(parts) != 3 {
		return playlist.Track{}, fmt.Errorf("malformed playlist entry %q", entry)
	}
	return playlist.Track{ID: parts[0], ThumbnailURL: parts[1], Name: parts[2]}, nil
}

func brokenTrackEntry(videoID, name string) string {
	return videoID + "|" + name
}
