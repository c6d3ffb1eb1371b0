package playlist

import "fmt"

// Track is a single playable video.
type Track struct {
	ID           string `json:"youtubeId"`
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

func (track Track) String() string {
	return fmt.Sprintf("%s (%s)", track.Name, track.ID)
}

// A Store is an ordered list of tracks in which every video ID occurs at most
// once. The insertion order is the display order.
//
// A Store is not safe for concurrent use, it is owned by a single session.
type Store struct {
	tracks []Track
	seen   map[string]struct{}
}

// Reset removes all tracks from the store.
func (store *Store) Reset() {
	store.tracks = nil
	store.seen = nil
}

// Append adds the track to the end of the store unless a track with the same
// ID is already present. It reports whether the track was added.
func (store *Store) Append(track Track) bool {
	if store.seen == nil {
		store.seen = map[string]struct{}{}
	}
	if _, ok := store.seen[track.ID]; ok {
		return false
	}
	store.seen[track.ID] = struct{}{}
	store.tracks = append(store.tracks, track)
	return true
}

// Len returns the number of tracks in the store.
func (store *Store) Len() int {
	return len(store.tracks)
}

// At returns the track at the specified index. The bool is false if the index
// is out of range.
func (store *Store) At(index int) (Track, bool) {
	if index < 0 || index >= len(store.tracks) {
		return Track{}, false
	}
	return store.tracks[index], true
}

// Tracks returns a copy of all tracks in order.
func (store *Store) Tracks() []Track {
	tracks := make([]Track, len(store.tracks))
	copy(tracks, store.tracks)
	return tracks
}
