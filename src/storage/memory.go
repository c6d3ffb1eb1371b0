package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"cosette/src/playlist"
	"cosette/src/util"
)

// MemoryStore is a Store that forgets everything when the process exits. It
// is used when no Redis server is configured.
type MemoryStore struct {
	util.Emitter

	lock          sync.Mutex
	videos        map[string]Video
	similar       map[string][]string
	topArtists    map[string][]string
	topTracks     map[string][]TopTrack
	sets          map[string]map[string]struct{}
	brokenReasons map[string]string
	playlists     map[string][]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Emitter:       util.Emitter{Release: updateRelease},
		videos:        map[string]Video{},
		similar:       map[string][]string{},
		topArtists:    map[string][]string{},
		topTracks:     map[string][]TopTrack{},
		sets:          map[string]map[string]struct{}{},
		brokenReasons: map[string]string{},
		playlists:     map[string][]string{},
	}
}

func (st *MemoryStore) add(set string, members ...string) {
	if st.sets[set] == nil {
		st.sets[set] = map[string]struct{}{}
	}
	for _, m := range members {
		st.sets[set][m] = struct{}{}
	}
}

func (st *MemoryStore) has(set, member string) bool {
	_, ok := st.sets[set][member]
	return ok
}

// Members returns the sorted members of one of the sets the store keeps, e.g.
// "broken_tracks".
func (st *MemoryStore) Members(set string) []string {
	st.lock.Lock()
	defer st.lock.Unlock()
	members := make([]string, 0, len(st.sets[set]))
	for m := range st.sets[set] {
		members = append(members, m)
	}
	sort.Strings(members)
	return members
}

// BrokenReason returns the reason recorded for a broken video.
func (st *MemoryStore) BrokenReason(videoID string) string {
	st.lock.Lock()
	defer st.lock.Unlock()
	return st.brokenReasons[videoID]
}

// Close implements the Store interface.
func (st *MemoryStore) Close() error {
	return nil
}

// Video implements the Store interface.
func (st *MemoryStore) Video(ctx context.Context, query string) (Video, error) {
	st.lock.Lock()
	defer st.lock.Unlock()
	video, ok := st.videos[query]
	if !ok {
		return Video{}, ErrNotFound
	}
	return video, nil
}

// SetVideo implements the Store interface.
func (st *MemoryStore) SetVideo(ctx context.Context, query string, video Video) error {
	st.lock.Lock()
	defer st.lock.Unlock()
	st.videos[query] = video
	return nil
}

func (st *MemoryStore) cachedList(cache map[string][]string, negativeSet, name string) ([]string, error) {
	st.lock.Lock()
	defer st.lock.Unlock()
	if list, ok := cache[name]; ok {
		return append([]string(nil), list...), nil
	}
	if st.has(negativeSet, name) {
		return []string{}, nil
	}
	return nil, ErrNotFound
}

func (st *MemoryStore) setCachedList(cache map[string][]string, negativeSet, name string, list []string) {
	st.lock.Lock()
	defer st.lock.Unlock()
	if len(list) == 0 {
		st.add(negativeSet, name)
		return
	}
	cache[name] = append([]string(nil), list...)
	for _, a := range list {
		st.add(keyArtists, strings.ToLower(a))
	}
}

// SimilarArtists implements the Store interface.
func (st *MemoryStore) SimilarArtists(ctx context.Context, artist string) ([]string, error) {
	return st.cachedList(st.similar, keyNoSimilarArtists, artist)
}

// SetSimilarArtists implements the Store interface.
func (st *MemoryStore) SetSimilarArtists(ctx context.Context, artist string, similar []string) error {
	st.setCachedList(st.similar, keyNoSimilarArtists, artist, similar)
	return nil
}

// TopArtists implements the Store interface.
func (st *MemoryStore) TopArtists(ctx context.Context, tag string) ([]string, error) {
	return st.cachedList(st.topArtists, keyNotTag, tag)
}

// SetTopArtists implements the Store interface.
func (st *MemoryStore) SetTopArtists(ctx context.Context, tag string, artists []string) error {
	st.setCachedList(st.topArtists, keyNotTag, tag, artists)
	return nil
}

// TopTracks implements the Store interface.
func (st *MemoryStore) TopTracks(ctx context.Context, artist string, n int) ([]TopTrack, error) {
	st.lock.Lock()
	defer st.lock.Unlock()
	tracks, ok := st.topTracks[artist]
	if !ok {
		return nil, ErrNotFound
	}
	if len(tracks) > n {
		tracks = tracks[:n]
	}
	return append([]TopTrack(nil), tracks...), nil
}

// SetTopTracks implements the Store interface.
func (st *MemoryStore) SetTopTracks(ctx context.Context, artist string, tracks []TopTrack) error {
	if len(tracks) == 0 {
		return nil
	}
	sorted := append([]TopTrack(nil), tracks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Playcount > sorted[j].Playcount
	})
	st.lock.Lock()
	defer st.lock.Unlock()
	st.topTracks[artist] = sorted
	return nil
}

// IsArtist implements the Store interface.
func (st *MemoryStore) IsArtist(ctx context.Context, name string) (bool, error) {
	st.lock.Lock()
	defer st.lock.Unlock()
	return st.has(keyArtists, name), nil
}

// IsTag implements the Store interface.
func (st *MemoryStore) IsTag(ctx context.Context, name string) (bool, error) {
	st.lock.Lock()
	defer st.lock.Unlock()
	return st.has(keyTags, name), nil
}

// AddTags implements the Store interface.
func (st *MemoryStore) AddTags(ctx context.Context, tags ...string) error {
	st.lock.Lock()
	defer st.lock.Unlock()
	for _, t := range tags {
		st.add(keyTags, strings.ToLower(t))
	}
	return nil
}

// SaveBrokenTrack implements the Store interface.
func (st *MemoryStore) SaveBrokenTrack(ctx context.Context, videoID, name string) error {
	st.lock.Lock()
	st.add(keyBrokenTracks, brokenTrackEntry(videoID, name))
	st.lock.Unlock()
	st.Emit(UpdateEvent{})
	return nil
}

// SetBrokenReason implements the Store interface.
func (st *MemoryStore) SetBrokenReason(ctx context.Context, videoID, reason string) error {
	st.lock.Lock()
	defer st.lock.Unlock()
	st.brokenReasons[videoID] = reason
	return nil
}

// SaveHits implements the Store interface.
func (st *MemoryStore) SaveHits(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	st.lock.Lock()
	st.add(keySavedHits, names...)
	st.lock.Unlock()
	st.Emit(UpdateEvent{})
	return nil
}

// AddToPlaylist implements the Store interface.
func (st *MemoryStore) AddToPlaylist(ctx context.Context, name string, track playlist.Track, length int) error {
	st.lock.Lock()
	defer st.lock.Unlock()
	entries := append([]string{encodePlaylistEntry(track)}, st.playlists[name]...)
	if len(entries) > length {
		entries = entries[:length]
	}
	st.playlists[name] = entries
	return nil
}

// Playlist implements the Store interface.
func (st *MemoryStore) Playlist(ctx context.Context, name string) ([]playlist.Track, error) {
	st.lock.Lock()
	defer st.lock.Unlock()
	tracks := make([]playlist.Track, 0, len(st.playlists[name]))
	for _, entry := range st.playlists[name] {
		track, err := decodePlaylistEntry(entry)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// Stats implements the Store interface.
func (st *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	st.lock.Lock()
	defer st.lock.Unlock()
	return Stats{
		Artists:      int64(len(st.sets[keyArtists])),
		Tracks:       int64(len(st.videos)),
		Tags:         int64(len(st.sets[keyTags])),
		BrokenTracks: int64(len(st.sets[keyBrokenTracks])),
		SavedHits:    int64(len(st.sets[keySavedHits])),
		Playlist:     int64(len(st.playlists[GlobalPlaylist])),
	}, nil
}
