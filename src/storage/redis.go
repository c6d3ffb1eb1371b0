package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"cosette/src/playlist"
	"cosette/src/util"
)

const (
	keyArtists           = "artists"
	keyTags              = "tags"
	keyNoSimilarArtists  = "hasnosimilarartist"
	keyNotTag            = "isnottag"
	keyBrokenTracks      = "broken_tracks"
	keyBrokenReasons     = "broken_reasons"
	keySavedHits         = "savedhits"
	keyTrackPattern      = "track:%s"
	keySimilarPattern    = "similar:%s"
	keyTopTracksPattern  = "toptracks:%s"
	keyTopArtistsPattern = "topartists:%s"
)

// RedisStore is a Store backed by a Redis database.
type RedisStore struct {
	util.Emitter

	rdb *redis.Client
}

// NewRedisStore connects to the Redis server at addr.
func NewRedisStore(ctx context.Context, addr string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("unable to connect to redis at %s: %w", addr, err)
	}
	return &RedisStore{
		Emitter: util.Emitter{Release: updateRelease},
		rdb:     rdb,
	}, nil
}

// Close implements the Store interface.
func (st *RedisStore) Close() error {
	return st.rdb.Close()
}

// Video implements the Store interface.
func (st *RedisStore) Video(ctx context.Context, query string) (Video, error) {
	fields, err := st.rdb.HGetAll(ctx, fmt.Sprintf(keyTrackPattern, query)).Result()
	if err != nil {
		return Video{}, err
	}
	if fields["youtube_id"] == "" {
		return Video{}, ErrNotFound
	}
	width, _ := strconv.ParseInt(fields["thumbnail_width"], 10, 64)
	height, _ := strconv.ParseInt(fields["thumbnail_height"], 10, 64)
	return Video{
		ID:              fields["youtube_id"],
		ThumbnailURL:    fields["thumbnail_url"],
		ThumbnailWidth:  width,
		ThumbnailHeight: height,
	}, nil
}

// SetVideo implements the Store interface.
func (st *RedisStore) SetVideo(ctx context.Context, query string, video Video) error {
	return st.rdb.HSet(ctx, fmt.Sprintf(keyTrackPattern, query), map[string]interface{}{
		"youtube_id":       video.ID,
		"thumbnail_url":    video.ThumbnailURL,
		"thumbnail_width":  video.ThumbnailWidth,
		"thumbnail_height": video.ThumbnailHeight,
	}).Err()
}

// cachedList reads a list cache, consulting the negative set when the list is
// empty.
func (st *RedisStore) cachedList(ctx context.Context, key, negativeSet, name string) ([]string, error) {
	list, err := st.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(list) > 0 {
		return list, nil
	}
	known, err := st.rdb.SIsMember(ctx, negativeSet, name).Result()
	if err != nil {
		return nil, err
	}
	if known {
		return []string{}, nil
	}
	return nil, ErrNotFound
}

func (st *RedisStore) setCachedList(ctx context.Context, key, negativeSet, name string, list []string) error {
	_, err := st.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(list) == 0 {
			pipe.SAdd(ctx, negativeSet, name)
			return nil
		}
		values := make([]interface{}, len(list))
		lowered := make([]interface{}, len(list))
		for i, s := range list {
			values[i] = s
			lowered[i] = strings.ToLower(s)
		}
		pipe.Del(ctx, key)
		pipe.RPush(ctx, key, values...)
		pipe.SAdd(ctx, keyArtists, lowered...)
		return nil
	})
	return err
}

// SimilarArtists implements the Store interface.
func (st *RedisStore) SimilarArtists(ctx context.Context, artist string) ([]string, error) {
	return st.cachedList(ctx, fmt.Sprintf(keySimilarPattern, artist), keyNoSimilarArtists, artist)
}

// SetSimilarArtists implements the Store interface.
func (st *RedisStore) SetSimilarArtists(ctx context.Context, artist string, similar []string) error {
	return st.setCachedList(ctx, fmt.Sprintf(keySimilarPattern, artist), keyNoSimilarArtists, artist, similar)
}

// TopArtists implements the Store interface.
func (st *RedisStore) TopArtists(ctx context.Context, tag string) ([]string, error) {
	return st.cachedList(ctx, fmt.Sprintf(keyTopArtistsPattern, tag), keyNotTag, tag)
}

// SetTopArtists implements the Store interface.
func (st *RedisStore) SetTopArtists(ctx context.Context, tag string, artists []string) error {
	return st.setCachedList(ctx, fmt.Sprintf(keyTopArtistsPattern, tag), keyNotTag, tag, artists)
}

// TopTracks implements the Store interface.
func (st *RedisStore) TopTracks(ctx context.Context, artist string, n int) ([]TopTrack, error) {
	zs, err := st.rdb.ZRevRangeWithScores(ctx, fmt.Sprintf(keyTopTracksPattern, artist), 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(zs) == 0 {
		return nil, ErrNotFound
	}
	tracks := make([]TopTrack, len(zs))
	for i, z := range zs {
		name, _ := z.Member.(string)
		tracks[i] = TopTrack{Name: name, Playcount: int64(z.Score)}
	}
	return tracks, nil
}

// SetTopTracks implements the Store interface.
func (st *RedisStore) SetTopTracks(ctx context.Context, artist string, tracks []TopTrack) error {
	if len(tracks) == 0 {
		return nil
	}
	members := make([]redis.Z, len(tracks))
	for i, t := range tracks {
		members[i] = redis.Z{Score: float64(t.Playcount), Member: t.Name}
	}
	return st.rdb.ZAdd(ctx, fmt.Sprintf(keyTopTracksPattern, artist), members...).Err()
}

// IsArtist implements the Store interface.
func (st *RedisStore) IsArtist(ctx context.Context, name string) (bool, error) {
	return st.rdb.SIsMember(ctx, keyArtists, name).Result()
}

// IsTag implements the Store interface.
func (st *RedisStore) IsTag(ctx context.Context, name string) (bool, error) {
	return st.rdb.SIsMember(ctx, keyTags, name).Result()
}

// AddTags implements the Store interface.
func (st *RedisStore) AddTags(ctx context.Context, tags ...string) error {
	if len(tags) == 0 {
		return nil
	}
	members := make([]interface{}, len(tags))
	for i, t := range tags {
		members[i] = strings.ToLower(t)
	}
	return st.rdb.SAdd(ctx, keyTags, members...).Err()
}

// SaveBrokenTrack implements the Store interface.
func (st *RedisStore) SaveBrokenTrack(ctx context.Context, videoID, name string) error {
	if err := st.rdb.SAdd(ctx, keyBrokenTracks, brokenTrackEntry(videoID, name)).Err(); err != nil {
		return err
	}
	st.Emit(UpdateEvent{})
	return nil
}

// SetBrokenReason implements the Store interface.
func (st *RedisStore) SetBrokenReason(ctx context.Context, videoID, reason string) error {
	return st.rdb.HSet(ctx, keyBrokenReasons, videoID, reason).Err()
}

// SaveHits implements the Store interface.
func (st *RedisStore) SaveHits(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	members := make([]interface{}, len(names))
	for i, n := range names {
		members[i] = n
	}
	if err := st.rdb.SAdd(ctx, keySavedHits, members...).Err(); err != nil {
		return err
	}
	st.Emit(UpdateEvent{})
	return nil
}

// AddToPlaylist implements the Store interface.
func (st *RedisStore) AddToPlaylist(ctx context.Context, name string, track playlist.Track, length int) error {
	_, err := st.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, name, encodePlaylistEntry(track))
		pipe.LTrim(ctx, name, 0, int64(length-1))
		return nil
	})
	return err
}

// Playlist implements the Store interface.
func (st *RedisStore) Playlist(ctx context.Context, name string) ([]playlist.Track, error) {
	entries, err := st.rdb.LRange(ctx, name, 0, -1).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	tracks := make([]playlist.Track, 0, len(entries))
	for _, entry := range entries {
		track, err := decodePlaylistEntry(entry)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// Stats implements the Store interface.
func (st *RedisStore) Stats(ctx context.Context) (Stats, error) {
	var artists, tags, broken, hits *redis.IntCmd
	var plist *redis.IntCmd
	_, err := st.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		artists = pipe.SCard(ctx, keyArtists)
		tags = pipe.SCard(ctx, keyTags)
		broken = pipe.SCard(ctx, keyBrokenTracks)
		hits = pipe.SCard(ctx, keySavedHits)
		plist = pipe.LLen(ctx, GlobalPlaylist)
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	tracks, err := st.countKeys(ctx, fmt.Sprintf(keyTrackPattern, "*"))
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Artists:      artists.Val(),
		Tracks:       tracks,
		Tags:         tags.Val(),
		BrokenTracks: broken.Val(),
		SavedHits:    hits.Val(),
		Playlist:     plist.Val(),
	}, nil
}

func (st *RedisStore) countKeys(ctx context.Context, pattern string) (int64, error) {
	var n int64
	iter := st.rdb.Scan(ctx, 0, pattern, 500).Iterator()
	for iter.Next(ctx) {
		n++
	}
	return n, iter.Err()
}
