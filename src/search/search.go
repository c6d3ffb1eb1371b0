package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"cosette/src/playlist"
	"cosette/src/storage"
)

const (
	// DefaultQuery is searched for when the query is blank.
	DefaultQuery = "pink floyd"
	// TrackCount is the number of top tracks considered per artist.
	TrackCount = 3
	// DefaultConcurrency is the number of artists resolved at once.
	DefaultConcurrency = 10
	// DefaultIdleTimeout is how long a search may go without finding a hit
	// before it gives up.
	DefaultIdleTimeout = 30 * time.Second

	hitMaxSecondPlaycount = 1000000
	hitMinFirstPlaycount  = 10000
	hitMaxRatio           = 0.4
)

var errGiveUp = errors.New("no hits found in time")

// Searcher turns a query into a stream of hit tracks.
type Searcher struct {
	Store   storage.Store
	Catalog Catalog
	Videos  VideoFinder

	Concurrency int
	IdleTimeout time.Duration
}

// NewSearcher creates a searcher with the default limits.
func NewSearcher(store storage.Store, catalog Catalog, videos VideoFinder) *Searcher {
	return &Searcher{
		Store:       store,
		Catalog:     catalog,
		Videos:      videos,
		Concurrency: DefaultConcurrency,
		IdleTimeout: DefaultIdleTimeout,
	}
}

// NormalizeQuery lowercases and trims the query, falling back to the default
// query when nothing remains.
func NormalizeQuery(query string) string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return DefaultQuery
	}
	return query
}

// Search resolves the artists related to the query and sends one hit per
// artist to out. It returns when all artists have been processed, no hit was
// found for the idle timeout or ctx is canceled. The out channel is not
// closed.
func (s *Searcher) Search(ctx context.Context, query string, out chan<- playlist.Track) error {
	query = NormalizeQuery(query)
	parent := ctx
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	idle := func() {}
	if s.IdleTimeout > 0 {
		timer := time.AfterFunc(s.IdleTimeout, func() { cancel(errGiveUp) })
		defer timer.Stop()
		idle = func() { timer.Reset(s.IdleTimeout) }
	}

	artists, err := s.Artists(ctx, query)
	if err != nil && !errors.Is(context.Cause(ctx), errGiveUp) {
		return err
	}
	log.WithFields(log.Fields{
		"query":   query,
		"artists": len(artists),
	}).Debug("Resolved artists")

	group, gctx := errgroup.WithContext(ctx)
	if s.Concurrency > 0 {
		group.SetLimit(s.Concurrency)
	}
	for _, artist := range artists {
		artist := artist
		if gctx.Err() != nil {
			break
		}
		group.Go(func() error {
			track, err := s.Hit(gctx, artist)
			if err != nil {
				if gctx.Err() == nil {
					log.WithField("artist", artist).Debugf("Skipping artist: %v", err)
				}
				return nil
			}
			select {
			case out <- track:
				idle()
			case <-gctx.Done():
			}
			return nil
		})
	}
	group.Wait()

	if errors.Is(context.Cause(ctx), errGiveUp) {
		log.WithField("query", query).Warn("Search took too long, giving up")
		return nil
	}
	return parent.Err()
}

// Artists lists the artists matching a query. Known tags yield their top
// artists, known artists their similar artists. Anything else is tried as
// both.
func (s *Searcher) Artists(ctx context.Context, query string) ([]string, error) {
	isTag, err := s.Store.IsTag(ctx, query)
	if err != nil {
		return nil, err
	}
	isArtist, err := s.Store.IsArtist(ctx, query)
	if err != nil {
		return nil, err
	}

	var artists []string
	switch {
	case isTag:
		artists, err = s.topArtists(ctx, query)
	case isArtist:
		artists, err = s.similarArtists(ctx, query)
	default:
		var top, similar []string
		if top, err = s.topArtists(ctx, query); err != nil {
			return nil, err
		}
		similar, err = s.similarArtists(ctx, query)
		artists = append(top, similar...)
	}
	if err != nil {
		return nil, err
	}
	return dedupe(artists), nil
}

func (s *Searcher) similarArtists(ctx context.Context, artist string) ([]string, error) {
	cached, err := s.Store.SimilarArtists(ctx, artist)
	if err == nil {
		return cached, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	similar, err := s.Catalog.SimilarArtists(ctx, artist)
	if err != nil {
		return nil, err
	}
	if err := s.Store.SetSimilarArtists(ctx, artist, similar); err != nil {
		return nil, err
	}
	return similar, nil
}

func (s *Searcher) topArtists(ctx context.Context, tag string) ([]string, error) {
	cached, err := s.Store.TopArtists(ctx, tag)
	if err == nil {
		return cached, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	top, err := s.Catalog.TopArtists(ctx, tag, 1)
	if err != nil {
		return nil, err
	}
	if len(top) > 0 {
		more, err := s.Catalog.TopArtists(ctx, tag, 2)
		if err != nil {
			return nil, err
		}
		top = append(top, more...)
	}
	top = dedupe(top)
	if err := s.Store.SetTopArtists(ctx, tag, top); err != nil {
		return nil, err
	}
	return top, nil
}

// TopTracks returns the most played tracks of an artist, most played first.
func (s *Searcher) TopTracks(ctx context.Context, artist string) ([]storage.TopTrack, error) {
	cached, err := s.Store.TopTracks(ctx, artist, TrackCount)
	if err == nil {
		return cached, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	tracks, err := s.Catalog.TopTracks(ctx, artist)
	if err != nil {
		return nil, err
	}
	if err := s.Store.SetTopTracks(ctx, artist, tracks); err != nil {
		return nil, err
	}
	sort.SliceStable(tracks, func(i, j int) bool {
		return tracks[i].Playcount > tracks[j].Playcount
	})
	if len(tracks) > TrackCount {
		tracks = tracks[:TrackCount]
	}
	return tracks, nil
}

// Hit picks the hit of an artist and resolves its video.
func (s *Searcher) Hit(ctx context.Context, artist string) (playlist.Track, error) {
	tracks, err := s.TopTracks(ctx, artist)
	if err != nil {
		return playlist.Track{}, err
	}
	hit, ok := PickHit(tracks)
	if !ok {
		return playlist.Track{}, fmt.Errorf("no hit for %q", artist)
	}
	name := fmt.Sprintf("%s - %s", artist, hit.Name)
	video, err := s.video(ctx, name)
	if err != nil {
		return playlist.Track{}, err
	}
	return playlist.Track{
		ID:           video.ID,
		Name:         name,
		ThumbnailURL: video.ThumbnailURL,
	}, nil
}

func (s *Searcher) video(ctx context.Context, name string) (storage.Video, error) {
	cached, err := s.Store.Video(ctx, name)
	if err == nil {
		return cached, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return storage.Video{}, err
	}
	video, err := s.Videos.FindVideo(ctx, name)
	if err != nil {
		return storage.Video{}, err
	}
	if err := s.Store.SetVideo(ctx, name, video); err != nil {
		return storage.Video{}, err
	}
	return video, nil
}

// PickHit selects the track that clearly outshines the rest of an artist's
// top tracks. The tracks must be ordered by descending playcount. An artist
// whose second track is already very popular has no single hit.
func PickHit(tracks []storage.TopTrack) (storage.TopTrack, bool) {
	if len(tracks) < 2 {
		return storage.TopTrack{}, false
	}
	first, second := tracks[0], tracks[1]
	if second.Playcount > hitMaxSecondPlaycount || first.Playcount <= 0 {
		return storage.TopTrack{}, false
	}
	ratio := float64(second.Playcount) / float64(first.Playcount)
	if ratio < hitMaxRatio && first.Playcount > hitMinFirstPlaycount {
		return first, true
	}
	return storage.TopTrack{}, false
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0:0]
	for _, name := range names {
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}
