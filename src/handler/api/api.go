package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"cosette/src/playlist"
	"cosette/src/search"
	"cosette/src/storage"
	"cosette/src/util/eventsource"
)

// PlaylistLength is the number of tracks the global playlist holds.
const PlaylistLength = 50

// A Searcher sends hits for a query to out and returns when it is done.
type Searcher interface {
	Search(ctx context.Context, query string, out chan<- playlist.Track) error
}

// An Inspector looks into reported videos in the background.
type Inspector interface {
	Queue(videoID string) bool
}

// API serves the data endpoints used by the page.
type API struct {
	store     storage.Store
	searcher  Searcher
	inspector Inspector
}

// InitRouter attaches all API routes to the specified router. The inspector
// may be nil.
func InitRouter(r chi.Router, store storage.Store, searcher Searcher, inspector Inspector) {
	api := API{store: store, searcher: searcher, inspector: inspector}
	r.Get("/tracks", api.tracks)
	r.Post("/broken-track", api.brokenTrack)
	r.Route("/stats", func(r chi.Router) {
		r.With(jsonCtx).Get("/", api.stats)
		r.Get("/events", api.statsEvents)
	})
}

// WriteError writes an error to the client or an empty object if err is nil.
//
// An attempt is made to tune the response format to the requestor.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	log.Errorf("Error serving %s: %v", r.RemoteAddr, err)
	w.WriteHeader(http.StatusBadRequest)

	if r.Header.Get("X-Requested-With") == "" {
		w.Write([]byte(err.Error()))
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
	})
}

func (api *API) tracks(w http.ResponseWriter, r *http.Request) {
	query := search.NormalizeQuery(r.FormValue("q"))
	logger := log.WithFields(log.Fields{
		"stream": uuid.NewString(),
		"query":  query,
	})

	es, err := eventsource.Begin(w, r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	logger.Info("Streaming tracks")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	hits := make(chan playlist.Track)
	errc := make(chan error, 1)
	go func() {
		errc <- api.searcher.Search(ctx, query, hits)
		close(hits)
	}()

	var sent []playlist.Track
	for hit := range hits {
		if err := es.EventJSON("song", hit); err != nil {
			logger.Debugf("Client went away: %v", err)
			cancel()
			continue
		}
		sent = append(sent, hit)
	}
	if err := <-errc; err != nil && ctx.Err() == nil {
		logger.Errorf("Search failed: %v", err)
	}
	if ctx.Err() == nil {
		if err := es.Event("finish", "finish"); err != nil {
			logger.Debugf("Could not finish stream: %v", err)
		}
	}
	logger.WithField("hits", len(sent)).Info("Stream done")

	if err := api.saveHits(context.WithoutCancel(r.Context()), sent); err != nil {
		logger.Errorf("Could not save hits: %v", err)
	}
}

func (api *API) saveHits(ctx context.Context, hits []playlist.Track) error {
	if len(hits) == 0 {
		return nil
	}
	names := make([]string, len(hits))
	for i, hit := range hits {
		names[i] = hit.Name
	}
	if err := api.store.SaveHits(ctx, names...); err != nil {
		return err
	}
	for _, hit := range hits {
		if err := api.store.AddToPlaylist(ctx, storage.GlobalPlaylist, hit, PlaylistLength); err != nil {
			return err
		}
	}
	return nil
}

func (api *API) brokenTrack(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteError(w, r, err)
		return
	}
	name := r.PostForm.Get("name")
	videoID := r.PostForm.Get("youtube_id")
	if name == "" || videoID == "" {
		WriteError(w, r, fmt.Errorf("name and youtube_id are required"))
		return
	}

	if err := api.store.SaveBrokenTrack(r.Context(), videoID, name); err != nil {
		WriteError(w, r, fmt.Errorf("could not save broken track: %w", err))
		return
	}
	log.WithFields(log.Fields{
		"video": videoID,
		"name":  name,
	}).Info("Broken track reported")
	if api.inspector != nil {
		api.inspector.Queue(videoID)
	}
}

func (api *API) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := api.store.Stats(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	json.NewEncoder(w).Encode(stats)
}

func (api *API) statsEvents(w http.ResponseWriter, r *http.Request) {
	updates := api.store.Listen(r.Context())
	es, err := eventsource.Begin(w, r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	send := func() bool {
		stats, err := api.store.Stats(r.Context())
		if err != nil {
			log.Errorf("Could not load stats: %v", err)
			return r.Context().Err() == nil
		}
		return es.EventJSON("stats", stats) == nil
	}
	if !send() {
		return
	}
	for event := range updates {
		if _, ok := event.(storage.UpdateEvent); !ok {
			log.Debugf("Unmapped event %#v", event)
			continue
		}
		if !send() {
			return
		}
	}
}

func jsonCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
