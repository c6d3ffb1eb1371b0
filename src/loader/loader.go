// Package loader fills a playlist from the server's track event stream.
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"

	"cosette/src/playlist"
	"cosette/src/util/eventsource"
)

// ErrUnfinished is reported when a stream ends without a finish event.
var ErrUnfinished = errors.New("stream ended before finish")

// A Sink receives the results of a stream. Its methods are called through the
// dispatch function of the Loader.
type Sink interface {
	Track(track playlist.Track)
	Finished()
	Failed(err error)
}

// A Loader keeps at most one track stream open at a time.
//
// Start and Stop must be called from the goroutine that runs the functions
// passed to dispatch, the stream is read on a separate goroutine.
type Loader struct {
	url      string
	client   *http.Client
	dispatch func(func())
	sink     Sink

	generation uint64
	cancel     context.CancelFunc
}

// New creates a loader which streams from the specified tracks endpoint.
func New(tracksURL string, client *http.Client, dispatch func(func()), sink Sink) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{
		url:      tracksURL,
		client:   client,
		dispatch: dispatch,
		sink:     sink,
	}
}

// Start closes the active stream, if any, and opens a new one for the query.
// Events of the closed stream that have not been delivered yet are dropped.
func (ld *Loader) Start(ctx context.Context, query string) {
	ld.Stop()
	ctx, cancel := context.WithCancel(ctx)
	ld.cancel = cancel
	go ld.run(ctx, ld.generation, query)
}

// Stop closes the active stream.
func (ld *Loader) Stop() {
	ld.generation++
	if ld.cancel != nil {
		ld.cancel()
		ld.cancel = nil
	}
}

func (ld *Loader) deliver(generation uint64, fn func()) {
	ld.dispatch(func() {
		if generation != ld.generation {
			return
		}
		fn()
	})
}

func (ld *Loader) fail(ctx context.Context, generation uint64, err error) {
	if ctx.Err() != nil {
		return
	}
	log.Errorf("Track stream: %v", err)
	ld.deliver(generation, func() {
		ld.Stop()
		ld.sink.Failed(err)
	})
}

func (ld *Loader) run(ctx context.Context, generation uint64, query string) {
	logger := log.WithField("query", query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ld.url+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		ld.fail(ctx, generation, err)
		return
	}
	req.Header.Set("Accept", "text/event-stream")

	res, err := ld.client.Do(req)
	if err != nil {
		ld.fail(ctx, generation, err)
		return
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		ld.fail(ctx, generation, fmt.Errorf("unexpected status: %s", res.Status))
		return
	}

	dec := eventsource.NewDecoder(res.Body)
	for {
		ev, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			ld.fail(ctx, generation, ErrUnfinished)
			return
		} else if err != nil {
			ld.fail(ctx, generation, err)
			return
		}

		switch ev.Name {
		case "song":
			var track playlist.Track
			if err := json.Unmarshal([]byte(ev.Data), &track); err != nil {
				logger.Warnf("Skipping malformed track %q: %v", ev.Data, err)
				continue
			}
			ld.deliver(generation, func() {
				ld.sink.Track(track)
			})
		case "finish":
			logger.Debug("Track stream finished")
			ld.deliver(generation, func() {
				ld.Stop()
				ld.sink.Finished()
			})
			return
		default:
			logger.Debugf("Unmapped stream event %q", ev.Name)
		}
	}
}
