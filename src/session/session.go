// Package session ties the playlist, its view, the track loader and the video
// player together.
//
// Every mutation of a Session happens on the goroutine running Session.Run.
// Callbacks from the page, the widget, the track stream and timers are queued
// and handled one at a time, in order.
package session

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"cosette/src/loader"
	"cosette/src/player"
	"cosette/src/playlist"
	"cosette/src/view"
)

// Options configures a new Session.
type Options struct {
	Widget   player.Widget
	Surface  view.Surface
	Reporter player.Reporter

	// TracksURL is the location of the track stream endpoint.
	TracksURL string
	Client    *http.Client

	// Initial is played when the widget becomes ready.
	Initial []playlist.Track

	// StuckTimeout defaults to player.StuckTimeout.
	StuckTimeout time.Duration
	// AfterFunc schedules fn to be called after d on another goroutine.
	// Defaults to time.AfterFunc.
	AfterFunc func(d time.Duration, fn func())
}

// A Session is the state of one player page.
type Session struct {
	store     playlist.Store
	selection int
	initial   []playlist.Track

	view       *view.View
	controller *player.Controller
	loader     *loader.Loader
	reporter   player.Reporter

	ctx          context.Context
	queue        chan func()
	done         chan struct{}
	stuckTimeout time.Duration
	afterFunc    func(time.Duration, func())
}

// Snapshot is a copy of the state of a Session.
type Snapshot struct {
	Tracks     []playlist.Track
	Selection  int
	Active     int
	Transition player.Transition
	Loading    bool
	PanelOpen  bool
}

// New creates a session. It does nothing until Run is called.
func New(opts Options) *Session {
	sess := &Session{
		selection:    -1,
		initial:      opts.Initial,
		view:         view.New(opts.Surface),
		controller:   player.NewController(opts.Widget),
		reporter:     opts.Reporter,
		ctx:          context.Background(),
		queue:        make(chan func(), 256),
		done:         make(chan struct{}),
		stuckTimeout: opts.StuckTimeout,
		afterFunc:    opts.AfterFunc,
	}
	if sess.stuckTimeout == 0 {
		sess.stuckTimeout = player.StuckTimeout
	}
	if sess.afterFunc == nil {
		sess.afterFunc = func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		}
	}
	sess.loader = loader.New(opts.TracksURL, opts.Client, sess.Do, streamSink{sess})
	return sess
}

// Run handles queued events until the context is cancelled. It must be called
// at most once.
func (sess *Session) Run(ctx context.Context) error {
	sess.ctx = ctx
	for {
		select {
		case fn := <-sess.queue:
			fn()
		case <-ctx.Done():
			sess.loader.Stop()
			close(sess.done)
			return ctx.Err()
		}
	}
}

// Do queues fn to be run on the session goroutine. Once Run has returned, fn
// is dropped.
func (sess *Session) Do(fn func()) {
	select {
	case sess.queue <- fn:
	case <-sess.done:
	}
}

// Snapshot returns a copy of the current state once all previously queued
// events have been handled.
func (sess *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	ch := make(chan Snapshot, 1)
	sess.Do(func() {
		ch <- Snapshot{
			Tracks:     sess.store.Tracks(),
			Selection:  sess.selection,
			Active:     sess.view.Active(),
			Transition: sess.controller.Transition(),
			Loading:    sess.view.SpinnerVisible(),
			PanelOpen:  sess.view.PanelOpen(),
		}
	})
	select {
	case snap := <-ch:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// OnReady is called by the widget once it can play videos.
func (sess *Session) OnReady() {
	sess.Do(func() {
		sess.changePlaylist(sess.initial)
	})
}

// OnStateChange is called by the widget whenever its state changes.
func (sess *Session) OnStateChange(state player.State) {
	sess.Do(func() {
		sess.stateChanged(state)
	})
}

// Search replaces the playlist with the results of the query.
func (sess *Session) Search(query string) {
	sess.Do(func() {
		log.WithField("query", query).Info("Searching")
		sess.reset()
		sess.view.ShowSpinner()
		sess.loader.Start(sess.ctx, query)
	})
}

// Click selects the track of the playlist item enclosing the target.
func (sess *Session) Click(target view.Element) {
	sess.Do(func() {
		if index, ok := sess.view.ItemIndex(target); ok {
			sess.selectTrack(index)
		}
	})
}

// SelectTrack plays the track at the specified index.
func (sess *Session) SelectTrack(index int) {
	sess.Do(func() {
		sess.selectTrack(index)
	})
}

func (sess *Session) OpenPanel() {
	sess.Do(sess.view.OpenPanel)
}

func (sess *Session) ClosePanel() {
	sess.Do(sess.view.ClosePanel)
}

func (sess *Session) KeyUp(key string) {
	sess.Do(func() {
		sess.view.KeyUp(key)
	})
}

func (sess *Session) reset() {
	sess.store.Reset()
	sess.view.Render(nil)
	sess.selection = -1
}

func (sess *Session) changePlaylist(tracks []playlist.Track) {
	sess.reset()
	for _, track := range tracks {
		sess.store.Append(track)
	}
	sess.view.Render(sess.store.Tracks())
	if sess.store.Len() > 0 {
		sess.selectTrack(0)
	}
}

func (sess *Session) selectTrack(index int) {
	track, ok := sess.store.At(index)
	if !ok {
		log.Warnf("Can not select track %d of %d", index, sess.store.Len())
		return
	}
	sess.view.Highlight(index)
	sess.view.SetTitle(track.Name)
	sess.controller.Load(track)
	sess.selection = index
}

func (sess *Session) nextTrack() {
	if sess.store.Len() == 0 {
		log.Debug("No next track, the playlist is empty")
		return
	}
	sess.selectTrack((sess.selection + 1) % sess.store.Len())
}

func (sess *Session) stateChanged(state player.State) {
	action, generation := sess.controller.Observe(state)
	switch action {
	case player.ActionAdvance:
		sess.nextTrack()
	case player.ActionArmStuckTimer:
		sess.afterFunc(sess.stuckTimeout, func() {
			sess.Do(func() {
				sess.checkStuck(generation)
			})
		})
	}
}

func (sess *Session) checkStuck(generation uint64) {
	if !sess.controller.Stuck(generation) {
		return
	}
	if track, ok := sess.controller.Current(); ok {
		log.WithField("track", track.ID).Warnf("Video %q did not start, skipping", track.Name)
		sess.report(track)
	}
	sess.nextTrack()
}

func (sess *Session) report(track playlist.Track) {
	if sess.reporter == nil {
		return
	}
	ctx := sess.ctx
	go func() {
		if err := sess.reporter.ReportBroken(ctx, track); err != nil {
			log.Debugf("Could not report broken track: %v", err)
		}
	}()
}

// streamSink receives tracks from the loader on the session goroutine.
type streamSink struct {
	sess *Session
}

func (sink streamSink) Track(track playlist.Track) {
	if sink.sess.store.Append(track) {
		sink.sess.view.Append(track)
	}
}

func (sink streamSink) Finished() {
	sink.sess.view.HideSpinner()
}

func (sink streamSink) Failed(err error) {
	log.Errorf("Could not load tracks: %v", err)
	sink.sess.view.HideSpinner()
}
