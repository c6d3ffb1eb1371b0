package player

import (
	"time"

	log "github.com/sirupsen/logrus"

	"cosette/src/playlist"
)

// StuckTimeout is how long a video may sit in the unstarted state after
// buffering before it is considered broken.
//
// Some videos (e.g. ones with embedding disabled) fall back to unstarted
// without any error event. Ordinary buffering blips recover well within this
// period.
const StuckTimeout = 4 * time.Second

// Action tells the owner of a Controller what to do after a state change.
type Action int

const (
	ActionNone Action = iota
	// ActionAdvance requests playing the next track.
	ActionAdvance
	// ActionArmStuckTimer requests a call to Stuck after StuckTimeout with the
	// generation returned by Observe.
	ActionArmStuckTimer
)

// The Controller tracks the state of a Widget and decides when to move on to
// another track.
//
// A Controller is not safe for concurrent use.
type Controller struct {
	widget     Widget
	transition Transition
	// generation is bumped on every state change and every load, a stuck
	// timer armed at an older generation is stale.
	generation uint64
	current    *playlist.Track
}

// NewController creates a controller for the specified widget. The initial
// state is unstarted without a track.
func NewController(widget Widget) *Controller {
	return &Controller{
		widget: widget,
		transition: Transition{
			Previous: StateUnstarted,
			Current:  StateUnstarted,
		},
	}
}

// Load commands the widget to play the track from the start.
func (ctl *Controller) Load(track playlist.Track) {
	ctl.current = &track
	ctl.generation++
	log.WithField("track", track.ID).Debugf("Loading %q", track.Name)
	ctl.widget.LoadVideoByID(track.ID, 0, DefaultQuality)
}

// Current returns the track that was last loaded.
func (ctl *Controller) Current() (playlist.Track, bool) {
	if ctl.current == nil {
		return playlist.Track{}, false
	}
	return *ctl.current, true
}

// Transition returns the last recorded state transition.
func (ctl *Controller) Transition() Transition {
	return ctl.transition
}

// Observe records a state reported by the widget and returns what should
// happen next along with the generation a stuck timer should be armed with.
func (ctl *Controller) Observe(state State) (Action, uint64) {
	prev := ctl.transition.Current
	ctl.transition = Transition{Previous: prev, Current: state}
	if state != prev {
		ctl.generation++
	}
	log.Debugf("Player state %v -> %v", prev, state)

	switch {
	case state == StateEnded:
		return ActionAdvance, ctl.generation
	case state == StateUnstarted && prev == StateBuffering:
		return ActionArmStuckTimer, ctl.generation
	default:
		return ActionNone, ctl.generation
	}
}

// Stuck reports whether the player is still unstarted and nothing has happened
// since the stuck timer for the specified generation was armed.
func (ctl *Controller) Stuck(generation uint64) bool {
	return generation == ctl.generation && ctl.transition.Current == StateUnstarted
}
