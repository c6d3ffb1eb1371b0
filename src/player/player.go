package player

import (
	"context"
	"time"

	"cosette/src/playlist"
)

// State mirrors the state reported by the embedded video widget. The numeric
// values are the ones used by the YouTube IFrame API.
type State int

const (
	StateUnstarted State = -1
	StateEnded     State = 0
	StatePlaying   State = 1
	StatePaused    State = 2
	StateBuffering State = 3
	StateCued      State = 5
)

// NamedState looks up a state by its name. Unknown names map to
// StateUnstarted.
func NamedState(str string) State {
	switch str {
	case "ended":
		return StateEnded
	case "playing":
		return StatePlaying
	case "paused":
		return StatePaused
	case "buffering":
		return StateBuffering
	case "cued":
		return StateCued
	default:
		return StateUnstarted
	}
}

func (state State) String() string {
	switch state {
	case StateUnstarted:
		return "unstarted"
	case StateEnded:
		return "ended"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateBuffering:
		return "buffering"
	case StateCued:
		return "cued"
	default:
		return "invalid"
	}
}

// DefaultQuality is the playback quality requested when loading a video.
const DefaultQuality = "default"

// A Widget is the external video player. It reports state changes back
// through the callbacks it was constructed with, which are not part of this
// interface.
type Widget interface {
	// LoadVideoByID loads the video and starts playing at the specified
	// offset.
	LoadVideoByID(id string, start time.Duration, quality string)
}

// A Reporter is notified of tracks that could not be played.
type Reporter interface {
	ReportBroken(ctx context.Context, track playlist.Track) error
}

// Transition holds the current state and the one immediately before it. No
// older history is kept.
type Transition struct {
	Previous State
	Current  State
}
