// Package inspect finds out why a reported video does not play.
package inspect

import (
	"context"
	"fmt"
	"time"

	"github.com/kkdai/youtube/v2"
	log "github.com/sirupsen/logrus"

	"cosette/src/storage"
)

// ReasonPlayable is recorded for videos that play fine outside of embeds.
const ReasonPlayable = "playable"

// VideoLookup fetches video metadata. It is implemented by *youtube.Client.
type VideoLookup interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
}

// Inspector looks up reported videos in the background and records the
// reason they are broken.
type Inspector struct {
	lookup  VideoLookup
	store   storage.Store
	queue   chan string
	timeout time.Duration
}

// New creates an Inspector. Up to queueSize reports are buffered, excess
// reports are dropped.
func New(lookup VideoLookup, store storage.Store, queueSize int) *Inspector {
	if lookup == nil {
		lookup = &youtube.Client{}
	}
	return &Inspector{
		lookup:  lookup,
		store:   store,
		queue:   make(chan string, queueSize),
		timeout: 20 * time.Second,
	}
}

// Queue schedules a video for inspection without blocking.
func (in *Inspector) Queue(videoID string) bool {
	select {
	case in.queue <- videoID:
		return true
	default:
		log.WithField("video", videoID).Warn("Inspection queue full, dropping video")
		return false
	}
}

// Run processes queued videos until ctx is canceled.
func (in *Inspector) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-in.queue:
			if err := in.Inspect(ctx, id); err != nil {
				log.WithField("video", id).Errorf("Could not inspect video: %v", err)
			}
		}
	}
}

// Inspect looks up a single video and stores the outcome.
func (in *Inspector) Inspect(ctx context.Context, videoID string) error {
	ctx, cancel := context.WithTimeout(ctx, in.timeout)
	defer cancel()

	reason := ReasonPlayable
	video, err := in.lookup.GetVideoContext(ctx, "https://www.youtube.com/watch?v="+videoID)
	if ctx.Err() != nil {
		return ctx.Err()
	} else if err != nil {
		reason = err.Error()
	} else if video != nil && video.Title != "" {
		reason = fmt.Sprintf("%s: %q", ReasonPlayable, video.Title)
	}
	log.WithFields(log.Fields{
		"video":  videoID,
		"reason": reason,
	}).Info("Inspected broken video")
	return in.store.SetBrokenReason(ctx, videoID, reason)
}
