package search

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"cosette/src/storage"
)

// ErrNoVideo is returned when no embeddable video matches a query.
var ErrNoVideo = errors.New("no video found")

// A VideoFinder resolves a track name to a video.
type VideoFinder interface {
	FindVideo(ctx context.Context, query string) (storage.Video, error)
}

// YouTube is a VideoFinder using the YouTube Data API.
type YouTube struct {
	service *youtube.Service
}

// NewYouTube creates a finder authenticating with the API key. Extra options
// are passed to the API client.
func NewYouTube(ctx context.Context, apiKey string, opts ...option.ClientOption) (*YouTube, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create youtube client: %w", err)
	}
	return &YouTube{service: service}, nil
}

// FindVideo implements the VideoFinder interface.
func (yt *YouTube) FindVideo(ctx context.Context, query string) (storage.Video, error) {
	resp, err := yt.service.Search.List([]string{"id", "snippet"}).
		Q(query).
		Type("video").
		VideoEmbeddable("true").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return storage.Video{}, fmt.Errorf("youtube search %q: %w", query, err)
	}
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		video := storage.Video{ID: item.Id.VideoId}
		if item.Snippet != nil && item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.Default != nil {
			thumb := item.Snippet.Thumbnails.Default
			video.ThumbnailURL = thumb.Url
			video.ThumbnailWidth = thumb.Width
			video.ThumbnailHeight = thumb.Height
		}
		return video, nil
	}
	return storage.Video{}, ErrNoVideo
}
