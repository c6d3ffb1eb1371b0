package player

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"cosette/src/playlist"
)

// HTTPReporter reports broken tracks to the server with a form encoded POST.
type HTTPReporter struct {
	// URL is the location of the broken track endpoint, e.g.
	// "http://localhost:8000/broken-track".
	URL    string
	Client *http.Client
}

// ReportBroken implements the Reporter interface.
func (rep HTTPReporter) ReportBroken(ctx context.Context, track playlist.Track) error {
	form := url.Values{}
	form.Set("name", track.Name)
	form.Set("youtube_id", track.ID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rep.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := rep.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("could not report broken track %v: %w", track, err)
	}
	res.Body.Close()
	return nil
}
