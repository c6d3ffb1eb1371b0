package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"

	"cosette/src/storage"
)

// DefaultLastFMURL is the Last.fm API endpoint.
const DefaultLastFMURL = "http://ws.audioscrobbler.com/2.0/"

// lastFMErrNotFound is the Last.fm error code for an unknown artist or tag.
const lastFMErrNotFound = 6

// A Catalog knows about artists, their tracks and genre tags.
type Catalog interface {
	SimilarArtists(ctx context.Context, artist string) ([]string, error)
	TopTracks(ctx context.Context, artist string) ([]storage.TopTrack, error)
	TopArtists(ctx context.Context, tag string, page int) ([]string, error)
}

// LastFM is a Catalog backed by the Last.fm web service.
type LastFM struct {
	APIKey  string
	BaseURL string
	Client  *http.Client

	limiter *rate.Limiter
}

// NewLastFM creates a client that issues at most five requests per second.
func NewLastFM(apiKey string) *LastFM {
	return &LastFM{
		APIKey:  apiKey,
		BaseURL: DefaultLastFMURL,
		Client:  http.DefaultClient,
		limiter: rate.NewLimiter(rate.Limit(5), 5),
	}
}

type lastFMError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

func (err lastFMError) Error() string {
	return fmt.Sprintf("last.fm error %d: %s", err.Code, err.Message)
}

// playcount accepts both the quoted and unquoted numbers Last.fm sends.
type playcount int64

func (pc *playcount) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		n, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return err
		}
		*pc = playcount(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*pc = playcount(n)
	return nil
}

type namedEntry struct {
	Name string `json:"name"`
}

func names(entries []namedEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Name != "" {
			out = append(out, e.Name)
		}
	}
	return out
}

// call invokes an API method and decodes the response into v. A not found
// error is reported as found=false.
func (fm *LastFM) call(ctx context.Context, method string, params url.Values, v interface{}) (bool, error) {
	if fm.limiter != nil {
		if err := fm.limiter.Wait(ctx); err != nil {
			return false, err
		}
	}

	params.Set("method", method)
	params.Set("api_key", fm.APIKey)
	params.Set("format", "json")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fm.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return false, err
	}
	client := fm.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("last.fm %s: %w", method, err)
	}
	defer res.Body.Close()

	var raw json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return false, fmt.Errorf("last.fm %s: %w", method, err)
	}
	var apiErr lastFMError
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Code != 0 {
		if apiErr.Code == lastFMErrNotFound {
			return false, nil
		}
		return false, apiErr
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("last.fm %s: %w", method, err)
	}
	return true, nil
}

// SimilarArtists implements the Catalog interface.
func (fm *LastFM) SimilarArtists(ctx context.Context, artist string) ([]string, error) {
	var resp struct {
		SimilarArtists struct {
			Artist []namedEntry `json:"artist"`
		} `json:"similarartists"`
	}
	if _, err := fm.call(ctx, "artist.getsimilar", url.Values{"artist": {artist}}, &resp); err != nil {
		return nil, err
	}
	return names(resp.SimilarArtists.Artist), nil
}

// TopTracks implements the Catalog interface.
func (fm *LastFM) TopTracks(ctx context.Context, artist string) ([]storage.TopTrack, error) {
	var resp struct {
		TopTracks struct {
			Track []struct {
				Name      string    `json:"name"`
				Playcount playcount `json:"playcount"`
			} `json:"track"`
		} `json:"toptracks"`
	}
	if _, err := fm.call(ctx, "artist.gettoptracks", url.Values{"artist": {artist}}, &resp); err != nil {
		return nil, err
	}
	tracks := make([]storage.TopTrack, 0, len(resp.TopTracks.Track))
	for _, t := range resp.TopTracks.Track {
		tracks = append(tracks, storage.TopTrack{Name: t.Name, Playcount: int64(t.Playcount)})
	}
	return tracks, nil
}

// TopArtists implements the Catalog interface. Pages start at 1 and hold up
// to 100 artists.
func (fm *LastFM) TopArtists(ctx context.Context, tag string, page int) ([]string, error) {
	var resp struct {
		TopArtists struct {
			Artist []namedEntry `json:"artist"`
		} `json:"topartists"`
	}
	params := url.Values{
		"tag":   {tag},
		"limit": {"100"},
		"page":  {strconv.Itoa(page)},
	}
	if _, err := fm.call(ctx, "tag.gettopartists", params, &resp); err != nil {
		return nil, err
	}
	return names(resp.TopArtists.Artist), nil
}
