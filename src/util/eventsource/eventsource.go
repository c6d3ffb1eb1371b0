// Package eventsource implements both ends of a text/event-stream.
package eventsource

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
)

// EventSource writes events to a client.
type EventSource struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// Begin writes the event stream headers. The stream ends when the handler
// returns.
func Begin(w http.ResponseWriter, r *http.Request) (*EventSource, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("could not start event source: %T can not be flushed", w)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &EventSource{w: w, flusher: flusher}, nil
}

// Event sends a single event. Multi-line bodies are split over multiple data
// fields.
func (es *EventSource) Event(event, body string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "event: %s\n", event)
	for _, line := range strings.Split(body, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")
	if _, err := es.w.Write([]byte(b.String())); err != nil {
		return err
	}
	es.flusher.Flush()
	return nil
}

// EventJSON sends an event with the JSON encoding of body as data.
func (es *EventSource) EventJSON(event string, body interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		log.Errorf("Could not marshal event %q: %v", event, err)
		return err
	}
	return es.Event(event, string(b))
}
