package eventsource

import (
	"bufio"
	"io"
	"strings"
)

// Event is a single message received from an event stream.
type Event struct {
	ID   string
	Name string
	Data string
}

// A Decoder reads events from an event stream.
type Decoder struct {
	scanner *bufio.Scanner
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	return &Decoder{scanner: scanner}
}

// Decode blocks until the next event is complete. io.EOF is returned when the
// stream ends, a trailing event without a terminating blank line is dropped.
func (dec *Decoder) Decode() (Event, error) {
	var ev Event
	var data []string
	var hasData bool
	for dec.scanner.Scan() {
		line := strings.TrimSuffix(dec.scanner.Text(), "\r")
		if line == "" {
			if !hasData && ev.Name == "" {
				continue
			}
			ev.Data = strings.Join(data, "\n")
			if ev.Name == "" {
				ev.Name = "message"
			}
			return ev, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			ev.Name = value
		case "data":
			data = append(data, value)
			hasData = true
		case "id":
			ev.ID = value
		}
	}
	if err := dec.scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}
