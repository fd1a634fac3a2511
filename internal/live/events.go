package live

import (
	"encoding/json"
	"time"
)

const (
	// LocationsChanged tells open map pages to re-query.
	LocationsChanged = "locations.changed"
	// Welcome is the first line every client receives.
	Welcome = "welcome"
)

// Event is one message on the websocket and the TCP feed. Seq increases by
// one per broadcast, so a client that sees a gap knows it missed a change;
// a welcome carries the last Seq sent before the client joined.
type Event struct {
	Type      string    `json:"type"`
	Seq       uint64    `json:"seq"`
	Op        string    `json:"op,omitempty"` // "upsert" or "delete"
	Name      string    `json:"name,omitempty"`
	Transport string    `json:"transport,omitempty"` // welcome only
	At        time.Time `json:"at"`
}

// line is the event as one newline-terminated JSON object.
func (e Event) line() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
