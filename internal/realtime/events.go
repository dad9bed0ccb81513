package realtime

import (
	"encoding/json"
	"time"
)

const (
	TypeBookingUpdated = "booking_updated"
	TypeNewMessage     = "new_message"
	TypeSession        = "session"
)

// Envelope is the shape of every message pushed to websocket clients.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
	At   time.Time       `json:"at"`
}

func NewEnvelope(typ string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: typ, Data: raw, At: time.Now().UTC()})
}
