package sse

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event is one server-sent event
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Format renders the event in the text/event-stream wire format. Data is
// JSON encoded; a value that cannot be encoded becomes an error payload.
func (e Event) Format() string {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		payload, _ = json.Marshal(map[string]string{"error": err.Error()})
	}

	var b strings.Builder
	if e.Type != "" {
		fmt.Fprintf(&b, "event: %s\n", e.Type)
	}
	fmt.Fprintf(&b, "data: %s\n\n", payload)
	return b.String()
}
