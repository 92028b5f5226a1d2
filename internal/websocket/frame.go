package websocket

import (
	"bytes"
	"encoding/json"
)

// Envelope is what every registered connection receives for a broadcast.
type Envelope struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

type inboundFrame struct {
	Text json.RawMessage `json:"text"`
}

// ParseFrame extracts the chat text of an inbound frame. A JSON object
// yields its "text" field (empty when absent); anything else, including
// broken JSON, is taken verbatim. Frames are never rejected.
func ParseFrame(data []byte) string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return string(data)
	}

	var f inboundFrame
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return string(data)
	}
	if len(f.Text) == 0 || string(f.Text) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(f.Text, &s); err != nil {
		// non-string text such as a number is kept as its JSON spelling
		return string(f.Text)
	}
	return s
}
