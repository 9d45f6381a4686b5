package ws

import (
	"encoding/json"
	"time"
)

// WebSocketMessage is the wire envelope for every frame exchanged over
// the market data socket: a type tag plus raw JSON data decoded once
// the type is known.
type WebSocketMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// NewWebSocketMessage marshals data into an envelope of the given type.
func NewWebSocketMessage(messageType string, data interface{}) (*WebSocketMessage, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &WebSocketMessage{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// UnmarshalData decodes the envelope's data into v.
func (m *WebSocketMessage) UnmarshalData(v interface{}) error {
	return json.Unmarshal(m.Data, v)
}

// NewErrorMessage builds an "error"-typed envelope carrying reason.
func NewErrorMessage(errorMessage string) *WebSocketMessage {
	return &WebSocketMessage{
		Type:      "error",
		Error:     errorMessage,
		Timestamp: time.Now(),
	}
}
