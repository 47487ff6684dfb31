package events

import "time"

// EventType identifies the kind of event pushed to stream clients.
type EventType string

const (
	// EventTypeDetection is emitted after a find or redact call that
	// produced matches.
	EventTypeDetection EventType = "detection"
	// EventTypeReload is emitted after a successful registry reload.
	EventTypeReload EventType = "reload"
	// EventTypeConnection is emitted when stream clients come and go.
	EventTypeConnection EventType = "connection"
)

// Event is one message sent to stream clients.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
	Data      any       `json:"data"`
}

// DetectionEvent summarizes one detection call. It carries counts and
// identifiers only, never matched text.
type DetectionEvent struct {
	RequestID  string   `json:"request_id"`
	Operation  string   `json:"operation"`
	Namespaces []string `json:"namespaces"`
	MatchCount int      `json:"match_count"`
	DurationMS float64  `json:"duration_ms"`
}

// ReloadEvent announces a new registry generation.
type ReloadEvent struct {
	Version    int64    `json:"version"`
	Patterns   int      `json:"patterns"`
	Namespaces []string `json:"namespaces"`
}

// ConnectionEvent announces stream client connects and disconnects.
type ConnectionEvent struct {
	Action   string `json:"action"` // "connected" or "disconnected"
	ClientID string `json:"client_id"`
	ClientIP string `json:"client_ip"`
}
