// Package clicklog records which search result a user picked for a query.
package clicklog

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeImageClicked is emitted when a user selects a search result.
	EventTypeImageClicked = "glimpse.image.clicked"
)

// ClickEvent is a transport-neutral event payload for a selected image.
type ClickEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	Image         string      `json:"image"`
	Query         string      `json:"query"`
	Rank          int         `json:"rank,omitempty"`
}

// EventSource identifies where the click originated.
type EventSource struct {
	Client    string `json:"client,omitempty"`
	RemoteIP  string `json:"remote_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// NewClickEvent creates an event for image selected as a result of query.
func NewClickEvent(image, query string) *ClickEvent {
	return &ClickEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeImageClicked,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Image:         image,
		Query:         query,
	}
}

// Validate reports whether the event can be published.
func (e *ClickEvent) Validate() error {
	if e == nil {
		return ErrNilClickEvent
	}
	if e.Image == "" {
		return ErrInvalidClickEvent
	}
	return nil
}
