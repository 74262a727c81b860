// Package memory implements the two persisted memory surfaces: an
// append-only short-term episodic log and a derived long-term semantic
// view recomputed from it.
package memory

import (
	"time"

	"github.com/google/uuid"
)

// Short-term event types. The type is descriptive, not an enum the
// store enforces: collaborators may log kinds the store has not seen.
const (
	EventApplied  = "applied"
	EventResponse = "response"
	EventFeedback = "feedback"
	EventNote     = "note"
)

// ShortEvent is one line of the episodic log. Events are append-only:
// never mutated or deleted after the write lands.
type ShortEvent struct {
	// ID is assigned at append time and doubles as the idempotency key
	// when events are replayed into the bandit model.
	ID string `json:"id"`

	// Kind tags the memory surface the event belongs to.
	Kind string `json:"kind"`

	// TS is the event timestamp, used for recency decay at read time.
	TS time.Time `json:"ts"`

	// AppID is a weak reference to an application record: lookup only,
	// the event stays valid when the record disappears from the index.
	AppID string `json:"app_id,omitempty"`

	// Type is the event type (applied, response, feedback, note).
	Type string `json:"type"`

	// Outcome carries the terminal outcome for feedback events.
	Outcome string `json:"outcome,omitempty"`

	// ScoreHint weights this event in recency scoring. Zero means
	// derive it from the outcome at read time.
	ScoreHint float64 `json:"score_hint,omitempty"`

	// Text is the free-text payload. PII-guarded before persistence.
	Text string `json:"text,omitempty"`

	// Category and Method mirror the referenced record's arm so the
	// long-term view can be recomputed without an index lookup.
	Category string `json:"category,omitempty"`
	Method   string `json:"method,omitempty"`
}

// NewShortEvent builds an episodic event with a fresh id and timestamp.
func NewShortEvent(appID, eventType, text string) ShortEvent {
	return ShortEvent{
		ID:    uuid.NewString(),
		Kind:  "episodic",
		TS:    time.Now().UTC(),
		AppID: appID,
		Type:  eventType,
		Text:  text,
	}
}
