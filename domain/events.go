package domain

import (
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

const (
	ClientCreated = "client-created"
	ClientMoved   = "client-moved"
	ClientDeleted = "client-deleted"
)

// Event notifies downstream consumers about a board change.
type Event struct {
	ID         string                 `json:"id"`
	EntityID   int                    `json:"entityId"`
	EntityType string                 `json:"entityType"`
	Type       string                 `json:"type"`
	Data       sonic.NoCopyRawMessage `json:"data,omitempty"`
	Timestamp  int64                  `json:"timestamp"`
}

// EventEnvelope wraps an event with the user whose board it belongs to.
type EventEnvelope struct {
	UserID string `json:"userId"`
	Event  Event  `json:"event"`
}

// NewEvent builds a board event with a fresh id and a monotonic timestamp.
func NewEvent(eventType string, clientID int, data []byte) Event {
	return Event{
		ID:         uuid.NewString(),
		EntityID:   clientID,
		EntityType: "client",
		Type:       eventType,
		Data:       data,
		Timestamp:  nextTimestamp(),
	}
}

var lastTimestamp int64

// nextTimestamp returns strictly increasing nanosecond timestamps so events
// emitted within the same wall-clock tick still order deterministically.
func nextTimestamp() int64 {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastTimestamp)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastTimestamp, last, now) {
			return now
		}
	}
}
