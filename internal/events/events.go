// Package events publishes post lifecycle events to downstream consumers.
package events

import (
	"context"
	"time"
)

// Type names a post lifecycle transition.
type Type string

const (
	TypePostCreated Type = "post.created"
	TypePostUpdated Type = "post.updated"
	TypePostDeleted Type = "post.deleted"
)

// Event is the payload emitted after a post mutation is stored.
type Event struct {
	Type       Type      `json:"type"`
	PostID     string    `json:"postId"`
	CreatorID  string    `json:"creatorId"`
	Title      string    `json:"title,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher hands events to a transport. Implementations must not block
// longer than ctx allows.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

// NewNoop returns a Publisher that discards events.
func NewNoop() *NoopPublisher {
	return &NoopPublisher{}
}

// Publish discards the event.
func (NoopPublisher) Publish(context.Context, Event) error {
	return nil
}
