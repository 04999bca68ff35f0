// Package domain contains the venue event feed.
package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Event types emitted by the venue workflows.
const (
	TypeSessionStarted = "session.started"
	TypeSessionPaused  = "session.paused"
	TypeSessionResumed = "session.resumed"
	TypeSessionMoved   = "session.moved"
	TypeSessionClosed  = "session.closed"
	TypeShiftOpened    = "shift.opened"
	TypeShiftClosed    = "shift.closed"
	TypeVarianceAlert  = "shift.variance_alert"
	TypeBillSettled    = "bill.settled"
	TypeLowStock       = "inventory.low_stock"
)

// Event is one row in the venue event feed. Payload is the JSON document
// shown to floor displays and kept for audit.
type Event struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Type      string         `json:"type" gorm:"type:text;not null;index"`
	Payload   datatypes.JSON `json:"payload" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"created_at" gorm:"not null;index"`
}

// TableName sets the database table name.
func (Event) TableName() string { return "events" }

// Publisher persists an event and fans it out to live subscribers.
// Publishing is best-effort for subscribers; persistence failures are
// logged by the implementation, never propagated into the workflow that
// emitted the event.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any)
}

// Subscription is one live feed attached to the hub.
type Subscription struct {
	C      <-chan Event
	cancel func()
}

// Close detaches the subscription from the hub.
func (s *Subscription) Close() {
	if s != nil && s.cancel != nil {
		s.cancel()
	}
}

// NewSubscription wraps a hub channel with its detach hook.
func NewSubscription(ch <-chan Event, cancel func()) *Subscription {
	return &Subscription{C: ch, cancel: cancel}
}
