package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/baizehq/baize/internal/clock"
	eventsdomain "github.com/baizehq/baize/internal/events/domain"
)

const subscriberBuffer = 16

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

// Hub persists events and fans them out to live subscribers. Slow
// subscribers drop events rather than block publishers.
type Hub struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock

	mu   sync.RWMutex
	subs map[chan eventsdomain.Event]struct{}
}

func NewHub(p Params) *Hub {
	return &Hub{
		db:    p.DB,
		log:   p.Log.Named("events.hub"),
		clock: p.Clock,
		subs:  make(map[chan eventsdomain.Event]struct{}),
	}
}

func (h *Hub) Publish(ctx context.Context, eventType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("event payload not serializable",
			zap.String("type", eventType),
			zap.Error(err),
		)
		return
	}

	event := eventsdomain.Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   datatypes.JSON(raw),
		CreatedAt: h.clock.Now(),
	}

	if err := h.db.WithContext(ctx).Create(&event).Error; err != nil {
		h.log.Error("event persist failed",
			zap.String("type", eventType),
			zap.Error(err),
		)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe attaches a live feed. The caller must Close the subscription.
func (h *Hub) Subscribe() *eventsdomain.Subscription {
	ch := make(chan eventsdomain.Event, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	return eventsdomain.NewSubscription(ch, func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	})
}

// Recent returns the newest persisted events, newest first.
func (h *Hub) Recent(ctx context.Context, limit int) ([]eventsdomain.Event, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var items []eventsdomain.Event
	err := h.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

var Module = fx.Module("events",
	fx.Provide(NewHub),
	fx.Provide(func(h *Hub) eventsdomain.Publisher { return h }),
)
