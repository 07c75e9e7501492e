// internal/services/events.go
package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type EventType string

const (
	EventBeatUpdated         EventType = "beat.updated"
	EventBeatDelisted        EventType = "beat.delisted"
	EventBeatArchived        EventType = "beat.archived"
	EventRatingUpdated       EventType = "rating.updated"
	EventContractCreated     EventType = "contract.created"
	EventWithdrawalRequested EventType = "withdrawal.requested"
	EventWithdrawalSettled   EventType = "withdrawal.settled"
)

// Event is published after a state change has been committed.
type Event struct {
	Type       EventType `json:"type"`
	EntityID   uuid.UUID `json:"entity_id"`
	ActorID    uuid.UUID `json:"actor_id"`
	BeatID     uuid.UUID `json:"beat_id,omitempty"`
	Version    int64     `json:"version,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier receives committed state changes.
type Notifier interface {
	Publish(event Event)
}

// EventBus fans events out to subscribers synchronously, in subscription order.
type EventBus struct {
	mu          sync.RWMutex
	nextID      int
	subscribers map[int]func(Event)
	order       []int
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[int]func(Event))}
}

func (b *EventBus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subscribers[id] = fn
	b.order = append(b.order, id)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subscribers, id)
		for i, v := range b.order {
			if v == id {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
}

func (b *EventBus) Publish(event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	b.mu.RLock()
	handlers := make([]func(Event), 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.subscribers[id])
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		b.dispatch(fn, event)
	}
}

func (b *EventBus) dispatch(fn func(Event), event Event) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"event": event.Type,
				"panic": r,
			}).Error("Event subscriber panicked")
		}
	}()
	fn(event)
}

// LogSubscriber writes every event to the structured log.
func LogSubscriber(event Event) {
	logrus.WithFields(logrus.Fields{
		"event":     event.Type,
		"entity_id": event.EntityID,
		"actor_id":  event.ActorID,
		"beat_id":   event.BeatID,
		"version":   event.Version,
	}).Info("Marketplace event")
}

type noopNotifier struct{}

func (noopNotifier) Publish(Event) {}
