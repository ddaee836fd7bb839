package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Rishi-Sarmah/hrms-protocole/internal/models"
)

// eventChanBufferSize is the buffer size for the event channel (creates backpressure when full).
const eventChanBufferSize = 1024

// EventType identifies what happened to a session.
type EventType string

// Session lifecycle event types.
const (
	SessionCreated EventType = "session.created"
	SessionUpdated EventType = "session.updated"
	SessionDeleted EventType = "session.deleted"
)

// Event carries the before and after snapshots of one session write.
// Before is nil on create; After is nil on delete. Subscribers diff the two
// to decide whether derived state needs recomputing.
type Event struct {
	ID        uuid.UUID // Unique event id (UUID v7, time-ordered)
	Type      EventType
	Timestamp int64 // Unix timestamp
	Before    *models.Session
	After     *models.Session
}

// ChangePublisher defines the interface for publishing session change events.
type ChangePublisher interface {
	PublishChange(ctx context.Context, eventType EventType, before, after *models.Session)
}

// changeSubscriber is the internal interface for subscribers that receive a full Event.
type changeSubscriber interface {
	HandleChange(ctx context.Context, event Event)
}

// ChangePublisherManager fans session change events out to registered
// subscribers from a dedicated goroutine, decoupling request latency from
// subscriber work.
type ChangePublisherManager struct {
	eventChan   chan Event
	subscribers []changeSubscriber
	wg          sync.WaitGroup
}

// NewChangePublisherManager creates a new change publisher manager.
func NewChangePublisherManager() *ChangePublisherManager {
	m := &ChangePublisherManager{
		eventChan:   make(chan Event, eventChanBufferSize),
		subscribers: make([]changeSubscriber, 0),
	}

	// Start the worker in a dedicated goroutine
	m.wg.Add(1)
	go m.startWorker()

	return m
}

// RegisterSubscriber registers a change subscriber (embedding pipeline, audit, etc.).
// Must only be called during startup, before any events are published.
func (m *ChangePublisherManager) RegisterSubscriber(subscriber changeSubscriber) {
	m.subscribers = append(m.subscribers, subscriber)
}

// PublishChange publishes a session change event to all registered subscribers.
func (m *ChangePublisherManager) PublishChange(_ context.Context, eventType EventType, before, after *models.Session) {
	event := Event{
		ID:        uuid.Must(uuid.NewV7()),
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		Before:    before,
		After:     after,
	}

	select {
	case m.eventChan <- event:
		slog.Debug("Change event published to channel", "event_id", event.ID, "event_type", event.Type)
	default:
		slog.Warn("Change event channel full, event dropped", "event_id", event.ID, "event_type", event.Type)
	}
}

// startWorker runs in a dedicated goroutine, reading events from the channel
// and fanning out each event to all registered subscribers. It is started with go
// in NewChangePublisherManager and runs for the lifetime of the manager.
func (m *ChangePublisherManager) startWorker() {
	defer m.wg.Done()
	bgCtx := context.Background()

	// This loop automatically breaks when m.eventChan is closed
	for event := range m.eventChan {
		// Create a timeout per event so one stuck enqueue doesn't freeze the worker forever
		ctx, cancel := context.WithTimeout(bgCtx, 10*time.Second)

		for _, subscriber := range m.subscribers {
			subscriber.HandleChange(ctx, event)
		}
		cancel()
	}
}

// Shutdown stops the background worker and waits for the buffer to drain.
func (m *ChangePublisherManager) Shutdown() {
	close(m.eventChan)
	m.wg.Wait()
}
