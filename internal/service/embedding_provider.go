package service

import (
	"context"
	"log/slog"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/Rishi-Sarmah/hrms-protocole/internal/models"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/observability"
)

// uniqueByPeriodEmbedding bounds River's unique-by-args window for embedding jobs.
const uniqueByPeriodEmbedding = 24 * time.Hour

// EmbeddingProvider implements changeSubscriber by enqueueing one River job per
// session event whose embeddable content actually changed. Deletions are a
// no-op: the embedding columns live on the session row and die with it.
// Writes that only touch derived fields (the worker storing an embedding)
// produce no event at all, and update events whose content diff is empty are
// dropped here, so the write-enqueue-write cycle always terminates.
type EmbeddingProvider struct {
	inserter    SessionEmbeddingInserter
	apiKey      string
	queueName   string
	maxAttempts int
	metrics     observability.EmbeddingMetrics
}

// NewEmbeddingProvider creates a subscriber that enqueues session_embedding jobs.
// metrics may be nil when metrics are disabled.
func NewEmbeddingProvider(
	inserter SessionEmbeddingInserter,
	apiKey string,
	queueName string,
	maxAttempts int,
	metrics observability.EmbeddingMetrics,
) *EmbeddingProvider {
	return &EmbeddingProvider{
		inserter:    inserter,
		apiKey:      apiKey,
		queueName:   queueName,
		maxAttempts: maxAttempts,
		metrics:     metrics,
	}
}

// contentSnapshot is the embeddable subset of a session: the fields the
// serializer reads. Derived fields (embedding, embedding_text), timestamps,
// and the stored analysis are deliberately excluded from the diff.
type contentSnapshot struct {
	SessionName string
	Description *string
	StartDate   *string
	EndDate     *string
	Data        *models.SessionData
}

func snapshotOf(s *models.Session) contentSnapshot {
	return contentSnapshot{
		SessionName: s.SessionName,
		Description: s.Description,
		StartDate:   s.StartDate,
		EndDate:     s.EndDate,
		Data:        s.Data,
	}
}

// HandleChange enqueues a session_embedding job when the event is SessionCreated, or
// SessionUpdated with a non-empty embeddable content diff.
func (p *EmbeddingProvider) HandleChange(ctx context.Context, event Event) {
	if p.apiKey == "" {
		return
	}

	if event.After == nil {
		// Delete: nothing to recompute.
		return
	}

	if event.Type == SessionUpdated {
		if event.Before != nil && reflect.DeepEqual(snapshotOf(event.Before), snapshotOf(event.After)) {
			slog.Debug("embedding: skip, content unchanged",
				"event_id", event.ID,
				"session_id", sessionIDFromEvent(event),
			)

			return
		}
	} else if event.Type != SessionCreated {
		return
	}

	opts := &river.InsertOpts{
		Queue:       p.queueName,
		MaxAttempts: p.maxAttempts,
		UniqueOpts:  river.UniqueOpts{ByArgs: true, ByPeriod: uniqueByPeriodEmbedding},
	}

	_, err := p.inserter.Insert(ctx, SessionEmbeddingArgs{SessionID: event.After.ID}, opts)
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordProviderError(ctx, "enqueue_failed")
		}

		slog.Error("embedding: enqueue failed",
			"event_id", event.ID,
			"session_id", event.After.ID,
			"error", err,
		)

		return
	}

	slog.Info("embedding: job enqueued",
		"event_id", event.ID,
		"session_id", event.After.ID,
	)

	if p.metrics != nil {
		p.metrics.RecordJobsEnqueued(ctx, 1)
	}
}

func sessionIDFromEvent(event Event) uuid.UUID {
	if event.After != nil {
		return event.After.ID
	}

	if event.Before != nil {
		return event.Before.ID
	}

	return uuid.Nil
}
