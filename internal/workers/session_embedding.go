// Package workers provides River job workers (session embedding).
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/Rishi-Sarmah/hrms-protocole/internal/models"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/observability"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/serialize"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/service"
)

// SessionEmbeddingWorker serializes a session and stores its embedding.
// It re-reads the session at execution time, so jobs collapsed by uniqueness
// still embed the latest content.
type SessionEmbeddingWorker struct {
	river.WorkerDefaults[service.SessionEmbeddingArgs]

	sessions        sessionEmbeddingService
	embeddingClient service.EmbeddingClient
	metrics         observability.EmbeddingMetrics
}

// sessionEmbeddingService is the minimal interface needed by the worker.
type sessionEmbeddingService interface {
	GetSessionForEmbedding(ctx context.Context, id uuid.UUID) (*models.Session, error)
	SetSessionEmbedding(ctx context.Context, id uuid.UUID, embedding []float32, text string) error
}

// NewSessionEmbeddingWorker creates a worker that fetches the session, serializes it,
// calls the embedding provider, and persists the vector with its source text.
// metrics may be nil when metrics are disabled.
func NewSessionEmbeddingWorker(
	sessions sessionEmbeddingService,
	embeddingClient service.EmbeddingClient,
	metrics observability.EmbeddingMetrics,
) *SessionEmbeddingWorker {
	return &SessionEmbeddingWorker{
		sessions:        sessions,
		embeddingClient: embeddingClient,
		metrics:         metrics,
	}
}

const sessionEmbeddingTimeout = 30 * time.Second

// Timeout limits how long a single embedding job can run.
func (w *SessionEmbeddingWorker) Timeout(*river.Job[service.SessionEmbeddingArgs]) time.Duration {
	return sessionEmbeddingTimeout
}

// Work loads the session, generates the embedding, and persists it together
// with the serialized text it came from.
func (w *SessionEmbeddingWorker) Work(ctx context.Context, job *river.Job[service.SessionEmbeddingArgs]) error {
	args := job.Args
	start := time.Now()

	session, err := w.sessions.GetSessionForEmbedding(ctx, args.SessionID)
	if err != nil {
		if w.metrics != nil {
			w.metrics.RecordWorkerError(ctx, "get_session_failed")
			w.metrics.RecordEmbeddingOutcome(ctx, "failed_final")
			w.metrics.RecordEmbeddingDuration(ctx, time.Since(start), "failed_final")
		}

		slog.Error("embedding: get session failed",
			"session_id", args.SessionID,
			"error", err,
		)

		return nil // no retry when the session was deleted before the job ran
	}

	text := serialize.Session(session)
	if len(text) < service.MinEmbeddableTextLength {
		if w.metrics != nil {
			w.metrics.RecordEmbeddingOutcome(ctx, "skipped")
			w.metrics.RecordEmbeddingDuration(ctx, time.Since(start), "skipped")
		}

		slog.Info("embedding: skipped (insufficient data)",
			"session_id", args.SessionID,
			"text_len", len(text),
		)

		return nil
	}

	embedding, err := w.embeddingClient.CreateEmbedding(ctx, text)
	if err != nil {
		isLastAttempt := job.Attempt >= job.MaxAttempts

		if w.metrics != nil {
			w.metrics.RecordWorkerError(ctx, "provider_failed")

			if isLastAttempt {
				w.metrics.RecordEmbeddingOutcome(ctx, "failed_final")
				w.metrics.RecordEmbeddingDuration(ctx, time.Since(start), "failed_final")
			} else {
				w.metrics.RecordEmbeddingOutcome(ctx, "retry")
				w.metrics.RecordEmbeddingDuration(ctx, time.Since(start), "retry")
			}
		}

		if isLastAttempt {
			slog.Error("embedding: provider failed (final attempt)",
				"session_id", args.SessionID,
				"error", err,
			)

			return nil
		}

		return fmt.Errorf("create embedding: %w", err)
	}

	err = w.sessions.SetSessionEmbedding(ctx, args.SessionID, embedding, text)
	if err != nil {
		if w.metrics != nil {
			w.metrics.RecordWorkerError(ctx, "update_failed")
			w.metrics.RecordEmbeddingOutcome(ctx, "failed_final")
			w.metrics.RecordEmbeddingDuration(ctx, time.Since(start), "failed_final")
		}

		slog.Error("embedding: set embedding failed",
			"session_id", args.SessionID,
			"error", err,
		)

		return fmt.Errorf("set session embedding: %w", err)
	}

	slog.Info("embedding: stored",
		"session_id", args.SessionID,
		"dims", len(embedding),
		"text_len", len(text),
	)

	if w.metrics != nil {
		w.metrics.RecordEmbeddingOutcome(ctx, "success")
		w.metrics.RecordEmbeddingDuration(ctx, time.Since(start), "success")
	}

	return nil
}
