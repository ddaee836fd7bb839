package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/Rishi-Sarmah/hrms-protocole/internal/models"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/repository"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/serialize"
)

// MinEmbeddableTextLength is the shortest serialized text worth embedding.
// A bare header line is shorter than this, so near-empty sessions are skipped
// rather than embedded as noise.
const MinEmbeddableTextLength = 20

// backfillPacingInterval spaces out provider calls to stay under quota.
const backfillPacingInterval = 200 * time.Millisecond

// BackfillRepository provides the data access the backfill sweep needs.
type BackfillRepository interface {
	ListForBackfill(ctx context.Context) ([]repository.BackfillCandidate, error)
	SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32, text string) error
}

// BackfillService sweeps every session and embeds the ones missing a complete
// embedding. The sweep is idempotent: a second run over an unchanged dataset
// processes nothing.
type BackfillService struct {
	repo            BackfillRepository
	embeddingClient EmbeddingClient
	limiter         *rate.Limiter
	logger          *slog.Logger
}

// NewBackfillService creates a BackfillService.
func NewBackfillService(repo BackfillRepository, embeddingClient EmbeddingClient, logger *slog.Logger) *BackfillService {
	if logger == nil {
		logger = slog.Default()
	}

	return &BackfillService{
		repo:            repo,
		embeddingClient: embeddingClient,
		limiter:         rate.NewLimiter(rate.Every(backfillPacingInterval), 1),
		logger:          logger,
	}
}

// Run executes one sweep. Per-session failures are counted and logged, never
// fatal; only listing failure or context cancellation aborts the sweep.
func (s *BackfillService) Run(ctx context.Context) (*models.BackfillStats, error) {
	candidates, err := s.repo.ListForBackfill(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions for backfill: %w", err)
	}

	stats := &models.BackfillStats{Total: len(candidates)}

	for _, candidate := range candidates {
		if candidate.HasEmbedding {
			stats.Skipped++

			continue
		}

		session := candidate.Session

		text := serialize.Session(&session)
		if len(text) < MinEmbeddableTextLength {
			stats.Skipped++

			continue
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return stats, fmt.Errorf("backfill pacing: %w", err)
		}

		embedding, err := s.embeddingClient.CreateEmbedding(ctx, text)
		if err != nil {
			stats.Errors++

			s.logger.Error("backfill: embedding failed", "session_id", session.ID, "error", err)

			continue
		}

		if err := s.repo.SetEmbedding(ctx, session.ID, embedding, text); err != nil {
			stats.Errors++

			s.logger.Error("backfill: store failed", "session_id", session.ID, "error", err)

			continue
		}

		stats.Processed++

		s.logger.Info("backfill: processed", "session_id", session.ID, "text_len", len(text))
	}

	return stats, nil
}
