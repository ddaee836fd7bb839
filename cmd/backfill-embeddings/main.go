// backfill-embeddings computes and stores embeddings for sessions that have
// none yet. Run this as a one-off after enabling embeddings or after changing
// the serialization format (clear the embedding columns first in that case).
// The sweep is idempotent: sessions that already carry an embedding are skipped.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/Rishi-Sarmah/hrms-protocole/internal/config"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/googleai"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/observability"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/openai"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/repository"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/service"
	"github.com/Rishi-Sarmah/hrms-protocole/pkg/database"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)

		return exitFailure
	}

	slog.SetDefault(observability.NewLogger(cfg.LogLevel))

	ctx := context.Background()

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, database.WithAfterConnect(pgxvec.RegisterTypes))
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)

		return exitFailure
	}
	defer db.Close()

	embeddingClient, err := newEmbeddingClient(ctx, cfg)
	if err != nil {
		slog.Error("Failed to create embedding client", "error", err)

		return exitFailure
	}

	backfill := service.NewBackfillService(repository.NewSessionsRepository(db), embeddingClient, slog.Default())

	stats, err := backfill.Run(ctx)
	if err != nil {
		slog.Error("Backfill failed", "error", err)

		return exitFailure
	}

	fmt.Printf("Backfill complete: total=%d processed=%d skipped=%d errors=%d\n",
		stats.Total, stats.Processed, stats.Skipped, stats.Errors)

	if stats.Errors > 0 {
		return exitFailure
	}

	return exitSuccess
}

func newEmbeddingClient(ctx context.Context, cfg *config.Config) (service.EmbeddingClient, error) {
	switch cfg.EmbeddingProvider {
	case "openai":
		return openai.NewClient(cfg.OpenAIAPIKey,
			openai.WithModel(cfg.EmbeddingModel),
			openai.WithDimensions(cfg.EmbeddingDimensions),
		), nil
	case "google":
		return googleai.NewClient(ctx, cfg.GeminiAPIKey,
			googleai.WithEmbeddingModel(cfg.EmbeddingModel),
			googleai.WithDimensions(cfg.EmbeddingDimensions),
		)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbeddingProvider)
	}
}
