package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Rishi-Sarmah/hrms-protocole/internal/api/handlers"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/api/middleware"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/config"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/googleai"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/observability"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/openai"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/repository"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/service"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/workers"
)

// App holds all server dependencies and coordinates startup and shutdown.
type App struct {
	cfg             *config.Config
	db              *pgxpool.Pool
	server          *http.Server
	river           *river.Client[pgx.Tx]
	publisher       *service.ChangePublisherManager
	metricsProvider *observability.MetricsProvider
}

var errUnsupportedEmbeddingProvider = errors.New("unsupported embedding provider")

const (
	embeddingProviderGoogle = "google"
	embeddingProviderOpenAI = "openai"
)

const queryEmbeddingCacheSize = 1000

// appMetrics bundles the per-concern metric recorders. All fields are nil
// when metrics are disabled.
type appMetrics struct {
	embeddings observability.EmbeddingMetrics
	chat       observability.ChatMetrics
	analysis   observability.AnalysisMetrics
	cache      observability.CacheMetrics
}

// setupMetrics creates the Prometheus-backed meter provider and the metric
// recorders. Returns a nil provider and zero-valued recorders when disabled.
func setupMetrics(cfg *config.Config) (*observability.MetricsProvider, appMetrics, error) {
	var m appMetrics

	mp, err := observability.NewMetricsProvider(cfg.MetricsEnabled)
	if err != nil {
		return nil, m, fmt.Errorf("create metrics provider: %w", err)
	}

	if mp == nil {
		slog.Warn("metrics not enabled (METRICS_ENABLED=false)")

		return nil, m, nil
	}

	meter := mp.MeterProvider.Meter("reports")

	if m.embeddings, err = observability.NewEmbeddingMetrics(meter); err != nil {
		return nil, m, fmt.Errorf("create embedding metrics: %w", err)
	}

	if m.chat, err = observability.NewChatMetrics(meter); err != nil {
		return nil, m, fmt.Errorf("create chat metrics: %w", err)
	}

	if m.analysis, err = observability.NewAnalysisMetrics(meter); err != nil {
		return nil, m, fmt.Errorf("create analysis metrics: %w", err)
	}

	if m.cache, err = observability.NewCacheMetrics(meter); err != nil {
		return nil, m, fmt.Errorf("create cache metrics: %w", err)
	}

	return mp, m, nil
}

// NewApp builds and wires all components. It does not start the HTTP server or
// River; call Run to start and block until shutdown or failure.
func NewApp(ctx context.Context, cfg *config.Config, db *pgxpool.Pool) (*App, error) {
	metricsProvider, metrics, err := setupMetrics(cfg)
	if err != nil {
		return nil, err
	}

	// The Gemini client is always created: it serves chat and analysis
	// generation even when embeddings come from OpenAI.
	googleClient, err := googleai.NewClient(ctx, cfg.GeminiAPIKey,
		googleai.WithEmbeddingModel(cfg.EmbeddingModel),
		googleai.WithDimensions(cfg.EmbeddingDimensions),
		googleai.WithChatModel(cfg.ChatModel),
	)
	if err != nil {
		return nil, fmt.Errorf("create google client: %w", err)
	}

	var (
		embeddingClient service.EmbeddingClient
		embeddingAPIKey string
	)

	switch cfg.EmbeddingProvider {
	case embeddingProviderGoogle:
		embeddingClient = googleClient
		embeddingAPIKey = cfg.GeminiAPIKey
	case embeddingProviderOpenAI:
		embeddingClient = openai.NewClient(cfg.OpenAIAPIKey,
			openai.WithModel(cfg.EmbeddingModel),
			openai.WithDimensions(cfg.EmbeddingDimensions),
		)
		embeddingAPIKey = cfg.OpenAIAPIKey
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedEmbeddingProvider, cfg.EmbeddingProvider)
	}

	publisher := service.NewChangePublisherManager()

	sessionsRepo := repository.NewSessionsRepository(db)
	sessionsService := service.NewSessionsService(sessionsRepo, publisher)

	embeddingWorker := workers.NewSessionEmbeddingWorker(sessionsService, embeddingClient, metrics.embeddings)
	riverWorkers := river.NewWorkers()
	river.AddWorker(riverWorkers, embeddingWorker)

	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			service.EmbeddingsQueueName: {MaxWorkers: cfg.EmbeddingMaxConcurrent},
		},
		Workers: riverWorkers,
	})
	if err != nil {
		publisher.Shutdown()

		return nil, fmt.Errorf("create River client: %w", err)
	}

	embeddingProvider := service.NewEmbeddingProvider(
		riverClient,
		embeddingAPIKey,
		service.EmbeddingsQueueName,
		cfg.EmbeddingMaxAttempts,
		metrics.embeddings,
	)
	publisher.RegisterSubscriber(embeddingProvider)

	queryCache, err := lru.New[string, []float32](queryEmbeddingCacheSize)
	if err != nil {
		publisher.Shutdown()

		return nil, fmt.Errorf("create query embedding cache: %w", err)
	}

	chatService := service.NewChatService(service.ChatServiceParams{
		EmbeddingClient:  embeddingClient,
		GenerationClient: googleClient,
		Retriever:        sessionsRepo,
		QueryCache:       queryCache,
		CacheMetrics:     metrics.cache,
		ChatMetrics:      metrics.chat,
		Logger:           slog.Default(),
	})

	analyzerService := service.NewAnalyzerService(googleClient, sessionsRepo, metrics.analysis, slog.Default())
	backfillService := service.NewBackfillService(sessionsRepo, embeddingClient, slog.Default())

	server := newHTTPServer(cfg,
		handlers.NewHealthHandler(),
		handlers.NewSessionsHandler(sessionsService),
		handlers.NewChatHandler(chatService),
		handlers.NewAnalyzeHandler(analyzerService),
		handlers.NewAdminHandler(backfillService, cfg.AdminKey),
		metricsProvider,
	)

	return &App{
		cfg:             cfg,
		db:              db,
		server:          server,
		river:           riverClient,
		publisher:       publisher,
		metricsProvider: metricsProvider,
	}, nil
}

// newHTTPServer builds the HTTP server and muxes (no auth on /health and
// /metrics, API key on /v1/, admin key on the backfill endpoint).
// Handler chain: RequestID -> otelhttp(Logging(MaxBody(mux))) so access logs
// get trace_id/span_id from context.
func newHTTPServer(
	cfg *config.Config,
	health *handlers.HealthHandler,
	sessions *handlers.SessionsHandler,
	chat *handlers.ChatHandler,
	analyze *handlers.AnalyzeHandler,
	admin *handlers.AdminHandler,
	metricsProvider *observability.MetricsProvider,
) *http.Server {
	public := http.NewServeMux()
	public.HandleFunc("GET /health", health.Check)

	if metricsProvider != nil {
		public.Handle("GET /metrics", metricsProvider.Handler())
	}

	protected := http.NewServeMux()
	protected.HandleFunc("POST /v1/sessions", sessions.Create)
	protected.HandleFunc("GET /v1/sessions", sessions.List)
	protected.HandleFunc("GET /v1/sessions/{id}", sessions.Get)
	protected.HandleFunc("PATCH /v1/sessions/{id}", sessions.Update)
	protected.HandleFunc("DELETE /v1/sessions/{id}", sessions.Delete)

	protected.HandleFunc("POST /v1/chat", chat.Chat)
	protected.HandleFunc("POST /v1/reports/analyze", analyze.Analyze)

	protectedWithAuth := middleware.Auth(cfg.APIKey)(protected)
	mux := http.NewServeMux()
	mux.Handle("/v1/", protectedWithAuth)
	mux.Handle("/", public)

	// More specific than the /v1/ prefix, so it bypasses API-key auth;
	// the handler enforces its own X-Admin-Key check.
	mux.HandleFunc("POST /v1/admin/backfill-embeddings", admin.BackfillEmbeddings)

	otelOpts := []otelhttp.Option{
		// Skip tracing and HTTP metrics for health checks and scrapes to reduce noise.
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health" && r.URL.Path != "/metrics"
		}),
	}
	if metricsProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithMeterProvider(metricsProvider.MeterProvider))
	}

	// Logging runs inside otelhttp so r.Context() has the span when we log.
	inner := middleware.Logging(middleware.MaxBody(cfg.MaxRequestBodyBytes)(mux))
	handler := otelhttp.NewHandler(inner, "reports-api", otelOpts...)
	handler = middleware.RequestID(handler)

	const (
		readTimeout  = 15 * time.Second
		writeTimeout = 15 * time.Second
		idleTimeout  = 60 * time.Second
	)

	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
}

// Run starts the HTTP server and River, then blocks until ctx is cancelled
// (e.g. signal) or a component fails. Caller should then call Shutdown.
func (a *App) Run(ctx context.Context) error {
	runErr := make(chan error, 1)

	riverCtx, cancelRiver := context.WithCancel(ctx)
	defer cancelRiver()

	go func() {
		if err := a.river.Start(riverCtx); err != nil && !errors.Is(err, context.Canceled) {
			select {
			case runErr <- fmt.Errorf("river: %w", err):
			default:
			}
		}
	}()

	go func() {
		slog.Info("Starting server", "port", a.cfg.Port)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case runErr <- fmt.Errorf("server: %w", err):
			default:
			}
		}
	}()

	select {
	case err := <-runErr:
		cancelRiver()

		return err
	case <-ctx.Done():
		cancelRiver()

		return nil
	}
}

// Shutdown stops the server, River, the change publisher, and the metrics
// provider in order. Call after Run returns.
func (a *App) Shutdown(ctx context.Context) error {
	defer func() {
		if a.metricsProvider != nil {
			if err := a.metricsProvider.Shutdown(ctx); err != nil {
				slog.Error("shutdown metrics provider", "error", err)
			}
		}
	}()

	defer a.publisher.Shutdown()

	if err := a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		if stopErr := a.river.Stop(ctx); stopErr != nil {
			slog.Error("river stop during server shutdown", "error", stopErr)
		}

		return fmt.Errorf("server shutdown: %w", err)
	}

	if err := a.river.Stop(ctx); err != nil {
		return fmt.Errorf("river stop: %w", err)
	}

	return nil
}
