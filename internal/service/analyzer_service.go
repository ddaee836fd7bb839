package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Rishi-Sarmah/hrms-protocole/internal/errors"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/googleai"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/models"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/observability"
)

// analyzerNoOutputText is returned when the model produces an empty analysis.
const analyzerNoOutputText = "No analysis could be generated."

// analyzerPromptHeader is the instruction block of the analyzer prompt. The
// diagram examples are fenced with "mermaid" so the frontend renderer picks
// them up verbatim.
var analyzerPromptHeader = `
    You are a senior administrative and operational analyst. Analyze the following report data (Administration, Exploitation, and Budget) provided in JSON format and provide a concise executive summary.

    The user's preferred language is: %s. Please respond in this language.

    Focus on:
    1. Personnel distribution and gender balance.
    2. Significant personnel movements (hiring vs departures).
    3. Medical cost drivers and transfer anomalies.
    4. Operational performance (Exploitation):
       - Import/Export volume and value trends.
       - Lab analysis compliance rates.
    5. Financial Performance (Budget):
       - Execution rates for Production vs Charges.
       - Treasury balance and cash flow health.
    6. Provide 3 actionable recommendations covering HR, Operations, and Finance.
    7. Generate exactly 2 concise Mermaid diagrams:
       - Diagram 1: A simple Pie Chart for Personnel Distribution (e.g., Gender or Category).
       - Diagram 2: A simple Bar Chart (using ` + "`xychart-beta`" + `) for Financial Overview (e.g., Budget vs Actuals).
       - Constraints:
         - Keep diagrams compact. Use short labels.
         - Place the two diagrams immediately one after another, with no text in between.
         - Wrap EACH diagram in its own code block with the identifier "mermaid".
       - Example for Diagram 1:
       ` + "```mermaid" + `
       pie title Personnel
         "Men" : 60
         "Women" : 40
       ` + "```" + `
       - Example for Diagram 2:
       ` + "```mermaid" + `
       xychart-beta
         title "Budget vs Actuals"
         x-axis ["Prod", "Charges"]
         y-axis "Amount" 0 --> 100
         bar [80, 50]
       ` + "```" + `

    Data:
    %s
  `

// AnalysisStore persists generated analyses on their sessions.
type AnalysisStore interface {
	SetAnalysis(ctx context.Context, userID string, id uuid.UUID, analysis, lang string) error
}

// AnalyzerService generates an executive summary for one report's data. There
// is no retrieval fallback here; provider failures are surfaced to the caller.
type AnalyzerService struct {
	generationClient GenerationClient
	store            AnalysisStore
	metrics          observability.AnalysisMetrics
	logger           *slog.Logger
}

// NewAnalyzerService creates an AnalyzerService. store and metrics may be nil.
func NewAnalyzerService(
	generationClient GenerationClient, store AnalysisStore, metrics observability.AnalysisMetrics, logger *slog.Logger,
) *AnalyzerService {
	if logger == nil {
		logger = slog.Default()
	}

	return &AnalyzerService{
		generationClient: generationClient,
		store:            store,
		metrics:          metrics,
		logger:           logger,
	}
}

// Analyze generates the executive summary for req.Data in the caller's
// preferred language. When req.SessionID is set the result is persisted on
// that session (best effort; persistence failure does not fail the call).
func (s *AnalyzerService) Analyze(ctx context.Context, userID string, req *models.AnalyzeRequest) (*models.AnalyzeResponse, error) {
	start := time.Now()

	resp, err := s.analyze(ctx, userID, req)

	if s.metrics != nil {
		status := "success"
		if err != nil {
			status = "failed"
		}

		s.metrics.RecordAnalysis(ctx, status)
		s.metrics.RecordAnalysisDuration(ctx, time.Since(start), status)
	}

	return resp, err
}

func (s *AnalyzerService) analyze(ctx context.Context, userID string, req *models.AnalyzeRequest) (*models.AnalyzeResponse, error) {
	if userID == "" {
		return nil, apperrors.NewUnauthenticatedError("User must be logged in.")
	}

	if req.Data == nil {
		return nil, apperrors.NewInvalidArgumentError("data", "Session data is required.")
	}

	lang := "English"
	if strings.HasPrefix(req.Language, "fr") {
		lang = "French"
	}

	dataJSON, err := json.MarshalIndent(req.Data, "", "  ")
	if err != nil {
		return nil, apperrors.NewInvalidArgumentError("data", "Session data is not serializable.")
	}

	prompt := fmt.Sprintf(analyzerPromptHeader, lang, string(dataJSON))

	text, err := s.generationClient.Generate(ctx, []googleai.Turn{{Role: "user", Text: prompt}}, false)
	if err != nil {
		if errors.Is(err, googleai.ErrEmptyGeneration) {
			text = analyzerNoOutputText
		} else {
			s.logger.Error("analyzer: generation failed", "error", err)

			return nil, apperrors.NewAnalysisFailedError(
				"An error occurred while communicating with the AI service. Please try again.")
		}
	}

	if req.SessionID != nil && s.store != nil {
		if err := s.store.SetAnalysis(ctx, userID, *req.SessionID, text, req.Language); err != nil {
			s.logger.Warn("analyzer: persist analysis failed", "session_id", *req.SessionID, "error", err)
		}
	}

	return &models.AnalyzeResponse{Text: text}, nil
}
