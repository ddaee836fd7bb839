package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Rishi-Sarmah/hrms-protocole/internal/api/middleware"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/api/response"
	apperrors "github.com/Rishi-Sarmah/hrms-protocole/internal/errors"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/models"
)

// AnalyzerService defines the interface for report analysis.
type AnalyzerService interface {
	Analyze(ctx context.Context, userID string, req *models.AnalyzeRequest) (*models.AnalyzeResponse, error)
}

// AnalyzeHandler handles HTTP requests for report analysis.
type AnalyzeHandler struct {
	service AnalyzerService
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(service AnalyzerService) *AnalyzeHandler {
	return &AnalyzeHandler{service: service}
}

// Analyze handles POST /v1/reports/analyze.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	resp, err := h.service.Analyze(r.Context(), middleware.UserID(r.Context()), &req)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUnauthenticated):
			response.RespondUnauthorized(w, err.Error())
		case errors.Is(err, apperrors.ErrInvalidArgument):
			response.RespondBadRequest(w, err.Error())
		case errors.Is(err, apperrors.ErrAnalysisFailed):
			response.RespondBadGateway(w, err.Error())
		default:
			response.RespondInternalServerError(w, "Analysis failed")
		}

		return
	}

	response.RespondJSON(w, http.StatusOK, resp)
}
