package handlers

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/Rishi-Sarmah/hrms-protocole/internal/api/response"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/models"
)

// BackfillService defines the interface for the embedding backfill sweep.
type BackfillService interface {
	Run(ctx context.Context) (*models.BackfillStats, error)
}

// AdminHandler handles operator-only endpoints. These sit outside the normal
// API-key auth and are gated by a separate admin key header.
type AdminHandler struct {
	backfill BackfillService
	adminKey string
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(backfill BackfillService, adminKey string) *AdminHandler {
	return &AdminHandler{backfill: backfill, adminKey: adminKey}
}

// backfillResponse is the response for the backfill sweep.
type backfillResponse struct {
	Message   string `json:"message"`
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Errors    int    `json:"errors"`
}

// BackfillEmbeddings handles POST /v1/admin/backfill-embeddings.
// Requires the X-Admin-Key header.
func (h *AdminHandler) BackfillEmbeddings(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("X-Admin-Key")
	if h.adminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.adminKey)) != 1 {
		response.RespondForbidden(w, "Forbidden")

		return
	}

	stats, err := h.backfill.Run(r.Context())
	if err != nil {
		slog.Error("backfill failed", "error", err)

		response.RespondInternalServerError(w, "Backfill failed")

		return
	}

	response.RespondJSON(w, http.StatusOK, backfillResponse{
		Message:   "Backfill complete",
		Total:     stats.Total,
		Processed: stats.Processed,
		Skipped:   stats.Skipped,
		Errors:    stats.Errors,
	})
}
