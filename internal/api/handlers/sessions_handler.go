package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/Rishi-Sarmah/hrms-protocole/internal/api/middleware"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/api/response"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/api/validation"
	apperrors "github.com/Rishi-Sarmah/hrms-protocole/internal/errors"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/models"
)

// SessionsService defines the interface for session business logic.
type SessionsService interface {
	CreateSession(ctx context.Context, userID string, req *models.CreateSessionRequest) (*models.Session, error)
	GetSession(ctx context.Context, userID string, id uuid.UUID) (*models.Session, error)
	ListSessions(ctx context.Context, userID string) ([]models.SessionListItem, error)
	UpdateSession(ctx context.Context, userID string, id uuid.UUID, req *models.UpdateSessionRequest) (*models.Session, error)
	DeleteSession(ctx context.Context, userID string, id uuid.UUID) error
}

// SessionsHandler handles HTTP requests for report sessions.
type SessionsHandler struct {
	service SessionsService
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(service SessionsService) *SessionsHandler {
	return &SessionsHandler{service: service}
}

// Create handles POST /v1/sessions.
func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	session, err := h.service.CreateSession(r.Context(), middleware.UserID(r.Context()), &req)
	if err != nil {
		response.RespondInternalServerError(w, "Failed to create session")

		return
	}

	response.RespondSuccess(w, http.StatusCreated, session)
}

// List handles GET /v1/sessions.
func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListSessions(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		response.RespondInternalServerError(w, "Failed to list sessions")

		return
	}

	response.RespondSuccess(w, http.StatusOK, items)
}

// Get handles GET /v1/sessions/{id}.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDFromPath(w, r)
	if !ok {
		return
	}

	session, err := h.service.GetSession(r.Context(), middleware.UserID(r.Context()), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			response.RespondNotFound(w, "Session not found")

			return
		}

		response.RespondInternalServerError(w, "Failed to get session")

		return
	}

	response.RespondSuccess(w, http.StatusOK, session)
}

// Update handles PATCH /v1/sessions/{id}.
func (h *SessionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDFromPath(w, r)
	if !ok {
		return
	}

	var req models.UpdateSessionRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	session, err := h.service.UpdateSession(r.Context(), middleware.UserID(r.Context()), id, &req)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			response.RespondNotFound(w, "Session not found")

			return
		}

		response.RespondInternalServerError(w, "Failed to update session")

		return
	}

	response.RespondSuccess(w, http.StatusOK, session)
}

// Delete handles DELETE /v1/sessions/{id}.
func (h *SessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteSession(r.Context(), middleware.UserID(r.Context()), id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			response.RespondNotFound(w, "Session not found")

			return
		}

		response.RespondInternalServerError(w, "Failed to delete session")

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// sessionIDFromPath parses the {id} path value, writing a 400 when invalid.
func sessionIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := r.PathValue("id")
	if idStr == "" {
		response.RespondBadRequest(w, "Session ID is required")

		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		response.RespondBadRequest(w, "Invalid session ID")

		return uuid.Nil, false
	}

	return id, true
}
