package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Rishi-Sarmah/hrms-protocole/internal/api/middleware"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/api/response"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/api/validation"
	apperrors "github.com/Rishi-Sarmah/hrms-protocole/internal/errors"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/models"
)

// ChatService defines the interface for retrieval-augmented chat.
type ChatService interface {
	Chat(ctx context.Context, userID string, req *models.ChatRequest) (*models.ChatResponse, error)
}

// ChatHandler handles HTTP requests for the session chat.
type ChatHandler struct {
	service ChatService
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(service ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// Chat handles POST /v1/chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	resp, err := h.service.Chat(r.Context(), middleware.UserID(r.Context()), &req)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUnauthenticated):
			response.RespondUnauthorized(w, err.Error())
		case errors.Is(err, apperrors.ErrInvalidArgument):
			response.RespondBadRequest(w, err.Error())
		default:
			response.RespondBadGateway(w, "Chat failed")
		}

		return
	}

	response.RespondJSON(w, http.StatusOK, resp)
}
