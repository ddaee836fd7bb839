package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Rishi-Sarmah/hrms-protocole/internal/errors"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/models"
)

type mockSessionsService struct {
	createFunc func(ctx context.Context, userID string, req *models.CreateSessionRequest) (*models.Session, error)
	getFunc    func(ctx context.Context, userID string, id uuid.UUID) (*models.Session, error)
	listFunc   func(ctx context.Context, userID string) ([]models.SessionListItem, error)
	updateFunc func(ctx context.Context, userID string, id uuid.UUID, req *models.UpdateSessionRequest) (*models.Session, error)
	deleteFunc func(ctx context.Context, userID string, id uuid.UUID) error
}

func (m *mockSessionsService) CreateSession(
	ctx context.Context, userID string, req *models.CreateSessionRequest,
) (*models.Session, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, userID, req)
	}

	return nil, nil
}

func (m *mockSessionsService) GetSession(ctx context.Context, userID string, id uuid.UUID) (*models.Session, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, userID, id)
	}

	return nil, nil
}

func (m *mockSessionsService) ListSessions(ctx context.Context, userID string) ([]models.SessionListItem, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID)
	}

	return []models.SessionListItem{}, nil
}

func (m *mockSessionsService) UpdateSession(
	ctx context.Context, userID string, id uuid.UUID, req *models.UpdateSessionRequest,
) (*models.Session, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, userID, id, req)
	}

	return nil, nil
}

func (m *mockSessionsService) DeleteSession(ctx context.Context, userID string, id uuid.UUID) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, userID, id)
	}

	return nil
}

func TestSessionsHandler_Create(t *testing.T) {
	t.Run("missing session name returns 400", func(t *testing.T) {
		called := false
		handler := NewSessionsHandler(&mockSessionsService{
			createFunc: func(_ context.Context, _ string, _ *models.CreateSessionRequest) (*models.Session, error) {
				called = true

				return nil, nil
			},
		})

		req := authedRequest(http.MethodPost, "http://test/v1/sessions", []byte(`{"description":"x"}`), "user-1")
		rec := httptest.NewRecorder()

		handler.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, called)
	})

	t.Run("success returns 201 with created session", func(t *testing.T) {
		sessionID := uuid.Must(uuid.NewV7())
		handler := NewSessionsHandler(&mockSessionsService{
			createFunc: func(_ context.Context, userID string, req *models.CreateSessionRequest) (*models.Session, error) {
				assert.Equal(t, "user-1", userID)
				assert.Equal(t, "Rapport T1 2024", req.SessionName)

				return &models.Session{ID: sessionID, UserID: userID, SessionName: req.SessionName}, nil
			},
		})

		body := []byte(`{"sessionName":"Rapport T1 2024"}`)
		req := authedRequest(http.MethodPost, "http://test/v1/sessions", body, "user-1")
		rec := httptest.NewRecorder()

		handler.Create(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			Data models.Session `json:"data"`
		}

		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, sessionID, resp.Data.ID)
		assert.Equal(t, "Rapport T1 2024", resp.Data.SessionName)
	})
}

func TestSessionsHandler_Get(t *testing.T) {
	t.Run("invalid id returns 400", func(t *testing.T) {
		handler := NewSessionsHandler(&mockSessionsService{})

		req := authedRequest(http.MethodGet, "http://test/v1/sessions/not-a-uuid", nil, "user-1")
		req.SetPathValue("id", "not-a-uuid")
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown id returns 404", func(t *testing.T) {
		sessionID := uuid.Must(uuid.NewV7())
		handler := NewSessionsHandler(&mockSessionsService{
			getFunc: func(_ context.Context, _ string, _ uuid.UUID) (*models.Session, error) {
				return nil, apperrors.NewNotFoundError("session", "Session not found")
			},
		})

		req := authedRequest(http.MethodGet, "http://test/v1/sessions/"+sessionID.String(), nil, "user-1")
		req.SetPathValue("id", sessionID.String())
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("success returns the session", func(t *testing.T) {
		sessionID := uuid.Must(uuid.NewV7())
		handler := NewSessionsHandler(&mockSessionsService{
			getFunc: func(_ context.Context, userID string, id uuid.UUID) (*models.Session, error) {
				assert.Equal(t, "user-1", userID)
				assert.Equal(t, sessionID, id)

				return &models.Session{ID: sessionID, UserID: userID, SessionName: "Rapport T1"}, nil
			},
		})

		req := authedRequest(http.MethodGet, "http://test/v1/sessions/"+sessionID.String(), nil, "user-1")
		req.SetPathValue("id", sessionID.String())
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestSessionsHandler_Delete(t *testing.T) {
	t.Run("success returns 204", func(t *testing.T) {
		sessionID := uuid.Must(uuid.NewV7())
		handler := NewSessionsHandler(&mockSessionsService{})

		req := authedRequest(http.MethodDelete, "http://test/v1/sessions/"+sessionID.String(), nil, "user-1")
		req.SetPathValue("id", sessionID.String())
		rec := httptest.NewRecorder()

		handler.Delete(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("unknown id returns 404", func(t *testing.T) {
		sessionID := uuid.Must(uuid.NewV7())
		handler := NewSessionsHandler(&mockSessionsService{
			deleteFunc: func(_ context.Context, _ string, _ uuid.UUID) error {
				return apperrors.NewNotFoundError("session", "Session not found")
			},
		})

		req := authedRequest(http.MethodDelete, "http://test/v1/sessions/"+sessionID.String(), nil, "user-1")
		req.SetPathValue("id", sessionID.String())
		rec := httptest.NewRecorder()

		handler.Delete(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
