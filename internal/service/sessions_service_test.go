package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rishi-Sarmah/hrms-protocole/internal/models"
)

type mockSessionsRepo struct {
	session   *models.Session
	updated   *models.Session
	createErr error
	updateErr error
	deleteErr error
}

func (m *mockSessionsRepo) Create(_ context.Context, userID string, req *models.CreateSessionRequest) (*models.Session, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}

	return &models.Session{ID: uuid.Must(uuid.NewV7()), UserID: userID, SessionName: req.SessionName}, nil
}

func (m *mockSessionsRepo) GetByID(_ context.Context, _ string, _ uuid.UUID) (*models.Session, error) {
	return m.session, nil
}

func (m *mockSessionsRepo) List(_ context.Context, _ string) ([]models.SessionListItem, error) {
	return []models.SessionListItem{}, nil
}

func (m *mockSessionsRepo) Update(_ context.Context, _ string, _ uuid.UUID, _ *models.UpdateSessionRequest) (*models.Session, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}

	return m.updated, nil
}

func (m *mockSessionsRepo) Delete(_ context.Context, _ string, _ uuid.UUID) error {
	return m.deleteErr
}

func (m *mockSessionsRepo) SetEmbedding(_ context.Context, _ uuid.UUID, _ []float32, _ string) error {
	return nil
}

type capturingPublisher struct {
	types   []EventType
	befores []*models.Session
	afters  []*models.Session
}

func (p *capturingPublisher) PublishChange(_ context.Context, eventType EventType, before, after *models.Session) {
	p.types = append(p.types, eventType)
	p.befores = append(p.befores, before)
	p.afters = append(p.afters, after)
}

func TestSessionsService_CreateSession_publishesCreated(t *testing.T) {
	pub := &capturingPublisher{}
	s := NewSessionsService(&mockSessionsRepo{}, pub)

	session, err := s.CreateSession(context.Background(), "user-1", &models.CreateSessionRequest{SessionName: "Rapport T1"})

	require.NoError(t, err)
	require.Len(t, pub.types, 1)
	assert.Equal(t, SessionCreated, pub.types[0])
	assert.Nil(t, pub.befores[0])
	assert.Equal(t, session, pub.afters[0])
}

func TestSessionsService_CreateSession_repoError_noEvent(t *testing.T) {
	pub := &capturingPublisher{}
	s := NewSessionsService(&mockSessionsRepo{createErr: errors.New("db down")}, pub)

	_, err := s.CreateSession(context.Background(), "user-1", &models.CreateSessionRequest{SessionName: "Rapport T1"})

	require.Error(t, err)
	assert.Empty(t, pub.types)
}

func TestSessionsService_UpdateSession_publishesBothSnapshots(t *testing.T) {
	sessionID := uuid.Must(uuid.NewV7())
	before := &models.Session{ID: sessionID, UserID: "user-1", SessionName: "v1"}
	after := &models.Session{ID: sessionID, UserID: "user-1", SessionName: "v2"}

	pub := &capturingPublisher{}
	s := NewSessionsService(&mockSessionsRepo{session: before, updated: after}, pub)

	got, err := s.UpdateSession(context.Background(), "user-1", sessionID, &models.UpdateSessionRequest{})

	require.NoError(t, err)
	assert.Equal(t, after, got)
	require.Len(t, pub.types, 1)
	assert.Equal(t, SessionUpdated, pub.types[0])
	assert.Equal(t, before, pub.befores[0], "event must carry the pre-update snapshot for diffing")
	assert.Equal(t, after, pub.afters[0])
}

func TestSessionsService_DeleteSession_publishesDeletedWithBefore(t *testing.T) {
	sessionID := uuid.Must(uuid.NewV7())
	before := &models.Session{ID: sessionID, UserID: "user-1", SessionName: "v1"}

	pub := &capturingPublisher{}
	s := NewSessionsService(&mockSessionsRepo{session: before}, pub)

	err := s.DeleteSession(context.Background(), "user-1", sessionID)

	require.NoError(t, err)
	require.Len(t, pub.types, 1)
	assert.Equal(t, SessionDeleted, pub.types[0])
	assert.Equal(t, before, pub.befores[0])
	assert.Nil(t, pub.afters[0])
}

func TestSessionsService_SetSessionEmbedding_publishesNothing(t *testing.T) {
	pub := &capturingPublisher{}
	s := NewSessionsService(&mockSessionsRepo{}, pub)

	err := s.SetSessionEmbedding(context.Background(), uuid.Must(uuid.NewV7()), []float32{0.1}, "text")

	require.NoError(t, err)
	assert.Empty(t, pub.types, "storing derived state must not feed back into the event pipeline")
}
