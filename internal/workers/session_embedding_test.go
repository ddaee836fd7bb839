package workers

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Rishi-Sarmah/hrms-protocole/internal/errors"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/models"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/service"
)

type mockSessions struct {
	session    *models.Session
	getErr     error
	setErr     error
	storedVec  []float32
	storedText string
	setCalls   int
}

func (m *mockSessions) GetSessionForEmbedding(_ context.Context, _ uuid.UUID) (*models.Session, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}

	return m.session, nil
}

func (m *mockSessions) SetSessionEmbedding(_ context.Context, _ uuid.UUID, embedding []float32, text string) error {
	m.setCalls++

	if m.setErr != nil {
		return m.setErr
	}

	m.storedVec = embedding
	m.storedText = text

	return nil
}

type mockEmbeddingClient struct {
	embedding []float32
	err       error
	calls     int
}

func (m *mockEmbeddingClient) CreateEmbedding(_ context.Context, _ string) ([]float32, error) {
	m.calls++

	if m.err != nil {
		return nil, m.err
	}

	return m.embedding, nil
}

func embeddingJob(sessionID uuid.UUID, attempt, maxAttempts int) *river.Job[service.SessionEmbeddingArgs] {
	return &river.Job[service.SessionEmbeddingArgs]{
		JobRow: &rivertype.JobRow{ID: 1, Attempt: attempt, MaxAttempts: maxAttempts},
		Args:   service.SessionEmbeddingArgs{SessionID: sessionID},
	}
}

func TestSessionEmbeddingWorker_Work_storesEmbeddingWithText(t *testing.T) {
	sessionID := uuid.Must(uuid.NewV7())
	sessions := &mockSessions{
		session: &models.Session{ID: sessionID, UserID: "user-1", SessionName: "Rapport T1 2024"},
	}
	embed := &mockEmbeddingClient{embedding: []float32{0.1, 0.2, 0.3}}

	w := NewSessionEmbeddingWorker(sessions, embed, nil)

	err := w.Work(context.Background(), embeddingJob(sessionID, 1, 3))

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, sessions.storedVec)
	assert.Contains(t, sessions.storedText, `Session: "Rapport T1 2024".`,
		"the stored text must be the serialized session the vector came from")
}

func TestSessionEmbeddingWorker_Work_sessionGone_noRetry(t *testing.T) {
	sessions := &mockSessions{getErr: apperrors.NewNotFoundError("session", "Session not found")}
	embed := &mockEmbeddingClient{}

	w := NewSessionEmbeddingWorker(sessions, embed, nil)

	err := w.Work(context.Background(), embeddingJob(uuid.Must(uuid.NewV7()), 1, 3))

	assert.NoError(t, err, "deleted sessions must not keep the job retrying")
	assert.Equal(t, 0, embed.calls)
}

func TestSessionEmbeddingWorker_Work_tooShortText_skips(t *testing.T) {
	sessionID := uuid.Must(uuid.NewV7())
	sessions := &mockSessions{
		session: &models.Session{ID: sessionID, UserID: "user-1", SessionName: "T1"},
	}
	embed := &mockEmbeddingClient{}

	w := NewSessionEmbeddingWorker(sessions, embed, nil)

	err := w.Work(context.Background(), embeddingJob(sessionID, 1, 3))

	require.NoError(t, err)
	assert.Equal(t, 0, embed.calls)
	assert.Equal(t, 0, sessions.setCalls)
}

func TestSessionEmbeddingWorker_Work_providerError_retries(t *testing.T) {
	sessionID := uuid.Must(uuid.NewV7())
	sessions := &mockSessions{
		session: &models.Session{ID: sessionID, UserID: "user-1", SessionName: "Rapport T1 2024"},
	}
	embed := &mockEmbeddingClient{err: errors.New("quota exceeded")}

	w := NewSessionEmbeddingWorker(sessions, embed, nil)

	err := w.Work(context.Background(), embeddingJob(sessionID, 1, 3))

	require.Error(t, err, "non-final attempts must return the error so River retries")
}

func TestSessionEmbeddingWorker_Work_providerError_finalAttempt_givesUp(t *testing.T) {
	sessionID := uuid.Must(uuid.NewV7())
	sessions := &mockSessions{
		session: &models.Session{ID: sessionID, UserID: "user-1", SessionName: "Rapport T1 2024"},
	}
	embed := &mockEmbeddingClient{err: errors.New("quota exceeded")}

	w := NewSessionEmbeddingWorker(sessions, embed, nil)

	err := w.Work(context.Background(), embeddingJob(sessionID, 3, 3))

	assert.NoError(t, err, "final attempt must not error, or River would mark the job for another retry")
	assert.Equal(t, 0, sessions.setCalls)
}

func TestSessionEmbeddingWorker_Work_storeError_surfaced(t *testing.T) {
	sessionID := uuid.Must(uuid.NewV7())
	sessions := &mockSessions{
		session: &models.Session{ID: sessionID, UserID: "user-1", SessionName: "Rapport T1 2024"},
		setErr:  errors.New("db down"),
	}
	embed := &mockEmbeddingClient{embedding: []float32{0.1}}

	w := NewSessionEmbeddingWorker(sessions, embed, nil)

	err := w.Work(context.Background(), embeddingJob(sessionID, 1, 3))

	require.Error(t, err)
}
