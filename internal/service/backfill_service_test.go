package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rishi-Sarmah/hrms-protocole/internal/models"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/repository"
)

type mockBackfillRepo struct {
	candidates []repository.BackfillCandidate
	listErr    error
	setErr     error
	stored     map[uuid.UUID]string
}

func (m *mockBackfillRepo) ListForBackfill(_ context.Context) ([]repository.BackfillCandidate, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}

	return m.candidates, nil
}

func (m *mockBackfillRepo) SetEmbedding(_ context.Context, id uuid.UUID, _ []float32, text string) error {
	if m.setErr != nil {
		return m.setErr
	}

	if m.stored == nil {
		m.stored = make(map[uuid.UUID]string)
	}

	m.stored[id] = text

	return nil
}

func embeddableSession(id uuid.UUID) models.Session {
	return models.Session{
		ID:          id,
		UserID:      "user-1",
		SessionName: "Rapport T1 2024",
	}
}

func TestBackfillService_Run_processesMissingEmbeddings(t *testing.T) {
	missingID := uuid.Must(uuid.NewV7())
	doneID := uuid.Must(uuid.NewV7())

	repo := &mockBackfillRepo{
		candidates: []repository.BackfillCandidate{
			{Session: embeddableSession(missingID), HasEmbedding: false},
			{Session: embeddableSession(doneID), HasEmbedding: true},
		},
	}
	embed := &mockEmbeddingClient{embedding: []float32{0.1, 0.2}}

	stats, err := NewBackfillService(repo, embed, nil).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Errors)

	require.Contains(t, repo.stored, missingID)
	assert.NotContains(t, repo.stored, doneID)
	assert.Equal(t, 1, embed.calls)
}

func TestBackfillService_Run_secondSweepIsIdempotent(t *testing.T) {
	id := uuid.Must(uuid.NewV7())
	repo := &mockBackfillRepo{
		candidates: []repository.BackfillCandidate{
			{Session: embeddableSession(id), HasEmbedding: true},
		},
	}
	embed := &mockEmbeddingClient{embedding: []float32{0.1}}

	stats, err := NewBackfillService(repo, embed, nil).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, stats.Processed)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, embed.calls)
}

func TestBackfillService_Run_skipsTooShortText(t *testing.T) {
	id := uuid.Must(uuid.NewV7())
	// Serializes to a header shorter than the embeddable minimum.
	short := models.Session{ID: id, UserID: "user-1", SessionName: "T1"}

	repo := &mockBackfillRepo{
		candidates: []repository.BackfillCandidate{{Session: short}},
	}
	embed := &mockEmbeddingClient{embedding: []float32{0.1}}

	stats, err := NewBackfillService(repo, embed, nil).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Processed)
	assert.Equal(t, 0, embed.calls)
}

func TestBackfillService_Run_countsErrorsAndContinues(t *testing.T) {
	failID := uuid.Must(uuid.NewV7())

	repo := &mockBackfillRepo{
		candidates: []repository.BackfillCandidate{
			{Session: embeddableSession(failID)},
			{Session: embeddableSession(uuid.Must(uuid.NewV7()))},
		},
	}

	calls := 0
	embed := &funcEmbeddingClient{fn: func(string) ([]float32, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("provider unavailable")
		}

		return []float32{0.1}, nil
	}}

	stats, err := NewBackfillService(repo, embed, nil).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 1, stats.Processed)
	assert.NotContains(t, repo.stored, failID)
}

func TestBackfillService_Run_listFailure_aborts(t *testing.T) {
	repo := &mockBackfillRepo{listErr: errors.New("db down")}

	_, err := NewBackfillService(repo, &mockEmbeddingClient{}, nil).Run(context.Background())

	require.Error(t, err)
}

type funcEmbeddingClient struct {
	fn func(input string) ([]float32, error)
}

func (c *funcEmbeddingClient) CreateEmbedding(_ context.Context, input string) ([]float32, error) {
	return c.fn(input)
}
