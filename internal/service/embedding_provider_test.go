package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rishi-Sarmah/hrms-protocole/internal/models"
)

type mockEmbeddingInserter struct {
	insertCalls []insertCall
	insertErr   error
}

type insertCall struct {
	args SessionEmbeddingArgs
	opts *river.InsertOpts
}

func (m *mockEmbeddingInserter) Insert(
	_ context.Context,
	args river.JobArgs,
	opts *river.InsertOpts,
) (*rivertype.JobInsertResult, error) {
	embeddingArgs, ok := args.(SessionEmbeddingArgs)
	if !ok {
		m.insertCalls = append(m.insertCalls, insertCall{opts: opts})

		return nil, m.insertErr
	}

	m.insertCalls = append(m.insertCalls, insertCall{args: embeddingArgs, opts: opts})
	if m.insertErr != nil {
		return nil, m.insertErr
	}

	return &rivertype.JobInsertResult{Job: &rivertype.JobRow{ID: 1}}, nil
}

func ptrString(s string) *string {
	return &s
}

func testSession(id uuid.UUID) *models.Session {
	return &models.Session{
		ID:          id,
		UserID:      "user-1",
		SessionName: "Rapport T1 2024",
		Description: ptrString("First quarter report"),
		Data: &models.SessionData{
			Staff: []models.StaffRow{{Category: "Cadres", Male: 10, Female: 4}},
		},
	}
}

func newEvent(eventType EventType, before, after *models.Session) Event {
	return Event{
		ID:        uuid.Must(uuid.NewV7()),
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		Before:    before,
		After:     after,
	}
}

func TestEmbeddingProvider_HandleChange_created_enqueues(t *testing.T) {
	inserter := &mockEmbeddingInserter{}
	p := NewEmbeddingProvider(inserter, "key-test", "embeddings", 3, nil)

	sessionID := uuid.Must(uuid.NewV7())
	p.HandleChange(context.Background(), newEvent(SessionCreated, nil, testSession(sessionID)))

	require.Len(t, inserter.insertCalls, 1)
	assert.Equal(t, sessionID, inserter.insertCalls[0].args.SessionID)
	require.NotNil(t, inserter.insertCalls[0].opts)
	assert.Equal(t, "embeddings", inserter.insertCalls[0].opts.Queue)
	assert.Equal(t, 3, inserter.insertCalls[0].opts.MaxAttempts)
	assert.True(t, inserter.insertCalls[0].opts.UniqueOpts.ByArgs, "jobs should dedupe by session ID")
}

func TestEmbeddingProvider_HandleChange_updatedContentChanged_enqueues(t *testing.T) {
	inserter := &mockEmbeddingInserter{}
	p := NewEmbeddingProvider(inserter, "key-test", "embeddings", 3, nil)

	sessionID := uuid.Must(uuid.NewV7())
	before := testSession(sessionID)
	after := testSession(sessionID)
	after.SessionName = "Rapport T1 2024 (corrigé)"

	p.HandleChange(context.Background(), newEvent(SessionUpdated, before, after))

	require.Len(t, inserter.insertCalls, 1)
	assert.Equal(t, sessionID, inserter.insertCalls[0].args.SessionID)
}

func TestEmbeddingProvider_HandleChange_updatedContentUnchanged_skips(t *testing.T) {
	inserter := &mockEmbeddingInserter{}
	p := NewEmbeddingProvider(inserter, "key-test", "embeddings", 3, nil)

	sessionID := uuid.Must(uuid.NewV7())
	before := testSession(sessionID)
	// Only derived/metadata fields differ; the embeddable content is identical.
	after := testSession(sessionID)
	after.UpdatedAt = before.UpdatedAt.Add(time.Minute)
	after.AIAnalysis = ptrString("Generated summary")
	after.EmbeddingText = ptrString("cached text")

	p.HandleChange(context.Background(), newEvent(SessionUpdated, before, after))

	assert.Empty(t, inserter.insertCalls, "unchanged content must not re-enqueue")
}

func TestEmbeddingProvider_HandleChange_deleted_skips(t *testing.T) {
	inserter := &mockEmbeddingInserter{}
	p := NewEmbeddingProvider(inserter, "key-test", "embeddings", 3, nil)

	p.HandleChange(context.Background(), newEvent(SessionDeleted, testSession(uuid.Must(uuid.NewV7())), nil))

	assert.Empty(t, inserter.insertCalls)
}

func TestEmbeddingProvider_HandleChange_noAPIKey_skips(t *testing.T) {
	inserter := &mockEmbeddingInserter{}
	p := NewEmbeddingProvider(inserter, "", "embeddings", 3, nil)

	p.HandleChange(context.Background(), newEvent(SessionCreated, nil, testSession(uuid.Must(uuid.NewV7()))))

	assert.Empty(t, inserter.insertCalls)
}

func TestEmbeddingProvider_HandleChange_insertError_doesNotPanic(t *testing.T) {
	inserter := &mockEmbeddingInserter{insertErr: errors.New("queue down")}
	p := NewEmbeddingProvider(inserter, "key-test", "embeddings", 3, nil)

	p.HandleChange(context.Background(), newEvent(SessionCreated, nil, testSession(uuid.Must(uuid.NewV7()))))

	require.Len(t, inserter.insertCalls, 1)
}
