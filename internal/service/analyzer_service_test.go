package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Rishi-Sarmah/hrms-protocole/internal/errors"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/googleai"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/models"
)

type mockAnalysisStore struct {
	gotUserID   string
	gotID       uuid.UUID
	gotAnalysis string
	gotLang     string
	calls       int
	err         error
}

func (m *mockAnalysisStore) SetAnalysis(_ context.Context, userID string, id uuid.UUID, analysis, lang string) error {
	m.calls++
	m.gotUserID = userID
	m.gotID = id
	m.gotAnalysis = analysis
	m.gotLang = lang

	return m.err
}

func TestAnalyzerService_Analyze_emptyUserID_unauthenticated(t *testing.T) {
	s := NewAnalyzerService(&mockGenerationClient{}, nil, nil, nil)

	_, err := s.Analyze(context.Background(), "", &models.AnalyzeRequest{Data: map[string]any{"x": 1}})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestAnalyzerService_Analyze_nilData_invalidArgument(t *testing.T) {
	s := NewAnalyzerService(&mockGenerationClient{}, nil, nil, nil)

	_, err := s.Analyze(context.Background(), "user-1", &models.AnalyzeRequest{})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestAnalyzerService_Analyze_promptShape(t *testing.T) {
	gen := &mockGenerationClient{response: "Executive summary."}
	s := NewAnalyzerService(gen, nil, nil, nil)

	data := map[string]any{"staff": []any{map[string]any{"category": "Cadres", "male": 10, "female": 4}}}

	resp, err := s.Analyze(context.Background(), "user-1", &models.AnalyzeRequest{Data: data, Language: "fr"})

	require.NoError(t, err)
	assert.Equal(t, "Executive summary.", resp.Text)
	assert.False(t, gen.gotJSONOut, "analysis output is prose, not JSON")

	require.Len(t, gen.gotTurns, 1)
	prompt := gen.gotTurns[0].Text
	assert.Contains(t, prompt, "The user's preferred language is: French.")
	assert.Contains(t, prompt, "exactly 2 concise Mermaid diagrams")
	assert.Equal(t, 2, strings.Count(prompt, "```mermaid"), "both diagram examples must survive in the prompt")
	assert.Contains(t, prompt, "xychart-beta")
	assert.Contains(t, prompt, `"category": "Cadres"`, "report data must be inlined as indented JSON")
}

func TestAnalyzerService_Analyze_defaultLanguageEnglish(t *testing.T) {
	gen := &mockGenerationClient{response: "Summary."}
	s := NewAnalyzerService(gen, nil, nil, nil)

	_, err := s.Analyze(context.Background(), "user-1", &models.AnalyzeRequest{Data: map[string]any{"x": 1}})

	require.NoError(t, err)
	assert.Contains(t, gen.gotTurns[0].Text, "The user's preferred language is: English.")
}

func TestAnalyzerService_Analyze_emptyGeneration_cannedText(t *testing.T) {
	gen := &mockGenerationClient{err: googleai.ErrEmptyGeneration}
	s := NewAnalyzerService(gen, nil, nil, nil)

	resp, err := s.Analyze(context.Background(), "user-1", &models.AnalyzeRequest{Data: map[string]any{"x": 1}})

	require.NoError(t, err)
	assert.Equal(t, analyzerNoOutputText, resp.Text)
}

func TestAnalyzerService_Analyze_providerError_analysisFailed(t *testing.T) {
	gen := &mockGenerationClient{err: errors.New("quota exceeded")}
	s := NewAnalyzerService(gen, nil, nil, nil)

	_, err := s.Analyze(context.Background(), "user-1", &models.AnalyzeRequest{Data: map[string]any{"x": 1}})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAnalysisFailed)
}

func TestAnalyzerService_Analyze_persistsWhenSessionIDSet(t *testing.T) {
	gen := &mockGenerationClient{response: "Summary."}
	store := &mockAnalysisStore{}
	s := NewAnalyzerService(gen, store, nil, nil)

	sessionID := uuid.Must(uuid.NewV7())

	_, err := s.Analyze(context.Background(), "user-1", &models.AnalyzeRequest{
		SessionID: &sessionID,
		Data:      map[string]any{"x": 1},
		Language:  "fr",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, "user-1", store.gotUserID)
	assert.Equal(t, sessionID, store.gotID)
	assert.Equal(t, "Summary.", store.gotAnalysis)
	assert.Equal(t, "fr", store.gotLang)
}

func TestAnalyzerService_Analyze_persistFailure_doesNotFailCall(t *testing.T) {
	gen := &mockGenerationClient{response: "Summary."}
	store := &mockAnalysisStore{err: errors.New("db down")}
	s := NewAnalyzerService(gen, store, nil, nil)

	sessionID := uuid.Must(uuid.NewV7())

	resp, err := s.Analyze(context.Background(), "user-1", &models.AnalyzeRequest{
		SessionID: &sessionID,
		Data:      map[string]any{"x": 1},
	})

	require.NoError(t, err)
	assert.Equal(t, "Summary.", resp.Text)
}
