package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/Rishi-Sarmah/hrms-protocole/internal/errors"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/googleai"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/models"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/observability"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/serialize"
)

const (
	chatQueryEmbeddingCacheName = "chat_query_embedding"

	// chatRetrievalLimit is how many sessions are retrieved as context per question.
	chatRetrievalLimit = 5

	// chatHistoryWindow is how many trailing history turns are forwarded to the model.
	chatHistoryWindow = 10
)

// chatSystemPrompt instructs the model to answer strictly from the retrieved
// context and to return the closed bilingual JSON shape.
var chatSystemPrompt = `You are an AI assistant for an administrative and operational reporting system (OCC — Office Congolais de Contrôle). You help users query and understand their session data which covers:
- Personnel/HR (staff counts by category/grade/gender, management cadre, salary mass)
- Budget (production forecast vs achievement, charges, treasury receipts/disbursements)
- Exploitation (import/export volumes and values, lab analysis compliance, metrology, technical control)

Rules:
1. Answer ONLY based on the provided session data context. Do not make up information.
2. If the context does not contain enough information to answer, say so explicitly.
3. When referencing data, cite which session it comes from by name.
4. Provide specific numbers and calculations when possible.
5. Be concise but thorough. Use bullet points for clarity when listing multiple data points.
6. If the user asks for comparisons between sessions, compare the relevant metrics side by side.
7. IMPORTANT: You must respond in JSON format with the following structure:
   {
     "answer": {
       "en": "English answer here...",
       "fr": "French answer here..."
     },
     "question": {
       "en": "The user's question translated to English...",
       "fr": "The user's question translated to French..."
     }
   }
   Do not include any markdown formatting like ` + "```json" + `. Return raw JSON only.`

// chatContextAck is the scripted model turn acknowledging the injected context.
const chatContextAck = `{"en":"I have received the context data. I'm ready to answer your questions about your sessions.","fr":"J'ai bien reçu les données de contexte. Je suis prêt à répondre à vos questions sur vos sessions."}`

// Canned answers, returned without calling the model when retrieval finds nothing.
const (
	chatNoMatchAnswerEN = "I couldn't find any sessions matching your question. Please make sure you have saved sessions with data."
	chatNoMatchAnswerFR = "Je n'ai trouvé aucune session correspondant à votre question. Veuillez vous assurer que vous avez des sessions enregistrées avec des données."
)

// Fallback answer used when the model output cannot be parsed as the expected JSON shape.
const (
	chatParseErrorAnswerEN = "Error generating response."
	chatParseErrorAnswerFR = "Erreur lors de la génération de la réponse."
)

// SessionRetriever provides the read operations the chat service needs.
type SessionRetriever interface {
	NearestByEmbedding(ctx context.Context, userID string, queryEmbedding []float32, limit int) ([]models.SessionMatch, error)
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.Session, error)
}

// ChatService answers questions about a user's sessions via retrieval-augmented
// generation: embed the question, fetch the nearest sessions scoped to the
// caller, and generate a grounded bilingual answer.
type ChatService struct {
	embeddingClient  EmbeddingClient
	generationClient GenerationClient
	retriever        SessionRetriever
	queryCache       *lru.Cache[string, []float32]
	queryLoadGroup   singleflight.Group
	cacheMetrics     observability.CacheMetrics
	chatMetrics      observability.ChatMetrics
	logger           *slog.Logger
}

// ChatServiceParams configures ChatService. QueryCache, CacheMetrics, and
// ChatMetrics may be nil (no caching / metrics disabled).
type ChatServiceParams struct {
	EmbeddingClient  EmbeddingClient
	GenerationClient GenerationClient
	Retriever        SessionRetriever
	QueryCache       *lru.Cache[string, []float32]
	CacheMetrics     observability.CacheMetrics
	ChatMetrics      observability.ChatMetrics
	Logger           *slog.Logger
}

// NewChatService creates a ChatService.
func NewChatService(p ChatServiceParams) *ChatService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ChatService{
		embeddingClient:  p.EmbeddingClient,
		generationClient: p.GenerationClient,
		retriever:        p.Retriever,
		queryCache:       p.QueryCache,
		cacheMetrics:     p.CacheMetrics,
		chatMetrics:      p.ChatMetrics,
		logger:           logger,
	}
}

// Chat answers one question for userID, grounded in that user's sessions only.
func (s *ChatService) Chat(ctx context.Context, userID string, req *models.ChatRequest) (*models.ChatResponse, error) {
	start := time.Now()

	resp, status, err := s.chat(ctx, userID, req)

	if s.chatMetrics != nil {
		s.chatMetrics.RecordChatRequest(ctx, status)
		s.chatMetrics.RecordChatDuration(ctx, time.Since(start), status)
	}

	return resp, err
}

func (s *ChatService) chat(ctx context.Context, userID string, req *models.ChatRequest) (*models.ChatResponse, string, error) {
	if userID == "" {
		return nil, "error", apperrors.NewUnauthenticatedError("You must be signed in to use the chat.")
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, "error", apperrors.NewInvalidArgumentError("question", "A question is required.")
	}

	var (
		embedding []float32
		err       error
	)

	if s.queryCache != nil {
		embedding, err = s.getQueryEmbeddingCached(ctx, question)
	} else {
		embedding, err = s.embeddingClient.CreateEmbedding(ctx, question)
	}

	if err != nil {
		s.logger.Error("chat: create embedding failed", "error", err)

		return nil, "error", fmt.Errorf("create embedding: %w", err)
	}

	matches, err := s.retriever.NearestByEmbedding(ctx, userID, embedding, chatRetrievalLimit)
	if err != nil {
		s.logger.Error("chat: nearest failed", "error", err)

		return nil, "error", fmt.Errorf("nearest sessions: %w", err)
	}

	if s.chatMetrics != nil {
		s.chatMetrics.RecordRetrievedSessions(ctx, int64(len(matches)))
	}

	if len(matches) == 0 {
		return noMatchResponse(question), "no_match", nil
	}

	sources, contextBlock := s.buildContext(ctx, userID, matches)
	turns := buildConversation(contextBlock, req.History, question)

	raw, err := s.generationClient.Generate(ctx, turns, true)
	if err != nil {
		// A chat UI must always show something conversational, so generation
		// failures degrade to the fixed bilingual error payload.
		s.logger.Error("chat: generation failed", "error", err)

		return &models.ChatResponse{
			Answer: models.ChatPayload{
				Answer:   models.LocalizedText{EN: chatParseErrorAnswerEN, FR: chatParseErrorAnswerFR},
				Question: models.LocalizedText{EN: question, FR: question},
			},
			Sources: sources,
		}, "error", nil
	}

	payload, parsed := parseChatPayload(raw, question)

	status := "answered"
	if !parsed {
		status = "parse_fallback"

		s.logger.Warn("chat: response was not valid JSON, returning fallback answer", "raw_len", len(raw))
	}

	return &models.ChatResponse{Answer: payload, Sources: sources}, status, nil
}

func noMatchResponse(question string) *models.ChatResponse {
	return &models.ChatResponse{
		Answer: models.ChatPayload{
			Answer:   models.LocalizedText{EN: chatNoMatchAnswerEN, FR: chatNoMatchAnswerFR},
			Question: models.LocalizedText{EN: question, FR: question},
		},
		Sources: []models.ChatSource{},
	}
}

// buildContext assembles the source list and the context block from the
// retrieved matches. The cached embedding text is preferred; sessions embedded
// before the text cache existed are re-serialized on the fly.
func (s *ChatService) buildContext(
	ctx context.Context, userID string, matches []models.SessionMatch,
) ([]models.ChatSource, string) {
	sources := make([]models.ChatSource, 0, len(matches))
	contextParts := make([]string, 0, len(matches))

	for _, match := range matches {
		name := match.SessionName
		if name == "" {
			name = "Unnamed"
		}

		sources = append(sources, models.ChatSource{
			SessionID:   match.SessionID.String(),
			SessionName: name,
		})

		text := match.EmbeddingText
		if text == "" {
			if session, err := s.retriever.GetByID(ctx, userID, match.SessionID); err == nil {
				text = serialize.Session(session)
			} else {
				s.logger.Warn("chat: reload for serialization failed", "session_id", match.SessionID, "error", err)
			}
		}

		contextParts = append(contextParts, fmt.Sprintf("--- Session: %s (ID: %s) ---\n%s", name, match.SessionID, text))
	}

	return sources, strings.Join(contextParts, "\n\n")
}

// buildConversation lays out the prompt: system instructions plus context as
// the opening user turn, a scripted model acknowledgement, the trailing
// history window, then the current question.
func buildConversation(contextBlock string, history []models.ChatMessage, question string) []googleai.Turn {
	turns := make([]googleai.Turn, 0, len(history)+3)

	turns = append(turns, googleai.Turn{
		Role: "user",
		Text: chatSystemPrompt + "\n\n--- CONTEXT DATA ---\n" + contextBlock +
			"\n--- END CONTEXT ---\n\nPlease acknowledge you have the context and are ready to answer questions.",
	})
	turns = append(turns, googleai.Turn{Role: "model", Text: chatContextAck})

	if len(history) > chatHistoryWindow {
		history = history[len(history)-chatHistoryWindow:]
	}

	for _, msg := range history {
		role := "model"
		if msg.Role == "user" {
			role = "user"
		}

		turns = append(turns, googleai.Turn{Role: role, Text: msg.Content})
	}

	turns = append(turns, googleai.Turn{Role: "user", Text: question})

	return turns
}

// parseChatPayload parses the model output as the expected JSON shape. It
// retries once after stripping markdown code fences; if both attempts fail it
// returns the fixed bilingual error payload and parsed=false.
func parseChatPayload(raw, question string) (payload models.ChatPayload, parsed bool) {
	if err := json.Unmarshal([]byte(raw), &payload); err == nil {
		return payload, true
	}

	cleaned := strings.TrimSpace(
		strings.ReplaceAll(strings.ReplaceAll(raw, "```json", ""), "```", ""),
	)
	if err := json.Unmarshal([]byte(cleaned), &payload); err == nil {
		return payload, true
	}

	return models.ChatPayload{
		Answer:   models.LocalizedText{EN: chatParseErrorAnswerEN, FR: chatParseErrorAnswerFR},
		Question: models.LocalizedText{EN: question, FR: question},
	}, false
}

func (s *ChatService) getQueryEmbeddingCached(ctx context.Context, query string) ([]float32, error) {
	if vec, ok := s.queryCache.Get(query); ok {
		if s.cacheMetrics != nil {
			s.cacheMetrics.RecordHit(ctx, chatQueryEmbeddingCacheName)
		}

		return vec, nil
	}

	val, err, _ := s.queryLoadGroup.Do(query, func() (any, error) {
		vec, loadErr := s.embeddingClient.CreateEmbedding(ctx, query)
		if loadErr != nil {
			return nil, fmt.Errorf("create embedding: %w", loadErr)
		}

		s.queryCache.Add(query, vec)

		return vec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	if s.cacheMetrics != nil {
		s.cacheMetrics.RecordMiss(ctx, chatQueryEmbeddingCacheName)
	}

	return val.([]float32), nil
}
