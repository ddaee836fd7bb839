package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Rishi-Sarmah/hrms-protocole/internal/models"
)

// SessionsRepository defines the interface for session data access.
type SessionsRepository interface {
	Create(ctx context.Context, userID string, req *models.CreateSessionRequest) (*models.Session, error)
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.Session, error)
	List(ctx context.Context, userID string) ([]models.SessionListItem, error)
	Update(ctx context.Context, userID string, id uuid.UUID, req *models.UpdateSessionRequest) (*models.Session, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
	SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32, text string) error
}

// SessionsService handles business logic for report sessions. Every write
// publishes a change event carrying before/after snapshots so the embedding
// pipeline can decide whether derived state needs recomputing.
type SessionsService struct {
	repo      SessionsRepository
	publisher ChangePublisher
}

// NewSessionsService creates a new sessions service. publisher may be nil (no events).
func NewSessionsService(repo SessionsRepository, publisher ChangePublisher) *SessionsService {
	return &SessionsService{repo: repo, publisher: publisher}
}

// CreateSession creates a new session owned by userID.
func (s *SessionsService) CreateSession(
	ctx context.Context, userID string, req *models.CreateSessionRequest,
) (*models.Session, error) {
	session, err := s.repo.Create(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		s.publisher.PublishChange(ctx, SessionCreated, nil, session)
	}

	return session, nil
}

// GetSession retrieves a single session by ID, scoped to userID.
func (s *SessionsService) GetSession(ctx context.Context, userID string, id uuid.UUID) (*models.Session, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// ListSessions retrieves the session list for userID, newest first.
func (s *SessionsService) ListSessions(ctx context.Context, userID string) ([]models.SessionListItem, error) {
	return s.repo.List(ctx, userID)
}

// UpdateSession updates an existing session. The pre-update snapshot is read
// first so the change event can carry both sides of the write.
func (s *SessionsService) UpdateSession(
	ctx context.Context, userID string, id uuid.UUID, req *models.UpdateSessionRequest,
) (*models.Session, error) {
	before, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	after, err := s.repo.Update(ctx, userID, id, req)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		s.publisher.PublishChange(ctx, SessionUpdated, before, after)
	}

	return after, nil
}

// DeleteSession deletes a session by ID, scoped to userID.
func (s *SessionsService) DeleteSession(ctx context.Context, userID string, id uuid.UUID) error {
	before, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}

	if s.publisher != nil {
		s.publisher.PublishChange(ctx, SessionDeleted, before, nil)
	}

	return nil
}

// GetSessionForEmbedding reads a session without owner scoping. Only the
// embedding worker and backfill sweep use it.
func (s *SessionsService) GetSessionForEmbedding(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	return s.repo.GetByID(ctx, "", id)
}

// SetSessionEmbedding stores the embedding vector and the text it was computed from.
func (s *SessionsService) SetSessionEmbedding(ctx context.Context, id uuid.UUID, embedding []float32, text string) error {
	return s.repo.SetEmbedding(ctx, id, embedding, text)
}
