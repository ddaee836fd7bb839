// Package repository provides data access for report sessions.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	apperrors "github.com/Rishi-Sarmah/hrms-protocole/internal/errors"
	"github.com/Rishi-Sarmah/hrms-protocole/internal/models"
)

// errEmbeddingScanInvalidType is returned when Scan receives a type other than []byte.
var errEmbeddingScanInvalidType = errors.New("embedding: expected []byte")

// nullableEmbedding scans a vector column that may be NULL without panicking (pgvector.Vector.Scan panics on empty/NULL).
type nullableEmbedding []float32

func (n *nullableEmbedding) Scan(src any) error {
	if src == nil {
		*n = nil

		return nil
	}

	buf, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("%w: got %T", errEmbeddingScanInvalidType, src)
	}

	if len(buf) == 0 {
		*n = nil

		return nil
	}

	var vec pgvector.Vector

	if err := vec.DecodeBinary(buf); err != nil {
		return fmt.Errorf("embedding decode: %w", err)
	}

	*n = vec.Slice()

	return nil
}

const sessionColumns = `id, user_id, session_name, description, start_date, end_date,
		created_at, updated_at, data, embedding, embedding_text, ai_analysis, ai_analysis_lang`

// SessionsRepository handles data access for report sessions.
type SessionsRepository struct {
	db *pgxpool.Pool
}

// NewSessionsRepository creates a new sessions repository.
func NewSessionsRepository(db *pgxpool.Pool) *SessionsRepository {
	return &SessionsRepository{db: db}
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var session models.Session

	var emb nullableEmbedding

	err := row.Scan(
		&session.ID, &session.UserID, &session.SessionName,
		&session.Description, &session.StartDate, &session.EndDate,
		&session.CreatedAt, &session.UpdatedAt, &session.Data,
		&emb, &session.EmbeddingText, &session.AIAnalysis, &session.AIAnalysisLang,
	)
	if err != nil {
		return nil, err
	}

	session.Embedding = emb

	return &session, nil
}

// Create inserts a new session owned by userID. The embedding columns start
// NULL; the embedding pipeline fills them asynchronously.
func (r *SessionsRepository) Create(
	ctx context.Context, userID string, req *models.CreateSessionRequest,
) (*models.Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	now := time.Now()

	query := `
		INSERT INTO sessions (id, user_id, session_name, description, start_date, end_date, created_at, updated_at, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $8)
		RETURNING ` + sessionColumns

	session, err := scanSession(r.db.QueryRow(ctx, query,
		id, userID, req.SessionName, req.Description, req.StartDate, req.EndDate, now, req.Data,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// GetByID retrieves a single session by ID. When userID is non-empty the
// lookup is scoped to that owner; internal callers (embedding worker,
// backfill) pass an empty userID to read any session.
func (r *SessionsRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	args := []any{id}

	if userID != "" {
		query += ` AND user_id = $2`

		args = append(args, userID)
	}

	session, err := scanSession(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("session", "session not found")
		}

		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// List retrieves the list-view projection of all sessions owned by userID,
// newest first.
func (r *SessionsRepository) List(ctx context.Context, userID string) ([]models.SessionListItem, error) {
	query := `
		SELECT id, session_name, description, start_date, end_date, created_at, updated_at
		FROM sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	items := []models.SessionListItem{} // Initialize as empty slice, not nil

	for rows.Next() {
		var item models.SessionListItem

		err := rows.Scan(
			&item.ID, &item.SessionName, &item.Description,
			&item.StartDate, &item.EndDate, &item.CreatedAt, &item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return items, nil
}

// buildUpdateQuery builds an UPDATE query with SET clause and arguments.
// Returns the query string, arguments, and a boolean indicating if any updates were provided.
func buildUpdateQuery(
	req *models.UpdateSessionRequest, userID string, id uuid.UUID, updatedAt time.Time,
) (query string, args []any, hasUpdates bool) {
	var updates []string

	argCount := 1

	if req.SessionName != nil {
		updates = append(updates, fmt.Sprintf("session_name = $%d", argCount))
		args = append(args, *req.SessionName)
		argCount++
	}

	if req.Description != nil {
		updates = append(updates, fmt.Sprintf("description = $%d", argCount))
		args = append(args, *req.Description)
		argCount++
	}

	if req.StartDate != nil {
		updates = append(updates, fmt.Sprintf("start_date = $%d", argCount))
		args = append(args, *req.StartDate)
		argCount++
	}

	if req.EndDate != nil {
		updates = append(updates, fmt.Sprintf("end_date = $%d", argCount))
		args = append(args, *req.EndDate)
		argCount++
	}

	if req.Data != nil {
		updates = append(updates, fmt.Sprintf("data = $%d", argCount))
		args = append(args, req.Data)
		argCount++
	}

	if len(updates) == 0 {
		return "", nil, false
	}

	updates = append(updates, fmt.Sprintf("updated_at = $%d", argCount))
	args = append(args, updatedAt)
	argCount++

	args = append(args, id, userID)

	query = fmt.Sprintf(`
		UPDATE sessions
		SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING `+sessionColumns,
		strings.Join(updates, ", "), argCount, argCount+1)

	return query, args, true
}

// Update updates an existing session owned by userID. Nil request fields are
// left untouched. The derived embedding columns cannot be written here.
func (r *SessionsRepository) Update(
	ctx context.Context, userID string, id uuid.UUID, req *models.UpdateSessionRequest,
) (*models.Session, error) {
	query, args, hasUpdates := buildUpdateQuery(req, userID, id, time.Now())
	if !hasUpdates {
		return r.GetByID(ctx, userID, id)
	}

	session, err := scanSession(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("session", "session not found")
		}

		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	return session, nil
}

// Delete removes a session owned by userID.
func (r *SessionsRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	query := `DELETE FROM sessions WHERE id = $1 AND user_id = $2`

	result, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("session", "session not found")
	}

	return nil
}

// SetEmbedding stores the embedding vector and the exact text it was computed
// from in a single statement, so the pair can never be observed out of sync.
func (r *SessionsRepository) SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32, text string) error {
	vec := pgvector.NewVector(embedding)

	result, err := r.db.Exec(ctx,
		`UPDATE sessions SET embedding = $1, embedding_text = $2 WHERE id = $3`,
		vec, text, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set session embedding: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("session", "session not found")
	}

	return nil
}

// SetAnalysis stores the generated report analysis and its language.
func (r *SessionsRepository) SetAnalysis(ctx context.Context, userID string, id uuid.UUID, analysis, lang string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE sessions SET ai_analysis = $1, ai_analysis_lang = $2, updated_at = $3 WHERE id = $4 AND user_id = $5`,
		analysis, lang, time.Now(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to set session analysis: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("session", "session not found")
	}

	return nil
}

// NearestByEmbedding returns up to limit sessions owned by userID ordered by
// cosine distance to queryEmbedding. Sessions without an embedding never
// appear. Score = 1 - distance, in [0, 1] for normalized vectors.
func (r *SessionsRepository) NearestByEmbedding(
	ctx context.Context, userID string, queryEmbedding []float32, limit int,
) ([]models.SessionMatch, error) {
	queryVec := pgvector.NewVector(queryEmbedding)

	rows, err := r.db.Query(ctx, `
		SELECT id, session_name, COALESCE(embedding_text, ''), (1 - (embedding <=> $1)) AS score
		FROM sessions
		WHERE user_id = $2 AND embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $3`, queryVec, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("nearest sessions: %w", err)
	}

	defer rows.Close()

	var results []models.SessionMatch

	for rows.Next() {
		var match models.SessionMatch

		if err := rows.Scan(&match.SessionID, &match.SessionName, &match.EmbeddingText, &match.Score); err != nil {
			return nil, fmt.Errorf("scan session match: %w", err)
		}

		results = append(results, match)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nearest: %w", err)
	}

	return results, nil
}

// BackfillCandidate pairs a session with whether it already carries a complete
// embedding (vector plus cached text).
type BackfillCandidate struct {
	Session      models.Session
	HasEmbedding bool
}

// ListForBackfill returns every session with a flag telling whether both
// derived embedding columns are populated. The sweep decides per row whether
// to embed, skip, or count an error.
func (r *SessionsRepository) ListForBackfill(ctx context.Context) ([]BackfillCandidate, error) {
	query := `
		SELECT ` + sessionColumns + `,
			(embedding IS NOT NULL AND embedding_text IS NOT NULL) AS has_embedding
		FROM sessions
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions for backfill: %w", err)
	}
	defer rows.Close()

	var candidates []BackfillCandidate

	for rows.Next() {
		var candidate BackfillCandidate

		var emb nullableEmbedding

		err := rows.Scan(
			&candidate.Session.ID, &candidate.Session.UserID, &candidate.Session.SessionName,
			&candidate.Session.Description, &candidate.Session.StartDate, &candidate.Session.EndDate,
			&candidate.Session.CreatedAt, &candidate.Session.UpdatedAt, &candidate.Session.Data,
			&emb, &candidate.Session.EmbeddingText, &candidate.Session.AIAnalysis, &candidate.Session.AIAnalysisLang,
			&candidate.HasEmbedding,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan backfill candidate: %w", err)
		}

		candidate.Session.Embedding = emb

		candidates = append(candidates, candidate)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating backfill candidates: %w", err)
	}

	return candidates, nil
}
