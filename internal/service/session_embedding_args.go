package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

const (
	sessionEmbeddingKind = "session_embedding"
	// EmbeddingsQueueName is the River queue used for session embedding jobs.
	EmbeddingsQueueName = "embeddings"
)

// SessionEmbeddingInserter inserts embedding jobs (e.g. River client). Used by the
// embedding subscriber and the backfill sweep.
type SessionEmbeddingInserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// SessionEmbeddingArgs is the job payload for serializing one session and storing its embedding.
// Uniqueness is by SessionID so duplicate events for the same session collapse into one job;
// the worker re-reads current state, so the collapsed job still embeds the latest content.
type SessionEmbeddingArgs struct {
	SessionID uuid.UUID `json:"session_id" river:"unique"`
}

// Kind returns the River job kind.
func (SessionEmbeddingArgs) Kind() string { return sessionEmbeddingKind }

var _ river.JobArgs = SessionEmbeddingArgs{}
