package service

import (
	"context"

	"github.com/Rishi-Sarmah/hrms-protocole/internal/googleai"
)

// GenerationClient runs one text generation call over an ordered conversation.
// Implemented by the Gemini client; mocked in tests.
type GenerationClient interface {
	Generate(ctx context.Context, turns []googleai.Turn, jsonOutput bool) (string, error)
}
