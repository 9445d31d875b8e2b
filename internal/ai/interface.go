package ai

import (
	"context"
)

// LLMProvider defines the contract for interacting with AI models.
// This interface allows for swapping different AI providers (Gemini, OpenAI, etc.)
// without touching the agent.
type LLMProvider interface {
	// CompleteJSON runs a low-temperature completion configured for strict
	// JSON output and returns the raw response text. Callers own parsing and
	// schema validation.
	CompleteJSON(ctx context.Context, prompt string) (string, error)

	// Complete runs a plain text completion (response synthesis).
	Complete(ctx context.Context, prompt string) (string, error)

	// Embed returns the embedding vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases client resources.
	Close() error
}
