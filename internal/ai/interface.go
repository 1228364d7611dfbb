// Package ai wraps the external text completion and image generation
// providers behind small interfaces.
package ai

import (
	"context"

	"quickchat/internal/models"
)

//go:generate mockgen -destination=mocks/mock_ai.go -package=mocks quickchat/internal/ai Completer,ImageGenerator

// Completer produces an assistant reply for a prompt given earlier chat history.
type Completer interface {
	Complete(ctx context.Context, history []models.Message, prompt string) (string, error)
}

// ImageGenerator renders a prompt into PNG bytes.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Ensure providers implement the interfaces
var (
	_ Completer      = (*OpenAICompleter)(nil)
	_ Completer      = (*GeminiCompleter)(nil)
	_ ImageGenerator = (*ImageKitGenerator)(nil)
)
