package ai

import (
	"context"
	"fmt"
	"strings"

	"quickchat/internal/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiCompleter uses the native Gemini SDK.
type GeminiCompleter struct {
	client *genai.Client
	model  string
	policy RetryPolicy
	log    *zap.Logger
}

// NewGeminiCompleter creates a Gemini client for model.
func NewGeminiCompleter(ctx context.Context, apiKey, model string, log *zap.Logger) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiCompleter{client: client, model: model, policy: DefaultRetryPolicy, log: log}, nil
}

// Close releases the underlying client.
func (c *GeminiCompleter) Close() {
	if err := c.client.Close(); err != nil {
		c.log.Warn("error closing gemini client", zap.Error(err))
	}
}

// Complete starts a chat session seeded with recent history and sends prompt.
func (c *GeminiCompleter) Complete(ctx context.Context, history []models.Message, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SystemPrompt)},
	}

	var reply string
	err := retry(ctx, c.policy, c.log, "gemini", func() error {
		session := model.StartChat()
		session.History = geminiHistory(history)

		resp, err := session.SendMessage(ctx, genai.Text(prompt))
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}

		text := responseText(resp)
		if strings.TrimSpace(text) == "" {
			return backoff.Permanent(ErrEmptyCompletion)
		}
		reply = text
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}
	return reply, nil
}

// geminiHistory converts chat history to Gemini content. Gemini names the
// assistant role "model".
func geminiHistory(history []models.Message) []*genai.Content {
	recent := recentText(history)

	contents := make([]*genai.Content, 0, len(recent))
	for _, m := range recent {
		role := "user"
		if m.Role == models.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}
	return contents
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}
