package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quickchat/internal/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// SystemPrompt steers every text completion.
const SystemPrompt = "You are QuickGPT, a helpful assistant. Answer clearly and concisely. " +
	"Use markdown for code and lists."

// historyWindow is how many earlier messages are sent as context.
const historyWindow = 10

// ErrEmptyCompletion is returned when the provider answers with no text.
var ErrEmptyCompletion = errors.New("empty completion")

// OpenAICompleter talks to any OpenAI-compatible chat completion API.
type OpenAICompleter struct {
	llm    llms.Model
	policy RetryPolicy
	log    *zap.Logger
}

// NewOpenAICompleter creates a completer for the given endpoint and model.
func NewOpenAICompleter(baseURL, token, model string, log *zap.Logger) (*OpenAICompleter, error) {
	llm, err := openai.New(
		openai.WithToken(token),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return newOpenAICompleter(llm, DefaultRetryPolicy, log), nil
}

func newOpenAICompleter(llm llms.Model, policy RetryPolicy, log *zap.Logger) *OpenAICompleter {
	return &OpenAICompleter{llm: llm, policy: policy, log: log}
}

// Complete sends the system prompt, recent text history and the new prompt.
func (c *OpenAICompleter) Complete(ctx context.Context, history []models.Message, prompt string) (string, error) {
	messages := buildMessageContent(history, prompt)

	var reply string
	err := retry(ctx, c.policy, c.log, "openai", func() error {
		resp, err := c.llm.GenerateContent(ctx, messages)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
			return backoff.Permanent(ErrEmptyCompletion)
		}
		reply = resp.Choices[0].Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	return reply, nil
}

func buildMessageContent(history []models.Message, prompt string) []llms.MessageContent {
	recent := recentText(history)

	messages := make([]llms.MessageContent, 0, len(recent)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, SystemPrompt))
	for _, m := range recent {
		role := llms.ChatMessageTypeHuman
		if m.Role == models.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, m.Content))
	}
	return append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))
}

// recentText keeps the last historyWindow messages, dropping image replies
// and the prompts that produced them since their content is a URL.
func recentText(history []models.Message) []models.Message {
	text := make([]models.Message, 0, len(history))
	for i, m := range history {
		if m.IsImage {
			continue
		}
		if m.Role == models.RoleUser && i+1 < len(history) && history[i+1].IsImage {
			continue
		}
		text = append(text, m)
	}
	if len(text) > historyWindow {
		text = text[len(text)-historyWindow:]
	}
	return text
}
