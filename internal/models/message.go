package models

// Credit cost of each kind of reply.
const (
	TextMessageCost  = 1
	ImageMessageCost = 2
)

// TextMessageRequest asks for a text reply in a chat.
type TextMessageRequest struct {
	ChatID string `json:"chatId" binding:"required,objectid" example:"507f1f77bcf86cd799439012"`
	Prompt string `json:"prompt" binding:"required,notblank,max=8000" example:"Explain goroutines in one paragraph"`
}

// ImageMessageRequest asks for a generated image in a chat.
type ImageMessageRequest struct {
	ChatID      string `json:"chatId" binding:"required,objectid" example:"507f1f77bcf86cd799439012"`
	Prompt      string `json:"prompt" binding:"required,notblank,max=1000" example:"A lighthouse at dusk, watercolor"`
	IsPublished bool   `json:"isPublished" example:"false"`
}

// SendMessageResponse is returned after a successful send.
// Replayed is set when the response comes from an idempotency record.
type SendMessageResponse struct {
	Reply    Message `json:"reply"`
	Credits  int     `json:"credits" example:"19"`
	Replayed bool    `json:"replayed,omitempty"`
}
