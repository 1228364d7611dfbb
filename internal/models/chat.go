package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultChatName is the name given to every new chat.
const DefaultChatName = "New Chat"

// Message is one entry of a chat. Timestamp is unix milliseconds.
type Message struct {
	Role        string `json:"role" bson:"role" example:"assistant"`
	Content     string `json:"content" bson:"content" example:"Hello! How can I help?"`
	Timestamp   int64  `json:"timestamp" bson:"timestamp" example:"1705311000000"`
	IsImage     bool   `json:"isImage" bson:"isImage" example:"false"`
	IsPublished bool   `json:"isPublished" bson:"isPublished" example:"false"`
}

// Chat is an ordered conversation owned by one user.
type Chat struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty" example:"507f1f77bcf86cd799439012"`
	UserID    primitive.ObjectID `json:"userId" bson:"userId" example:"507f1f77bcf86cd799439011"`
	UserName  string             `json:"userName" bson:"userName" example:"John Doe"`
	Name      string             `json:"name" bson:"name" example:"New Chat"`
	Messages  []Message          `json:"messages" bson:"messages"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt" example:"2024-01-15T09:30:00Z"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt" example:"2024-01-15T09:35:00Z"`
}

// DeleteChatRequest is the payload for deleting a chat.
type DeleteChatRequest struct {
	ChatID string `json:"chatId" binding:"required,objectid" example:"507f1f77bcf86cd799439012"`
}

// PublishedImage is one entry of the community image feed.
type PublishedImage struct {
	ImageURL string `json:"imageUrl" bson:"imageUrl" example:"https://cdn.example.com/generated/abc.png"`
	UserName string `json:"userName" bson:"userName" example:"John Doe"`
}
