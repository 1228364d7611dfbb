// Package fixtures provides test data builders for unit and integration tests.
package fixtures

import (
	"fmt"
	"time"

	"quickchat/internal/models"
	"quickchat/pkg/auth"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultPassword is the plain-text password of every built user unless
// WithPassword says otherwise.
const DefaultPassword = "password123"

func mustHash(password string) string {
	hash, err := auth.HashPassword(password)
	if err != nil {
		panic(fmt.Sprintf("fixtures: hash password: %v", err))
	}
	return hash
}

// ===== User Fixtures =====

// UserBuilder provides fluent API for building test users.
type UserBuilder struct {
	user models.User
}

// NewUser creates a new UserBuilder with sensible defaults.
func NewUser() *UserBuilder {
	return &UserBuilder{
		user: models.User{
			ID:        primitive.NewObjectID(),
			Name:      "Test User",
			Email:     fmt.Sprintf("test-%s@example.com", primitive.NewObjectID().Hex()[16:]),
			Password:  mustHash(DefaultPassword),
			Credits:   20,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
	}
}

func (b *UserBuilder) WithID(id primitive.ObjectID) *UserBuilder {
	b.user.ID = id
	return b
}

func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.user.Name = name
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.user.Email = email
	return b
}

// WithPassword stores the bcrypt hash of password.
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.user.Password = mustHash(password)
	return b
}

func (b *UserBuilder) WithCredits(credits int) *UserBuilder {
	b.user.Credits = credits
	return b
}

func (b *UserBuilder) Build() models.User {
	return b.user
}

func (b *UserBuilder) BuildPtr() *models.User {
	u := b.user
	return &u
}

// ===== Chat Fixtures =====

// ChatBuilder provides fluent API for building test chats.
type ChatBuilder struct {
	chat models.Chat
}

// NewChat creates a new empty ChatBuilder.
func NewChat() *ChatBuilder {
	now := time.Now()
	return &ChatBuilder{
		chat: models.Chat{
			ID:        primitive.NewObjectID(),
			UserID:    primitive.NewObjectID(),
			UserName:  "Test User",
			Name:      models.DefaultChatName,
			Messages:  []models.Message{},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// ForUser sets the owner and the denormalised owner name.
func (b *ChatBuilder) ForUser(user *models.User) *ChatBuilder {
	b.chat.UserID = user.ID
	b.chat.UserName = user.Name
	return b
}

func (b *ChatBuilder) WithName(name string) *ChatBuilder {
	b.chat.Name = name
	return b
}

// WithExchange appends a user prompt followed by an assistant reply.
func (b *ChatBuilder) WithExchange(prompt, reply string) *ChatBuilder {
	ts := time.Now().UnixMilli()
	b.chat.Messages = append(b.chat.Messages,
		models.Message{Role: models.RoleUser, Content: prompt, Timestamp: ts},
		models.Message{Role: models.RoleAssistant, Content: reply, Timestamp: ts},
	)
	return b
}

// WithPublishedImage appends an image exchange visible in the community feed.
func (b *ChatBuilder) WithPublishedImage(prompt, imageURL string) *ChatBuilder {
	ts := time.Now().UnixMilli()
	b.chat.Messages = append(b.chat.Messages,
		models.Message{Role: models.RoleUser, Content: prompt, Timestamp: ts, IsPublished: true},
		models.Message{Role: models.RoleAssistant, Content: imageURL, Timestamp: ts, IsImage: true, IsPublished: true},
	)
	return b
}

func (b *ChatBuilder) Build() models.Chat {
	return b.chat
}

func (b *ChatBuilder) BuildPtr() *models.Chat {
	c := b.chat
	c.Messages = append([]models.Message{}, b.chat.Messages...)
	return &c
}

// ===== Transaction Fixtures =====

// TransactionBuilder provides fluent API for building test transactions.
type TransactionBuilder struct {
	txn models.Transaction
}

// NewTransaction creates an unpaid TransactionBuilder for the basic plan.
func NewTransaction() *TransactionBuilder {
	now := time.Now()
	b := &TransactionBuilder{
		txn: models.Transaction{
			ID:        primitive.NewObjectID(),
			UserID:    primitive.NewObjectID(),
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	plan, _ := models.FindPlan("basic")
	return b.ForPlan(plan)
}

func (b *TransactionBuilder) WithID(id primitive.ObjectID) *TransactionBuilder {
	b.txn.ID = id
	return b
}

func (b *TransactionBuilder) WithUserID(userID primitive.ObjectID) *TransactionBuilder {
	b.txn.UserID = userID
	return b
}

// ForPlan copies the plan's price and credits.
func (b *TransactionBuilder) ForPlan(plan models.Plan) *TransactionBuilder {
	b.txn.PlanID = plan.ID
	b.txn.Amount = plan.Price
	b.txn.Credits = plan.Credits
	return b
}

func (b *TransactionBuilder) WithSessionID(sessionID string) *TransactionBuilder {
	b.txn.StripeSessionID = sessionID
	return b
}

func (b *TransactionBuilder) Paid() *TransactionBuilder {
	now := time.Now()
	b.txn.IsPaid = true
	b.txn.PaidAt = &now
	return b
}

func (b *TransactionBuilder) Build() models.Transaction {
	return b.txn
}

func (b *TransactionBuilder) BuildPtr() *models.Transaction {
	t := b.txn
	return &t
}
