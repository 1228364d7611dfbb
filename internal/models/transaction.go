package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transaction records a credit purchase. It starts unpaid and is marked paid
// once the payment provider confirms the checkout.
type Transaction struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty" example:"507f1f77bcf86cd799439013"`
	UserID          primitive.ObjectID `json:"userId" bson:"userId" example:"507f1f77bcf86cd799439011"`
	PlanID          string             `json:"planId" bson:"planId" example:"pro"`
	Amount          float64            `json:"amount" bson:"amount" example:"20"`
	Credits         int                `json:"credits" bson:"credits" example:"500"`
	IsPaid          bool               `json:"isPaid" bson:"isPaid" example:"false"`
	StripeSessionID string             `json:"-" bson:"stripeSessionId,omitempty"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt" example:"2024-01-15T09:30:00Z"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt" example:"2024-01-15T09:30:00Z"`
	PaidAt          *time.Time         `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
}

// PurchaseRequest is the payload for buying a plan.
type PurchaseRequest struct {
	PlanID string `json:"planId" binding:"required" example:"pro"`
}

// PurchaseResponse carries the hosted checkout URL.
type PurchaseResponse struct {
	URL           string `json:"url" example:"https://checkout.stripe.com/c/pay/cs_test_a1b2"`
	TransactionID string `json:"transactionId" example:"507f1f77bcf86cd799439013"`
}
