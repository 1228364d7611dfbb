// Package errors provides custom error types for the application.
package errors

import "errors"

// User errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Auth errors
var (
	ErrUnauthorized = errors.New("not authorized")
	ErrInvalidToken = errors.New("not authorized, token failed")
)

// Chat errors
var (
	ErrChatNotFound  = errors.New("chat not found")
	ErrInvalidChatID = errors.New("invalid chat id")
)

// Message errors
var (
	ErrInsufficientCredits = errors.New("you don't have enough credits to use this feature")
	ErrUpstreamFailure     = errors.New("the AI provider failed to respond, your credits were not charged")
	ErrRequestInProgress   = errors.New("a request with this idempotency key is already in progress")
)

// Credit and payment errors
var (
	ErrInvalidPlan             = errors.New("invalid plan")
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrTransactionAlreadyPaid  = errors.New("transaction already paid")
	ErrInvalidWebhookSignature = errors.New("invalid webhook signature")
	ErrFulfillmentUnavailable  = errors.New("payment processing is busy, please retry")
	ErrPurchaseAlreadyGranted  = errors.New("purchase credits already granted")
	ErrPaymentProviderFailure  = errors.New("payment provider failed to create a checkout session")
)
