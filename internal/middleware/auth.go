// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"quickchat/pkg/auth"
	"quickchat/pkg/response"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Context keys for storing user data
const (
	UserIDKey = "userID"
)

// Auth returns a middleware that validates JWT tokens. The Authorization
// header may carry "Bearer <token>" or the bare token.
func Auth(tokens auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractToken(c.GetHeader("Authorization"))
		if err != nil {
			response.Unauthorized(c, "not authorized, no token")
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(token)
		if err != nil {
			response.Unauthorized(c, "not authorized, token failed")
			c.Abort()
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			response.Unauthorized(c, "not authorized, token failed")
			c.Abort()
			return
		}

		// Store user ID in context for handlers to use
		c.Set(UserIDKey, userID)

		c.Next()
	}
}

// GetUserID retrieves the user ID from the context.
// Returns primitive.NilObjectID if not found.
func GetUserID(c *gin.Context) primitive.ObjectID {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return primitive.NilObjectID
	}
	id, _ := userID.(primitive.ObjectID)
	return id
}
