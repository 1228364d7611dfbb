package auth

//go:generate mockgen -destination=mocks/mock_jwt.go -package=mocks quickchat/pkg/auth TokenManager

// TokenManager issues and verifies the bearer tokens handed to clients.
type TokenManager interface {
	// GenerateToken creates a signed token for a user.
	GenerateToken(userID string) (string, error)
	// ValidateToken parses and validates a token, returning the claims if valid.
	ValidateToken(tokenString string) (*Claims, error)
}

var _ TokenManager = (*JWTManager)(nil)
