package storage

import "context"

//go:generate mockgen -destination=mocks/mock_storage.go -package=mocks quickchat/internal/storage Storage

// Storage defines the interface for object storage operations.
type Storage interface {
	// PutObject uploads an object to storage.
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	// PublicURL returns the URL clients use to fetch an uploaded object.
	PublicURL(key string) string
}

// Ensure S3Client implements Storage interface
var _ Storage = (*S3Client)(nil)
