package storage

import (
	"context"
	"fmt"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader stores match evidence screenshots. The returned location
// is what gets recorded as the match evidence reference.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// EvidenceKey builds the object key for a match evidence upload.
func EvidenceKey(matchID, filename string) string {
	return fmt.Sprintf("evidence/%s/%s", matchID, filename)
}
