package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/clipvault-io/clipvault/internal/infra/blob"
)

// BlobStore is the slice of the object store the services need.
type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Usage(ctx context.Context) (blob.Usage, error)
	PresignGet(ctx context.Context, key string, expire time.Duration) (string, error)
}

// EventPublisher emits domain events to the message broker. A nil publisher
// is allowed and turns emission into a no-op.
type EventPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, body any) error
}

// HumanClassifier answers whether a frame contains a person.
type HumanClassifier interface {
	HasHuman(ctx context.Context, image []byte) bool
}

func blobKey(id uuid.UUID) string {
	return "videos/" + id.String()
}
