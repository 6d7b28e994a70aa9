package journal

import (
	"context"
	"time"
)

// Fetcher retrieves a page and returns the body plus metadata. Implementations
// decide how the request reaches the target (proxy service, headless browser).
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Store persists records, enforcing at-most-one row per journal title.
type Store interface {
	// Init creates the schema if it does not exist. Idempotent.
	Init(ctx context.Context) error
	// UpsertIfAbsent looks up the record by title and returns the existing id
	// when found, discarding the incoming record. Otherwise it inserts the
	// record and returns the generated id. The boolean reports whether a new
	// row was created.
	UpsertIfAbsent(ctx context.Context, record Record) (int64, bool, error)
	Close() error
}

// BlobStore archives raw page bodies and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes record-inserted events downstream.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run and event IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}

// Hasher computes digests used for content-addressed archive paths.
type Hasher interface {
	Hash(data []byte) (string, error)
}
