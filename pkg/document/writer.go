package document

import (
	"context"

	"podcast-kb/pkg/alert"
	"podcast-kb/pkg/retry"
)

// ContentType is set on every written document.
const ContentType = "text/plain; charset=utf-8"

// ObjectPutter writes an object. Implemented by storage.Bucket.
type ObjectPutter interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// Writer persists formatted documents. Writing the same episode twice
// overwrites the prior document at the same key.
type Writer struct {
	store  ObjectPutter
	policy retry.Policy
}

// NewWriter builds a writer over the given store.
func NewWriter(store ObjectPutter) *Writer {
	return &Writer{store: store, policy: retry.Default}
}

// NewWriterWithPolicy builds a writer with a custom retry schedule.
func NewWriterWithPolicy(store ObjectPutter, policy retry.Policy) *Writer {
	return &Writer{store: store, policy: policy}
}

// Write stores the document under the episode's key and returns that key.
// Failures are retried; exhaustion yields a write error carrying the last
// underlying failure.
func (w *Writer) Write(ctx context.Context, episode int, doc string) (string, error) {
	key := Key(episode)
	err := w.policy.Do(ctx, "document write", func(ctx context.Context) error {
		return w.store.Put(ctx, key, []byte(doc), ContentType)
	})
	if err != nil {
		return "", alert.NewError(alert.KindS3Write, err).
			With("episode", episode).
			With("key", key)
	}
	return key, nil
}
