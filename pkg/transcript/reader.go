// Package transcript reads transcription artifacts from object storage and
// extracts the spoken-word text.
package transcript

import (
	"context"
	"encoding/json"
	"strings"

	"podcast-kb/pkg/alert"
	"podcast-kb/pkg/retry"
)

// ObjectGetter reads raw object bytes. Implemented by storage.Bucket.
type ObjectGetter interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// artifact mirrors the transcription service output shape:
// { results: { transcripts: [ { transcript: "..." } ] } }.
type artifact struct {
	Results *struct {
		Transcripts []struct {
			Transcript *string `json:"transcript"`
		} `json:"transcripts"`
	} `json:"results"`
}

// Reader loads and validates transcription artifacts.
type Reader struct {
	store  ObjectGetter
	policy retry.Policy
}

// NewReader builds a reader over the given store.
func NewReader(store ObjectGetter) *Reader {
	return &Reader{store: store, policy: retry.Default}
}

// NewReaderWithPolicy builds a reader with a custom retry schedule.
func NewReaderWithPolicy(store ObjectGetter, policy retry.Policy) *Reader {
	return &Reader{store: store, policy: policy}
}

// Read fetches the artifact at key and returns the transcript text exactly
// as stored: no trimming, no normalization. Transient read failures are
// retried; shape violations are validation errors naming the missing path.
func (r *Reader) Read(ctx context.Context, key string) (string, error) {
	var body []byte
	err := r.policy.Do(ctx, "transcript read", func(ctx context.Context) error {
		var readErr error
		body, readErr = r.store.Get(ctx, key)
		return readErr
	})
	if err != nil {
		return "", alert.NewError(alert.KindS3Read, err).With("key", key)
	}

	return Extract(body, key)
}

// Extract parses artifact bytes and returns the transcript verbatim.
func Extract(body []byte, key string) (string, error) {
	var a artifact
	if err := json.Unmarshal(body, &a); err != nil {
		return "", alert.NewError(alert.KindJSONParse, err).With("key", key)
	}

	switch {
	case a.Results == nil:
		return "", missingField(key, "results")
	case a.Results.Transcripts == nil:
		return "", missingField(key, "results.transcripts")
	case len(a.Results.Transcripts) == 0:
		return "", missingField(key, "results.transcripts[0]")
	case a.Results.Transcripts[0].Transcript == nil:
		return "", missingField(key, "results.transcripts[0].transcript")
	}

	text := *a.Results.Transcripts[0].Transcript
	if strings.TrimSpace(text) == "" {
		return "", alert.Errorf(alert.KindValidation,
			"transcript is empty at results.transcripts[0].transcript").With("key", key)
	}
	return text, nil
}

func missingField(key, path string) error {
	return alert.Errorf(alert.KindValidation, "transcription artifact is missing %s", path).With("key", key)
}
