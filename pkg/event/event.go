// Package event normalizes the payload shapes that can invoke the pipeline
// into one canonical record, and derives episode numbers from artifact keys.
package event

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"podcast-kb/pkg/alert"
)

// Artifact keys the pipeline reacts to: text/{episode}-...-transcribe.json.
const (
	KeyPrefix = "text/"
	KeySuffix = "-transcribe.json"
)

// Record is the canonical internal event: one transcription artifact in one
// bucket. Shape ambiguity at the boundary never leaks past Normalize.
type Record struct {
	Bucket string
	Key    string
}

// Normalize accepts a raw S3 event, an EventBridge-style wrapper with a
// detail block, or a bare {bucket, key} payload, and returns the canonical
// record. Unrecognized payloads are validation errors.
func Normalize(payload []byte) (Record, error) {
	// Raw S3 notification.
	var s3Event events.S3Event
	if err := json.Unmarshal(payload, &s3Event); err == nil && len(s3Event.Records) > 0 {
		entity := s3Event.Records[0].S3
		if entity.Bucket.Name != "" && entity.Object.Key != "" {
			return Record{Bucket: entity.Bucket.Name, Key: decodeKey(entity.Object.Key)}, nil
		}
	}

	// EventBridge wrapper: {"detail": {"bucket": {"name": ...}, "object": {"key": ...}}}.
	var wrapped struct {
		Detail *struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key string `json:"key"`
			} `json:"object"`
		} `json:"detail"`
	}
	if err := json.Unmarshal(payload, &wrapped); err == nil && wrapped.Detail != nil {
		if wrapped.Detail.Bucket.Name != "" && wrapped.Detail.Object.Key != "" {
			return Record{
				Bucket: wrapped.Detail.Bucket.Name,
				Key:    decodeKey(wrapped.Detail.Object.Key),
			}, nil
		}
	}

	// Bare payload, as passed between state machine steps.
	var bare struct {
		Bucket string `json:"bucket"`
		Key    string `json:"key"`
	}
	if err := json.Unmarshal(payload, &bare); err == nil && bare.Bucket != "" && bare.Key != "" {
		return Record{Bucket: bare.Bucket, Key: decodeKey(bare.Key)}, nil
	}

	return Record{}, alert.Errorf(alert.KindValidation,
		"event payload has no recognizable bucket/key shape")
}

// Matches reports whether the key names a transcription artifact this
// pipeline processes. A mismatch is a no-op skip, not an error.
func Matches(key string) bool {
	return strings.HasPrefix(key, KeyPrefix) && strings.HasSuffix(key, KeySuffix)
}

// Episode derives the episode number from the artifact key: the filename's
// first dash-separated segment.
func Episode(key string) (int, error) {
	name := path.Base(key)
	segment, _, _ := strings.Cut(name, "-")
	episode, err := strconv.Atoi(segment)
	if err != nil || episode <= 0 {
		return 0, alert.Errorf(alert.KindValidation,
			"cannot derive episode number from key: %s", key).With("key", key)
	}
	return episode, nil
}

// decodeKey undoes the URL encoding S3 applies to keys in notifications.
func decodeKey(key string) string {
	decoded, err := url.QueryUnescape(key)
	if err != nil {
		return key
	}
	return decoded
}

// String renders the record for logs.
func (r Record) String() string {
	return fmt.Sprintf("s3://%s/%s", r.Bucket, r.Key)
}
