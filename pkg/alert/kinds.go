// Package alert classifies pipeline failures, logs them with structured
// context, and publishes SNS notifications for the critical kinds.
package alert

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind identifies a failure category. The kind decides whether a failure is
// only logged or also published as a notification.
type Kind string

const (
	KindValidation          Kind = "ValidationError"
	KindJSONParse           Kind = "JSONParseError"
	KindRSSFetch            Kind = "RSSFetchError"
	KindS3Read              Kind = "S3ReadError"
	KindS3Write             Kind = "S3WriteError"
	KindConfiguration       Kind = "ConfigurationError"
	KindIngestionFailure    Kind = "IngestionJobFailure"
	KindIngestionMonitoring Kind = "IngestionJobMonitoringError"
	KindLambda              Kind = "LambdaError"
	KindSNSPublish          Kind = "SNSPublishError"
)

// Critical reports whether failures of this kind must raise a notification
// in addition to being logged.
func (k Kind) Critical() bool {
	switch k {
	case KindS3Write, KindIngestionFailure, KindLambda:
		return true
	default:
		return false
	}
}

// Error is a classified failure with optional context fields (episode
// number, storage key, attempt count, ...).
type Error struct {
	Kind    Kind
	Context map[string]any
	err     error
}

// NewError wraps err under the given kind.
func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, err: fmt.Errorf(format, args...)}
}

// With attaches a context field and returns the error for chaining.
func (e *Error) With(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func (e *Error) Error() string {
	if e.err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.err.Error())
}

func (e *Error) Unwrap() error {
	return e.err
}

// Classify returns the kind and context of err. Errors that carry no kind
// are treated as handler-level failures.
func Classify(err error) (Kind, map[string]any) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, ae.Context
	}
	return KindLambda, nil
}

// Episode returns the episode context field of err, when present.
func Episode(err error) (int, bool) {
	_, kctx := Classify(err)
	if kctx == nil {
		return 0, false
	}
	n, ok := kctx["episode"].(int)
	return n, ok
}

func formatContext(kctx map[string]any) string {
	if len(kctx) == 0 {
		return ""
	}
	keys := make([]string, 0, len(kctx))
	for k := range kctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, kctx[k]))
	}
	return strings.Join(parts, " ")
}
