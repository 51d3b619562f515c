package alert

import (
	"context"
	"fmt"
	"log/slog"
)

// Publisher sends a notification. Implemented by SNSPublisher; tests use a
// fake. A nil Publisher disables notifications (everything is still logged).
type Publisher interface {
	Publish(ctx context.Context, subject, message string) error
}

// Reporter logs every failure with its kind and context, and publishes a
// notification for critical kinds. Report never converts a failure into a
// success: the original error is always returned to the caller.
type Reporter struct {
	logger    *slog.Logger
	publisher Publisher
}

// NewReporter builds a reporter. logger must not be nil; publisher may be.
func NewReporter(logger *slog.Logger, publisher Publisher) *Reporter {
	return &Reporter{logger: logger, publisher: publisher}
}

// Report logs err and, for critical kinds, publishes a notification.
// Notification failures are logged under their own kind and never replace
// err. The returned error is always err itself.
func (r *Reporter) Report(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	kind, kctx := Classify(err)

	attrs := []slog.Attr{slog.String("kind", string(kind))}
	for k, v := range kctx {
		attrs = append(attrs, slog.Any(k, v))
	}
	r.logger.LogAttrs(ctx, slog.LevelError, err.Error(), attrs...)

	if kind.Critical() && r.publisher != nil {
		if pubErr := r.publisher.Publish(ctx, subjectFor(kind, kctx), bodyFor(err, kctx)); pubErr != nil {
			r.logger.LogAttrs(ctx, slog.LevelError, pubErr.Error(),
				slog.String("kind", string(KindSNSPublish)),
				slog.String("original_kind", string(kind)))
		}
	}

	return err
}

func subjectFor(kind Kind, kctx map[string]any) string {
	if episode, ok := kctx["episode"].(int); ok {
		return fmt.Sprintf("[%s] episode %d", kind, episode)
	}
	return fmt.Sprintf("[%s]", kind)
}

func bodyFor(err error, kctx map[string]any) string {
	if len(kctx) == 0 {
		return err.Error()
	}
	return err.Error() + "\n\ncontext: " + formatContext(kctx)
}
