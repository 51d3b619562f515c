package main

import (
	"context"
	"encoding/json"
	"log/slog"

	"podcast-kb/pkg/event"
	"podcast-kb/pkg/pipeline"
)

// handler adapts the Lambda invocation to the pipeline. Pipeline failures
// are reported inside the processor; the handler reports only the failures
// that happen before the pipeline gets involved, then re-raises everything
// so the platform records the invocation as failed.
type handler struct {
	processor *pipeline.Processor
	reporter  interface {
		Report(ctx context.Context, err error) error
	}
	logger *slog.Logger
}

// Handle accepts a raw payload so wrapped and unwrapped event shapes both
// work; normalization keeps the ambiguity out of the pipeline.
func (h *handler) Handle(ctx context.Context, payload json.RawMessage) error {
	rec, err := event.Normalize(payload)
	if err != nil {
		return h.reporter.Report(ctx, err)
	}

	if !event.Matches(rec.Key) {
		h.logger.Info("ignoring object outside the transcription prefix",
			slog.String("key", rec.Key))
		return nil
	}

	episode, err := event.Episode(rec.Key)
	if err != nil {
		return h.reporter.Report(ctx, err)
	}

	h.logger.Info("processing transcription event",
		slog.Int("episode", episode),
		slog.String("source", rec.String()))

	return h.processor.Run(ctx, episode, rec.Key)
}
