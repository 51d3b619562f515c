// Package migration processes the historical backlog of transcription
// artifacts into knowledge-base documents, then triggers one full ingestion
// job for the whole collection.
package migration

import (
	"context"
	"log/slog"
	"time"

	"podcast-kb/pkg/domain"
	"podcast-kb/pkg/event"
	"podcast-kb/pkg/journal"
)

// Chunk size for progress reporting. Processing within and across chunks is
// sequential; chunking only affects log granularity.
const batchSize = 10

// Lister enumerates object keys under a prefix. Implemented by
// storage.Bucket.
type Lister interface {
	List(ctx context.Context, prefix string) ([]string, error)
}

// Processor runs the per-episode pipeline steps. Implemented by
// pipeline.Processor.
type Processor interface {
	ProcessEpisode(ctx context.Context, episode int, key string) (string, error)
	Ingest(ctx context.Context) error
}

// Journal persists per-episode outcomes. Implemented by journal.Store; nil
// disables journaling.
type Journal interface {
	Save(ctx context.Context, rec *journal.Record) error
	ProcessedEpisodes(ctx context.Context) (map[int]bool, error)
}

// Runner drives the batch migration.
type Runner struct {
	store         Lister
	processor     Processor
	journal       Journal
	logger        *slog.Logger
	skipProcessed bool
}

// Config wires the runner dependencies.
type Config struct {
	Store         Lister
	Processor     Processor
	Journal       Journal
	Logger        *slog.Logger
	SkipProcessed bool
}

// NewRunner builds a runner.
func NewRunner(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store:         cfg.Store,
		processor:     cfg.Processor,
		journal:       cfg.Journal,
		logger:        logger,
		skipProcessed: cfg.SkipProcessed,
	}
}

// item is one artifact selected for processing.
type item struct {
	episode int
	key     string
}

// Run lists transcription artifacts, processes each episode sequentially in
// chunks of ten, and triggers one full ingestion job when at least one
// episode succeeded. Per-episode failures are recorded and never abort the
// batch.
func (r *Runner) Run(ctx context.Context) (*domain.ProcessingStats, error) {
	keys, err := r.store.List(ctx, event.KeyPrefix)
	if err != nil {
		return nil, err
	}

	stats := &domain.ProcessingStats{}
	items := r.selectItems(ctx, keys, stats)
	stats.Total = len(items) + stats.Skipped

	r.logger.Info("migration starting",
		slog.Int("episodes", len(items)),
		slog.Int("skipped", stats.Skipped))

	chunks := (len(items) + batchSize - 1) / batchSize
	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}
		r.logger.Info("processing batch",
			slog.Int("batch", start/batchSize+1),
			slog.Int("batches", chunks),
			slog.Int("episodes", end-start))

		for _, it := range items[start:end] {
			r.processOne(ctx, it, stats)
		}
	}

	if stats.Successful > 0 {
		if err := r.processor.Ingest(ctx); err != nil {
			return stats, err
		}
	} else {
		r.logger.Warn("no episodes succeeded, skipping ingestion")
	}

	return stats, nil
}

// selectItems keeps keys that look like transcription artifacts, derives
// their episode numbers, and optionally drops episodes the journal already
// recorded as succeeded. Malformed names are logged and skipped.
func (r *Runner) selectItems(ctx context.Context, keys []string, stats *domain.ProcessingStats) []item {
	var processed map[int]bool
	if r.skipProcessed && r.journal != nil {
		var err error
		processed, err = r.journal.ProcessedEpisodes(ctx)
		if err != nil {
			r.logger.Warn("could not load journal, processing everything",
				slog.String("error", err.Error()))
		}
	}

	var items []item
	for _, key := range keys {
		if !event.Matches(key) {
			continue
		}
		episode, err := event.Episode(key)
		if err != nil {
			r.logger.Warn("skipping artifact with unparseable episode number",
				slog.String("key", key))
			stats.RecordSkip()
			continue
		}
		if processed[episode] {
			r.logger.Info("skipping already-migrated episode",
				slog.Int("episode", episode))
			stats.RecordSkip()
			continue
		}
		items = append(items, item{episode: episode, key: key})
	}
	return items
}

// processOne runs the pipeline for a single episode and records the
// outcome. Failures increment counters and the batch moves on.
func (r *Runner) processOne(ctx context.Context, it item, stats *domain.ProcessingStats) {
	docKey, err := r.processor.ProcessEpisode(ctx, it.episode, it.key)
	if err != nil {
		stats.RecordFailure(it.episode, err)
		r.record(ctx, &journal.Record{
			Episode:     it.episode,
			Status:      journal.StatusFailed,
			Error:       err.Error(),
			ProcessedAt: time.Now().UTC(),
		})
		return
	}

	stats.RecordSuccess()
	r.record(ctx, &journal.Record{
		Episode:     it.episode,
		Status:      journal.StatusSucceeded,
		DocumentKey: docKey,
		ProcessedAt: time.Now().UTC(),
	})
}

func (r *Runner) record(ctx context.Context, rec *journal.Record) {
	if r.journal == nil {
		return
	}
	if err := r.journal.Save(ctx, rec); err != nil {
		r.logger.Warn("journal write failed",
			slog.Int("episode", rec.Episode),
			slog.String("error", err.Error()))
	}
}
