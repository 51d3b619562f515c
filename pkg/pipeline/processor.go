// Package pipeline drives one episode through the document pipeline:
// read transcript, enrich with feed metadata, format, write, then trigger
// and monitor knowledge-base ingestion.
package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"podcast-kb/pkg/alert"
	"podcast-kb/pkg/document"
	"podcast-kb/pkg/domain"
	"podcast-kb/pkg/ingestion"
)

// TranscriptReader loads transcript text from an artifact key.
type TranscriptReader interface {
	Read(ctx context.Context, key string) (string, error)
}

// MetadataSource resolves episode metadata, degrading to defaults.
type MetadataSource interface {
	Get(ctx context.Context, episode int) domain.EpisodeMetadata
}

// DocumentWriter persists a formatted document and returns its key.
type DocumentWriter interface {
	Write(ctx context.Context, episode int, doc string) (string, error)
}

// Ingestor triggers and monitors ingestion jobs.
type Ingestor interface {
	StartJob(ctx context.Context) (string, error)
	Monitor(ctx context.Context, jobID string, maxPolls int) error
}

// Reporter logs and (for critical kinds) alerts on failures, returning the
// original error.
type Reporter interface {
	Report(ctx context.Context, err error) error
}

// Processor wires the pipeline steps together. Steps for one episode run
// strictly sequentially; a failed write short-circuits before any ingestion
// call.
type Processor struct {
	transcripts TranscriptReader
	metadata    MetadataSource
	writer      DocumentWriter
	ingestor    Ingestor
	reporter    Reporter
	logger      *slog.Logger
	maxPolls    int
}

// Config wires the processor dependencies.
type Config struct {
	Transcripts TranscriptReader
	Metadata    MetadataSource
	Writer      DocumentWriter
	Ingestor    Ingestor
	Reporter    Reporter
	Logger      *slog.Logger
	MaxPolls    int
}

// NewProcessor builds a processor.
func NewProcessor(cfg Config) *Processor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxPolls := cfg.MaxPolls
	if maxPolls <= 0 {
		maxPolls = ingestion.EventMaxPolls
	}
	return &Processor{
		transcripts: cfg.Transcripts,
		metadata:    cfg.Metadata,
		writer:      cfg.Writer,
		ingestor:    cfg.Ingestor,
		reporter:    cfg.Reporter,
		logger:      logger,
		maxPolls:    maxPolls,
	}
}

// ProcessEpisode reads the artifact at key, enriches it with metadata,
// formats the document and writes it. Returns the written document key.
// Failures are reported (logged, and alerted when critical) before being
// returned.
func (p *Processor) ProcessEpisode(ctx context.Context, episode int, key string) (string, error) {
	text, err := p.transcripts.Read(ctx, key)
	if err != nil {
		return "", p.report(ctx, err, episode)
	}

	meta := p.metadata.Get(ctx, episode)
	doc := document.Format(episode, text, meta)

	docKey, err := p.writer.Write(ctx, episode, doc)
	if err != nil {
		return "", p.report(ctx, err, episode)
	}

	p.logger.Info("document written",
		slog.Int("episode", episode),
		slog.String("key", docKey),
		slog.Int("transcript_bytes", len(text)))
	return docKey, nil
}

// Ingest triggers one ingestion job and monitors it to completion. Callers
// must only invoke it after a successful write.
func (p *Processor) Ingest(ctx context.Context) error {
	jobID, err := p.ingestor.StartJob(ctx)
	if err != nil {
		return p.report(ctx, err, 0)
	}
	if err := p.ingestor.Monitor(ctx, jobID, p.maxPolls); err != nil {
		return p.report(ctx, err, 0)
	}
	return nil
}

// Run is the event-driven path: process one episode, then ingest.
func (p *Processor) Run(ctx context.Context, episode int, key string) error {
	if _, err := p.ProcessEpisode(ctx, episode, key); err != nil {
		return err
	}
	return p.Ingest(ctx)
}

// report attaches the episode when known and hands the failure to the
// reporter. Errors are never swallowed here.
func (p *Processor) report(ctx context.Context, err error, episode int) error {
	var ae *alert.Error
	if episode > 0 && errors.As(err, &ae) {
		if _, has := ae.Context["episode"]; !has {
			ae.With("episode", episode)
		}
	}
	if p.reporter == nil {
		return err
	}
	return p.reporter.Report(ctx, err)
}
