// Package ingestion starts Bedrock knowledge-base ingestion jobs and polls
// them to a terminal state.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent/types"
	"github.com/google/uuid"

	"podcast-kb/pkg/alert"
	"podcast-kb/pkg/retry"
)

// Poll bounds. The event-driven path gives up after 60 polls (5 minutes),
// the migration path after 120 (10 minutes).
const (
	DefaultPollInterval = 5 * time.Second
	EventMaxPolls       = 60
	MigrationMaxPolls   = 120

	heartbeatEvery = 12
)

type bedrockAPI interface {
	StartIngestionJob(ctx context.Context, params *bedrockagent.StartIngestionJobInput, optFns ...func(*bedrockagent.Options)) (*bedrockagent.StartIngestionJobOutput, error)
	GetIngestionJob(ctx context.Context, params *bedrockagent.GetIngestionJobInput, optFns ...func(*bedrockagent.Options)) (*bedrockagent.GetIngestionJobOutput, error)
}

// Client triggers and monitors ingestion jobs for one knowledge base and
// data source.
type Client struct {
	api             bedrockAPI
	knowledgeBaseID string
	dataSourceID    string
	policy          retry.Policy
	logger          *slog.Logger
	pollInterval    time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithRetryPolicy overrides the trigger retry schedule.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithLogger sets the logger for status transitions and heartbeats.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithPollInterval overrides the monitor poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// NewClient builds an ingestion client.
func NewClient(api bedrockAPI, knowledgeBaseID, dataSourceID string, opts ...Option) *Client {
	c := &Client{
		api:             api,
		knowledgeBaseID: strings.TrimSpace(knowledgeBaseID),
		dataSourceID:    strings.TrimSpace(dataSourceID),
		policy:          retry.Default,
		logger:          slog.Default(),
		pollInterval:    DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartJob triggers one ingestion job and returns its id. Missing
// configuration fails immediately without retry; remote-call failures are
// retried. A successful response without a job id is fatal.
func (c *Client) StartJob(ctx context.Context) (string, error) {
	if c.knowledgeBaseID == "" {
		return "", alert.Errorf(alert.KindConfiguration, "knowledge base id is not configured")
	}
	if c.dataSourceID == "" {
		return "", alert.Errorf(alert.KindConfiguration, "data source id is not configured")
	}

	// One client token across retries so a retried trigger cannot start a
	// second job server-side.
	token := uuid.NewString()

	var out *bedrockagent.StartIngestionJobOutput
	err := c.policy.Do(ctx, "ingestion trigger", func(ctx context.Context) error {
		var callErr error
		out, callErr = c.api.StartIngestionJob(ctx, &bedrockagent.StartIngestionJobInput{
			KnowledgeBaseId: aws.String(c.knowledgeBaseID),
			DataSourceId:    aws.String(c.dataSourceID),
			ClientToken:     aws.String(token),
		})
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("start ingestion job: %w", err)
	}

	if out == nil || out.IngestionJob == nil || aws.ToString(out.IngestionJob.IngestionJobId) == "" {
		return "", fmt.Errorf("start ingestion job: response contains no job id")
	}

	jobID := aws.ToString(out.IngestionJob.IngestionJobId)
	c.logger.Info("ingestion job started",
		slog.String("job_id", jobID),
		slog.String("knowledge_base_id", c.knowledgeBaseID),
		slog.String("data_source_id", c.dataSourceID))
	return jobID, nil
}

// Monitor polls the job every poll interval until it reaches a terminal
// state or maxPolls is exhausted. A FAILED job is returned as an error; a
// job still running at the poll limit is logged as a warning and Monitor
// returns normally, since the remote job keeps running on its own. Poll-call
// failures stop monitoring without failing the pipeline. Status is logged
// only on transitions, with a heartbeat every 12th poll.
func (c *Client) Monitor(ctx context.Context, jobID string, maxPolls int) error {
	if maxPolls <= 0 {
		maxPolls = EventMaxPolls
	}

	var lastStatus types.IngestionJobStatus
	for poll := 1; poll <= maxPolls; poll++ {
		out, err := c.api.GetIngestionJob(ctx, &bedrockagent.GetIngestionJobInput{
			KnowledgeBaseId: aws.String(c.knowledgeBaseID),
			DataSourceId:    aws.String(c.dataSourceID),
			IngestionJobId:  aws.String(jobID),
		})
		if err != nil || out == nil || out.IngestionJob == nil {
			// The remote job may still complete on its own; record the poll
			// failure and stop watching.
			c.logger.Error("ingestion job polling failed, monitoring stopped",
				slog.String("kind", string(alert.KindIngestionMonitoring)),
				slog.String("job_id", jobID),
				slog.Int("poll", poll),
				slog.Any("error", err))
			return nil
		}

		job := out.IngestionJob
		if job.Status != lastStatus {
			c.logger.Info("ingestion job status changed",
				slog.String("job_id", jobID),
				slog.String("status", string(job.Status)),
				slog.Int("poll", poll))
			lastStatus = job.Status
		}

		switch job.Status {
		case types.IngestionJobStatusComplete:
			c.logger.Info("ingestion job complete",
				slog.String("job_id", jobID),
				slog.Any("statistics", job.Statistics))
			return nil
		case types.IngestionJobStatusFailed:
			c.logger.Error("ingestion job failed",
				slog.String("job_id", jobID),
				slog.Any("failure_reasons", job.FailureReasons),
				slog.Any("statistics", job.Statistics))
			return alert.Errorf(alert.KindIngestionFailure,
				"ingestion job %s failed: %s", jobID, strings.Join(job.FailureReasons, "; ")).
				With("job_id", jobID)
		}

		if poll%heartbeatEvery == 0 {
			c.logger.Info("ingestion job still running",
				slog.String("job_id", jobID),
				slog.String("status", string(job.Status)),
				slog.Int("poll", poll))
		}

		if err := sleep(ctx, c.pollInterval); err != nil {
			return nil
		}
	}

	c.logger.Warn("ingestion job did not reach a terminal state before the poll limit",
		slog.String("job_id", jobID),
		slog.Int("max_polls", maxPolls),
		slog.String("last_status", string(lastStatus)))
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
