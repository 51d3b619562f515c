package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"podcast-kb/pkg/alert"
	"podcast-kb/pkg/config"
	"podcast-kb/pkg/document"
	"podcast-kb/pkg/feed"
	"podcast-kb/pkg/ingestion"
	"podcast-kb/pkg/metadata"
	"podcast-kb/pkg/pipeline"
	"podcast-kb/pkg/storage"
	"podcast-kb/pkg/transcript"
)

func main() {
	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}

	cfg := config.FromEnv()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	bucket := storage.NewBucket(s3.NewFromConfig(awsCfg), cfg.Bucket)
	reporter := alert.NewReporter(logger,
		alert.NewSNSPublisher(sns.NewFromConfig(awsCfg), cfg.TopicARN))

	processor := pipeline.NewProcessor(pipeline.Config{
		Transcripts: transcript.NewReader(bucket),
		Metadata:    metadata.NewCache(feed.NewClient(cfg.FeedURL), metadata.WithLogger(logger)),
		Writer:      document.NewWriter(bucket),
		Ingestor: ingestion.NewClient(bedrockagent.NewFromConfig(awsCfg),
			cfg.KnowledgeBaseID, cfg.DataSourceID, ingestion.WithLogger(logger)),
		Reporter: reporter,
		Logger:   logger,
		MaxPolls: ingestion.EventMaxPolls,
	})

	h := &handler{
		processor: processor,
		reporter:  reporter,
		logger:    logger,
	}

	lambda.Start(h.Handle)
}
