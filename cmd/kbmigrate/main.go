package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"podcast-kb/pkg/alert"
	"podcast-kb/pkg/config"
	"podcast-kb/pkg/document"
	"podcast-kb/pkg/feed"
	"podcast-kb/pkg/ingestion"
	"podcast-kb/pkg/journal"
	"podcast-kb/pkg/metadata"
	"podcast-kb/pkg/migration"
	"podcast-kb/pkg/pipeline"
	"podcast-kb/pkg/storage"
	"podcast-kb/pkg/transcript"
)

func main() {
	var (
		bucketName = flag.String("bucket", "", "S3 bucket holding transcription artifacts and documents")
		feedURL    = flag.String("feed", config.DefaultFeedURL, "Podcast RSS feed URL")
		kbID       = flag.String("kb-id", os.Getenv("KNOWLEDGE_BASE_ID"), "Bedrock knowledge base id")
		dsID       = flag.String("ds-id", os.Getenv("DATA_SOURCE_ID"), "Bedrock data source id")
		topicARN   = flag.String("topic-arn", os.Getenv("SNS_TOPIC_ARN"), "SNS topic ARN for critical alerts (optional)")

		mongoURI      = flag.String("mongo-uri", "", "MongoDB connection string for the migration journal (optional)")
		dbName        = flag.String("db", "podcastkb", "MongoDB database name for the journal")
		collection    = flag.String("collection", "migrations", "MongoDB collection for the journal")
		skipProcessed = flag.Bool("skip-processed", false, "Skip episodes the journal already recorded as succeeded")
	)
	flag.Parse()

	if *bucketName == "" {
		log.Fatal("-bucket is required")
	}

	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var store migration.Journal
	if *mongoURI != "" {
		journalStore := journal.NewStore(*mongoURI, *dbName, *collection)
		if err := journalStore.Connect(ctx); err != nil {
			log.Fatalf("Failed to connect to journal database: %v", err)
		}
		defer journalStore.Close(ctx)
		store = journalStore
	}

	bucket := storage.NewBucket(s3.NewFromConfig(awsCfg), *bucketName)

	var publisher alert.Publisher
	if *topicARN != "" {
		publisher = alert.NewSNSPublisher(sns.NewFromConfig(awsCfg), *topicARN)
	}

	processor := pipeline.NewProcessor(pipeline.Config{
		Transcripts: transcript.NewReader(bucket),
		Metadata:    metadata.NewCache(feed.NewClient(*feedURL), metadata.WithLogger(logger)),
		Writer:      document.NewWriter(bucket),
		Ingestor: ingestion.NewClient(bedrockagent.NewFromConfig(awsCfg),
			*kbID, *dsID, ingestion.WithLogger(logger)),
		Reporter: alert.NewReporter(logger, publisher),
		Logger:   logger,
		MaxPolls: ingestion.MigrationMaxPolls,
	})

	runner := migration.NewRunner(migration.Config{
		Store:         bucket,
		Processor:     processor,
		Journal:       store,
		Logger:        logger,
		SkipProcessed: *skipProcessed,
	})

	start := time.Now()
	log.Printf("Migrating transcription artifacts from s3://%s (feed=%s)", *bucketName, *feedURL)

	stats, err := runner.Run(ctx)
	if stats != nil {
		fmt.Println(stats.Summary())
	}
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Done. Duration: %s", time.Since(start))
}
