// Package config reads the pipeline configuration from the environment for
// the Lambda entrypoint. The batch CLI takes the same values as flags.
package config

import "os"

// DefaultFeedURL is the podcast RSS feed the pipeline enriches from.
const DefaultFeedURL = "https://francais.podcast.go-aws.com/web/feed.xml"

// Config holds the identifiers the pipeline needs. Missing knowledge-base
// or data-source ids surface as ConfigurationError when ingestion is
// triggered; a missing topic ARN only disables notifications.
type Config struct {
	Bucket          string
	FeedURL         string
	KnowledgeBaseID string
	DataSourceID    string
	TopicARN        string
}

// FromEnv builds the config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Bucket:          os.Getenv("BUCKET_NAME"),
		FeedURL:         os.Getenv("RSS_FEED_URL"),
		KnowledgeBaseID: os.Getenv("KNOWLEDGE_BASE_ID"),
		DataSourceID:    os.Getenv("DATA_SOURCE_ID"),
		TopicARN:        os.Getenv("SNS_TOPIC_ARN"),
	}
	if cfg.FeedURL == "" {
		cfg.FeedURL = DefaultFeedURL
	}
	return cfg
}
