package alert

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher publishes notifications to one SNS topic.
type SNSPublisher struct {
	api      snsAPI
	topicARN string
}

// NewSNSPublisher wraps an SNS client for the given topic.
func NewSNSPublisher(api snsAPI, topicARN string) *SNSPublisher {
	return &SNSPublisher{api: api, topicARN: topicARN}
}

// Publish sends one notification with the given subject and body.
func (p *SNSPublisher) Publish(ctx context.Context, subject, message string) error {
	if p.topicARN == "" {
		return fmt.Errorf("sns topic ARN is not configured")
	}
	_, err := p.api.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", p.topicARN, err)
	}
	return nil
}
