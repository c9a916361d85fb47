package events

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/susu-finance/susu-api/internal/susu"
)

// Publisher forwards events to an SQS queue for downstream consumers
// (notification senders, indexers).
type Publisher struct {
	client   *sqs.Client
	queueURL string
	logger   *zap.Logger
}

// NewPublisher builds an SQS publisher from the ambient AWS configuration.
func NewPublisher(ctx context.Context, queueURL string, logger *zap.Logger) (*Publisher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS configuration")
	}
	return &Publisher{
		client:   sqs.NewFromConfig(cfg),
		queueURL: queueURL,
		logger:   logger,
	}, nil
}

// Emit publishes the event. Queue failures are logged, never propagated.
func (p *Publisher) Emit(ctx context.Context, ev susu.Event) {
	body, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("failed to marshal event for queue", zap.Error(err))
		return
	}
	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(ev.Type)),
			},
		},
	})
	if err != nil {
		p.logger.Error("failed to publish event",
			zap.String("event", string(ev.Type)),
			zap.String("circle_id", ev.CircleID.String()),
			zap.Error(err),
		)
	}
}
