package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"subscout/application/ports"
	"subscout/domain/core/entities"
)

// Source is the EventBridge source of every activity event
const Source = "subscout.api"

// batchSize is the PutEvents entry limit
const batchSize = 10

// PutEventsAPI is the part of the EventBridge client the publisher uses
type PutEventsAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// Publisher sends recorded activities to an EventBridge bus. The activity
// type becomes the detail type.
type Publisher struct {
	client       PutEventsAPI
	eventBusName string
	logger       *zap.Logger
}

var _ ports.ActivityPublisher = (*Publisher)(nil)

func NewPublisher(client PutEventsAPI, eventBusName string, logger *zap.Logger) *Publisher {
	return &Publisher{client: client, eventBusName: eventBusName, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, activities ...*entities.Activity) error {
	for i := 0; i < len(activities); i += batchSize {
		end := i + batchSize
		if end > len(activities) {
			end = len(activities)
		}
		if err := p.publishBatch(ctx, activities[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) publishBatch(ctx context.Context, activities []*entities.Activity) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(activities))
	published := make([]*entities.Activity, 0, len(activities))

	for _, activity := range activities {
		detail, err := json.Marshal(activity)
		if err != nil {
			p.logger.Error("Failed to marshal activity",
				zap.String("activityID", activity.ID),
				zap.Error(err),
			)
			continue
		}

		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.eventBusName),
			Source:       aws.String(Source),
			DetailType:   aws.String(string(activity.Type)),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(activity.CreatedAt),
			Resources:    []string{fmt.Sprintf("arn:aws:subscout::user/%s", activity.UserID)},
		})
		published = append(published, activity)
	}

	if len(entries) == 0 {
		return nil
	}

	result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		return fmt.Errorf("failed to publish activities to EventBridge: %w", err)
	}

	if result.FailedEntryCount > 0 {
		for i, entry := range result.Entries {
			if entry.ErrorCode != nil && i < len(published) {
				p.logger.Error("Failed to publish activity",
					zap.String("activityType", string(published[i].Type)),
					zap.String("errorCode", aws.ToString(entry.ErrorCode)),
					zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("%d activities failed to publish", result.FailedEntryCount)
	}

	p.logger.Debug("Activities published to EventBridge",
		zap.Int("count", len(entries)),
		zap.String("eventBus", p.eventBusName),
	)
	return nil
}
