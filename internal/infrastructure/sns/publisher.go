package sns

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/ragno-typhojem/libocculus/internal/config"
	"github.com/ragno-typhojem/libocculus/internal/domain"
)

type publishAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// ReportEvent is the message body published for every accepted report.
type ReportEvent struct {
	ReportID       string            `json:"report_id"`
	Kind           domain.ReportKind `json:"kind"`
	Location       string            `json:"location"`
	Occupancy      int               `json:"occupancy"`
	LocationSource string            `json:"location_source"`
	CreatedAt      time.Time         `json:"created_at"`
}

// ReportPublisher fans accepted reports out to an SNS topic.
type ReportPublisher struct {
	client   publishAPI
	topicARN string
}

func NewReportPublisher(cfg *config.Config) (*ReportPublisher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	var opts []func(*sns.Options)
	if cfg.AWSEndpointURL != "" {
		opts = append(opts, func(o *sns.Options) { o.BaseEndpoint = aws.String(cfg.AWSEndpointURL) })
	}
	return &ReportPublisher{client: sns.NewFromConfig(awsCfg, opts...), topicARN: cfg.ReportTopicARN}, nil
}

func (p *ReportPublisher) PublishReport(ctx context.Context, r *domain.OccupancyReport) error {
	body, err := json.Marshal(ReportEvent{
		ReportID:       r.ReportID,
		Kind:           r.Kind,
		Location:       r.Location,
		Occupancy:      r.Occupancy,
		LocationSource: r.LocationSource,
		CreatedAt:      r.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal report event: %w", err)
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"kind":     {DataType: aws.String("String"), StringValue: aws.String(string(r.Kind))},
			"location": {DataType: aws.String("String"), StringValue: aws.String(r.Location)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish report event: %w", err)
	}
	return nil
}
