package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ragno-typhojem/libocculus/internal/domain"
)

// ReportRepo appends occupancy reports. Reports are never updated.
type ReportRepo struct {
	client     API
	tableName  string
	usersTable string
}

func NewReportRepo(client API, tableName, usersTable string) *ReportRepo {
	return &ReportRepo{client: client, tableName: tableName, usersTable: usersTable}
}

// Submission is a report plus the reward credited to its submitter.
type Submission struct {
	Report *domain.OccupancyReport
	Points int
	// Cutoff is the latest last_submit_at that still allows this submission.
	Cutoff time.Time
}

// Record stores the report and credits the submitter in one transaction.
// The user update is conditioned on the cooldown so that concurrent
// submissions cannot both succeed; a failed condition yields ErrCooldownActive.
func (r *ReportRepo) Record(ctx context.Context, s Submission) error {
	item, err := attributevalue.MarshalMap(s.Report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(" + fieldReportID + ")"),
			}},
			{Update: &types.Update{
				TableName:           aws.String(r.usersTable),
				Key:                 strKey(fieldUserID, s.Report.SubmitterID),
				UpdateExpression:    aws.String("ADD #points :pts, #contrib :one SET #last = :now"),
				ConditionExpression: aws.String("attribute_exists(#uid) AND (attribute_not_exists(#last) OR #last <= :cutoff)"),
				ExpressionAttributeNames: map[string]string{
					"#uid":     fieldUserID,
					"#points":  fieldPoints,
					"#contrib": fieldTotalContributions,
					"#last":    fieldLastSubmitAt,
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":pts":    numValue(int64(s.Points)),
					":one":    numValue(1),
					":now":    numValue(s.Report.CreatedAt.UnixMilli()),
					":cutoff": numValue(s.Cutoff.UnixMilli()),
				},
			}},
		},
	})
	if canceledByCondition(err, 1) {
		return fmt.Errorf("record report: %w", domain.ErrCooldownActive)
	}
	if err != nil {
		return fmt.Errorf("record report: %w", err)
	}
	return nil
}

// Latest returns the newest report for location, or nil when there is none.
func (r *ReportRepo) Latest(ctx context.Context, location string) (*domain.OccupancyReport, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexLocationCreatedAt),
		KeyConditionExpression:    aws.String("#loc = :loc"),
		ExpressionAttributeNames:  map[string]string{"#loc": fieldLocation},
		ExpressionAttributeValues: map[string]types.AttributeValue{":loc": &types.AttributeValueMemberS{Value: location}},
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, nil
	}
	var rep domain.OccupancyReport
	if err := attributevalue.UnmarshalMap(out.Items[0], &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}
