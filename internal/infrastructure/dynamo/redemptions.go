package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ragno-typhojem/libocculus/internal/domain"
)

// RedemptionRepo stores claimed rewards. PK: redemption_id.
type RedemptionRepo struct {
	client     API
	tableName  string
	usersTable string
}

func NewRedemptionRepo(client API, tableName, usersTable string) *RedemptionRepo {
	return &RedemptionRepo{client: client, tableName: tableName, usersTable: usersTable}
}

// Redeem debits the reward cost and stores the redemption atomically. The
// debit is conditioned on the balance covering the cost; otherwise
// ErrInsufficientPoints is returned and nothing is written.
func (r *RedemptionRepo) Redeem(ctx context.Context, red *domain.Redemption) error {
	item, err := attributevalue.MarshalMap(red)
	if err != nil {
		return fmt.Errorf("marshal redemption: %w", err)
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Update: &types.Update{
				TableName:                 aws.String(r.usersTable),
				Key:                       strKey(fieldUserID, red.UserID),
				UpdateExpression:          aws.String("SET #points = #points - :cost"),
				ConditionExpression:       aws.String("#points >= :cost"),
				ExpressionAttributeNames:  map[string]string{"#points": fieldPoints},
				ExpressionAttributeValues: map[string]types.AttributeValue{":cost": numValue(int64(red.Reward.PointCost))},
			}},
			{Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(" + fieldRedemptionID + ")"),
			}},
		},
	})
	if canceledByCondition(err, 0) {
		return fmt.Errorf("redeem %s: %w", red.Reward.RewardID, domain.ErrInsufficientPoints)
	}
	if err != nil {
		return fmt.Errorf("redeem %s: %w", red.Reward.RewardID, err)
	}
	return nil
}

func (r *RedemptionRepo) Get(ctx context.Context, redemptionID string) (*domain.Redemption, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldRedemptionID, redemptionID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("redemption %s: %w", redemptionID, domain.ErrNotFound)
	}
	var red domain.Redemption
	if err := attributevalue.UnmarshalMap(out.Item, &red); err != nil {
		return nil, err
	}
	return &red, nil
}

// ListByUser returns the user's redemptions, newest first.
func (r *RedemptionRepo) ListByUser(ctx context.Context, userID string) ([]domain.Redemption, error) {
	in := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexUserRedeemedAt),
		KeyConditionExpression:    aws.String("#uid = :uid"),
		ExpressionAttributeNames:  map[string]string{"#uid": fieldUserID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":uid": &types.AttributeValueMemberS{Value: userID}},
		ScanIndexForward:          aws.Bool(false),
	}
	var out []domain.Redemption
	p := dynamodb.NewQueryPaginator(r.client, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var items []domain.Redemption
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	return out, nil
}
