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

// AccountRepo owns the credentials table and creates accounts atomically
// together with their user document. PK: email.
type AccountRepo struct {
	client           API
	credentialsTable string
	usersTable       string
}

func NewAccountRepo(client API, credentialsTable, usersTable string) *AccountRepo {
	return &AccountRepo{client: client, credentialsTable: credentialsTable, usersTable: usersTable}
}

// Create writes the credential and the user document in one transaction.
// An existing credential for the email yields ErrDuplicateAccount.
func (r *AccountRepo) Create(ctx context.Context, c *domain.Credential, u *domain.User) error {
	credItem, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	userItem, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.credentialsTable),
				Item:                credItem,
				ConditionExpression: aws.String("attribute_not_exists(" + fieldEmail + ")"),
			}},
			{Put: &types.Put{
				TableName:           aws.String(r.usersTable),
				Item:                userItem,
				ConditionExpression: aws.String("attribute_not_exists(" + fieldUserID + ")"),
			}},
		},
	})
	if canceledByCondition(err, 0) {
		return fmt.Errorf("credential %s: %w", c.Email, domain.ErrDuplicateAccount)
	}
	return err
}

func (r *AccountRepo) GetCredential(ctx context.Context, email string) (*domain.Credential, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.credentialsTable),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("credential %s: %w", email, domain.ErrNotFound)
	}
	var c domain.Credential
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *AccountRepo) UpdatePasswordHash(ctx context.Context, email, hash string, at time.Time) error {
	ue, err := buildUpdateExpr(map[string]any{
		fieldPasswordHash: hash,
		fieldUpdatedAt:    at.UTC(),
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.credentialsTable),
		Key:                       strKey(fieldEmail, email),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(" + fieldEmail + ")"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("credential %s: %w", email, domain.ErrNotFound)
	}
	return err
}
