package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ragno-typhojem/libocculus/internal/domain"
)

type mockAPI struct{ mock.Mock }

func (m *mockAPI) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	return &dynamodb.PutItemOutput{}, args.Error(0)
}

func (m *mockAPI) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	if o, _ := args.Get(0).(*dynamodb.GetItemOutput); o != nil {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, in)
	return &dynamodb.UpdateItemOutput{}, args.Error(0)
}

func (m *mockAPI) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, in)
	if o, _ := args.Get(0).(*dynamodb.QueryOutput); o != nil {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	args := m.Called(ctx, in)
	return &dynamodb.TransactWriteItemsOutput{}, args.Error(0)
}

func cancelled(codes ...string) error {
	reasons := make([]types.CancellationReason, len(codes))
	for i, c := range codes {
		reasons[i] = types.CancellationReason{Code: aws.String(c)}
	}
	return &types.TransactionCanceledException{CancellationReasons: reasons}
}

func sampleReport(at time.Time) *domain.OccupancyReport {
	return &domain.OccupancyReport{
		ReportID:       "01HZX3J0000000000000000000",
		Kind:           domain.ReportLibrary,
		Location:       "2B",
		Occupancy:      70,
		SubmitterID:    "u1",
		Coordinates:    domain.CampusFallback,
		LocationSource: domain.LocationSourceFallback,
		CreatedAt:      at,
	}
}

func TestUserRepo_Get_NotFound(t *testing.T) {
	api := new(mockAPI)
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := NewUserRepo(api, "users").Get(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepo_Get_Unmarshals(t *testing.T) {
	item, err := attributevalue.MarshalMap(&domain.User{UserID: "u1", Email: "e1234567@metu.edu.tr", Points: 40, LastSubmitAt: 1700000000000})
	require.NoError(t, err)
	api := new(mockAPI)
	api.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return *in.TableName == "users" && *in.ConsistentRead
	})).Return(&dynamodb.GetItemOutput{Item: item}, nil)

	u, err := NewUserRepo(api, "users").Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 40, u.Points)
	assert.Equal(t, int64(1700000000000), u.LastSubmitAt)
}

func TestAccountRepo_Create_Duplicate(t *testing.T) {
	api := new(mockAPI)
	api.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
		return len(in.TransactItems) == 2 &&
			*in.TransactItems[0].Put.TableName == "credentials" &&
			*in.TransactItems[1].Put.TableName == "users"
	})).Return(cancelled("ConditionalCheckFailed", "None"))

	repo := NewAccountRepo(api, "credentials", "users")
	err := repo.Create(context.Background(),
		&domain.Credential{Email: "e1234567@metu.edu.tr", UserID: "u1", PasswordHash: "h"},
		&domain.User{UserID: "u1", Email: "e1234567@metu.edu.tr"})
	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)
}

func TestAccountRepo_Create_OtherFailure(t *testing.T) {
	api := new(mockAPI)
	api.On("TransactWriteItems", mock.Anything, mock.Anything).Return(errors.New("throttled"))

	err := NewAccountRepo(api, "credentials", "users").Create(context.Background(),
		&domain.Credential{Email: "e1234567@metu.edu.tr"}, &domain.User{UserID: "u1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDuplicateAccount)
}

func TestAccountRepo_UpdatePasswordHash_Missing(t *testing.T) {
	api := new(mockAPI)
	api.On("UpdateItem", mock.Anything, mock.Anything).Return(&types.ConditionalCheckFailedException{})

	err := NewAccountRepo(api, "credentials", "users").
		UpdatePasswordHash(context.Background(), "e1234567@metu.edu.tr", "h", time.Now())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReportRepo_Record_BuildsConditionalCredit(t *testing.T) {
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	api := new(mockAPI)
	var captured *dynamodb.TransactWriteItemsInput
	api.On("TransactWriteItems", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*dynamodb.TransactWriteItemsInput) }).
		Return(nil)

	err := NewReportRepo(api, "occupancy_reports", "users").Record(context.Background(), Submission{
		Report: sampleReport(at),
		Points: 10,
		Cutoff: at.Add(-time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, captured.TransactItems, 2)

	upd := captured.TransactItems[1].Update
	assert.Equal(t, "ADD #points :pts, #contrib :one SET #last = :now", *upd.UpdateExpression)
	assert.Equal(t, "10", upd.ExpressionAttributeValues[":pts"].(*types.AttributeValueMemberN).Value)
	assert.Equal(t, "1772445600000", upd.ExpressionAttributeValues[":now"].(*types.AttributeValueMemberN).Value)
	assert.Equal(t, "1772442000000", upd.ExpressionAttributeValues[":cutoff"].(*types.AttributeValueMemberN).Value)
}

func TestReportRepo_Record_CooldownCondition(t *testing.T) {
	api := new(mockAPI)
	api.On("TransactWriteItems", mock.Anything, mock.Anything).Return(cancelled("None", "ConditionalCheckFailed"))

	err := NewReportRepo(api, "occupancy_reports", "users").Record(context.Background(), Submission{
		Report: sampleReport(time.Now()), Points: 10, Cutoff: time.Now().Add(-time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrCooldownActive)
}

func TestReportRepo_Latest(t *testing.T) {
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	item, err := attributevalue.MarshalMap(sampleReport(at))
	require.NoError(t, err)

	api := new(mockAPI)
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return *in.IndexName == indexLocationCreatedAt && !*in.ScanIndexForward && *in.Limit == 1
	})).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{item}}, nil).Once()
	api.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{}, nil)

	repo := NewReportRepo(api, "occupancy_reports", "users")
	got, err := repo.Latest(context.Background(), "2B")
	require.NoError(t, err)
	assert.Equal(t, 70, got.Occupancy)
	assert.True(t, at.Equal(got.CreatedAt))

	none, err := repo.Latest(context.Background(), "3A")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestRedemptionRepo_Redeem_InsufficientPoints(t *testing.T) {
	api := new(mockAPI)
	api.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
		u := in.TransactItems[0].Update
		return u != nil && *u.ConditionExpression == "#points >= :cost" &&
			u.ExpressionAttributeValues[":cost"].(*types.AttributeValueMemberN).Value == "50"
	})).Return(cancelled("ConditionalCheckFailed", "None"))

	red := &domain.Redemption{RedemptionID: "r1", UserID: "u1", Code: "A1B2C3", Reward: domain.Reward{RewardID: "reward1", PointCost: 50}}
	err := NewRedemptionRepo(api, "redemptions", "users").Redeem(context.Background(), red)
	assert.ErrorIs(t, err, domain.ErrInsufficientPoints)
}

func TestRedemptionRepo_ListByUser(t *testing.T) {
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	var items []map[string]types.AttributeValue
	for _, id := range []string{"r2", "r1"} {
		item, err := attributevalue.MarshalMap(&domain.Redemption{RedemptionID: id, UserID: "u1", RedeemedAt: at})
		require.NoError(t, err)
		items = append(items, item)
	}
	api := new(mockAPI)
	api.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{Items: items}, nil)

	got, err := NewRedemptionRepo(api, "redemptions", "users").ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "r2", got[0].RedemptionID)
}

func TestRedemptionRepo_Get_NotFound(t *testing.T) {
	api := new(mockAPI)
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := NewRedemptionRepo(api, "redemptions", "users").Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
