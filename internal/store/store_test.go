package store

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wnkinc/delta-bridge/internal/apperr"
	"github.com/wnkinc/delta-bridge/internal/model"
)

// fakeDynamo implements DynamoAPI with canned outputs, recording inputs.
type fakeDynamo struct {
	putIn  *dynamodb.PutItemInput
	putErr error

	getIn  *dynamodb.GetItemInput
	getOut *dynamodb.GetItemOutput

	queryIn  []*dynamodb.QueryInput
	queryOut []*dynamodb.QueryOutput

	scanIn  []*dynamodb.ScanInput
	scanOut []*dynamodb.ScanOutput

	updateIn  *dynamodb.UpdateItemInput
	updateErr error
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.putIn = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.getIn = in
	if f.getOut == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return f.getOut, nil
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queryIn = append(f.queryIn, in)
	out := f.queryOut[0]
	f.queryOut = f.queryOut[1:]
	return out, nil
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.scanIn = append(f.scanIn, in)
	out := f.scanOut[0]
	f.scanOut = f.scanOut[1:]
	return out, nil
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updateIn = in
	return &dynamodb.UpdateItemOutput{}, f.updateErr
}

func mustMarshal(t *testing.T, ds model.Dataset) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(ds)
	require.NoError(t, err)
	return item
}

func testDataset() model.Dataset {
	return model.Dataset{
		UserID:    "u1",
		S3Key:     "datasets/abc123/raw/a.csv",
		TableID:   "abc123",
		Filename:  "a.csv",
		Status:    model.StatusPending,
		CreatedAt: "2026-08-28T12:00:00Z",
	}
}

func TestPut(t *testing.T) {
	db := &fakeDynamo{}
	s := New(db, "datasets-table")

	require.NoError(t, s.Put(context.Background(), testDataset()))

	require.NotNil(t, db.putIn)
	assert.Equal(t, "datasets-table", aws.ToString(db.putIn.TableName))
	assert.Equal(t, &types.AttributeValueMemberS{Value: "u1"}, db.putIn.Item["userId"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "abc123"}, db.putIn.Item["tableId"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "pending"}, db.putIn.Item["status"])
}

func TestGet(t *testing.T) {
	ds := testDataset()
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: mustMarshal(t, ds)}}
	s := New(db, "datasets-table")

	got, err := s.Get(context.Background(), "u1", ds.S3Key)
	require.NoError(t, err)
	assert.Equal(t, ds, *got)
	assert.True(t, aws.ToBool(db.getIn.ConsistentRead), "point reads must be consistent")
}

func TestGetNotFound(t *testing.T) {
	db := &fakeDynamo{}
	s := New(db, "datasets-table")

	_, err := s.Get(context.Background(), "u1", "datasets/x/raw/a.csv")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetByTableID(t *testing.T) {
	ds := testDataset()
	db := &fakeDynamo{queryOut: []*dynamodb.QueryOutput{
		{Items: []map[string]types.AttributeValue{mustMarshal(t, ds)}},
	}}
	s := New(db, "datasets-table")

	got, err := s.GetByTableID(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, ds, *got)

	require.Len(t, db.queryIn, 1)
	assert.Equal(t, model.TableIDIndex, aws.ToString(db.queryIn[0].IndexName))
}

func TestGetByTableIDNotFound(t *testing.T) {
	db := &fakeDynamo{queryOut: []*dynamodb.QueryOutput{{}}}
	s := New(db, "datasets-table")

	_, err := s.GetByTableID(context.Background(), "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListByOwnerPaginates(t *testing.T) {
	first := testDataset()
	second := testDataset()
	second.S3Key = "datasets/def456/raw/b.csv"
	second.TableID = "def456"

	cursor := map[string]types.AttributeValue{"userId": &types.AttributeValueMemberS{Value: "u1"}}
	db := &fakeDynamo{queryOut: []*dynamodb.QueryOutput{
		{Items: []map[string]types.AttributeValue{mustMarshal(t, first)}, LastEvaluatedKey: cursor},
		{Items: []map[string]types.AttributeValue{mustMarshal(t, second)}},
	}}
	s := New(db, "datasets-table")

	got, err := s.ListByOwner(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []model.Dataset{first, second}, got)

	require.Len(t, db.queryIn, 2)
	assert.Nil(t, db.queryIn[0].IndexName, "owner listing queries the base table")
	assert.Equal(t, cursor, db.queryIn[1].ExclusiveStartKey)
}

func TestListByOwnerEmpty(t *testing.T) {
	db := &fakeDynamo{queryOut: []*dynamodb.QueryOutput{{}}}
	s := New(db, "datasets-table")

	got, err := s.ListByOwner(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListShared(t *testing.T) {
	shared := testDataset()
	shared.Status = model.StatusShared

	db := &fakeDynamo{scanOut: []*dynamodb.ScanOutput{
		{Items: []map[string]types.AttributeValue{mustMarshal(t, shared)}},
	}}
	s := New(db, "datasets-table")

	got, err := s.ListShared(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Dataset{shared}, got)

	require.Len(t, db.scanIn, 1)
	in := db.scanIn[0]
	require.NotNil(t, in.FilterExpression)
	assert.Contains(t, in.ExpressionAttributeValues, ":0")
	assert.Equal(t, &types.AttributeValueMemberS{Value: "shared"}, in.ExpressionAttributeValues[":0"])
}

func TestUpdateStatus(t *testing.T) {
	db := &fakeDynamo{}
	s := New(db, "datasets-table")

	require.NoError(t, s.UpdateStatus(context.Background(), "u1", "datasets/abc123/raw/a.csv", model.StatusConverted))

	in := db.updateIn
	require.NotNil(t, in)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "u1"}, in.Key["userId"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "datasets/abc123/raw/a.csv"}, in.Key["s3Key"])
	require.NotNil(t, in.UpdateExpression)
	require.NotNil(t, in.ConditionExpression, "updates must not upsert missing records")
	assert.Contains(t, in.ExpressionAttributeValues, ":0")
	assert.Equal(t, &types.AttributeValueMemberS{Value: "converted"}, in.ExpressionAttributeValues[":0"])
}

func TestUpdateStatusMissingRecord(t *testing.T) {
	db := &fakeDynamo{updateErr: &types.ConditionalCheckFailedException{}}
	s := New(db, "datasets-table")

	err := s.UpdateStatus(context.Background(), "u1", "datasets/x/raw/a.csv", model.StatusConverted)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSetSnippet(t *testing.T) {
	db := &fakeDynamo{}
	s := New(db, "datasets-table")

	require.NoError(t, s.SetSnippet(context.Background(), "u1", "datasets/abc123/raw/a.csv", "import delta_sharing"))

	in := db.updateIn
	require.NotNil(t, in)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "import delta_sharing"}, in.ExpressionAttributeValues[":0"])
}
