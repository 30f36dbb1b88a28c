// Package store is the DynamoDB-backed status store for dataset records.
//
// The table is keyed (userId, s3Key). Lookups by tableId go through the
// tableId-index GSI instead of a filtered scan, so a record is found by id
// without touching unrelated partitions.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/wnkinc/delta-bridge/internal/apperr"
	"github.com/wnkinc/delta-bridge/internal/model"
)

// DynamoAPI lists the SDK calls the store uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Store reads and writes dataset records.
type Store struct {
	db    DynamoAPI
	table string
}

func New(db DynamoAPI, table string) *Store {
	return &Store{db: db, table: table}
}

// Put writes a full dataset record, replacing any existing item with the
// same key.
func (s *Store) Put(ctx context.Context, ds model.Dataset) error {
	item, err := attributevalue.MarshalMap(ds)
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}
	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put dataset %s: %w", ds.TableID, err)
	}
	return nil
}

// Get retrieves a record by its primary key. Reads are consistent so a
// record written earlier in the same invocation is always visible.
func (s *Store) Get(ctx context.Context, userID, s3Key string) (*model.Dataset, error) {
	out, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            primaryKey(userID, s3Key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get dataset %s/%s: %w", userID, s3Key, err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("dataset %s/%s: %w", userID, s3Key, apperr.ErrNotFound)
	}
	var ds model.Dataset
	if err := attributevalue.UnmarshalMap(out.Item, &ds); err != nil {
		return nil, fmt.Errorf("unmarshal dataset: %w", err)
	}
	return &ds, nil
}

// GetByTableID resolves a record through the tableId-index GSI.
func (s *Store) GetByTableID(ctx context.Context, tableID string) (*model.Dataset, error) {
	keyCond := expression.KeyEqual(expression.Key("tableId"), expression.Value(tableID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build tableId query: %w", err)
	}
	out, err := s.db.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		IndexName:                 aws.String(model.TableIDIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("query tableId %s: %w", tableID, err)
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("dataset %s: %w", tableID, apperr.ErrNotFound)
	}
	var ds model.Dataset
	if err := attributevalue.UnmarshalMap(out.Items[0], &ds); err != nil {
		return nil, fmt.Errorf("unmarshal dataset: %w", err)
	}
	return &ds, nil
}

// ListByOwner returns every record in the owner's partition. An owner with
// no datasets yields an empty slice, not an error.
func (s *Store) ListByOwner(ctx context.Context, userID string) ([]model.Dataset, error) {
	keyCond := expression.KeyEqual(expression.Key("userId"), expression.Value(userID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build owner query: %w", err)
	}

	var datasets []model.Dataset
	var cursor map[string]types.AttributeValue
	for {
		out, err := s.db.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.table),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("query datasets for %s: %w", userID, err)
		}
		var page []model.Dataset
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal datasets: %w", err)
		}
		datasets = append(datasets, page...)
		if out.LastEvaluatedKey == nil {
			return datasets, nil
		}
		cursor = out.LastEvaluatedKey
	}
}

// ListShared scans for every record with status=shared, across all owners.
// Status is mutable and not key material, so this stays a filtered scan;
// the synchronizer's full-rebuild policy tolerates its eventual consistency.
func (s *Store) ListShared(ctx context.Context) ([]model.Dataset, error) {
	filter := expression.Equal(expression.Name("status"), expression.Value(model.StatusShared))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("build shared filter: %w", err)
	}

	var datasets []model.Dataset
	var cursor map[string]types.AttributeValue
	for {
		out, err := s.db.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(s.table),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("scan shared datasets: %w", err)
		}
		var page []model.Dataset
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal datasets: %w", err)
		}
		datasets = append(datasets, page...)
		if out.LastEvaluatedKey == nil {
			return datasets, nil
		}
		cursor = out.LastEvaluatedKey
	}
}

// UpdateStatus sets the record's status. The update is conditional on the
// record existing; a missing record maps to ErrNotFound.
func (s *Store) UpdateStatus(ctx context.Context, userID, s3Key, status string) error {
	return s.update(ctx, userID, s3Key,
		expression.Set(expression.Name("status"), expression.Value(status)))
}

// SetSnippet persists the generated notebook snippet onto the record.
func (s *Store) SetSnippet(ctx context.Context, userID, s3Key, snippet string) error {
	return s.update(ctx, userID, s3Key,
		expression.Set(expression.Name("notebookSnippet"), expression.Value(snippet)))
}

func (s *Store) update(ctx context.Context, userID, s3Key string, update expression.UpdateBuilder) error {
	cond := expression.AttributeExists(expression.Name("tableId"))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	_, err = s.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       primaryKey(userID, s3Key),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("dataset %s/%s: %w", userID, s3Key, apperr.ErrNotFound)
		}
		return fmt.Errorf("update dataset %s/%s: %w", userID, s3Key, err)
	}
	return nil
}

func primaryKey(userID, s3Key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
		"s3Key":  &types.AttributeValueMemberS{Value: s3Key},
	}
}
