package booking

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoBlobStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type blobItem struct {
	Name string `dynamodbav:"name"`
	Data []byte `dynamodbav:"data"`
}

// DynamoBlobStore keeps the serialized booking collection in a single
// DynamoDB item keyed by blob name. Alternative backend for deployments
// without Redis.
type DynamoBlobStore struct {
	client DynamoAPI
	table  string
	name   string
}

// NewDynamoBlobStore creates a DynamoDB-backed blob store.
func NewDynamoBlobStore(client DynamoAPI, table, name string) *DynamoBlobStore {
	if client == nil {
		return nil
	}
	if name == "" {
		name = "consultation_bookings"
	}
	return &DynamoBlobStore{client: client, table: table, name: name}
}

// Read returns the stored blob or ErrBlobNotFound when no item exists.
func (s *DynamoBlobStore) Read(ctx context.Context) ([]byte, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"name": s.name})
	if err != nil {
		return nil, fmt.Errorf("booking: marshal dynamo key: %w", err)
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("booking: dynamo get %s: %w", s.name, err)
	}
	if len(out.Item) == 0 {
		return nil, ErrBlobNotFound
	}

	var item blobItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("booking: unmarshal dynamo item: %w", err)
	}
	return item.Data, nil
}

// Write replaces the stored blob wholesale.
func (s *DynamoBlobStore) Write(ctx context.Context, data []byte) error {
	item, err := attributevalue.MarshalMap(blobItem{Name: s.name, Data: data})
	if err != nil {
		return fmt.Errorf("booking: marshal dynamo item: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("booking: dynamo put %s: %w", s.name, err)
	}
	return nil
}

var _ BlobStore = (*DynamoBlobStore)(nil)
