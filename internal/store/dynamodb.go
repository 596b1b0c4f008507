package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBAPI defines the DynamoDB API surface required by the store.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// dynamoDBItem is the stored layout. Items written by earlier deployments hold
// a fractional expirationTime (milliseconds / 1000), so it is read as a float.
type dynamoDBItem struct {
	UserID         string  `dynamodbav:"userId"`
	AccessToken    string  `dynamodbav:"accessToken"`
	ExpirationTime float64 `dynamodbav:"expirationTime"`
}

// DynamoDB keeps one item per user in a table whose hash key is "userId".
type DynamoDB struct {
	client    DynamoDBAPI
	tableName string
}

func NewDynamoDB(client DynamoDBAPI, tableName string) *DynamoDB {
	return &DynamoDB{
		client:    client,
		tableName: tableName,
	}
}

func (d *DynamoDB) Get(ctx context.Context, userID string) (CachedToken, bool, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"userId": &types.AttributeValueMemberS{Value: userID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return CachedToken{}, false, unavailable(fmt.Errorf("dynamodb get failed: %w", err))
	}

	if len(out.Item) == 0 {
		return CachedToken{}, false, nil
	}

	var item dynamoDBItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return CachedToken{}, false, unavailable(fmt.Errorf("dynamodb item for user could not be read: %w", err))
	}

	return CachedToken{
		UserID:         item.UserID,
		AccessToken:    item.AccessToken,
		ExpirationTime: int64(item.ExpirationTime),
	}, true, nil
}

func (d *DynamoDB) Put(ctx context.Context, token CachedToken) error {
	item, err := attributevalue.MarshalMap(token)
	if err != nil {
		return unavailable(fmt.Errorf("dynamodb item could not be created: %w", err))
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	})
	if err != nil {
		return unavailable(fmt.Errorf("dynamodb put failed: %w", err))
	}

	return nil
}

// Close is a no-op: the SDK client holds no resources that need releasing.
func (d *DynamoDB) Close() error {
	return nil
}
