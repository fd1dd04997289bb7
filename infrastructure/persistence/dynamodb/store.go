// Package dynamodb stores SubScout data in a single DynamoDB table.
//
// Every entity lives under its own partition (APP#id, SUBREDDIT#id, ...)
// with SK METADATA. Two sparse indexes serve the listings: GSI1 groups
// children under their app and GSI2 groups everything under its user.
// Index sort keys start with the entity kind and end with a fixed-width
// UTC timestamp so range queries come back in creation order.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"subscout/application/ports"
	pkgerrors "subscout/pkg/errors"
)

const (
	metadataSK = "METADATA"
	gsi1       = "GSI1"
	gsi2       = "GSI2"

	// maxTransactItems is the TransactWriteItems limit
	maxTransactItems = 100
)

// sortTimeLayout keeps timestamps the same width so they sort lexically
const sortTimeLayout = "2006-01-02T15:04:05.000000000Z"

// API is the part of the DynamoDB client the store uses
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Keys are the table and index keys carried by every item
type Keys struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK,omitempty"`
	GSI1SK     string `dynamodbav:"GSI1SK,omitempty"`
	GSI2PK     string `dynamodbav:"GSI2PK,omitempty"`
	GSI2SK     string `dynamodbav:"GSI2SK,omitempty"`
	EntityType string `dynamodbav:"EntityType"`
}

type table struct {
	client API
	name   string
	logger *zap.Logger
}

// NewStore returns the repositories backed by tableName
func NewStore(client API, tableName string, logger *zap.Logger) ports.Store {
	t := &table{client: client, name: tableName, logger: logger}
	return ports.Store{
		Users:      &userRepo{t},
		Apps:       &appRepo{t},
		Subreddits: &subredditRepo{t},
		Insights:   &insightRepo{t},
		Posts:      &postRepo{t},
		Activities: &activityRepo{t},
		Health:     t,
	}
}

// Ping reports whether the table is reachable
func (t *table) Ping(ctx context.Context) error {
	_, err := t.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(t.name)})
	return err
}

func entityPK(kind, id string) string { return kind + "#" + id }

func userPK(userID string) string { return entityPK("USER", userID) }

func sortKey(kind string, at time.Time, id string) string {
	return fmt.Sprintf("%s#%s#%s", kind, at.UTC().Format(sortTimeLayout), id)
}

func primaryKey(pk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: metadataSK},
	}
}

func isConditionFailure(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// cancelledByCondition reports whether a transaction failed because the
// condition on item index failed
func cancelledByCondition(err error, index int) bool {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) || index >= len(tce.CancellationReasons) {
		return false
	}
	return aws.ToString(tce.CancellationReasons[index].Code) == "ConditionalCheckFailed"
}

func notFoundIfMissing(item map[string]types.AttributeValue, resource string) error {
	if len(item) == 0 {
		return pkgerrors.NewNotFoundError(resource)
	}
	return nil
}
