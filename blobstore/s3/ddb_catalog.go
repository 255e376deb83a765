package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/sparserow/blobstore"
)

// DDBCatalog implements blobstore.Catalog with DynamoDB conditional writes,
// so several writers publishing to the same base URI never lose a version.
//
// Table schema:
//   - Partition key: base_uri (string), the S3 prefix the snapshots live under
//   - Sort key: version (number), monotonically increasing
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name sparserow-snapshots \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCatalog struct {
	client    DDBClient
	tableName string
	baseURI   string
}

var _ blobstore.Catalog = (*DDBCatalog)(nil)

// DDBClient is the subset of the DynamoDB API used by DDBCatalog.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// NewDDBCatalog creates a catalog. baseURI, for example
// "s3://bucket/prefix", is the partition key of every version.
func NewDDBCatalog(client DDBClient, tableName, baseURI string) *DDBCatalog {
	return &DDBCatalog{
		client:    client,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

// NewDDBCatalogFromConfig creates a catalog with a client built from cfg.
func NewDDBCatalogFromConfig(cfg aws.Config, tableName, baseURI string) *DDBCatalog {
	return NewDDBCatalog(dynamodb.NewFromConfig(cfg), tableName, baseURI)
}

// Latest queries the newest committed version.
func (c *DDBCatalog) Latest(ctx context.Context) (uint64, string, error) {
	resp, err := c.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: c.baseURI},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("query dynamodb: %w", err)
	}

	if len(resp.Items) == 0 {
		return 0, "", blobstore.ErrNoSnapshot
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("invalid version attribute in dynamodb")
	}
	nameAttr, ok := item["snapshot"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("invalid snapshot attribute in dynamodb")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("parse version: %w", err)
	}

	return version, nameAttr.Value, nil
}

// Commit writes the next version. A writer that loses the race gets
// blobstore.ErrConcurrentCommit and may retry.
func (c *DDBCatalog) Commit(ctx context.Context, name string) (uint64, error) {
	current, _, err := c.Latest(ctx)
	if err != nil && !errors.Is(err, blobstore.ErrNoSnapshot) {
		return 0, err
	}

	next := current + 1

	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: c.baseURI},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(next, 10)},
			"snapshot": &types.AttributeValueMemberS{Value: name},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, blobstore.ErrConcurrentCommit
		}
		return 0, fmt.Errorf("commit version to dynamodb: %w", err)
	}

	return next, nil
}
