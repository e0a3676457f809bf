// Package dynamodb stores deployment records in an AWS DynamoDB table.
//
// The table must have a string partition key named "Name". Each record is a
// single item, written with one PutItem call.
package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/func/agentcore/record"
	"github.com/func/agentcore/storage"
	"github.com/pkg/errors"
)

// Item attribute names.
const (
	attrName        = "Name"
	attrARN         = "AgentARN"
	attrID          = "AgentID"
	attrArtifactRef = "ECRURI"
)

// API is the subset of the DynamoDB client used by the store.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoDB stores records in AWS DynamoDB.
type DynamoDB struct {
	Client    API
	TableName string
}

// New creates a new DynamoDB store.
func New(cfg aws.Config, tableName string) *DynamoDB {
	return &DynamoDB{
		Client:    dynamodb.NewFromConfig(cfg),
		TableName: tableName,
	}
}

// PutRecord replaces the record for a runtime.
func (d *DynamoDB) PutRecord(ctx context.Context, name string, rec *record.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	input := &dynamodb.PutItemInput{
		TableName: aws.String(d.TableName),
		Item: map[string]types.AttributeValue{
			attrName:        &types.AttributeValueMemberS{Value: name},
			attrARN:         &types.AttributeValueMemberS{Value: rec.ARN},
			attrID:          &types.AttributeValueMemberS{Value: rec.ID},
			attrArtifactRef: &types.AttributeValueMemberS{Value: rec.ArtifactRef},
		},
	}
	if _, err := d.Client.PutItem(ctx, input); err != nil {
		return errors.Wrap(err, "dynamodb put")
	}
	return nil
}

// GetRecord returns the record for a runtime, using a consistent read.
func (d *DynamoDB) GetRecord(ctx context.Context, name string) (*record.Record, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(d.TableName),
		Key: map[string]types.AttributeValue{
			attrName: &types.AttributeValueMemberS{Value: name},
		},
		ConsistentRead: aws.Bool(true),
	}
	resp, err := d.Client.GetItem(ctx, input)
	if err != nil {
		return nil, errors.Wrap(err, "dynamodb get")
	}
	if len(resp.Item) == 0 {
		return nil, storage.ErrNotFound
	}
	return decode(name, resp.Item)
}

// ListRecords scans the table, following pagination.
func (d *DynamoDB) ListRecords(ctx context.Context) (map[string]*record.Record, error) {
	out := make(map[string]*record.Record)
	input := &dynamodb.ScanInput{
		TableName:      aws.String(d.TableName),
		ConsistentRead: aws.Bool(true),
	}
	for {
		resp, err := d.Client.Scan(ctx, input)
		if err != nil {
			return nil, errors.Wrap(err, "dynamodb scan")
		}
		for _, item := range resp.Items {
			key, ok := item[attrName].(*types.AttributeValueMemberS)
			if !ok {
				return nil, errors.Errorf("item without %s", attrName)
			}
			rec, err := decode(key.Value, item)
			if err != nil {
				return nil, err
			}
			out[key.Value] = rec
		}
		if len(resp.LastEvaluatedKey) == 0 {
			return out, nil
		}
		input.ExclusiveStartKey = resp.LastEvaluatedKey
	}
}

func decode(name string, item map[string]types.AttributeValue) (*record.Record, error) {
	rec := &record.Record{}
	for attr, dst := range map[string]*string{
		attrARN:         &rec.ARN,
		attrID:          &rec.ID,
		attrArtifactRef: &rec.ArtifactRef,
	} {
		s, ok := item[attr].(*types.AttributeValueMemberS)
		if !ok {
			return nil, errors.Errorf("item %s: attribute %s is not a string", name, attr)
		}
		*dst = s.Value
	}
	if err := rec.Validate(); err != nil {
		return nil, errors.Wrapf(err, "item %s", name)
	}
	return rec, nil
}
