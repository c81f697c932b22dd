package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/servicehub/servicehub-api/internal/domain"
)

// OtpRepo manages outstanding one-time passcodes.
// PK: otp_id (ULID). GSI identifier-index: identifier HASH, otp_id RANGE,
// so a descending query returns the newest code first.
type OtpRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOtpRepo(client *dynamodb.Client, tableName string) *OtpRepo {
	return &OtpRepo{client: client, tableName: tableName}
}

func (r *OtpRepo) Put(ctx context.Context, o *domain.OtpRecord) error {
	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// ListUnused returns all unused records for an identifier, newest first.
// Expiry is intentionally not filtered here — the engine checks it against
// its own clock so an expired-but-present row fails verification.
func (r *OtpRepo) ListUnused(ctx context.Context, identifier string) ([]domain.OtpRecord, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("identifier-index"),
		KeyConditionExpression: aws.String("#id = :id"),
		FilterExpression:       aws.String("#u = :f"),
		ExpressionAttributeNames: map[string]string{
			"#id": "identifier",
			"#u":  "used",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: identifier},
			":f":  &types.AttributeValueMemberBOOL{Value: false},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	var records []domain.OtpRecord
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Consume flips used from false to true as a single conditional update.
// Returns false when the record was already consumed by a concurrent caller,
// which guarantees at most one success per code.
func (r *OtpRepo) Consume(ctx context.Context, otpID string) (bool, error) {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("otp_id", otpID),
		UpdateExpression:    aws.String("SET #u = :t"),
		ConditionExpression: aws.String("#u = :f"),
		ExpressionAttributeNames: map[string]string{
			"#u": "used",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DeleteExpired removes every record whose expires_at has passed. The table's
// TTL does the same server-side; this keeps local/LocalStack deployments tidy.
func (r *OtpRepo) DeleteExpired(ctx context.Context, now int64) (int, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:            aws.String(r.tableName),
		FilterExpression:     aws.String("expires_at < :now"),
		ProjectionExpression: aws.String("otp_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now)},
		},
	})
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, item := range out.Items {
		id, ok := item["otp_id"].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key:       strKey("otp_id", id.Value),
		}); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}
