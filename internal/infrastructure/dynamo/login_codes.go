package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-auth-code/internal/domain"
)

// LoginCodeRepo stores the active login code per email.
// PK: email. A Put replaces any previous code for the same email in one write.
type LoginCodeRepo struct {
	client    API
	tableName string
}

func NewLoginCodeRepo(client API, tableName string) *LoginCodeRepo {
	return &LoginCodeRepo{client: client, tableName: tableName}
}

// Put writes c, replacing the email's previous code atomically.
func (r *LoginCodeRepo) Put(ctx context.Context, c *domain.LoginCode) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal login code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// Get returns the active code for email using a strongly consistent read.
func (r *LoginCodeRepo) Get(ctx context.Context, email string) (*domain.LoginCode, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("login code not found: %w", domain.ErrNotFound)
	}
	var c domain.LoginCode
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Consume deletes the email's code only if it still carries codeHash.
// Returns domain.ErrConflict when the code was already replaced or consumed.
func (r *LoginCodeRepo) Consume(ctx context.Context, email, codeHash string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey(fieldEmail, email),
		ConditionExpression:      aws.String("#h = :h"),
		ExpressionAttributeNames: map[string]string{"#h": fieldCodeHash},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":h": &types.AttributeValueMemberS{Value: codeHash},
		},
	})
	if err != nil {
		return conditionFailed(err)
	}
	return nil
}
