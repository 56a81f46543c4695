package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-auth-code/internal/domain"
)

// IdentityRepo maps emails to user ids.
// PK: email.
type IdentityRepo struct {
	client    API
	tableName string
}

func NewIdentityRepo(client API, tableName string) *IdentityRepo {
	return &IdentityRepo{client: client, tableName: tableName}
}

func (r *IdentityRepo) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("identity not found: %w", domain.ErrNotFound)
	}
	var id domain.Identity
	if err := attributevalue.UnmarshalMap(out.Item, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// Create inserts id unless an identity already exists for its email,
// in which case it returns domain.ErrConflict.
func (r *IdentityRepo) Create(ctx context.Context, id *domain.Identity) error {
	item, err := attributevalue.MarshalMap(id)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#e)"),
		ExpressionAttributeNames: map[string]string{"#e": fieldEmail},
	})
	if err != nil {
		return conditionFailed(err)
	}
	return nil
}
