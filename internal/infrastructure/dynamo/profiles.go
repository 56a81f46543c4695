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

// ProfileRepo provides typed DynamoDB operations for the user_profiles table.
// PK: user_id, so there is at most one profile per user by construction.
type ProfileRepo struct {
	client    API
	tableName string
}

func NewProfileRepo(client API, tableName string) *ProfileRepo {
	return &ProfileRepo{client: client, tableName: tableName}
}

func (r *ProfileRepo) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldUserID, userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("profile not found: %w", domain.ErrNotFound)
	}
	var p domain.UserProfile
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert creates or updates the profile in a single UpdateItem. Email and roles
// are always written; ref only when non-empty. created_at is set on first write.
func (r *ProfileRepo) Upsert(ctx context.Context, p *domain.UserProfile) (*domain.UserProfile, error) {
	updates := map[string]interface{}{
		fieldEmail:     p.Email,
		fieldRoles:     p.Roles,
		fieldUpdatedAt: p.UpdatedAt,
	}
	if p.Ref != "" {
		updates[fieldRef] = p.Ref
	}
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return nil, err
	}
	createdAt, err := attributevalue.Marshal(p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("marshal created_at: %w", err)
	}
	ue.Expr += ", #cat = if_not_exists(#cat, :cat), #ver = if_not_exists(#ver, :zero) + :one"
	ue.Names["#cat"] = fieldCreatedAt
	ue.Names["#ver"] = fieldVersion
	ue.Values[":cat"] = createdAt
	ue.Values[":zero"] = &types.AttributeValueMemberN{Value: "0"}
	ue.Values[":one"] = &types.AttributeValueMemberN{Value: "1"}

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldUserID, p.UserID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, err
	}
	var saved domain.UserProfile
	if err := attributevalue.UnmarshalMap(out.Attributes, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// PutVersioned writes the whole profile if the stored version still equals
// expected (0 means the profile must not exist yet). On success p.Version is
// expected+1. A lost race returns domain.ErrConflict.
func (r *ProfileRepo) PutVersioned(ctx context.Context, p *domain.UserProfile, expected int64) error {
	p.Version = expected + 1
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		p.Version = expected
		return fmt.Errorf("marshal profile: %w", err)
	}
	in := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	}
	if expected == 0 {
		in.ConditionExpression = aws.String("attribute_not_exists(#id)")
		in.ExpressionAttributeNames = map[string]string{"#id": fieldUserID}
	} else {
		in.ConditionExpression = aws.String("#ver = :ev")
		in.ExpressionAttributeNames = map[string]string{"#ver": fieldVersion}
		in.ExpressionAttributeValues = map[string]types.AttributeValue{
			":ev": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expected)},
		}
	}
	if _, err := r.client.PutItem(ctx, in); err != nil {
		p.Version = expected
		return conditionFailed(err)
	}
	return nil
}
