package domain

import "time"

// UserProfile associates an identity with role flags and referral metadata.
// PK: user_id. Roles is the JSON encoding of a Roles value.
type UserProfile struct {
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	Email     string    `json:"email" dynamodbav:"email"`
	Roles     string    `json:"roles" dynamodbav:"roles"`
	Ref       string    `json:"ref,omitempty" dynamodbav:"ref,omitempty"`
	Version   int64     `json:"-" dynamodbav:"version"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}
