package domain

// Identity maps an email to the stable user id used by profiles.
// PK: email.
type Identity struct {
	Email     string `json:"email" dynamodbav:"email"`
	UserID    string `json:"user_id" dynamodbav:"user_id"`
	CreatedAt int64  `json:"created_at" dynamodbav:"created_at"`
}
