package domain

// LoginCode is the single active one-time code issued for an email.
// PK: email. ExpiresAt and CreatedAt are Unix milliseconds; TTL is Unix
// seconds and drives DynamoDB expiry of abandoned codes.
type LoginCode struct {
	Email     string `json:"email" dynamodbav:"email"`
	CodeHash  string `json:"-" dynamodbav:"code_hash"`
	Role      string `json:"role" dynamodbav:"role"`
	Ref       string `json:"ref,omitempty" dynamodbav:"ref,omitempty"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"`
	CreatedAt int64  `json:"created_at" dynamodbav:"created_at"`
	TTL       int64  `json:"-" dynamodbav:"ttl"`
}

// Expired reports whether the code is past its expiry at nowMillis.
func (c *LoginCode) Expired(nowMillis int64) bool {
	return nowMillis > c.ExpiresAt
}
