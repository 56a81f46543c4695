package dynamo

// DynamoDB attribute names used in key maps and expressions across all repos.
const (
	fieldEmail     = "email"
	fieldUserID    = "user_id"
	fieldCodeHash  = "code_hash"
	fieldRoles     = "roles"
	fieldRef       = "ref"
	fieldVersion   = "version"
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"
	fieldTTL       = "ttl"
)
