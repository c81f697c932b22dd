package domain

// OtpRecord is one outstanding passcode for a phone number or email.
// PK: otp_id (ULID, so creation-ordered), GSI: identifier-index (identifier HASH, otp_id RANGE).
// A new request does not invalidate prior records; several codes may be valid at once.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type OtpRecord struct {
	OtpID      string `json:"otp_id" dynamodbav:"otp_id"`
	Identifier string `json:"identifier" dynamodbav:"identifier"`
	Code       string `json:"code" dynamodbav:"code"`
	Used       bool   `json:"used" dynamodbav:"used"`
	CreatedAt  int64  `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt  int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}
