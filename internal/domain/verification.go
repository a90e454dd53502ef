package domain

import "time"

// OTP purposes. A record is keyed by (email, purpose); issuing a new code
// overwrites the previous one, so at most one code is outstanding per purpose.
const (
	OTPPurposeRegister = "register"
	OTPPurposeReset    = "reset"
)

// OTPRetention is how long an expired record is kept before the table TTL may
// remove it, so late verification attempts still see "expired".
const OTPRetention = 24 * time.Hour

// OTPRecord stores a one-time passcode.
// PK: email, SK: purpose. ExpiresAt ends validity; PurgeAt is the DynamoDB TTL.
type OTPRecord struct {
	Email     string `json:"email" dynamodbav:"email"`
	Purpose   string `json:"purpose" dynamodbav:"purpose"`
	Code      string `json:"code" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // Unix seconds
	PurgeAt   int64  `json:"purge_at" dynamodbav:"purge_at"`     // TTL (Unix seconds)
	Verified  bool   `json:"verified" dynamodbav:"verified"`
}
