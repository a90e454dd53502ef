package domain

import "time"

// User is the profile document. Points and contributions change only through
// submissions and redemptions; EmailVerified is the single source of truth for
// whether the account may sign in.
type User struct {
	UserID             string    `json:"id" dynamodbav:"user_id"`
	Email              string    `json:"email" dynamodbav:"email"`
	StudentID          string    `json:"student_id" dynamodbav:"student_id"`
	Points             int       `json:"points" dynamodbav:"points"`
	TotalContributions int       `json:"total_contributions" dynamodbav:"total_contributions"`
	EmailVerified      bool      `json:"email_verified" dynamodbav:"email_verified"`
	LastSubmitAt       int64     `json:"last_submit_at,omitempty" dynamodbav:"last_submit_at,omitempty"` // unix millis
	CreatedAt          time.Time `json:"created" dynamodbav:"created_at"`
	LastLogin          time.Time `json:"last_login" dynamodbav:"last_login"`
}

// LastSubmit returns the last submission time, or the zero time if none.
func (u *User) LastSubmit() time.Time {
	if u.LastSubmitAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(u.LastSubmitAt).UTC()
}

// Credential is an email/password pair held by the credential store.
type Credential struct {
	Email        string    `json:"email" dynamodbav:"email"`
	UserID       string    `json:"user_id" dynamodbav:"user_id"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}
