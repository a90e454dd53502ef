package domain

import (
	"fmt"
	"time"
)

// QRPrefix starts every redemption QR payload.
const QRPrefix = "LIBOCCULUS"

// RedemptionLifetime is how long a redemption code stays valid for display.
const RedemptionLifetime = 7 * 24 * time.Hour

// Reward is a static catalog entry.
type Reward struct {
	RewardID  string `json:"id" yaml:"id" dynamodbav:"reward_id"`
	Name      string `json:"name" yaml:"name" dynamodbav:"name"`
	PointCost int    `json:"point_cost" yaml:"point_cost" dynamodbav:"point_cost"`
	Venue     string `json:"venue" yaml:"venue" dynamodbav:"venue"`
	Icon      string `json:"icon" yaml:"icon" dynamodbav:"icon"`
	Available bool   `json:"available" yaml:"available" dynamodbav:"available"`
}

// Redemption is a reward claimed with points. Used and ExpiresAt are advisory;
// staff verify the code visually.
type Redemption struct {
	RedemptionID string    `json:"id" dynamodbav:"redemption_id"`
	UserID       string    `json:"user_id" dynamodbav:"user_id"`
	Code         string    `json:"code" dynamodbav:"code"`
	Reward       Reward    `json:"reward" dynamodbav:"reward"`
	RedeemedAt   time.Time `json:"redeemed_at" dynamodbav:"redeemed_at"`
	ExpiresAt    time.Time `json:"expires_at" dynamodbav:"expires_at"`
	Used         bool      `json:"used" dynamodbav:"used"`
}

// QRPayload is the string encoded into the scannable code.
func (r *Redemption) QRPayload() string {
	return fmt.Sprintf("%s:%s:%s", QRPrefix, r.Code, r.RedemptionID)
}
