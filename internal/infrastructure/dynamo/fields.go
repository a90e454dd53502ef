package dynamo

// Attribute names used in update and condition expressions.
const (
	fieldUserID             = "user_id"
	fieldEmail              = "email"
	fieldPurpose            = "purpose"
	fieldPoints             = "points"
	fieldTotalContributions = "total_contributions"
	fieldLastSubmitAt       = "last_submit_at"
	fieldLastLogin          = "last_login"
	fieldPasswordHash       = "password_hash"
	fieldUpdatedAt          = "updated_at"
	fieldVerified           = "verified"
	fieldReportID           = "report_id"
	fieldLocation           = "location"
	fieldCreatedAt          = "created_at"
	fieldRedemptionID       = "redemption_id"
	fieldRedeemedAt         = "redeemed_at"
)

const (
	indexLocationCreatedAt = "location-created_at-index"
	indexUserRedeemedAt    = "user_id-redeemed_at-index"
)
