package domain

// Session is the caller's view of their account, read fresh from the store
// after every mutation. Clients cache it but never write it back.
type Session struct {
	User                *User `json:"user"`
	Points              int   `json:"points"`
	TotalContributions  int   `json:"total_contributions"`
	LastSubmitAt        int64 `json:"last_submit_at,omitempty"`
	CanSubmit           bool  `json:"can_submit"`
	NextSubmitInMinutes int   `json:"next_submit_in_minutes,omitempty"`
}
