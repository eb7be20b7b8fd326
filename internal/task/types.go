package task

import "time"

const (
	TypeEmailOTP             = "email:otp"
	TypeEmailAccountLocked   = "email:account_locked"
	TypeReportLockedAccounts = "report:locked_accounts"
)

type EmailOTPPayload struct {
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AccountLockedPayload struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	Attempts   int       `json:"attempts"`
	Locked     bool      `json:"locked"`
	OccurredAt time.Time `json:"occurred_at"`
}

type ReportPayload struct {
	RequestedBy string `json:"requested_by"`
	Limit       int    `json:"limit"`
}
