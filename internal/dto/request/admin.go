package request

// LockedAccountsReportRequest narrows the exported report. A zero Limit
// exports every locked account.
type LockedAccountsReportRequest struct {
	Limit int `json:"limit" validate:"min=0,max=100000"`
}
