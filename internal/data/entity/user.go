package entity

import "time"

type UserRole string

const (
	RoleCustomer         UserRole = "customer"
	RoleAccountExecutive UserRole = "account_executive"
	RoleTeller           UserRole = "teller"
	RoleBranchManager    UserRole = "branch_manager"
)

type SecurityQuestion string

const (
	QuestionFavoriteColor   SecurityQuestion = "favorite_color"
	QuestionFavoriteCity    SecurityQuestion = "favorite_city"
	QuestionChildhoodFriend SecurityQuestion = "childhood_friend"
)

// Prompt returns the text shown to the user for q.
func (q SecurityQuestion) Prompt() string {
	switch q {
	case QuestionFavoriteColor:
		return "What is your favorite color?"
	case QuestionFavoriteCity:
		return "What is your favorite city?"
	case QuestionChildhoodFriend:
		return "What is your childhood friend name?"
	default:
		return ""
	}
}

type AccountStatus string

const (
	StatusActive AccountStatus = "active"
	StatusLocked AccountStatus = "locked"
)

type User struct {
	Base
	Credentials
	Profile
	Security SecurityState
}

type Credentials struct {
	Username     string `db:"username"`
	Email        string `db:"email"`
	PasswordHash string `db:"password"`
	IsActive     bool   `db:"is_active"`
}

type Profile struct {
	FirstName  string   `db:"first_name"`
	MiddleName *string  `db:"middle_name"`
	LastName   string   `db:"last_name"`
	IDNumber   string   `db:"id_number"`
	Role       UserRole `db:"role"`
}

// FullName joins the non-empty name parts.
func (p Profile) FullName() string {
	name := p.FirstName
	if p.MiddleName != nil && *p.MiddleName != "" {
		name += " " + *p.MiddleName
	}
	if p.LastName != "" {
		name += " " + p.LastName
	}
	return name
}

// SecurityState is the part of the user row mutated by authentication
// attempts. OTPHash and OTPExpiry are always set or cleared together.
type SecurityState struct {
	OTPHash            string           `db:"otp_hash"`
	OTPExpiry          *time.Time       `db:"otp_expiry"`
	OTPAttempts        int              `db:"otp_attempts"`
	LoginAttempts      int              `db:"login_attempts"`
	LastFailedLogin    *time.Time       `db:"last_failed_login"`
	AccountStatus      AccountStatus    `db:"account_status"`
	SecurityQuestion   SecurityQuestion `db:"security_question"`
	SecurityAnswerHash string           `db:"security_answer"`
}

// HasPendingOTP reports whether an OTP was issued and not yet cleared.
func (s *SecurityState) HasPendingOTP() bool {
	return s.OTPExpiry != nil
}

func (s *SecurityState) ClearOTP() {
	s.OTPHash = ""
	s.OTPExpiry = nil
	s.OTPAttempts = 0
}
