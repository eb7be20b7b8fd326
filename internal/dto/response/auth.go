package response

import (
	"time"

	"bank-backoffice/internal/data/entity"
)

type AuthResponse struct {
	UserID    string          `json:"user_id"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Email     string          `json:"email"`
	Username  string          `json:"username"`
	Role      entity.UserRole `json:"role"`
}

// OTPChallengeResponse is returned once the password step passed and an OTP
// was sent to the user's email.
type OTPChallengeResponse struct {
	Email        string    `json:"email"`
	OTPExpiresAt time.Time `json:"otp_expires_at"`
}

type SecurityQuestionResponse struct {
	Question string `json:"question"`
	Prompt   string `json:"prompt"`
}

type UserResponse struct {
	ID               string                  `json:"id"`
	Username         string                  `json:"username"`
	Email            string                  `json:"email"`
	FullName         string                  `json:"full_name"`
	IDNumber         string                  `json:"id_number"`
	Role             entity.UserRole         `json:"role"`
	AccountStatus    entity.AccountStatus    `json:"account_status"`
	SecurityQuestion entity.SecurityQuestion `json:"security_question"`
	CreatedAt        time.Time               `json:"created_at"`
}

func UserToResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:               user.ID.String(),
		Username:         user.Username,
		Email:            user.Email,
		FullName:         user.FullName(),
		IDNumber:         user.IDNumber,
		Role:             user.Role,
		AccountStatus:    user.Security.AccountStatus,
		SecurityQuestion: user.Security.SecurityQuestion,
		CreatedAt:        user.CreatedAt,
	}
}

func AuthToResponse(user *entity.User, session *entity.Session) AuthResponse {
	resp := AuthResponse{
		UserID:   user.ID.String(),
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role,
	}

	if session != nil {
		resp.Token = session.Token.String()
		resp.ExpiresAt = session.ExpiresAt
	}

	return resp
}
