package response

import (
	"time"

	"bank-backoffice/internal/data/entity"
)

type LockedAccountResponse struct {
	UserID          string     `json:"user_id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	FullName        string     `json:"full_name"`
	LoginAttempts   int        `json:"login_attempts"`
	LastFailedLogin *time.Time `json:"last_failed_login"`
}

func LockedAccountToResponse(user *entity.User) LockedAccountResponse {
	return LockedAccountResponse{
		UserID:          user.ID.String(),
		Username:        user.Username,
		Email:           user.Email,
		FullName:        user.FullName(),
		LoginAttempts:   user.Security.LoginAttempts,
		LastFailedLogin: user.Security.LastFailedLogin,
	}
}

type UnlockResponse struct {
	UserID   string `json:"user_id"`
	Unlocked bool   `json:"unlocked"`
}

type TaskResponse struct {
	TaskID string `json:"task_id"`
	Type   string `json:"type"`
}
