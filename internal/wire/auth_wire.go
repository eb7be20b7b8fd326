package wire

import (
	"bank-backoffice/internal/adaptor"
	"bank-backoffice/internal/data/repository"
	"bank-backoffice/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAuth(
	r chi.Router,
	authHandler *adaptor.AuthHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	r.Post("/api/register", authHandler.Register)
	r.Post("/api/login", authHandler.Login)
	r.Post("/api/login/verify-otp", authHandler.VerifyLoginOTP)
	r.Post("/api/otp/resend", authHandler.ResendOTP)
	r.Get("/api/security-question", authHandler.SecurityQuestion)
	r.Post("/api/security-answer/verify", authHandler.VerifySecurityAnswer)

	// ==================== PROTECTED ROUTES ====================
	r.With(middleware.AuthSession(repo.Session, repo.User, log)).Group(func(r chi.Router) {
		r.Get("/api/me", authHandler.Me)
		r.Get("/api/me/parties", authHandler.Parties)
		r.Put("/api/me/security-answer", authHandler.SetSecurityAnswer)
		r.Post("/api/logout", authHandler.Logout)
	})
}
