package wire

import (
	"bank-backoffice/internal/adaptor"
	"bank-backoffice/internal/data/entity"
	"bank-backoffice/internal/data/repository"
	"bank-backoffice/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireAdmin configures the branch manager routes
func wireAdmin(
	r chi.Router,
	adminHandler *adaptor.AdminHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	r.With(
		middleware.AuthSession(repo.Session, repo.User, log),  // Check valid session
		middleware.RequireRole(log, entity.RoleBranchManager), // Check role
	).Route("/api/admin", func(r chi.Router) {
		r.Get("/users/locked", adminHandler.ListLocked)                       // GET /api/admin/users/locked?page=1&per_page=10
		r.Post("/users/{id}/unlock", adminHandler.Unlock)                     // POST /api/admin/users/{user-id}/unlock
		r.Post("/reports/locked-accounts", adminHandler.LockedAccountsReport) // POST /api/admin/reports/locked-accounts
	})
}
