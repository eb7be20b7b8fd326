package usecase

import (
	"bank-backoffice/internal/data/repository"
	"bank-backoffice/internal/data/storage"
	"bank-backoffice/internal/security"
	"bank-backoffice/pkg/secret"
	"bank-backoffice/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth     AuthService
	Security SecurityService
	Report   ReportService
}

// Deps are the collaborators the services need besides the repositories.
type Deps struct {
	Engine   *security.Engine
	Hasher   secret.Hasher
	Notifier LockoutNotifier
	Sender   OTPSender
	Storage  storage.ObjectStorage
	Queue    TaskEnqueuer
}

func NewService(repo *repository.Repository, deps Deps, config *utils.Config, log *zap.Logger) *Service {
	sec := NewSecurityService(repo, deps.Engine, deps.Notifier, log)

	return &Service{
		Auth:     NewAuthService(repo, sec, deps.Hasher, deps.Sender, config, log),
		Security: sec,
		Report:   NewReportService(repo.Security, deps.Storage, deps.Queue, log),
	}
}
