// main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"bank-backoffice/cmd"
	"bank-backoffice/internal/data/repository"
	"bank-backoffice/internal/data/storage"
	"bank-backoffice/internal/notify"
	"bank-backoffice/internal/security"
	"bank-backoffice/internal/task"
	"bank-backoffice/internal/usecase"
	"bank-backoffice/internal/wire"
	"bank-backoffice/pkg/database"
	"bank-backoffice/pkg/secret"
	"bank-backoffice/pkg/utils"

	"go.uber.org/zap"
)

const usage = "usage: bank-backoffice [server|worker]"

func main() {
	mode := "server"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}
	if mode != "server" && mode != "worker" {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	// Load config
	config, err := utils.LoadConfig(".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("mode", mode),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
		zap.String("lockout_check_mode", config.Security.LockoutCheckMode),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Database connected successfully")

	// Connect to task broker
	rdb, err := database.InitRedis(config.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()
	logger.Info("Redis connected successfully")

	// Object storage for reports
	minioClient, err := storage.NewClient(config.Storage)
	if err != nil {
		logger.Fatal("Failed to create storage client", zap.Error(err))
	}

	hasher, err := secret.NewArgon2(secret.Params{
		Memory:      config.Security.Argon2Memory,
		Time:        config.Security.Argon2Time,
		Parallelism: config.Security.Argon2Parallelism,
		SaltLength:  secret.DefaultParams().SaltLength,
		KeyLength:   secret.DefaultParams().KeyLength,
	})
	if err != nil {
		logger.Fatal("Invalid hasher parameters", zap.Error(err))
	}

	policy, err := securityPolicy(config.Security)
	if err != nil {
		logger.Fatal("Invalid security policy", zap.Error(err))
	}
	warnLockoutMode(logger, policy)

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)
	queue := task.NewQueue(rdb, config.Redis.Queue)
	notifier := notify.NewTaskNotifier(queue)

	deps := usecase.Deps{
		Engine:   security.NewEngine(policy, hasher),
		Hasher:   hasher,
		Notifier: notifier,
		Sender:   notifier,
		Storage:  storage.NewMinioStorage(minioClient, config.Storage.Bucket, logger),
		Queue:    queue,
	}

	// Wire all dependencies
	app := wire.Wiring(repos, deps, config, logger)

	switch mode {
	case "worker":
		if err := storage.EnsureBucket(ctx, minioClient, config.Storage.Bucket); err != nil {
			logger.Fatal("Failed to prepare storage bucket", zap.Error(err))
		}

		worker := task.NewWorker(queue, logger)
		notify.NewEmailHandlers(
			notify.NewSMTPMailer(config.Email),
			config.Email.SiteName,
			policy.LockoutDuration,
			logger,
		).Register(worker)
		worker.Handle(task.TypeReportLockedAccounts, app.Service.Report.HandleTask)

		if err := cmd.Worker(ctx, worker, repos.Session, config.Worker.Concurrency, logger); err != nil {
			logger.Fatal("Worker stopped with error", zap.Error(err))
		}

	default:
		logger.Info("Starting HTTP server", zap.String("port", config.App.Port))
		if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
			logger.Fatal("Server stopped with error", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
}

func securityPolicy(config utils.SecurityConfig) (security.Policy, error) {
	mode, err := security.ParseLockoutCheckMode(config.LockoutCheckMode)
	if err != nil {
		return security.Policy{}, err
	}

	policy := security.Policy{
		OTPLifetime:        config.OTPLifetime,
		MaxOTPAttempts:     config.MaxOTPAttempts,
		MaxLoginAttempts:   config.MaxLoginAttempts,
		LockoutDuration:    config.LockoutDuration,
		LockoutCheck:       mode,
		NotifyEveryFailure: config.NotifyEveryFailure,
	}
	return policy, policy.Validate()
}

// warnLockoutMode flags the literal lockout check, which refuses login for
// every account that never failed one.
func warnLockoutMode(logger *zap.Logger, policy security.Policy) {
	if policy.LockoutCheck != security.CheckLiteral {
		return
	}
	logger.Warn("LOCKOUT_CHECK_MODE=literal: accounts without a recent failed login are reported locked and cannot log in; set LOCKOUT_CHECK_MODE=intended to lock only accounts that reached the failure limit",
		zap.Int("max_login_attempts", policy.MaxLoginAttempts),
		zap.Duration("lockout_duration", policy.LockoutDuration),
	)
}
