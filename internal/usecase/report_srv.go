package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"bank-backoffice/internal/data/repository"
	"bank-backoffice/internal/data/storage"
	"bank-backoffice/internal/dto/request"
	"bank-backoffice/internal/dto/response"
	"bank-backoffice/internal/task"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const reportBatchSize = 500

type TaskEnqueuer interface {
	Enqueue(ctx context.Context, taskType string, payload any) (string, error)
}

// ReportService exports the locked-account list. Requests are queued and the
// worker builds the CSV and stores it under reports/.
type ReportService interface {
	RequestLockedAccountsReport(ctx context.Context, requestedBy uuid.UUID, req *request.LockedAccountsReportRequest) (*response.TaskResponse, error)
	GenerateLockedAccountsReport(ctx context.Context, payload task.ReportPayload) (string, error)
	HandleTask(ctx context.Context, t *task.Task) error
}

type reportService struct {
	security repository.SecurityRepository
	storage  storage.ObjectStorage
	queue    TaskEnqueuer
	log      *zap.Logger
}

func NewReportService(
	security repository.SecurityRepository,
	storage storage.ObjectStorage,
	queue TaskEnqueuer,
	log *zap.Logger,
) ReportService {
	return &reportService{
		security: security,
		storage:  storage,
		queue:    queue,
		log:      log.With(zap.String("service", "report")),
	}
}

func (s *reportService) RequestLockedAccountsReport(ctx context.Context, requestedBy uuid.UUID, req *request.LockedAccountsReportRequest) (*response.TaskResponse, error) {
	id, err := s.queue.Enqueue(ctx, task.TypeReportLockedAccounts, task.ReportPayload{
		RequestedBy: requestedBy.String(),
		Limit:       req.Limit,
	})
	if err != nil {
		s.log.Error("Failed to queue report", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	s.log.Info("Locked accounts report queued",
		zap.String("task_id", id),
		zap.String("requested_by", requestedBy.String()),
	)

	return &response.TaskResponse{TaskID: id, Type: task.TypeReportLockedAccounts}, nil
}

// GenerateLockedAccountsReport writes every locked account (up to
// payload.Limit when set) as CSV and returns the stored object location.
func (s *reportService) GenerateLockedAccountsReport(ctx context.Context, payload task.ReportPayload) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"user_id", "username", "email", "full_name", "login_attempts", "last_failed_login"}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write report header: %w", err)
	}

	rows := 0
	for offset := 0; ; offset += reportBatchSize {
		batch := reportBatchSize
		if payload.Limit > 0 && payload.Limit-rows < batch {
			batch = payload.Limit - rows
		}
		if batch <= 0 {
			break
		}

		users, err := s.security.FindLocked(ctx, batch, offset)
		if err != nil {
			return "", fmt.Errorf("load locked accounts: %w", err)
		}

		for _, u := range users {
			lastFailed := ""
			if u.Security.LastFailedLogin != nil {
				lastFailed = u.Security.LastFailedLogin.UTC().Format(time.RFC3339)
			}
			record := []string{
				u.ID.String(),
				u.Username,
				u.Email,
				u.FullName(),
				strconv.Itoa(u.Security.LoginAttempts),
				lastFailed,
			}
			if err := w.Write(record); err != nil {
				return "", fmt.Errorf("write report row: %w", err)
			}
		}
		rows += len(users)

		if len(users) < batch {
			break
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush report: %w", err)
	}

	objectName := fmt.Sprintf("reports/%s.csv", uuid.NewString())
	location, err := s.storage.Upload(ctx, objectName, "text/csv", bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		return "", err
	}

	s.log.Info("Locked accounts report stored",
		zap.String("location", location),
		zap.Int("rows", rows),
		zap.String("requested_by", payload.RequestedBy),
	)

	return location, nil
}

func (s *reportService) HandleTask(ctx context.Context, t *task.Task) error {
	var payload task.ReportPayload
	if err := t.Decode(&payload); err != nil {
		return task.Permanent(err)
	}
	_, err := s.GenerateLockedAccountsReport(ctx, payload)
	return err
}
