package notify

import (
	"context"
	"fmt"

	"bank-backoffice/internal/task"
	"bank-backoffice/internal/usecase"
)

type enqueuer interface {
	Enqueue(ctx context.Context, taskType string, payload any) (string, error)
}

// TaskNotifier queues notices for the worker instead of sending them inline.
type TaskNotifier struct {
	queue enqueuer
}

func NewTaskNotifier(queue *task.Queue) *TaskNotifier {
	return &TaskNotifier{queue: queue}
}

func (n *TaskNotifier) NotifyLockout(ctx context.Context, notice usecase.LockoutNotice) error {
	_, err := n.queue.Enqueue(ctx, task.TypeEmailAccountLocked, task.AccountLockedPayload{
		UserID:     notice.UserID.String(),
		Email:      notice.Email,
		FullName:   notice.FullName,
		Attempts:   notice.Attempts,
		Locked:     notice.Locked,
		OccurredAt: notice.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("queue lockout notice: %w", err)
	}
	return nil
}

func (n *TaskNotifier) SendOTP(ctx context.Context, otp *usecase.IssuedOTP) error {
	_, err := n.queue.Enqueue(ctx, task.TypeEmailOTP, task.EmailOTPPayload{
		Email:     otp.User.Email,
		FullName:  otp.User.FullName(),
		Code:      otp.Code,
		ExpiresAt: otp.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("queue otp email: %w", err)
	}
	return nil
}
