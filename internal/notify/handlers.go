package notify

import (
	"context"
	"time"

	"bank-backoffice/internal/task"

	"go.uber.org/zap"
)

// EmailHandlers renders and sends the queued email tasks.
type EmailHandlers struct {
	mailer          Mailer
	siteName        string
	lockoutDuration time.Duration
	log             *zap.Logger
}

func NewEmailHandlers(mailer Mailer, siteName string, lockoutDuration time.Duration, log *zap.Logger) *EmailHandlers {
	return &EmailHandlers{
		mailer:          mailer,
		siteName:        siteName,
		lockoutDuration: lockoutDuration,
		log:             log.With(zap.String("handler", "email")),
	}
}

// Register binds the email task types on w.
func (h *EmailHandlers) Register(w *task.Worker) {
	w.Handle(task.TypeEmailOTP, h.HandleOTP)
	w.Handle(task.TypeEmailAccountLocked, h.HandleAccountLocked)
}

func (h *EmailHandlers) HandleOTP(ctx context.Context, t *task.Task) error {
	var p task.EmailOTPPayload
	if err := t.Decode(&p); err != nil {
		return task.Permanent(err)
	}

	subject, body := otpEmail(h.siteName, p)
	if err := h.mailer.Send(ctx, p.Email, subject, body); err != nil {
		return err
	}

	h.log.Info("OTP email sent", zap.String("email", p.Email))
	return nil
}

func (h *EmailHandlers) HandleAccountLocked(ctx context.Context, t *task.Task) error {
	var p task.AccountLockedPayload
	if err := t.Decode(&p); err != nil {
		return task.Permanent(err)
	}

	subject, body := accountLockedEmail(h.siteName, h.lockoutDuration, p)
	if err := h.mailer.Send(ctx, p.Email, subject, body); err != nil {
		return err
	}

	h.log.Info("Lockout email sent",
		zap.String("user_id", p.UserID),
		zap.Bool("locked", p.Locked),
	)
	return nil
}
