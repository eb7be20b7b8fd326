package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"bank-backoffice/internal/data/entity"
	"bank-backoffice/internal/task"
	"bank-backoffice/internal/usecase"
	"bank-backoffice/pkg/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func newTask(t *testing.T, taskType string, payload any) *task.Task {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &task.Task{ID: uuid.NewString(), Type: taskType, Payload: raw}
}

func TestSMTPMailerBuildsMessage(t *testing.T) {
	m := NewSMTPMailer(utils.EmailConfig{
		Host:     "smtp.example.com",
		Port:     2525,
		User:     "mailer",
		Password: "secret",
		From:     "noreply@example.com",
	})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		if a == nil {
			t.Error("expected auth when credentials are set")
		}
		return nil
	}

	if err := m.Send(context.Background(), "ana@example.com", "Hello", "line one\nline two"); err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if gotAddr != "smtp.example.com:2525" || gotFrom != "noreply@example.com" {
		t.Fatalf("unexpected envelope addr=%s from=%s", gotAddr, gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "ana@example.com" {
		t.Fatalf("unexpected recipients %v", gotTo)
	}
	msg := string(gotMsg)
	for _, want := range []string{"Subject: Hello\r\n", "To: ana@example.com\r\n", "line one\r\nline two"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestSMTPMailerNotConfigured(t *testing.T) {
	m := NewSMTPMailer(utils.EmailConfig{})
	if err := m.Send(context.Background(), "a@example.com", "s", "b"); !errors.Is(err, ErrMailerNotConfigured) {
		t.Fatalf("expected ErrMailerNotConfigured, got %v", err)
	}
}

func TestHandleOTP(t *testing.T) {
	mailer := &fakeMailer{}
	h := NewEmailHandlers(mailer, "Back Office Bank", 24*time.Hour, zap.NewNop())

	err := h.HandleOTP(context.Background(), newTask(t, task.TypeEmailOTP, task.EmailOTPPayload{
		Email:     "ana@example.com",
		FullName:  "Ana Silva",
		Code:      "042917",
		ExpiresAt: time.Date(2026, 3, 1, 9, 2, 0, 0, time.UTC),
	}))
	if err != nil {
		t.Fatalf("HandleOTP error: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected one mail, got %d", len(mailer.sent))
	}
	mail := mailer.sent[0]
	if mail.to != "ana@example.com" || !strings.Contains(mail.body, "042917") || !strings.Contains(mail.body, "Ana Silva") {
		t.Fatalf("unexpected mail %+v", mail)
	}
}

func TestHandleAccountLocked(t *testing.T) {
	tests := []struct {
		name        string
		locked      bool
		wantSubject string
		wantBody    string
	}{
		{"locked", true, "has been locked", "locked for 1 day"},
		{"warning", false, "Failed login attempt", "Further failures will lock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := &fakeMailer{}
			h := NewEmailHandlers(mailer, "Back Office Bank", 24*time.Hour, zap.NewNop())

			err := h.HandleAccountLocked(context.Background(), newTask(t, task.TypeEmailAccountLocked, task.AccountLockedPayload{
				UserID:     uuid.NewString(),
				Email:      "ana@example.com",
				Attempts:   3,
				Locked:     tt.locked,
				OccurredAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			}))
			if err != nil {
				t.Fatalf("HandleAccountLocked error: %v", err)
			}
			mail := mailer.sent[0]
			if !strings.Contains(mail.subject, tt.wantSubject) {
				t.Errorf("subject %q missing %q", mail.subject, tt.wantSubject)
			}
			if !strings.Contains(mail.body, tt.wantBody) {
				t.Errorf("body missing %q:\n%s", tt.wantBody, mail.body)
			}
		})
	}
}

func TestHandlerMalformedPayloadIsPermanent(t *testing.T) {
	h := NewEmailHandlers(&fakeMailer{}, "Bank", time.Hour, zap.NewNop())

	err := h.HandleOTP(context.Background(), &task.Task{Type: task.TypeEmailOTP, Payload: json.RawMessage(`"nope"`)})
	if !errors.Is(err, task.ErrPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
}

func TestHandlerMailerFailureIsRetryable(t *testing.T) {
	h := NewEmailHandlers(&fakeMailer{err: errors.New("connection reset")}, "Bank", time.Hour, zap.NewNop())

	err := h.HandleOTP(context.Background(), newTask(t, task.TypeEmailOTP, task.EmailOTPPayload{Email: "a@example.com"}))
	if err == nil || errors.Is(err, task.ErrPermanent) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}

func TestTaskNotifierQueuesTasks(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	q := task.NewQueue(rdb, "tasks:test")
	n := NewTaskNotifier(q)
	ctx := context.Background()

	userID := uuid.New()
	if err := n.NotifyLockout(ctx, usecase.LockoutNotice{UserID: userID, Email: "ana@example.com", Attempts: 3, Locked: true}); err != nil {
		t.Fatalf("NotifyLockout error: %v", err)
	}

	user := &entity.User{Credentials: entity.Credentials{Email: "ana@example.com"}, Profile: entity.Profile{FirstName: "Ana"}}
	if err := n.SendOTP(ctx, &usecase.IssuedOTP{User: user, Code: "123456", ExpiresAt: time.Now()}); err != nil {
		t.Fatalf("SendOTP error: %v", err)
	}

	first, err := q.Dequeue(ctx, time.Second)
	if err != nil || first == nil || first.Type != task.TypeEmailAccountLocked {
		t.Fatalf("unexpected first task %+v err=%v", first, err)
	}
	var locked task.AccountLockedPayload
	if err := first.Decode(&locked); err != nil || locked.UserID != userID.String() || !locked.Locked {
		t.Fatalf("unexpected lockout payload %+v err=%v", locked, err)
	}

	second, err := q.Dequeue(ctx, time.Second)
	if err != nil || second == nil || second.Type != task.TypeEmailOTP {
		t.Fatalf("unexpected second task %+v err=%v", second, err)
	}
}
