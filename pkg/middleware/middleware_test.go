package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bank-backoffice/internal/data/entity"
	"bank-backoffice/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type stubSessions struct {
	sessions map[string]*entity.Session
	err      error
}

func (s *stubSessions) Create(ctx context.Context, session *entity.Session) error { return nil }

func (s *stubSessions) FindValidSession(ctx context.Context, token string) (*entity.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.sessions[token], nil
}

func (s *stubSessions) Revoke(ctx context.Context, token string) error { return nil }

func (s *stubSessions) RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func (s *stubSessions) CleanExpiredSessions(ctx context.Context) (int64, error) { return 0, nil }

type stubUsers struct {
	users map[uuid.UUID]*entity.User
}

func (s *stubUsers) Create(ctx context.Context, user *entity.User) error { return nil }

func (s *stubUsers) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return s.users[id], nil
}

func (s *stubUsers) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return nil, nil
}

func (s *stubUsers) FindByIDNumber(ctx context.Context, idNumber string) (*entity.User, error) {
	return nil, nil
}

func newAuthStubs(role entity.UserRole, status entity.AccountStatus) (*stubSessions, *stubUsers, string) {
	user := &entity.User{
		Base:        entity.NewBase(time.Now()),
		Credentials: entity.Credentials{Email: "ana@example.com", IsActive: true},
		Profile:     entity.Profile{Role: role},
		Security:    entity.SecurityState{AccountStatus: status},
	}
	token := uuid.New()
	session := &entity.Session{UserID: user.ID, Token: token, ExpiresAt: time.Now().Add(time.Hour)}

	return &stubSessions{sessions: map[string]*entity.Session{token.String(): session}},
		&stubUsers{users: map[uuid.UUID]*entity.User{user.ID: user}},
		token.String()
}

func echoRole() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, _ := utils.GetRoleFromContext(r.Context())
		w.Write([]byte(role))
	})
}

func TestAuthSession(t *testing.T) {
	sessions, users, token := newAuthStubs(entity.RoleTeller, entity.StatusActive)
	handler := AuthSession(sessions, users, zap.NewNop())(echoRole())

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"not a uuid", "Bearer not-a-token", http.StatusUnauthorized},
		{"unknown session", "Bearer " + uuid.NewString(), http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			if tt.want == http.StatusOK {
				if rec.Body.String() != string(entity.RoleTeller) {
					t.Errorf("expected role in context, got %q", rec.Body.String())
				}
				if rec.Header().Get(UserHeader) != "ana@example.com" {
					t.Errorf("expected %s header, got %q", UserHeader, rec.Header().Get(UserHeader))
				}
			}
		})
	}
}

func TestAuthSessionRejectsLockedUser(t *testing.T) {
	sessions, users, token := newAuthStubs(entity.RoleCustomer, entity.StatusLocked)
	handler := AuthSession(sessions, users, zap.NewNop())(echoRole())

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for locked user, got %d", rec.Code)
	}
}

func TestAuthSessionStoreFailure(t *testing.T) {
	sessions, users, token := newAuthStubs(entity.RoleCustomer, entity.StatusActive)
	sessions.err = errors.New("connection refused")
	handler := AuthSession(sessions, users, zap.NewNop())(echoRole())

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name string
		role entity.UserRole
		want int
	}{
		{"branch manager", entity.RoleBranchManager, http.StatusOK},
		{"teller", entity.RoleTeller, http.StatusForbidden},
		{"customer", entity.RoleCustomer, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireRole(zap.NewNop(), entity.RoleBranchManager)(echoRole())

			req := httptest.NewRequest(http.MethodGet, "/api/admin/users/locked", nil)
			req = req.WithContext(utils.SetUserContext(req.Context(), uuid.New(), string(tt.role)))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestRequireRoleWithoutSession(t *testing.T) {
	handler := RequireRole(zap.NewNop(), entity.RoleBranchManager)(echoRole())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/users/locked", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRecover(t *testing.T) {
	handler := Recover(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json body, got content type %q", ct)
	}
}
