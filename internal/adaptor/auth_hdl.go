package adaptor

import (
	"net/http"

	"bank-backoffice/internal/dto/request"
	"bank-backoffice/internal/usecase"
	"bank-backoffice/pkg/utils"

	"go.uber.org/zap"
)

type AuthHandler struct {
	service usecase.AuthService
	log     *zap.Logger
}

func NewAuthHandler(service usecase.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		log:     log.With(zap.String("handler", "auth")),
	}
}

// decodeAndValidate writes the 400 response itself and reports false when
// the body is unusable.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := utils.DecodeJSON(r, dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	if validationErrors := utils.ValidateStruct(dst); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return false
	}
	return true
}

// Register handles POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.service.Register(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "register")
		return
	}

	utils.ResponseCreated(w, "Registration successful", resp)
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "login")
		return
	}

	utils.ResponseSuccess(w, "OTP sent to your email", resp)
}

// VerifyLoginOTP handles POST /api/login/verify-otp
func (h *AuthHandler) VerifyLoginOTP(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyOTPRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.service.VerifyLoginOTP(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "verify otp")
		return
	}

	utils.ResponseSuccess(w, "Login successful", resp)
}

// ResendOTP handles POST /api/otp/resend
func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req request.ResendOTPRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.service.ResendOTP(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "resend otp")
		return
	}

	utils.ResponseSuccess(w, "OTP sent to your email", resp)
}

// SecurityQuestion handles GET /api/security-question?email=
func (h *AuthHandler) SecurityQuestion(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		utils.ResponseBadRequest(w, "email is required", nil)
		return
	}

	resp, err := h.service.SecurityQuestion(r.Context(), email)
	if err != nil {
		handleServiceError(w, h.log, err, "get security question")
		return
	}

	utils.ResponseSuccess(w, "Security question retrieved", resp)
}

// VerifySecurityAnswer handles POST /api/security-answer/verify
func (h *AuthHandler) VerifySecurityAnswer(w http.ResponseWriter, r *http.Request) {
	var req request.VerifySecurityAnswerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.VerifySecurityAnswer(r.Context(), &req); err != nil {
		handleServiceError(w, h.log, err, "verify security answer")
		return
	}

	utils.ResponseSuccess(w, "Security answer verified", nil)
}

// SetSecurityAnswer handles PUT /api/me/security-answer
func (h *AuthHandler) SetSecurityAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.SetSecurityAnswerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.SetSecurityAnswer(r.Context(), userID, &req); err != nil {
		handleServiceError(w, h.log, err, "set security answer")
		return
	}

	utils.ResponseSuccess(w, "Security answer updated", nil)
}

// Me handles GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	profile, err := h.service.Me(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.log, err, "get profile")
		return
	}

	utils.ResponseSuccess(w, "Profile retrieved successfully", profile)
}

// Parties handles GET /api/me/parties
func (h *AuthHandler) Parties(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	parties, err := h.service.Parties(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.log, err, "list parties")
		return
	}

	utils.ResponseSuccess(w, "Parties retrieved successfully", parties)
}

// Logout handles POST /api/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	// Token sudah diset oleh middleware AuthSession
	token, ok := utils.GetTokenFromContext(r.Context())
	if !ok || token == "" {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		handleServiceError(w, h.log, err, "logout")
		return
	}

	utils.ResponseSuccess(w, "Logout successful", nil)
}
