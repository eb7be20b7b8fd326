package adaptor

import (
	"net/http"

	"bank-backoffice/internal/dto/request"
	"bank-backoffice/internal/dto/response"
	"bank-backoffice/internal/usecase"
	"bank-backoffice/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AdminHandler serves the branch manager endpoints.
type AdminHandler struct {
	security usecase.SecurityService
	report   usecase.ReportService
	log      *zap.Logger
}

func NewAdminHandler(security usecase.SecurityService, report usecase.ReportService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		security: security,
		report:   report,
		log:      log.With(zap.String("handler", "admin")),
	}
}

// ListLocked handles GET /api/admin/users/locked
func (h *AdminHandler) ListLocked(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParsePositiveInt(query.Get("page"), 1),
		PerPage: utils.ParsePositiveInt(query.Get("per_page"), 10),
	}

	result, err := h.security.ListLocked(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "list locked accounts")
		return
	}

	utils.ResponseSuccess(w, "Locked accounts retrieved successfully", result)
}

// Unlock handles POST /api/admin/users/{id}/unlock
func (h *AdminHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid user ID", nil)
		return
	}

	changed, err := h.security.UnlockAccount(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.log, err, "unlock account")
		return
	}

	actor, _ := utils.GetUserIDFromContext(r.Context())
	h.log.Info("Unlock requested",
		zap.String("user_id", userID.String()),
		zap.String("actor_id", actor.String()),
		zap.Bool("changed", changed),
	)

	utils.ResponseSuccess(w, "Account unlock processed", response.UnlockResponse{
		UserID:   userID.String(),
		Unlocked: changed,
	})
}

// LockedAccountsReport handles POST /api/admin/reports/locked-accounts
func (h *AdminHandler) LockedAccountsReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.LockedAccountsReportRequest
	if r.ContentLength > 0 && !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.report.RequestLockedAccountsReport(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "request report")
		return
	}

	utils.ResponseAccepted(w, "Report queued", resp)
}
