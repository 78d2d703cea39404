package admin

import (
	"errors"
	"strings"
	"time"

	"github.com/payout-ledger/internal/constants"
	handlershared "github.com/payout-ledger/internal/http/handlers/shared"
	"github.com/payout-ledger/internal/http/response"
	"github.com/payout-ledger/internal/i18n"
	"github.com/payout-ledger/internal/repository"
	"github.com/payout-ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string                 `json:"token"`
	User      map[string]interface{} `json:"user"`
	ExpiresAt string                 `json:"expires_at"`
}

// UpdatePasswordRequest 修改密码请求
type UpdatePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// AdminLogin 管理员登录
func (h *Handler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.recordLogin(c, 0, req.Username, constants.LoginLogFailReasonBadRequest)
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	admin, token, expiresAt, err := h.AuthService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.recordLogin(c, 0, req.Username, constants.LoginLogFailReasonInvalidCredentials)
			requestLog(c).Warnw("admin_login_failed", "username", req.Username, "client_ip", c.ClientIP())
			respondError(c, response.CodeUnauthorized, "error.login_invalid", nil)
			return
		}
		h.recordLogin(c, 0, req.Username, constants.LoginLogFailReasonInternalError)
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	h.recordLogin(c, admin.ID, admin.Username, "")
	requestLog(c).Infow("admin_login_success", "admin_id", admin.ID, "client_ip", c.ClientIP())
	response.Success(c, LoginResponse{
		Token: token,
		User: map[string]interface{}{
			"id":       admin.ID,
			"username": admin.Username,
			"is_super": admin.IsSuper,
		},
		ExpiresAt: expiresAt.Format(time.RFC3339),
	})
}

// recordLogin 记录登录日志，failReason 为空表示成功
func (h *Handler) recordLogin(c *gin.Context, adminID uint, username, failReason string) {
	status := constants.LoginLogStatusSuccess
	if failReason != "" {
		status = constants.LoginLogStatusFailed
	}
	if err := h.LoginLogService.Record(service.RecordAdminLoginInput{
		AdminID:    adminID,
		Username:   username,
		Status:     status,
		FailReason: failReason,
		ClientIP:   c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
		RequestID:  currentRequestID(c),
	}); err != nil {
		requestLog(c).Warnw("admin_login_log_record_failed", "error", err)
	}
}

// GetAdminMe 获取当前管理员
func (h *Handler) GetAdminMe(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	admin, err := h.AuthService.GetAdmin(adminID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{
		"id":            admin.ID,
		"username":      admin.Username,
		"is_super":      admin.IsSuper,
		"last_login_at": admin.LastLoginAt,
		"roles":         roles,
	})
}

// UpdateAdminPassword 修改当前管理员密码
func (h *Handler) UpdateAdminPassword(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	err := h.AuthService.ChangePassword(c.Request.Context(), adminID, req.OldPassword, req.NewPassword)
	switch {
	case err == nil:
		response.Success(c, nil)
	case errors.Is(err, service.ErrInvalidPassword):
		respondError(c, response.CodeBadRequest, "error.password_old_invalid", nil)
	case errors.Is(err, service.ErrWeakPassword):
		if perr, ok := err.(interface {
			Key() string
			Args() []interface{}
		}); ok {
			msg := i18n.Sprintf(i18n.ResolveLocale(c), perr.Key(), perr.Args()...)
			respondErrorWithMsg(c, response.CodeBadRequest, msg, nil)
			return
		}
		respondError(c, response.CodeBadRequest, "error.password_weak", nil)
	default:
		respondServiceError(c, err)
	}
}

// AdminLogout 注销当前管理员的全部 Token
func (h *Handler) AdminLogout(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	if err := h.AuthService.Logout(c.Request.Context(), adminID); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// ListAdminLoginLogs 查询管理员登录日志
func (h *Handler) ListAdminLoginLogs(c *gin.Context) {
	page, pageSize := handlershared.ParsePageQuery(c)

	filter := repository.AdminLoginLogListFilter{
		Page:     page,
		PageSize: pageSize,
		Username: strings.TrimSpace(c.Query("username")),
		Status:   strings.TrimSpace(c.Query("status")),
		ClientIP: strings.TrimSpace(c.Query("client_ip")),
	}
	adminID, ok := handlershared.ParseOptionalUint(c.Query("admin_id"))
	if !ok {
		respondError(c, response.CodeBadRequest, "error.admin_id_invalid", nil)
		return
	}
	if adminID != nil {
		filter.AdminID = *adminID
	}
	if filter.CreatedFrom, ok = handlershared.ParseOptionalTime(c.Query("created_from"), false); !ok {
		respondError(c, response.CodeBadRequest, "error.date_range_invalid", nil)
		return
	}
	if filter.CreatedTo, ok = handlershared.ParseOptionalTime(c.Query("created_to"), true); !ok {
		respondError(c, response.CodeBadRequest, "error.date_range_invalid", nil)
		return
	}

	rows, total, err := h.LoginLogService.List(filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}
