package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/payout-ledger/internal/authz"
	handlershared "github.com/payout-ledger/internal/http/handlers/shared"
	"github.com/payout-ledger/internal/http/response"
	"github.com/payout-ledger/internal/models"
	"github.com/payout-ledger/internal/repository"
	"github.com/payout-ledger/internal/service"

	"github.com/gin-gonic/gin"
)

type authzSetAdminRolesPayload struct {
	Roles []string `json:"roles"`
}

// GetAuthzMe 获取当前管理员权限快照
func (h *Handler) GetAuthzMe(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{
		"admin_id": adminID,
		"is_super": currentIsSuper(c),
		"roles":    roles,
	})
}

// ListAuthzRoles 获取角色列表（含各角色策略）
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	items := make([]gin.H, 0, len(roles))
	for _, role := range roles {
		policies, err := h.AuthzService.GetRolePolicies(role)
		if err != nil {
			respondError(c, response.CodeInternal, "error.internal", err)
			return
		}
		items = append(items, gin.H{"role": role, "policies": policies})
	}
	response.Success(c, items)
}

// GetAuthzAdminRoles 查询管理员角色
func (h *Handler) GetAuthzAdminRoles(c *gin.Context) {
	target, ok := h.loadTargetAdmin(c)
	if !ok {
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(target.ID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{"admin_id": target.ID, "roles": roles})
}

// SetAuthzAdminRoles 覆盖设置管理员角色，仅允许分配已存在的角色
func (h *Handler) SetAuthzAdminRoles(c *gin.Context) {
	target, ok := h.loadTargetAdmin(c)
	if !ok {
		return
	}
	var req authzSetAdminRolesPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	before, err := h.AuthzService.SetAdminRoles(target.ID, req.Roles)
	if err != nil {
		if errors.Is(err, authz.ErrRoleNotFound) {
			respondError(c, response.CodeBadRequest, "error.role_invalid", err)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(target.ID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	operatorID := currentAdminID(c)
	targetID := target.ID
	if err := h.AuthzAuditService.Record(service.AuthzAuditRecordInput{
		OperatorAdminID:  operatorID,
		OperatorUsername: currentUsername(c),
		TargetAdminID:    &targetID,
		TargetUsername:   target.Username,
		Action:           "admin_roles_set",
		Role:             strings.Join(roles, ","),
		RequestID:        currentRequestID(c),
		Detail:           models.JSON{"before": before, "after": roles},
	}); err != nil {
		requestLog(c).Warnw("admin_authz_audit_record_failed", "error", err)
	}
	requestLog(c).Infow("admin_authz_roles_updated",
		"operator_admin_id", operatorID,
		"target_admin_id", targetID,
		"roles", roles,
	)

	response.Success(c, gin.H{"admin_id": targetID, "roles": roles})
}

// ListAuthzAuditLogs 查询权限审计日志
func (h *Handler) ListAuthzAuditLogs(c *gin.Context) {
	page, pageSize := handlershared.ParsePageQuery(c)

	filter := repository.AuthzAuditLogListFilter{
		Page:     page,
		PageSize: pageSize,
		Action:   strings.TrimSpace(c.Query("action")),
	}
	if operatorID, ok := handlershared.ParseOptionalUint(c.Query("operator_admin_id")); !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	} else if operatorID != nil {
		filter.OperatorAdminID = *operatorID
	}
	if targetID, ok := handlershared.ParseOptionalUint(c.Query("target_admin_id")); !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	} else if targetID != nil {
		filter.TargetAdminID = *targetID
	}

	rows, total, err := h.AuthzAuditService.List(filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

func (h *Handler) loadTargetAdmin(c *gin.Context) (*models.Admin, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.id_invalid", nil)
		return nil, false
	}
	target, err := h.AuthService.GetAdmin(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return nil, false
	}
	return target, true
}

func currentAdminID(c *gin.Context) uint {
	if value, ok := c.Get("admin_id"); ok {
		if id, typeOK := value.(uint); typeOK {
			return id
		}
	}
	return 0
}

func currentUsername(c *gin.Context) string {
	return c.GetString("username")
}

func currentRequestID(c *gin.Context) string {
	return c.GetString("request_id")
}

func currentIsSuper(c *gin.Context) bool {
	value, exists := c.Get("admin_is_super")
	if !exists {
		return false
	}
	flag, _ := value.(bool)
	return flag
}
