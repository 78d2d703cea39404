package service

import (
	"strings"
	"time"

	"github.com/payout-ledger/internal/constants"
	"github.com/payout-ledger/internal/models"
	"github.com/payout-ledger/internal/repository"
)

// AdminLoginLogService 管理员登录日志服务
type AdminLoginLogService struct {
	repo repository.AdminLoginLogRepository
}

// NewAdminLoginLogService 创建管理员登录日志服务
func NewAdminLoginLogService(repo repository.AdminLoginLogRepository) *AdminLoginLogService {
	return &AdminLoginLogService{repo: repo}
}

// RecordAdminLoginInput 登录日志记录输入
type RecordAdminLoginInput struct {
	AdminID    uint
	Username   string
	Status     string
	FailReason string
	ClientIP   string
	UserAgent  string
	RequestID  string
}

// Record 记录登录行为
func (s *AdminLoginLogService) Record(input RecordAdminLoginInput) error {
	if s == nil || s.repo == nil {
		return nil
	}

	status := strings.ToLower(strings.TrimSpace(input.Status))
	if status != constants.LoginLogStatusSuccess {
		status = constants.LoginLogStatusFailed
	}

	failReason := strings.ToLower(strings.TrimSpace(input.FailReason))
	if status == constants.LoginLogStatusSuccess {
		failReason = ""
	} else if failReason == "" {
		failReason = constants.LoginLogFailReasonInternalError
	}

	if err := s.repo.Create(&models.AdminLoginLog{
		AdminID:    input.AdminID,
		Username:   strings.ToLower(strings.TrimSpace(input.Username)),
		Status:     status,
		FailReason: failReason,
		ClientIP:   strings.TrimSpace(input.ClientIP),
		UserAgent:  strings.TrimSpace(input.UserAgent),
		RequestID:  strings.TrimSpace(input.RequestID),
		CreatedAt:  time.Now(),
	}); err != nil {
		return wrapStoreError(err)
	}
	return nil
}

// List 管理端查询登录日志
func (s *AdminLoginLogService) List(filter repository.AdminLoginLogListFilter) ([]models.AdminLoginLog, int64, error) {
	if s == nil || s.repo == nil {
		return []models.AdminLoginLog{}, 0, nil
	}
	if filter.CreatedFrom != nil && filter.CreatedTo != nil && filter.CreatedFrom.After(*filter.CreatedTo) {
		return nil, 0, ErrInvalidDateRange
	}
	filter.Username = strings.ToLower(strings.TrimSpace(filter.Username))
	filter.Status = strings.ToLower(strings.TrimSpace(filter.Status))
	rows, total, err := s.repo.List(filter)
	if err != nil {
		return nil, 0, wrapStoreError(err)
	}
	return rows, total, nil
}
