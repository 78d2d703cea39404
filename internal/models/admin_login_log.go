package models

import "time"

// AdminLoginLog 管理员登录日志
// 说明：记录后台登录成功或失败行为，便于排查结算权限账号的异常登录。
type AdminLoginLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`                    // 主键
	AdminID    uint      `gorm:"index" json:"admin_id"`                   // 管理员ID（失败时可为0）
	Username   string    `gorm:"index;not null" json:"username"`          // 登录尝试账号
	Status     string    `gorm:"index;not null" json:"status"`            // 登录结果（success/failed）
	FailReason string    `gorm:"index" json:"fail_reason"`                // 失败原因枚举
	ClientIP   string    `gorm:"type:varchar(64);index" json:"client_ip"` // 客户端IP
	UserAgent  string    `gorm:"type:text" json:"user_agent"`             // 客户端UA
	RequestID  string    `gorm:"type:varchar(64)" json:"request_id"`      // 请求追踪ID
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                 // 记录时间
}

// TableName 指定表名
func (AdminLoginLog) TableName() string {
	return "admin_login_logs"
}
