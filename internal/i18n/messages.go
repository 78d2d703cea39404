package i18n

var zhCN = map[string]string{
	"error.bad_request":                "请求参数错误",
	"error.unauthorized":               "未登录或登录已失效",
	"error.forbidden":                  "无权限访问",
	"error.not_found":                  "资源不存在",
	"error.too_many_requests":          "请求过于频繁，请稍后再试",
	"error.internal":                   "服务器内部错误",
	"error.id_invalid":                 "ID 无效",
	"error.admin_id_invalid":           "管理员 ID 无效",
	"error.admin_id_type_invalid":      "管理员 ID 类型错误",
	"error.admin_not_found":            "管理员不存在",
	"error.login_invalid":              "用户名或密码错误",
	"error.token_invalid":              "令牌无效",
	"error.internal_token_invalid":     "内部调用凭证无效",
	"error.validation":                 "参数校验失败",
	"error.amount_invalid":             "金额必须大于 0",
	"error.amount_precision_invalid":   "金额最多保留 2 位小数",
	"error.entry_type_invalid":         "记账方向必须为 CREDIT 或 DEBIT",
	"error.date_range_invalid":         "开始时间不能晚于结束时间",
	"error.retailer_invalid":           "零售商 ID 无效",
	"error.status_invalid":             "状态无效",
	"error.txn_type_invalid":           "交易类型无效",
	"error.order_event_invalid":        "订单入账事件格式错误",
	"error.platform_fee_exceeds":       "平台费不能超过订单项金额",
	"error.insufficient_balance":       "可结算余额不足，缺口 %s",
	"error.settlement_conflict":        "该零售商正在进行结算，请稍后重试",
	"error.settlement_not_found":       "结算记录不存在",
	"error.ledger_entry_not_found":     "账本条目不存在",
	"error.store_unavailable":          "存储服务不可用",
	"error.role_invalid":               "角色无效",
	"error.queue_unavailable":          "任务队列不可用",
	"error.jwt_secret_missing":         "服务端未配置 JWT 密钥",
	"error.auth_header_missing":        "缺少 Authorization 请求头",
	"error.auth_header_invalid":        "Authorization 格式错误",
	"error.token_revoked":              "登录已失效，请重新登录",
	"error.login_too_many":             "登录尝试过于频繁，请 %d 秒后再试",
	"error.rate_limited":               "请求过于频繁，请 %d 秒后再试",
	"error.rate_limit_unavailable":     "限流服务不可用",
	"error.password_old_invalid":       "原密码错误",
	"error.password_weak":              "密码强度不足",
	"error.password_min_length":        "密码长度至少 %d 位",
	"error.password_require_upper":     "密码需包含大写字母",
	"error.password_require_lower":     "密码需包含小写字母",
	"error.password_require_number":    "密码需包含数字",
	"error.password_require_special":   "密码需包含特殊字符",
	"error.password_contains_username": "密码不能包含用户名",
}

var enUS = map[string]string{
	"error.bad_request":                "Invalid request parameters",
	"error.unauthorized":               "Not signed in or session expired",
	"error.forbidden":                  "Access denied",
	"error.not_found":                  "Resource not found",
	"error.too_many_requests":          "Too many requests, please try again later",
	"error.internal":                   "Internal server error",
	"error.id_invalid":                 "Invalid ID",
	"error.admin_id_invalid":           "Invalid admin ID",
	"error.admin_id_type_invalid":      "Admin ID has an unexpected type",
	"error.admin_not_found":            "Admin not found",
	"error.login_invalid":              "Invalid username or password",
	"error.token_invalid":              "Invalid token",
	"error.internal_token_invalid":     "Invalid internal credentials",
	"error.validation":                 "Validation failed",
	"error.amount_invalid":             "Amount must be greater than zero",
	"error.amount_precision_invalid":   "Amount allows at most 2 decimal places",
	"error.entry_type_invalid":         "Entry type must be CREDIT or DEBIT",
	"error.date_range_invalid":         "Start date must not be after end date",
	"error.retailer_invalid":           "Invalid retailer ID",
	"error.status_invalid":             "Invalid status",
	"error.txn_type_invalid":           "Invalid transaction type",
	"error.order_event_invalid":        "Malformed order ledger event",
	"error.platform_fee_exceeds":       "Platform fee exceeds the item amount",
	"error.insufficient_balance":       "Insufficient settleable balance, short by %s",
	"error.settlement_conflict":        "A settlement for this retailer is in progress, please retry",
	"error.settlement_not_found":       "Settlement not found",
	"error.ledger_entry_not_found":     "Ledger entry not found",
	"error.store_unavailable":          "Storage is unavailable",
	"error.role_invalid":               "Invalid role",
	"error.queue_unavailable":          "Task queue is unavailable",
	"error.jwt_secret_missing":         "JWT secret is not configured",
	"error.auth_header_missing":        "Missing Authorization header",
	"error.auth_header_invalid":        "Malformed Authorization header",
	"error.token_revoked":              "Session revoked, please sign in again",
	"error.login_too_many":             "Too many login attempts, retry in %d seconds",
	"error.rate_limited":               "Too many requests, retry in %d seconds",
	"error.rate_limit_unavailable":     "Rate limiter is unavailable",
	"error.password_old_invalid":       "Current password is incorrect",
	"error.password_weak":              "Password is too weak",
	"error.password_min_length":        "Password must be at least %d characters",
	"error.password_require_upper":     "Password must contain an uppercase letter",
	"error.password_require_lower":     "Password must contain a lowercase letter",
	"error.password_require_number":    "Password must contain a digit",
	"error.password_require_special":   "Password must contain a special character",
	"error.password_contains_username": "Password must not contain the username",
}
