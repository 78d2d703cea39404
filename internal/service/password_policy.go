package service

import (
	"strings"
	"unicode"

	"github.com/payout-ledger/internal/config"
)

// defaultPasswordPolicy 未配置任何规则时使用，结算后台至少要求 8 位且含小写与数字
var defaultPasswordPolicy = config.PasswordPolicyConfig{
	MinLength:     8,
	RequireLower:  true,
	RequireNumber: true,
}

type passwordPolicyError struct {
	key  string
	args []interface{}
}

func (e passwordPolicyError) Error() string {
	return e.key
}

func (e passwordPolicyError) Is(target error) bool {
	return target == ErrWeakPassword
}

func (e passwordPolicyError) Key() string {
	return e.key
}

func (e passwordPolicyError) Args() []interface{} {
	return e.args
}

type passwordClasses struct {
	upper, lower, number, special bool
}

func classifyPassword(password string) passwordClasses {
	var c passwordClasses
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			c.upper = true
		case unicode.IsLower(r):
			c.lower = true
		case unicode.IsDigit(r):
			c.number = true
		default:
			c.special = true
		}
	}
	return c
}

// 字符类规则按顺序检查，命中第一条即返回
var passwordClassRules = []struct {
	key      string
	required func(config.PasswordPolicyConfig) bool
	present  func(passwordClasses) bool
}{
	{"error.password_require_upper", func(p config.PasswordPolicyConfig) bool { return p.RequireUpper }, func(c passwordClasses) bool { return c.upper }},
	{"error.password_require_lower", func(p config.PasswordPolicyConfig) bool { return p.RequireLower }, func(c passwordClasses) bool { return c.lower }},
	{"error.password_require_number", func(p config.PasswordPolicyConfig) bool { return p.RequireNumber }, func(c passwordClasses) bool { return c.number }},
	{"error.password_require_special", func(p config.PasswordPolicyConfig) bool { return p.RequireSpecial }, func(c passwordClasses) bool { return c.special }},
}

func effectivePasswordPolicy(policy config.PasswordPolicyConfig) config.PasswordPolicyConfig {
	if policy == (config.PasswordPolicyConfig{}) {
		return defaultPasswordPolicy
	}
	return policy
}

// validatePassword 校验管理员新密码；密码不得包含用户名（忽略大小写）
func validatePassword(policy config.PasswordPolicyConfig, username, password string) error {
	policy = effectivePasswordPolicy(policy)

	if policy.MinLength > 0 && len([]rune(password)) < policy.MinLength {
		return passwordPolicyError{key: "error.password_min_length", args: []interface{}{policy.MinLength}}
	}
	if name := strings.ToLower(strings.TrimSpace(username)); name != "" &&
		strings.Contains(strings.ToLower(password), name) {
		return passwordPolicyError{key: "error.password_contains_username"}
	}

	classes := classifyPassword(password)
	for _, rule := range passwordClassRules {
		if rule.required(policy) && !rule.present(classes) {
			return passwordPolicyError{key: rule.key}
		}
	}
	return nil
}
