package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

func isPostgresDialect(dialect string) bool {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return true
	default:
		return false
	}
}

// SettlementLockKey 结算串行化的锁键（零售商 + 仓库维度）
func SettlementLockKey(retailerID uint, warehouseID *uint) string {
	if warehouseID == nil {
		return fmt.Sprintf("settlement:%d:all", retailerID)
	}
	return fmt.Sprintf("settlement:%d:%d", retailerID, *warehouseID)
}

// advisoryXactLockSQL 生成事务级咨询锁语句；sqlite 写事务本身串行，返回空串
func advisoryXactLockSQL(dialect string) string {
	if isPostgresDialect(dialect) {
		return "SELECT pg_advisory_xact_lock(hashtext(?))"
	}
	return ""
}

// acquireAdvisoryXactLock 在当前事务内获取咨询锁，事务结束自动释放
func acquireAdvisoryXactLock(db *gorm.DB, key string) error {
	stmt := advisoryXactLockSQL(dbDialectName(db))
	if stmt == "" {
		return nil
	}
	return db.Exec(stmt, key).Error
}
