package notify_sdk

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cydxin/notify-sdk/models"
	"github.com/cydxin/notify-sdk/pkg/logger"
)

// MigrateTablePrefix 把旧前缀的表改名为当前前缀（例如从 "im_" 升级到 "nt_"）。
// 新表已存在时跳过该表，不合并数据。需要在 AutoMigrate 之前调用，否则新表会先被建出来。
func (e *NotifyEngine) MigrateTablePrefix(oldPrefix string) error {
	return migrateTablePrefix(e.config.DB, oldPrefix, models.TablePrefix())
}

func migrateTablePrefix(db *gorm.DB, oldPrefix, newPrefix string) error {
	if oldPrefix == "" || oldPrefix == newPrefix {
		return nil
	}
	return db.Transaction(func(tx *gorm.DB) error {
		m := tx.Migrator()
		for _, t := range models.All() {
			stmt := &gorm.Statement{DB: tx}
			if err := stmt.Parse(t); err != nil {
				return fmt.Errorf("parse model %T: %w", t, err)
			}
			newName := stmt.Schema.Table
			if !strings.HasPrefix(newName, newPrefix) {
				continue
			}
			oldName := oldPrefix + strings.TrimPrefix(newName, newPrefix)

			// 验证表名格式（只允许字母、数字和下划线）
			if !isValidTableName(oldName) || !isValidTableName(newName) {
				return fmt.Errorf("invalid table name: %s -> %s", oldName, newName)
			}
			if !m.HasTable(oldName) {
				continue
			}
			if m.HasTable(newName) {
				logger.Warn("migrate prefix: target table exists, skip",
					zap.String("from", oldName), zap.String("to", newName))
				continue
			}
			if err := m.RenameTable(oldName, newName); err != nil {
				return fmt.Errorf("rename %s -> %s: %w", oldName, newName, err)
			}
			logger.Info("migrate prefix: table renamed", zap.String("from", oldName), zap.String("to", newName))
		}
		return nil
	})
}

// isValidTableName 验证表名格式，防止 SQL 注入
func isValidTableName(name string) bool {
	for _, c := range name {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') || c == '_') {
			return false
		}
	}
	return len(name) > 0 && len(name) < 64 // MySQL 表名最大 64 字符
}
