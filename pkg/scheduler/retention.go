package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"SentriSafe/pkg/logger"
)

// RetentionConfig 警报清理配置
type RetentionConfig struct {
	// Cron 表达式，如 "0 3 * * *"
	Schedule string

	// 已读警报保留天数，<=0 时不启动清理
	RetentionDays int
}

// StartRetention 启动定时清理任务，返回 cron 实例便于停止
func StartRetention(db *gorm.DB, cfg RetentionConfig) (*cron.Cron, error) {
	if cfg.RetentionDays <= 0 {
		return nil, nil
	}

	c := cron.New()
	_, err := c.AddFunc(cfg.Schedule, func() {
		if err := PruneReadAlerts(db, cfg.RetentionDays); err != nil {
			logger.Warn("alert retention failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

// PruneReadAlerts 删除超过保留期的已读警报
func PruneReadAlerts(db *gorm.DB, retentionDays int) error {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	res := db.Exec("DELETE FROM safety_alerts WHERE is_read = ? AND created_at < ?", true, cutoff)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		logger.Info("pruned read alerts", zap.Int64("count", res.RowsAffected))
	}
	return nil
}
