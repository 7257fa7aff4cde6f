package models

import (
	"time"

	"gorm.io/gorm"
)

// Evidence 证据库条目：用户留存的有害消息原文
type Evidence struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"userId" gorm:"index;not null"`
	Content   string    `json:"content" gorm:"size:4096;not null"`
	Category  string    `json:"category" gorm:"size:50"`
	RiskScore int       `json:"riskScore"`
	Platform  string    `json:"platform" gorm:"size:50"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// SaveEvidence 保存证据
func SaveEvidence(db *gorm.DB, evidence *Evidence) error {
	if evidence.Platform == "" {
		evidence.Platform = "Manual Scan"
	}
	return db.Create(evidence).Error
}

// ListEvidence 按时间倒序列出证据
func ListEvidence(db *gorm.DB, userID uint, limit int) ([]Evidence, error) {
	if limit <= 0 {
		limit = 50
	}
	var items []Evidence
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&items).Error
	return items, err
}

// Migrate 自动建表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&UserSettings{},
		&CannedMessage{},
		&TrustedContact{},
		&SafetyAlert{},
		&SOSEvent{},
		&Evidence{},
	)
}
