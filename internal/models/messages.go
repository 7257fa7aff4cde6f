package models

import (
	"time"

	"gorm.io/gorm"
)

// CannedMessage 预写的求救短信，同一用户最多一条默认
type CannedMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"userId" gorm:"index;not null"`
	Label     string    `json:"label" gorm:"size:100"`
	Text      string    `json:"text" gorm:"size:1024;not null"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// FallbackAlertText 用户没有默认短信时使用的正文
const FallbackAlertText = "I need help immediately. Please contact emergency services."

// SeedDefaultMessages 首次加载时写入三条内置短信
func SeedDefaultMessages(db *gorm.DB, userID uint) error {
	var count int64
	if err := db.Model(&CannedMessage{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []CannedMessage{
		{UserID: userID, Label: "Emergency", Text: "I need help immediately. Please contact emergency services.", IsDefault: true},
		{UserID: userID, Label: "Check In", Text: "I'm in a situation that feels unsafe. If you don't hear from me in 30 minutes, please call."},
		{UserID: userID, Label: "Location Alert", Text: "I'm sharing my live location. Please track where I am."},
	}
	return db.Create(&defaults).Error
}

// ListMessages 按创建时间列出用户的短信
func ListMessages(db *gorm.DB, userID uint) ([]CannedMessage, error) {
	var messages []CannedMessage
	err := db.Where("user_id = ?", userID).Order("created_at ASC").Find(&messages).Error
	return messages, err
}

// CreateMessage 新增短信
func CreateMessage(db *gorm.DB, userID uint, label, text string) (*CannedMessage, error) {
	msg := &CannedMessage{UserID: userID, Label: label, Text: text}
	if err := db.Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// UpdateMessageText 修改短信内容
func UpdateMessageText(db *gorm.DB, userID, id uint, label, text string) error {
	return db.Model(&CannedMessage{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"label": label, "text": text}).Error
}

// DeleteMessage 删除短信
func DeleteMessage(db *gorm.DB, userID, id uint) error {
	return db.Where("id = ? AND user_id = ?", id, userID).Delete(&CannedMessage{}).Error
}

// SetDefaultMessage 将某条短信设为默认；先清除旧默认再置新，保证至多一条
func SetDefaultMessage(db *gorm.DB, userID, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&CannedMessage{}).
			Where("user_id = ? AND is_default = ?", userID, true).
			Update("is_default", false).Error; err != nil {
			return err
		}
		res := tx.Model(&CannedMessage{}).
			Where("id = ? AND user_id = ?", id, userID).
			Update("is_default", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// GetDefaultMessageText 取默认短信正文，没有默认时回退到内置文案
func GetDefaultMessageText(db *gorm.DB, userID uint) string {
	var msg CannedMessage
	err := db.Where("user_id = ? AND is_default = ?", userID, true).
		Order("created_at ASC").First(&msg).Error
	if err != nil {
		return FallbackAlertText
	}
	return msg.Text
}
