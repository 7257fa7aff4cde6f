package models

import (
	"time"

	"gorm.io/gorm"
)

// UserSettings 每个用户一条的安全设置，全部默认开启
type UserSettings struct {
	ID                   uint      `json:"id" gorm:"primaryKey"`
	UserID               uint      `json:"userId" gorm:"uniqueIndex;not null"`
	ShakeSOSEnabled      bool      `json:"shakeSosEnabled"`
	KeyboardSOSEnabled   bool      `json:"keyboardSosEnabled"`
	AutoLocationEnabled  bool      `json:"autoLocationEnabled"`
	AutoRecordingEnabled bool      `json:"autoRecordingEnabled"`
	CreatedAt            time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt            time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// DefaultSettings 返回全开的默认设置
func DefaultSettings(userID uint) UserSettings {
	return UserSettings{
		UserID:               userID,
		ShakeSOSEnabled:      true,
		KeyboardSOSEnabled:   true,
		AutoLocationEnabled:  true,
		AutoRecordingEnabled: true,
	}
}

// GetOrCreateSettings 读取用户设置，不存在时按默认值创建
func GetOrCreateSettings(db *gorm.DB, userID uint) (*UserSettings, error) {
	var settings UserSettings
	err := db.Where("user_id = ?", userID).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	settings = DefaultSettings(userID)
	if err := db.Create(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateSettings 部分更新，fields 只包含要修改的开关
func UpdateSettings(db *gorm.DB, userID uint, fields map[string]any) (*UserSettings, error) {
	if _, err := GetOrCreateSettings(db, userID); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := db.Model(&UserSettings{}).Where("user_id = ?", userID).Updates(fields).Error; err != nil {
			return nil, err
		}
	}

	var settings UserSettings
	if err := db.Where("user_id = ?", userID).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}
