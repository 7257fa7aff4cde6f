package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 风险等级
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// 警报类型
const (
	AlertTypeSOS       = "SOS"
	AlertTypeDetection = "detection"
)

// SafetyAlert 安全警报，只追加；由消息扫描和 SOS 激活两条路径写入
type SafetyAlert struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"userId" gorm:"index;not null"`
	AlertType string    `json:"alertType" gorm:"size:30;not null"`
	Message   string    `json:"message" gorm:"size:2048"`
	RiskLevel string    `json:"riskLevel" gorm:"size:20;not null"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// SOSEvent 每次激活一条的审计记录
type SOSEvent struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	IncidentID       string    `json:"incidentId" gorm:"size:36;uniqueIndex"`
	UserID           uint      `json:"userId" gorm:"index;not null"`
	TriggerType      string    `json:"triggerType" gorm:"size:20;not null"`
	Latitude         *float64  `json:"latitude,omitempty"`
	Longitude        *float64  `json:"longitude,omitempty"`
	MessageSent      string    `json:"messageSent" gorm:"size:2048"`
	ContactsNotified string    `json:"-" gorm:"size:2048"` // JSON 数组，记录的是预期接收者姓名
	CreatedAt        time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// NotifiedNames 解析 ContactsNotified 字段
func (e *SOSEvent) NotifiedNames() []string {
	var names []string
	if e.ContactsNotified != "" {
		_ = json.Unmarshal([]byte(e.ContactsNotified), &names)
	}
	return names
}

// SetNotifiedNames 序列化联系人姓名列表
func (e *SOSEvent) SetNotifiedNames(names []string) {
	data, err := json.Marshal(names)
	if err != nil {
		e.ContactsNotified = "[]"
		return
	}
	e.ContactsNotified = string(data)
}

// CreateSafetyAlert 追加一条安全警报
func CreateSafetyAlert(db *gorm.DB, alert *SafetyAlert) error {
	return db.Create(alert).Error
}

// CreateActivationRecords 在同一事务内写入 SOS 警报和事件记录
func CreateActivationRecords(db *gorm.DB, alert *SafetyAlert, event *SOSEvent) error {
	if event.IncidentID == "" {
		event.IncidentID = uuid.NewString()
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(alert).Error; err != nil {
			return err
		}
		return tx.Create(event).Error
	})
}

// ListAlerts 按时间倒序列出警报
func ListAlerts(db *gorm.DB, userID uint, limit int) ([]SafetyAlert, error) {
	if limit <= 0 {
		limit = 50
	}
	var alerts []SafetyAlert
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&alerts).Error
	return alerts, err
}

// MarkAlertRead 标记警报已读
func MarkAlertRead(db *gorm.DB, userID, id uint) error {
	return db.Model(&SafetyAlert{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true).Error
}

// ListSOSEvents 按时间倒序列出 SOS 事件
func ListSOSEvents(db *gorm.DB, userID uint, limit int) ([]SOSEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []SOSEvent
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&events).Error
	return events, err
}
