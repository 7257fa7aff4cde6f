package models

import (
	"time"

	"gorm.io/gorm"
)

// TrustedContact 可信联系人，SOS 警报的预期接收者
type TrustedContact struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"userId" gorm:"index;not null"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Phone     string    `json:"phone,omitempty" gorm:"size:30"`
	Email     string    `json:"email,omitempty" gorm:"size:255"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// ListContacts 按创建时间倒序列出联系人
func ListContacts(db *gorm.DB, userID uint) ([]TrustedContact, error) {
	var contacts []TrustedContact
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&contacts).Error
	return contacts, err
}

// AddContact 新增联系人
func AddContact(db *gorm.DB, userID uint, name, phone, email string) (*TrustedContact, error) {
	contact := &TrustedContact{UserID: userID, Name: name, Phone: phone, Email: email}
	if err := db.Create(contact).Error; err != nil {
		return nil, err
	}
	return contact, nil
}

// DeleteContact 删除联系人
func DeleteContact(db *gorm.DB, userID, id uint) error {
	return db.Where("id = ? AND user_id = ?", id, userID).Delete(&TrustedContact{}).Error
}

// ContactNames 提取联系人姓名列表
func ContactNames(contacts []TrustedContact) []string {
	names := make([]string, 0, len(contacts))
	for _, c := range contacts {
		names = append(names, c.Name)
	}
	return names
}
