package model

import "gorm.io/gorm"

// User 用户表：对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey"       json:"user_id"`
	Username     string `gorm:"type:varchar(50);not null"  json:"username"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`
	Timezone     string `gorm:"type:varchar(64);not null"  json:"timezone"` // IANA 名称，空则使用服务默认时区
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// BeforeCreate 生成主键
func (u *User) BeforeCreate(*gorm.DB) error {
	newID(&u.UserID)
	return nil
}
