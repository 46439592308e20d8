package model

import (
	"time"

	"gorm.io/gorm"
)

// Information 发音人信息表（information）
type Information struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Lang     string `gorm:"size:64"    json:"lang"`
	Gender   string `gorm:"size:8"     json:"gender"`
	Name     string `gorm:"size:64"    json:"name"`
	Duration string `gorm:"size:24"    json:"duration"`
	// 代号唯一，未填写时存 NULL，避免批量导入的空值互相冲突
	EngineNameID *string   `gorm:"size:64;unique" json:"engine_name_id"`
	UpdateDate   time.Time `json:"update_date"`
}

// TableName 指定表名
func (Information) TableName() string { return "information" }

// DisplayName 以姓名展示
func (i *Information) DisplayName() string { return i.Name }

// BeforeCreate 未指定更新日期时填充当前时间
func (i *Information) BeforeCreate(*gorm.DB) error {
	stampIfZero(&i.UpdateDate)
	return nil
}
