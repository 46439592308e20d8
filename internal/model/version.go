package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Version 版本备注表（version）
type Version struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OtherComment string    `gorm:"type:text"  json:"other_comment"`
	UpdateTime   time.Time `json:"update_time"`
}

// TableName 指定表名
func (Version) TableName() string { return "version" }

// DisplayName 版本没有名称字段，以编号展示
func (v *Version) DisplayName() string { return fmt.Sprintf("#%d", v.ID) }

// BeforeCreate 未指定更新时间时填充当前时间
func (v *Version) BeforeCreate(*gorm.DB) error {
	stampIfZero(&v.UpdateTime)
	return nil
}
