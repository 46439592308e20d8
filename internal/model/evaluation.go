package model

import (
	"time"

	"gorm.io/gorm"
)

// Evaluation 评测（MOS 打分）记录表（evaluation）
type Evaluation struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Lang           string     `gorm:"size:64"    json:"lang"`
	MosType        string     `gorm:"size:64"    json:"mos_type"`
	MosDate        *time.Time `json:"mos_date"`
	MosSentenceNum string     `gorm:"size:32"    json:"mos_sentence_num"`
	MosPersonNum   string     `gorm:"size:32"    json:"mos_person_num"`
	UpdateDate     time.Time  `json:"update_date"`
}

// TableName 指定表名
func (Evaluation) TableName() string { return "evaluation" }

// DisplayName 以语种展示
func (e *Evaluation) DisplayName() string { return e.Lang }

// BeforeCreate 未指定更新日期时填充当前时间
func (e *Evaluation) BeforeCreate(*gorm.DB) error {
	stampIfZero(&e.UpdateDate)
	return nil
}
