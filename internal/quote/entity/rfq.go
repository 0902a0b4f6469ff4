package entity

import "time"

// RFQ状态
const (
	RFQStatusOpen   = "open"
	RFQStatusClosed = "closed"
)

// RFQ 询价单（报价的父单据）。无外键级联：删除RFQ时由仓库层
// 在同一事务内手动清理子报价及其审批/版本/评论。
type RFQ struct {
	ID          string     `json:"id" gorm:"primaryKey;size:32"`
	Title       string     `json:"title" gorm:"size:200;not null"`
	Description string     `json:"description" gorm:"type:text"`
	BuyerID     string     `json:"buyer_id" gorm:"size:32;not null"`
	Status      string     `json:"status" gorm:"size:20;default:open"`
	Deadline    *time.Time `json:"deadline"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (RFQ) TableName() string {
	return "rfqs"
}
