package entity

import "time"

// QuotationRevision 报价条款的不可变快照。version从1起
// 单调递增且无空洞；写入后不再修改或删除（仓库层不提供
// Update/Delete）。
type QuotationRevision struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	QuotationID string `json:"quotation_id" gorm:"size:32;not null;index;uniqueIndex:uq_quotation_version,priority:1"`
	Version     int    `json:"version" gorm:"not null;uniqueIndex:uq_quotation_version,priority:2"`

	TotalAmount      float64 `json:"total_amount" gorm:"type:decimal(15,2);not null"`
	Currency         string  `json:"currency" gorm:"size:10"`
	LineItemsEncoded string  `json:"line_items_encoded" gorm:"type:text;not null"`

	DeliveryTime   string `json:"delivery_time" gorm:"size:100"`
	ValidityPeriod string `json:"validity_period" gorm:"size:100"`
	Notes          string `json:"notes" gorm:"type:text"`

	ChangedBy    string    `json:"changed_by" gorm:"size:32;not null"`
	ChangeReason string    `json:"change_reason" gorm:"size:500"`
	CreatedAt    time.Time `json:"created_at"`
}

func (QuotationRevision) TableName() string {
	return "quotation_revisions"
}
