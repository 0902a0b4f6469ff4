package entity

import "time"

// 报价状态
const (
	QuotationStatusDraft             = "draft"
	QuotationStatusSubmitted         = "submitted"
	QuotationStatusUnderReview       = "under_review"
	QuotationStatusApproved          = "approved"
	QuotationStatusRejected          = "rejected"
	QuotationStatusRevisionRequested = "revision_requested"
	QuotationStatusNegotiating       = "negotiating"
)

// Quotation 供应商报价单。行项以编码blob入库，敏感子集
// （成本构成、利润率等）另存为对称加密payload，密钥不落库，
// 只保存sha256摘要。签名和验签公钥随单保存，私钥创建时
// 返回给供应商后即丢弃。
type Quotation struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	RFQID       string `json:"rfq_id" gorm:"size:32;not null;index"`
	VendorID    string `json:"vendor_id" gorm:"size:32;not null;index"`
	QuoteNumber string `json:"quote_number" gorm:"size:32;uniqueIndex;not null"` // 创建时分配，永不变更

	TotalAmount float64 `json:"total_amount" gorm:"type:decimal(15,2);not null"`
	Currency    string  `json:"currency" gorm:"size:10;default:USD"`

	LineItemsEncoded string `json:"line_items_encoded" gorm:"type:text;not null"`
	TermsConditions  string `json:"terms_conditions" gorm:"type:text"`

	// 加密信封
	EncryptedPayload    string `json:"encrypted_payload,omitempty" gorm:"type:text"`
	EncryptionKeyDigest string `json:"encryption_key_digest,omitempty" gorm:"size:64"`

	// 数字签名
	Signature       string `json:"signature,omitempty" gorm:"type:text"`
	VerificationKey string `json:"verification_key,omitempty" gorm:"type:text"`

	Status      string     `json:"status" gorm:"size:20;not null;default:draft"`
	SubmittedAt *time.Time `json:"submitted_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// 关联
	Approvals []ApprovalRecord    `json:"approvals,omitempty" gorm:"foreignKey:QuotationID"`
	Revisions []QuotationRevision `json:"revisions,omitempty" gorm:"foreignKey:QuotationID"`
}

func (Quotation) TableName() string {
	return "quotations"
}

// IsTerminal approved/rejected为终态，本引擎不再迁出
func (q *Quotation) IsTerminal() bool {
	return q.Status == QuotationStatusApproved || q.Status == QuotationStatusRejected
}
