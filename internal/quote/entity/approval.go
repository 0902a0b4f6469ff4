package entity

import "time"

// 审批记录状态
const (
	ApprovalStatusPending  = "pending"
	ApprovalStatusApproved = "approved"
	ApprovalStatusRejected = "rejected"
)

// 审批决定
const (
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
)

// ApprovalRecord 单个审批人在单个层级上的审批记录。
// 只在提交时由编排器创建，之后不增不删；pending → approved/rejected
// 恰好一次，终态记录再次决定会被拒绝。
type ApprovalRecord struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	QuotationID string `json:"quotation_id" gorm:"size:32;not null;index;uniqueIndex:uq_quotation_level,priority:1"`
	ApproverID  string `json:"approver_id" gorm:"size:32;not null;index"`
	Level       int    `json:"level" gorm:"not null;uniqueIndex:uq_quotation_level,priority:2"` // 1起始，同报价内唯一

	Status   string `json:"status" gorm:"size:20;not null;default:pending"`
	Comments string `json:"comments" gorm:"type:text"`

	DecidedAt      *time.Time `json:"decided_at"`
	DecisionDigest string     `json:"decision_digest,omitempty" gorm:"size:64"` // 不可抵赖哈希

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	Approver *User `json:"approver,omitempty" gorm:"foreignKey:ApproverID"`
}

func (ApprovalRecord) TableName() string {
	return "quotation_approvals"
}
