package entity

import "time"

// 评论类型
const (
	CommentKindGeneral         = "general"
	CommentKindRevisionRequest = "revision_request"
	CommentKindCounterOffer    = "counter_offer"
	CommentKindClarification   = "clarification"
)

// QuotationComment 报价讨论评论。parent_comment_id构成回复树；
// internal评论对非本单供应商不可见。revision_request类型的评论
// 总是伴随报价迁移到revision_requested。
type QuotationComment struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	QuotationID string `json:"quotation_id" gorm:"size:32;not null;index"`
	AuthorID    string `json:"author_id" gorm:"size:32;not null"`

	Body     string `json:"body" gorm:"type:text;not null"`
	Kind     string `json:"kind" gorm:"size:20;not null;default:general"`
	Internal bool   `json:"internal" gorm:"default:false"`

	ParentCommentID *string `json:"parent_comment_id,omitempty" gorm:"size:32"`

	CreatedAt time.Time `json:"created_at"`

	// 关联
	Author *User `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}

func (QuotationComment) TableName() string {
	return "quotation_comments"
}

// ValidCommentKind 评论类型合法性
func ValidCommentKind(kind string) bool {
	switch kind {
	case CommentKindGeneral, CommentKindRevisionRequest, CommentKindCounterOffer, CommentKindClarification:
		return true
	}
	return false
}
