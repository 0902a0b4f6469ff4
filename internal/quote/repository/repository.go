package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 报价仓库集合
type Repositories struct {
	RFQ       *RFQRepository
	Quotation *QuotationRepository
	Approval  *ApprovalRepository
	Revision  *RevisionRepository
	Comment   *CommentRepository
	User      *UserRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		RFQ:       NewRFQRepository(db),
		Quotation: NewQuotationRepository(db),
		Approval:  NewApprovalRepository(db),
		Revision:  NewRevisionRepository(db),
		Comment:   NewCommentRepository(db),
		User:      NewUserRepository(db),
	}
}
