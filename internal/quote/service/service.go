package service

import (
	"gorm.io/gorm"

	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/repository"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/shared/lockstore"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/shared/mailer"
)

// Actor 当前操作者，由JWT中间件解析注入
type Actor struct {
	ID   string
	Role string
}

func (a Actor) IsAdmin() bool    { return a.Role == "admin" }
func (a Actor) IsVendor() bool   { return a.Role == "vendor" }
func (a Actor) IsApprover() bool { return a.Role == "approver" }

// Services 服务集合
type Services struct {
	Quotation *QuotationService
	Approval  *ApprovalService
	Revision  *RevisionService
}

// NewServices 创建服务集合并完成相互装配
func NewServices(db *gorm.DB, repos *repository.Repositories, locks *lockstore.Store) *Services {
	approval := NewApprovalService(db, repos, locks)
	quotation := NewQuotationService(db, repos, locks)
	quotation.SetApprovalService(approval)
	revision := NewRevisionService(db, repos, locks)

	return &Services{
		Quotation: quotation,
		Approval:  approval,
		Revision:  revision,
	}
}

// SetMailer 注入邮件客户端（可为nil，nil时跳过通知）
func (s *Services) SetMailer(m *mailer.Client) {
	s.Quotation.mailer = m
	s.Approval.mailer = m
	s.Revision.mailer = m
}
