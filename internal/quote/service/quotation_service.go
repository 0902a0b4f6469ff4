package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/envelope"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/entity"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/repository"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/shared/lockstore"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/shared/mailer"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/signature"
)

// QuotationService 报价单服务
type QuotationService struct {
	db          *gorm.DB
	repos       *repository.Repositories
	locks       *lockstore.Store
	mailer      *mailer.Client
	approvalSvc *ApprovalService
}

// NewQuotationService 创建报价单服务
func NewQuotationService(db *gorm.DB, repos *repository.Repositories, locks *lockstore.Store) *QuotationService {
	return &QuotationService{db: db, repos: repos, locks: locks}
}

// SetApprovalService 注入审批编排器（提交时生成审批链用）
func (s *QuotationService) SetApprovalService(svc *ApprovalService) {
	s.approvalSvc = svc
}

// CreateQuotationReq 创建报价请求参数
type CreateQuotationReq struct {
	RFQID            string              `json:"rfq_id" binding:"required"`
	Currency         string              `json:"currency"`
	TermsConditions  string              `json:"terms_conditions"`
	LineItems        []envelope.LineItem `json:"line_items" binding:"required"`
	SensitivePayload string              `json:"sensitive_payload"`
}

// CreateQuotationResult 创建结果。EncryptionKey和SigningKey只在
// 本次响应中出现一次，服务端不保存，丢失无法找回。
type CreateQuotationResult struct {
	Quotation     *entity.Quotation `json:"quotation"`
	EncryptionKey string            `json:"encryption_key,omitempty"`
	SigningKey    string            `json:"signing_key"`
}

// Create 创建报价单（草稿态）
// 行项编码入库并汇总金额；敏感payload用一次性对称密钥加密，
// 密钥只返回摘要落库；同时对规范化载荷生成数字签名
func (s *QuotationService) Create(ctx context.Context, actor Actor, req CreateQuotationReq) (*CreateQuotationResult, error) {
	rfq, err := s.repos.RFQ.FindByID(ctx, req.RFQID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, newError(KindNotFound, "询价单不存在")
		}
		return nil, err
	}
	if rfq.Status != entity.RFQStatusOpen {
		return nil, newError(KindInvalidTransition, "询价单已关闭，不能创建报价")
	}

	encoded, err := envelope.Encode(req.LineItems)
	if err != nil {
		return nil, fmt.Errorf("编码行项失败: %w", err)
	}
	total := envelope.SumTotal(req.LineItems)

	quoteNumber, err := s.repos.Quotation.GenerateNumber(ctx)
	if err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	q := &entity.Quotation{
		ID:               uuid.New().String()[:32],
		RFQID:            req.RFQID,
		VendorID:         actor.ID,
		QuoteNumber:      quoteNumber,
		TotalAmount:      total,
		Currency:         currency,
		LineItemsEncoded: encoded,
		TermsConditions:  req.TermsConditions,
		Status:           entity.QuotationStatusDraft,
	}

	// 敏感payload加密信封：密钥即用即丢，只留摘要
	var encryptionKey string
	if req.SensitivePayload != "" {
		encryptionKey, err = envelope.GenerateKey()
		if err != nil {
			return nil, err
		}
		q.EncryptedPayload = envelope.Encrypt(req.SensitivePayload, encryptionKey)
		q.EncryptionKeyDigest = envelope.KeyDigest(encryptionKey)
	}

	// 数字签名：私钥返回供应商后不再保存
	canonical, err := signature.CanonicalPayload(q.QuoteNumber, q.RFQID, q.TotalAmount, req.LineItems)
	if err != nil {
		return nil, err
	}
	publicKey, privateKey, err := signature.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	sig, err := signature.Sign(canonical, privateKey)
	if err != nil {
		return nil, err
	}
	q.Signature = sig
	q.VerificationKey = publicKey

	if err := s.repos.Quotation.Create(ctx, q); err != nil {
		return nil, err
	}

	return &CreateQuotationResult{
		Quotation:     q,
		EncryptionKey: encryptionKey,
		SigningKey:    privateKey,
	}, nil
}

// SubmitQuotationReq 提交参数。修订后重新提交时可携带对当前条款
// 的新签名和验签公钥，替换已失效的旧签名
type SubmitQuotationReq struct {
	Signature       string `json:"signature"`
	VerificationKey string `json:"verification_key"`
}

// Submit 提交报价进入审批流。状态迁入submitted并生成审批链；
// 没有可用审批人时提交仍然落库，但向调用方返回
// no_approvers_available，由采购方补充审批人后重新触发
func (s *QuotationService) Submit(ctx context.Context, actor Actor, quotationID string, req SubmitQuotationReq) (*entity.Quotation, error) {
	if s.locks != nil {
		release, err := s.locks.Acquire(ctx, quotationID)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	var quotation *entity.Quotation
	var chain []entity.ApprovalRecord
	var approvers []entity.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q, err := s.repos.Quotation.LockByID(ctx, tx, quotationID)
		if err != nil {
			if err == repository.ErrNotFound {
				return newError(KindNotFound, "报价单不存在")
			}
			return err
		}
		if q.VendorID != actor.ID && !actor.IsAdmin() {
			return newError(KindForbidden, "只有报价所属供应商可以提交")
		}
		if err := checkTransition(q.Status, entity.QuotationStatusSubmitted); err != nil {
			return err
		}

		// 修订后的重新提交携带新签名
		if req.Signature != "" && req.VerificationKey != "" {
			q.Signature = req.Signature
			q.VerificationKey = req.VerificationKey
		}

		now := time.Now()
		q.Status = entity.QuotationStatusSubmitted
		q.SubmittedAt = &now
		if err := tx.Save(q).Error; err != nil {
			return fmt.Errorf("更新报价状态失败: %w", err)
		}

		chain, approvers, err = s.approvalSvc.createApprovalChain(ctx, tx, q)
		if err != nil {
			return err
		}
		quotation = q
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 异步通知审批人
	if s.mailer != nil && len(approvers) > 0 {
		go s.notifyApprovers(quotation.QuoteNumber, chain, approvers)
	}

	if len(chain) == 0 {
		return quotation, newError(KindNoApproversAvailable, "当前没有可用的审批人，报价已提交待指派")
	}
	quotation.Approvals = chain
	return quotation, nil
}

func (s *QuotationService) notifyApprovers(quoteNumber string, chain []entity.ApprovalRecord, approvers []entity.User) {
	emailByID := make(map[string]string, len(approvers))
	for _, u := range approvers {
		emailByID[u.ID] = u.Email
	}
	for _, rec := range chain {
		email := emailByID[rec.ApproverID]
		if email == "" {
			continue
		}
		if err := s.mailer.SendApprovalAssigned(email, quoteNumber, rec.Level); err != nil {
			log.Printf("[邮件] 审批指派通知发送失败 quotation=%s approver=%s: %v", rec.QuotationID, rec.ApproverID, err)
		}
	}
}

// Get 查询单个报价（含审批链）。供应商只能看到自己的报价
func (s *QuotationService) Get(ctx context.Context, actor Actor, id string) (*entity.Quotation, error) {
	q, err := s.repos.Quotation.FindByIDWithApprovals(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, newError(KindNotFound, "报价单不存在")
		}
		return nil, err
	}
	if actor.IsVendor() && q.VendorID != actor.ID {
		return nil, newError(KindForbidden, "无权查看该报价单")
	}
	return q, nil
}

// List 分页查询报价列表。供应商视角强制按vendor_id过滤
func (s *QuotationService) List(ctx context.Context, actor Actor, page, pageSize int, filters map[string]string) ([]entity.Quotation, int64, error) {
	if filters == nil {
		filters = make(map[string]string)
	}
	if actor.IsVendor() {
		filters["vendor_id"] = actor.ID
	}
	return s.repos.Quotation.FindAll(ctx, page, pageSize, filters)
}

// VerifyResult 验签结果
type VerifyResult struct {
	QuotationID string `json:"quotation_id"`
	QuoteNumber string `json:"quote_number"`
	Valid       bool   `json:"valid"`
}

// VerifySignature 对报价当前条款重建规范化载荷并验签。
// 修订后的报价签名覆盖的是旧条款，验签结果为false
func (s *QuotationService) VerifySignature(ctx context.Context, id string) (*VerifyResult, error) {
	q, err := s.repos.Quotation.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, newError(KindNotFound, "报价单不存在")
		}
		return nil, err
	}

	result := &VerifyResult{QuotationID: q.ID, QuoteNumber: q.QuoteNumber}
	if q.Signature == "" || q.VerificationKey == "" {
		return result, nil
	}

	items, err := envelope.Decode(q.LineItemsEncoded)
	if err != nil {
		return nil, newError(KindMalformedEnvelope, "行项信封损坏，无法重建签名载荷")
	}
	canonical, err := signature.CanonicalPayload(q.QuoteNumber, q.RFQID, q.TotalAmount, items)
	if err != nil {
		return nil, err
	}
	result.Valid = signature.Verify(canonical, q.Signature, q.VerificationKey)
	return result, nil
}

// DecryptPayload 用调用方持有的密钥解密敏感payload。
// 先比对密钥摘要，不匹配直接拒绝，不做解密尝试
func (s *QuotationService) DecryptPayload(ctx context.Context, actor Actor, id, key string) (string, error) {
	q, err := s.repos.Quotation.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return "", newError(KindNotFound, "报价单不存在")
		}
		return "", err
	}
	if actor.IsVendor() && q.VendorID != actor.ID {
		return "", newError(KindForbidden, "无权访问该报价单的加密内容")
	}
	if q.EncryptedPayload == "" {
		return "", newError(KindNotFound, "该报价单没有加密payload")
	}

	plaintext, err := envelope.DecryptChecked(q.EncryptedPayload, key, q.EncryptionKeyDigest)
	if err != nil {
		if err == envelope.ErrInvalidKey {
			return "", newError(KindInvalidKey, "密钥不正确")
		}
		return "", err
	}
	return plaintext, nil
}

// Export 导出报价单为Excel（含行项和审批历史）
func (s *QuotationService) Export(ctx context.Context, actor Actor, id string) (*excelize.File, error) {
	q, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	items, err := envelope.Decode(q.LineItemsEncoded)
	if err != nil {
		return nil, newError(KindMalformedEnvelope, "行项信封损坏，无法导出")
	}

	f := excelize.NewFile()
	sheet := "报价单"
	f.SetSheetName("Sheet1", sheet)

	f.SetCellValue(sheet, "A1", "报价单编号")
	f.SetCellValue(sheet, "B1", q.QuoteNumber)
	f.SetCellValue(sheet, "A2", "状态")
	f.SetCellValue(sheet, "B2", q.Status)
	f.SetCellValue(sheet, "A3", "总金额")
	f.SetCellValue(sheet, "B3", q.TotalAmount)
	f.SetCellValue(sheet, "C3", q.Currency)

	// 行项明细
	headers := []string{"物料名称", "描述", "数量", "单位", "单价", "小计"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 5)
		f.SetCellValue(sheet, cell, h)
	}
	for i, item := range items {
		row := 6 + i
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), item.ItemName)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), item.Description)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), item.Quantity)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), item.Unit)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), item.UnitPrice)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), item.Total())
	}

	// 审批历史
	base := 7 + len(items)
	f.SetCellValue(sheet, fmt.Sprintf("A%d", base), "审批层级")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", base), "状态")
	f.SetCellValue(sheet, fmt.Sprintf("C%d", base), "意见")
	f.SetCellValue(sheet, fmt.Sprintf("D%d", base), "决定时间")
	for i, rec := range q.Approvals {
		row := base + 1 + i
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), rec.Level)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), rec.Status)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), rec.Comments)
		if rec.DecidedAt != nil {
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), rec.DecidedAt.Format("2006-01-02 15:04:05"))
		}
	}

	return f, nil
}
