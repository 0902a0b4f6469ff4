package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/envelope"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/entity"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/repository"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/shared/lockstore"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/shared/mailer"
)

// RevisionService 修订与协商服务
type RevisionService struct {
	db     *gorm.DB
	repos  *repository.Repositories
	locks  *lockstore.Store
	mailer *mailer.Client
}

// NewRevisionService 创建修订与协商服务
func NewRevisionService(db *gorm.DB, repos *repository.Repositories, locks *lockstore.Store) *RevisionService {
	return &RevisionService{db: db, repos: repos, locks: locks}
}

// CreateRevisionReq 创建修订版本参数
type CreateRevisionReq struct {
	LineItems      []envelope.LineItem `json:"line_items" binding:"required"`
	DeliveryTime   string              `json:"delivery_time"`
	ValidityPeriod string              `json:"validity_period"`
	Notes          string              `json:"notes"`
	Reason         string              `json:"reason"`
}

// CreateRevision 供应商提交修订版本。版本号在行锁下取
// max(version)+1，保证单调无空洞；报价当前条款同步为新版本，
// 旧签名随条款变更作废，状态迁入negotiating
func (s *RevisionService) CreateRevision(ctx context.Context, actor Actor, quotationID string, req CreateRevisionReq) (*entity.QuotationRevision, error) {
	if s.locks != nil {
		release, err := s.locks.Acquire(ctx, quotationID)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	var revision *entity.QuotationRevision

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q, err := s.repos.Quotation.LockByID(ctx, tx, quotationID)
		if err != nil {
			if err == repository.ErrNotFound {
				return newError(KindNotFound, "报价单不存在")
			}
			return err
		}
		if q.VendorID != actor.ID && !actor.IsAdmin() {
			return newError(KindForbidden, "只有报价所属供应商可以提交修订")
		}
		if err := checkTransition(q.Status, entity.QuotationStatusNegotiating); err != nil {
			return err
		}

		encoded, err := envelope.Encode(req.LineItems)
		if err != nil {
			return fmt.Errorf("编码行项失败: %w", err)
		}
		total := envelope.SumTotal(req.LineItems)

		maxVersion, err := s.repos.Revision.MaxVersion(ctx, tx, quotationID)
		if err != nil {
			return err
		}

		rev := &entity.QuotationRevision{
			ID:               uuid.New().String()[:32],
			QuotationID:      quotationID,
			Version:          maxVersion + 1,
			TotalAmount:      total,
			Currency:         q.Currency,
			LineItemsEncoded: encoded,
			DeliveryTime:     req.DeliveryTime,
			ValidityPeriod:   req.ValidityPeriod,
			Notes:            req.Notes,
			ChangedBy:        actor.ID,
			ChangeReason:     req.Reason,
		}
		if err := tx.Create(rev).Error; err != nil {
			return fmt.Errorf("创建修订版本失败: %w", err)
		}

		// 当前条款跟随最新版本，旧签名作废
		q.TotalAmount = total
		q.LineItemsEncoded = encoded
		q.Signature = ""
		q.VerificationKey = ""
		q.Status = entity.QuotationStatusNegotiating
		if err := tx.Save(q).Error; err != nil {
			return fmt.Errorf("更新报价状态失败: %w", err)
		}

		revision = rev
		return nil
	})
	if err != nil {
		return nil, err
	}
	return revision, nil
}

// ListRevisions 按版本号升序返回修订历史。供应商只能看自己的
func (s *RevisionService) ListRevisions(ctx context.Context, actor Actor, quotationID string) ([]entity.QuotationRevision, error) {
	if _, err := s.loadScoped(ctx, actor, quotationID); err != nil {
		return nil, err
	}
	return s.repos.Revision.FindByQuotation(ctx, quotationID)
}

// VersionDiff 两个版本的结构化差异
type VersionDiff struct {
	QuotationID string `json:"quotation_id"`
	FromVersion int    `json:"from_version"`
	ToVersion   int    `json:"to_version"`

	FromAmount  float64 `json:"from_amount"`
	ToAmount    float64 `json:"to_amount"`
	AmountDelta float64 `json:"amount_delta"`
	// 基线金额为0时无法计算百分比，为null
	PercentChange *float64 `json:"percent_change"`

	FromItemCount int `json:"from_item_count"`
	ToItemCount   int `json:"to_item_count"`

	ChangedFields []string `json:"changed_fields"`
}

// CompareVersions 对比两个修订版本：金额差、百分比变化和
// 字段级变更清单
func (s *RevisionService) CompareVersions(ctx context.Context, actor Actor, quotationID string, from, to int) (*VersionDiff, error) {
	if _, err := s.loadScoped(ctx, actor, quotationID); err != nil {
		return nil, err
	}

	fromRev, err := s.repos.Revision.FindByVersion(ctx, quotationID, from)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, newError(KindNotFound, fmt.Sprintf("版本 %d 不存在", from))
		}
		return nil, err
	}
	toRev, err := s.repos.Revision.FindByVersion(ctx, quotationID, to)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, newError(KindNotFound, fmt.Sprintf("版本 %d 不存在", to))
		}
		return nil, err
	}

	fromItems, err := envelope.Decode(fromRev.LineItemsEncoded)
	if err != nil {
		return nil, newError(KindMalformedEnvelope, "行项信封损坏，无法对比")
	}
	toItems, err := envelope.Decode(toRev.LineItemsEncoded)
	if err != nil {
		return nil, newError(KindMalformedEnvelope, "行项信封损坏，无法对比")
	}

	diff := &VersionDiff{
		QuotationID:   quotationID,
		FromVersion:   from,
		ToVersion:     to,
		FromAmount:    fromRev.TotalAmount,
		ToAmount:      toRev.TotalAmount,
		AmountDelta:   math.Round((toRev.TotalAmount-fromRev.TotalAmount)*100) / 100,
		FromItemCount: len(fromItems),
		ToItemCount:   len(toItems),
	}
	if fromRev.TotalAmount != 0 {
		pct := math.Round(diff.AmountDelta/fromRev.TotalAmount*100*100) / 100
		diff.PercentChange = &pct
	}

	if fromRev.TotalAmount != toRev.TotalAmount {
		diff.ChangedFields = append(diff.ChangedFields, "total_amount")
	}
	if fromRev.LineItemsEncoded != toRev.LineItemsEncoded {
		diff.ChangedFields = append(diff.ChangedFields, "line_items")
	}
	if fromRev.DeliveryTime != toRev.DeliveryTime {
		diff.ChangedFields = append(diff.ChangedFields, "delivery_time")
	}
	if fromRev.ValidityPeriod != toRev.ValidityPeriod {
		diff.ChangedFields = append(diff.ChangedFields, "validity_period")
	}
	if fromRev.Notes != toRev.Notes {
		diff.ChangedFields = append(diff.ChangedFields, "notes")
	}
	return diff, nil
}

// AddCommentReq 添加评论参数
type AddCommentReq struct {
	Body            string  `json:"body" binding:"required"`
	Kind            string  `json:"kind" binding:"omitempty,oneof=general revision_request counter_offer clarification"`
	Internal        bool    `json:"internal"`
	ParentCommentID *string `json:"parent_comment_id"`
}

// AddComment 在报价讨论线程上添加评论。revision_request类型的
// 评论同时把报价单迁入revision_requested（同一事务）
func (s *RevisionService) AddComment(ctx context.Context, actor Actor, quotationID string, req AddCommentReq) (*entity.QuotationComment, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, newError(KindEmptyComment, "评论内容不能为空")
	}
	kind := req.Kind
	if kind == "" {
		kind = entity.CommentKindGeneral
	}
	if !entity.ValidCommentKind(kind) {
		return nil, newError(KindEmptyComment, "不支持的评论类型")
	}

	q, err := s.loadScoped(ctx, actor, quotationID)
	if err != nil {
		return nil, err
	}

	// internal评论和修订请求是采购侧动作
	internal := req.Internal
	if actor.IsVendor() {
		internal = false
		if kind == entity.CommentKindRevisionRequest {
			return nil, newError(KindForbidden, "供应商不能发起修订请求")
		}
	}

	if req.ParentCommentID != nil {
		parent, err := s.repos.Comment.FindByID(ctx, *req.ParentCommentID)
		if err != nil || parent.QuotationID != quotationID {
			return nil, newError(KindNotFound, "父评论不存在")
		}
	}

	comment := &entity.QuotationComment{
		ID:              uuid.New().String()[:32],
		QuotationID:     quotationID,
		AuthorID:        actor.ID,
		Body:            body,
		Kind:            kind,
		Internal:        internal,
		ParentCommentID: req.ParentCommentID,
	}

	if kind != entity.CommentKindRevisionRequest {
		if err := s.repos.Comment.Create(ctx, comment); err != nil {
			return nil, err
		}
		return comment, nil
	}

	// 修订请求：评论与状态迁移原子落库
	if s.locks != nil {
		release, err := s.locks.Acquire(ctx, quotationID)
		if err != nil {
			return nil, err
		}
		defer release()
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.repos.Quotation.LockByID(ctx, tx, quotationID)
		if err != nil {
			return err
		}
		if err := checkTransition(locked.Status, entity.QuotationStatusRevisionRequested); err != nil {
			return err
		}
		locked.Status = entity.QuotationStatusRevisionRequested
		if err := tx.Save(locked).Error; err != nil {
			return fmt.Errorf("更新报价状态失败: %w", err)
		}
		if err := tx.Create(comment).Error; err != nil {
			return fmt.Errorf("创建评论失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.mailer != nil {
		go s.notifyRevisionRequested(q, body)
	}
	return comment, nil
}

// RequestRevision 采购方请求供应商修订，reason必填。
// 等价于发布一条revision_request评论
func (s *RevisionService) RequestRevision(ctx context.Context, actor Actor, quotationID, reason, suggestedChanges string) (*entity.QuotationComment, error) {
	if !actor.IsApprover() && !actor.IsAdmin() {
		return nil, newError(KindForbidden, "只有审批人或管理员可以请求修订")
	}
	body := strings.TrimSpace(reason)
	if body == "" {
		return nil, newError(KindEmptyComment, "修订原因不能为空")
	}
	if changes := strings.TrimSpace(suggestedChanges); changes != "" {
		body = body + "\n建议变更：" + changes
	}
	return s.AddComment(ctx, actor, quotationID, AddCommentReq{
		Body: body,
		Kind: entity.CommentKindRevisionRequest,
	})
}

// ListComments 讨论线程（时间升序）。internal评论只对非本单供应商
// 隐藏：本单供应商、审批人、管理员看到全部
func (s *RevisionService) ListComments(ctx context.Context, actor Actor, quotationID string) ([]entity.QuotationComment, error) {
	q, err := s.repos.Quotation.FindByID(ctx, quotationID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, newError(KindNotFound, "报价单不存在")
		}
		return nil, err
	}
	includeInternal := !actor.IsVendor() || q.VendorID == actor.ID
	return s.repos.Comment.FindByQuotation(ctx, quotationID, includeInternal)
}

// loadScoped 加载报价并做供应商归属校验
func (s *RevisionService) loadScoped(ctx context.Context, actor Actor, quotationID string) (*entity.Quotation, error) {
	q, err := s.repos.Quotation.FindByID(ctx, quotationID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, newError(KindNotFound, "报价单不存在")
		}
		return nil, err
	}
	if actor.IsVendor() && q.VendorID != actor.ID {
		return nil, newError(KindForbidden, "无权访问该报价单")
	}
	return q, nil
}

func (s *RevisionService) notifyRevisionRequested(q *entity.Quotation, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	vendor, err := s.repos.User.FindByID(ctx, q.VendorID)
	if err != nil || vendor.Email == "" {
		return
	}
	if err := s.mailer.SendRevisionRequested(vendor.Email, q.QuoteNumber, reason); err != nil {
		log.Printf("[邮件] 修订请求通知发送失败 quotation=%s: %v", q.ID, err)
	}
}
