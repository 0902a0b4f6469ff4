package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/entity"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/repository"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/shared/lockstore"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/shared/mailer"
)

// 提交时指派的审批人数（层级数）
const approverFanOut = 2

// ApprovalService 审批编排服务
type ApprovalService struct {
	db     *gorm.DB
	repos  *repository.Repositories
	locks  *lockstore.Store
	mailer *mailer.Client
}

// NewApprovalService 创建审批编排服务
func NewApprovalService(db *gorm.DB, repos *repository.Repositories, locks *lockstore.Store) *ApprovalService {
	return &ApprovalService{db: db, repos: repos, locks: locks}
}

// createApprovalChain 提交时在同一事务内生成审批链。
// 按加入顺序取前N个在职审批人，层级从1开始；无可用审批人时
// 返回空链不报错，由提交方决定如何上抛。
// 修订后的重新提交复用既有审批链：记录只创建一次，
// 未决的审批人对新条款继续审批
func (s *ApprovalService) createApprovalChain(ctx context.Context, tx *gorm.DB, q *entity.Quotation) ([]entity.ApprovalRecord, []entity.User, error) {
	var existing []entity.ApprovalRecord
	if err := tx.Where("quotation_id = ?", q.ID).Order("level ASC").Find(&existing).Error; err != nil {
		return nil, nil, fmt.Errorf("查询审批链失败: %w", err)
	}
	if len(existing) > 0 {
		return existing, nil, nil
	}

	approvers, err := s.repos.User.FindEligibleApprovers(ctx, approverFanOut)
	if err != nil {
		return nil, nil, err
	}
	if len(approvers) == 0 {
		return nil, nil, nil
	}

	records := make([]entity.ApprovalRecord, 0, len(approvers))
	for i, u := range approvers {
		records = append(records, entity.ApprovalRecord{
			ID:          uuid.New().String()[:32],
			QuotationID: q.ID,
			ApproverID:  u.ID,
			Level:       i + 1,
			Status:      entity.ApprovalStatusPending,
		})
	}
	if err := tx.Create(&records).Error; err != nil {
		return nil, nil, fmt.Errorf("创建审批链失败: %w", err)
	}
	return records, approvers, nil
}

// Decide 审批决定（通过/驳回），每条记录恰好决定一次。
// 驳回立即短路：报价单直接终态rejected，兄弟记录保持pending；
// 通过则重新聚合，全部通过→approved，否则→under_review
func (s *ApprovalService) Decide(ctx context.Context, actor Actor, approvalID, decision, comments string) (*entity.ApprovalRecord, error) {
	if decision != entity.DecisionApproved && decision != entity.DecisionRejected {
		return nil, newError(KindInvalidTransition, "决定只能是 approved 或 rejected")
	}

	head, err := s.repos.Approval.FindByID(ctx, approvalID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, newError(KindNotFound, "审批记录不存在")
		}
		return nil, err
	}

	if s.locks != nil {
		release, err := s.locks.Acquire(ctx, head.QuotationID)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	var decided *entity.ApprovalRecord
	var quotation *entity.Quotation

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 报价行锁串行化同一报价上的并发决定
		q, err := s.repos.Quotation.LockByID(ctx, tx, head.QuotationID)
		if err != nil {
			if err == repository.ErrNotFound {
				return newError(KindNotFound, "报价单不存在")
			}
			return err
		}

		var rec entity.ApprovalRecord
		if err := tx.Where("id = ?", approvalID).First(&rec).Error; err != nil {
			return newError(KindNotFound, "审批记录不存在")
		}
		if rec.ApproverID != actor.ID {
			return newError(KindForbidden, "只有被指派的审批人本人可以做出决定")
		}
		if rec.Status != entity.ApprovalStatusPending {
			return newError(KindAlreadyDecided, "该审批记录已有决定，不能重复审批")
		}
		if q.IsTerminal() {
			return newError(KindInvalidTransition, "报价单已是终态，不再接受审批决定")
		}

		now := time.Now()
		rec.Status = decision
		rec.Comments = comments
		rec.DecidedAt = &now
		rec.DecisionDigest = decisionDigest(rec.QuotationID, actor.ID, decision, now)
		if err := tx.Save(&rec).Error; err != nil {
			return fmt.Errorf("更新审批记录失败: %w", err)
		}

		if decision == entity.DecisionRejected {
			// 短路驳回，兄弟记录不动
			if err := checkTransition(q.Status, entity.QuotationStatusRejected); err != nil {
				return err
			}
			q.Status = entity.QuotationStatusRejected
		} else {
			var siblings []entity.ApprovalRecord
			if err := tx.Where("quotation_id = ?", q.ID).Find(&siblings).Error; err != nil {
				return fmt.Errorf("查询审批链失败: %w", err)
			}
			allApproved := true
			for _, sib := range siblings {
				if sib.Status != entity.ApprovalStatusApproved {
					allApproved = false
					break
				}
			}
			target := entity.QuotationStatusUnderReview
			if allApproved {
				target = entity.QuotationStatusApproved
			}
			if err := checkTransition(q.Status, target); err != nil {
				return err
			}
			q.Status = target
		}
		if err := tx.Save(q).Error; err != nil {
			return fmt.Errorf("更新报价状态失败: %w", err)
		}

		decided = &rec
		quotation = q
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 终态时异步通知供应商
	if s.mailer != nil && quotation.IsTerminal() {
		go s.notifyVendor(quotation)
	}

	return decided, nil
}

func (s *ApprovalService) notifyVendor(q *entity.Quotation) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	vendor, err := s.repos.User.FindByID(ctx, q.VendorID)
	if err != nil || vendor.Email == "" {
		return
	}
	if err := s.mailer.SendDecisionResult(vendor.Email, q.QuoteNumber, q.Status); err != nil {
		log.Printf("[邮件] 审批结果通知发送失败 quotation=%s: %v", q.ID, err)
	}
}

// ListPending 查询当前审批人的待办列表
func (s *ApprovalService) ListPending(ctx context.Context, actor Actor) ([]entity.ApprovalRecord, error) {
	return s.repos.Approval.FindPendingByApprover(ctx, actor.ID)
}

// ListByQuotation 查询某报价的完整审批链。供应商只能看自己的
func (s *ApprovalService) ListByQuotation(ctx context.Context, actor Actor, quotationID string) ([]entity.ApprovalRecord, error) {
	q, err := s.repos.Quotation.FindByID(ctx, quotationID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, newError(KindNotFound, "报价单不存在")
		}
		return nil, err
	}
	if actor.IsVendor() && q.VendorID != actor.ID {
		return nil, newError(KindForbidden, "无权查看该报价单的审批链")
	}
	return s.repos.Approval.FindByQuotation(ctx, quotationID)
}

// SendPendingReminders 定时任务入口：给积压超过cutoff的审批人
// 发送催办邮件，按审批人聚合
func (s *ApprovalService) SendPendingReminders(ctx context.Context, olderThan time.Duration) {
	if s.mailer == nil {
		return
	}
	cutoff := time.Now().Add(-olderThan).Unix()
	records, err := s.repos.Approval.FindPendingOlderThan(ctx, cutoff)
	if err != nil {
		log.Printf("[催办] 查询积压审批失败: %v", err)
		return
	}

	counts := make(map[string]int)
	emails := make(map[string]string)
	for _, rec := range records {
		counts[rec.ApproverID]++
		if rec.Approver != nil {
			emails[rec.ApproverID] = rec.Approver.Email
		}
	}
	for approverID, count := range counts {
		email := emails[approverID]
		if email == "" {
			continue
		}
		if err := s.mailer.SendPendingReminder(email, count); err != nil {
			log.Printf("[催办] 催办邮件发送失败 approver=%s: %v", approverID, err)
		}
	}
}

// decisionDigest 决定的不可抵赖摘要：报价单ID、审批人、决定、时间
// 的sha256，写入后不再变更
func decisionDigest(quotationID, approverID, decision string, decidedAt time.Time) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%s",
		quotationID, approverID, decision, decidedAt.UTC().Format(time.RFC3339Nano))))
	return hex.EncodeToString(h[:])
}
