package repository

import (
	"context"
	"errors"

	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/entity"
	"gorm.io/gorm"
)

// ApprovalRepository 审批记录仓库。记录只在提交时创建，
// 之后只允许从pending更新到终态，不提供删除。
type ApprovalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// FindByID 根据ID查找审批记录
func (r *ApprovalRepository) FindByID(ctx context.Context, id string) (*entity.ApprovalRecord, error) {
	var rec entity.ApprovalRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// FindByQuotation 报价的全部审批记录（按层级）
func (r *ApprovalRepository) FindByQuotation(ctx context.Context, quotationID string) ([]entity.ApprovalRecord, error) {
	var records []entity.ApprovalRecord
	err := r.db.WithContext(ctx).
		Where("quotation_id = ?", quotationID).
		Order("level ASC").
		Find(&records).Error
	return records, err
}

// FindPendingByApprover 审批人的待办记录
func (r *ApprovalRepository) FindPendingByApprover(ctx context.Context, approverID string) ([]entity.ApprovalRecord, error) {
	var records []entity.ApprovalRecord
	err := r.db.WithContext(ctx).
		Where("approver_id = ? AND status = ?", approverID, entity.ApprovalStatusPending).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

// FindPendingOlderThan 查找超过给定时刻仍未处理的记录（提醒任务用）
func (r *ApprovalRepository) FindPendingOlderThan(ctx context.Context, cutoff int64) ([]entity.ApprovalRecord, error) {
	var records []entity.ApprovalRecord
	err := r.db.WithContext(ctx).
		Where("status = ? AND EXTRACT(EPOCH FROM created_at) < ?", entity.ApprovalStatusPending, cutoff).
		Preload("Approver").
		Find(&records).Error
	return records, err
}
