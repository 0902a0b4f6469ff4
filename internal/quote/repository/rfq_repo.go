package repository

import (
	"context"
	"errors"

	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/entity"
	"gorm.io/gorm"
)

// RFQRepository 询价单仓库
type RFQRepository struct {
	db *gorm.DB
}

func NewRFQRepository(db *gorm.DB) *RFQRepository {
	return &RFQRepository{db: db}
}

// FindByID 根据ID查找询价单
func (r *RFQRepository) FindByID(ctx context.Context, id string) (*entity.RFQ, error) {
	var rfq entity.RFQ
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rfq).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rfq, nil
}

// FindAll 询价单列表
func (r *RFQRepository) FindAll(ctx context.Context, page, pageSize int, status string) ([]entity.RFQ, int64, error) {
	var items []entity.RFQ
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.RFQ{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error
	return items, total, err
}

// Create 创建询价单
func (r *RFQRepository) Create(ctx context.Context, rfq *entity.RFQ) error {
	return r.db.WithContext(ctx).Create(rfq).Error
}

// DeleteCascade 删除询价单。表之间没有外键级联，
// 子报价及其审批/版本/评论在同一事务内手动清理。
func (r *RFQRepository) DeleteCascade(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var quotationIDs []string
		if err := tx.Model(&entity.Quotation{}).
			Select("id").
			Where("rfq_id = ?", id).
			Find(&quotationIDs).Error; err != nil {
			return err
		}

		if len(quotationIDs) > 0 {
			if err := tx.Where("quotation_id IN ?", quotationIDs).Delete(&entity.ApprovalRecord{}).Error; err != nil {
				return err
			}
			if err := tx.Where("quotation_id IN ?", quotationIDs).Delete(&entity.QuotationRevision{}).Error; err != nil {
				return err
			}
			if err := tx.Where("quotation_id IN ?", quotationIDs).Delete(&entity.QuotationComment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("rfq_id = ?", id).Delete(&entity.Quotation{}).Error; err != nil {
				return err
			}
		}

		result := tx.Where("id = ?", id).Delete(&entity.RFQ{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
