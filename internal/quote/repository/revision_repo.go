package repository

import (
	"context"
	"errors"

	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/entity"
	"gorm.io/gorm"
)

// RevisionRepository 版本快照仓库。快照只追加：没有Update和Delete。
type RevisionRepository struct {
	db *gorm.DB
}

func NewRevisionRepository(db *gorm.DB) *RevisionRepository {
	return &RevisionRepository{db: db}
}

// FindByQuotation 报价的全部版本（升序）
func (r *RevisionRepository) FindByQuotation(ctx context.Context, quotationID string) ([]entity.QuotationRevision, error) {
	var revisions []entity.QuotationRevision
	err := r.db.WithContext(ctx).
		Where("quotation_id = ?", quotationID).
		Order("version ASC").
		Find(&revisions).Error
	return revisions, err
}

// FindByVersion 指定版本
func (r *RevisionRepository) FindByVersion(ctx context.Context, quotationID string, version int) (*entity.QuotationRevision, error) {
	var rev entity.QuotationRevision
	err := r.db.WithContext(ctx).
		Where("quotation_id = ? AND version = ?", quotationID, version).
		First(&rev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rev, nil
}

// MaxVersion 当前最大版本号（无版本时返回0）。
// 事务内调用，和报价行锁配合保证版本序列无空洞。
func (r *RevisionRepository) MaxVersion(ctx context.Context, tx *gorm.DB, quotationID string) (int, error) {
	var max int
	err := tx.WithContext(ctx).
		Model(&entity.QuotationRevision{}).
		Select("COALESCE(MAX(version), 0)").
		Where("quotation_id = ?", quotationID).
		Scan(&max).Error
	return max, err
}
