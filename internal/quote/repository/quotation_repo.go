package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuotationRepository 报价仓库
type QuotationRepository struct {
	db *gorm.DB
}

func NewQuotationRepository(db *gorm.DB) *QuotationRepository {
	return &QuotationRepository{db: db}
}

// FindAll 查询报价列表
func (r *QuotationRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Quotation, int64, error) {
	var items []entity.Quotation
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Quotation{})

	if rfqID := filters["rfq_id"]; rfqID != "" {
		query = query.Where("rfq_id = ?", rfqID)
	}
	if vendorID := filters["vendor_id"]; vendorID != "" {
		query = query.Where("vendor_id = ?", vendorID)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if search := filters["search"]; search != "" {
		query = query.Where("quote_number ILIKE ?", "%"+search+"%")
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

// FindByID 根据ID查找报价
func (r *QuotationRepository) FindByID(ctx context.Context, id string) (*entity.Quotation, error) {
	var q entity.Quotation
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&q).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

// FindByIDWithApprovals 报价详情（含审批记录，按层级排序）
func (r *QuotationRepository) FindByIDWithApprovals(ctx context.Context, id string) (*entity.Quotation, error) {
	var q entity.Quotation
	err := r.db.WithContext(ctx).
		Preload("Approvals", func(db *gorm.DB) *gorm.DB {
			return db.Order("level ASC")
		}).
		Preload("Approvals.Approver").
		Where("id = ?", id).
		First(&q).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

// LockByID 行锁读取（事务内使用，保护状态聚合的读-改-写）
func (r *QuotationRepository) LockByID(ctx context.Context, tx *gorm.DB, id string) (*entity.Quotation, error) {
	var q entity.Quotation
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&q).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

// Create 创建报价
func (r *QuotationRepository) Create(ctx context.Context, q *entity.Quotation) error {
	return r.db.WithContext(ctx).Create(q).Error
}

// Update 更新报价
func (r *QuotationRepository) Update(ctx context.Context, q *entity.Quotation) error {
	return r.db.WithContext(ctx).Save(q).Error
}

// GenerateNumber 生成报价编号 QT-{year}-{4位}
func (r *QuotationRepository) GenerateNumber(ctx context.Context) (string, error) {
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("QT-%s-", year)

	var maxNumber string
	err := r.db.WithContext(ctx).
		Model(&entity.Quotation{}).
		Select("COALESCE(MAX(quote_number), '')").
		Where("quote_number LIKE ?", prefix+"%").
		Scan(&maxNumber).Error
	if err != nil {
		return "", err
	}

	seq := 1
	if maxNumber != "" {
		fmt.Sscanf(maxNumber, prefix+"%04d", &seq)
		seq++
	}
	return fmt.Sprintf("%s%04d", prefix, seq), nil
}
