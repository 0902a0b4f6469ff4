package repository

import (
	"context"
	"errors"

	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/entity"
	"gorm.io/gorm"
)

// CommentRepository 报价评论仓库
type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create 创建评论
func (r *CommentRepository) Create(ctx context.Context, c *entity.QuotationComment) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// FindByID 根据ID查找评论
func (r *CommentRepository) FindByID(ctx context.Context, id string) (*entity.QuotationComment, error) {
	var c entity.QuotationComment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindByQuotation 报价的全部评论（按创建时间升序）。
// includeInternal=false时过滤internal评论。
func (r *CommentRepository) FindByQuotation(ctx context.Context, quotationID string, includeInternal bool) ([]entity.QuotationComment, error) {
	query := r.db.WithContext(ctx).
		Where("quotation_id = ?", quotationID)
	if !includeInternal {
		query = query.Where("internal = ?", false)
	}

	var comments []entity.QuotationComment
	err := query.
		Preload("Author").
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}
