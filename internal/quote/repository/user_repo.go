package repository

import (
	"context"
	"errors"

	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository 身份目录镜像仓库
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID 根据ID查找用户
func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var u entity.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindEligibleApprovers 可用审批人（role=approver且active），
// 按创建时间稳定排序，最多limit个。
func (r *UserRepository) FindEligibleApprovers(ctx context.Context, limit int) ([]entity.User, error) {
	var users []entity.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND active = ?", entity.RoleApprover, true).
		Order("created_at ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

// Upsert 目录同步：按ID覆盖写入
func (r *UserRepository) Upsert(ctx context.Context, users []entity.User) error {
	if len(users) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "email", "role", "active", "updated_at"}),
		}).
		Create(&users).Error
}
