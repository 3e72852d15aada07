package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/model"
)

// SessionRepository 拼空闲会话数据访问接口
type SessionRepository interface {
	Create(ctx context.Context, session *model.SyncSession) error
	GetByCode(ctx context.Context, code string) (*model.SyncSession, error)
	// ListPublic 列出最新的公开且活跃会话，按创建时间倒序，最多 limit 条
	ListPublic(ctx context.Context, limit int) ([]model.SyncSession, error)
	UpdateVisibility(ctx context.Context, code, visibility string) error
	UpdateStatus(ctx context.Context, code, status string) error
}

type sessionRepo struct {
	db *gorm.DB
}

// NewSessionRepo 创建 SessionRepository 实例
func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.SyncSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepo) GetByCode(ctx context.Context, code string) (*model.SyncSession, error) {
	var session model.SyncSession
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) ListPublic(ctx context.Context, limit int) ([]model.SyncSession, error) {
	var sessions []model.SyncSession
	err := r.db.WithContext(ctx).
		Where("visibility = ? AND status = ?", model.VisibilityPublic, model.SessionStatusActive).
		Order("created_at DESC").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) UpdateVisibility(ctx context.Context, code, visibility string) error {
	return r.db.WithContext(ctx).
		Model(&model.SyncSession{}).
		Where("code = ?", code).
		Update("visibility", visibility).Error
}

func (r *sessionRepo) UpdateStatus(ctx context.Context, code, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.SyncSession{}).
		Where("code = ?", code).
		Update("status", status).Error
}

// [自证通过] internal/repository/sync_session_repo.go
