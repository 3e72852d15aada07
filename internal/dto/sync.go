package dto

import "time"

// ── 拼空闲会话模块 ──

// ResolveCodeRequest 解析并加入（或创建）会话
// TotalWeeks/PeriodsPerDay 仅在会话码从未出现过、需要新建会话时生效，
// 取自客户端本地课表设置
type ResolveCodeRequest struct {
	Code          string `json:"code"            binding:"required"`
	SemesterID    string `json:"semester_id"`
	TotalWeeks    int    `json:"total_weeks"     binding:"omitempty,min=1,max=30"`
	PeriodsPerDay int    `json:"periods_per_day" binding:"omitempty,min=1,max=20"`
}

// SetVisibilityRequest 修改会话可见性
type SetVisibilityRequest struct {
	Visibility string `json:"visibility" binding:"required,oneof=public private invite_only"`
}

// SessionResponse 会话信息响应
type SessionResponse struct {
	Code          string    `json:"code"`
	OwnerID       string    `json:"owner_id"`
	OwnerName     string    `json:"owner_name"`
	SemesterID    string    `json:"semester_id"`
	TotalWeeks    int       `json:"total_weeks"`
	PeriodsPerDay int       `json:"periods_per_day"`
	Visibility    string    `json:"visibility"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// ── 邀请码 ──

// IssueInviteResponse 签发邀请码响应
type IssueInviteResponse struct {
	InviteCode string    `json:"invite_code"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ── 成员名单 ──

// PublishFreeSlotsRequest 发布本人空闲位图
// FreeSlots 为空串时表示仅加入、暂不发布
type PublishFreeSlotsRequest struct {
	FreeSlots string `json:"free_slots"`
}

// RosterMember 名单中的单个成员
type RosterMember struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	HasSlots    bool      `json:"has_slots"`
	JoinedAt    time.Time `json:"joined_at"`
}

// RosterSnapshot 名单全量快照（订阅推送的单位，整体替换而非增量）
type RosterSnapshot struct {
	SessionCode string         `json:"session_code"`
	Members     []RosterMember `json:"members"`
	ShareCount  int            `json:"share_count"` // 外部分享条数
}

// [自证通过] internal/dto/sync.go
