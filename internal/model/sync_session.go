package model

// ── 拼空闲会话常量 ──

// 可见性
const (
	VisibilityPublic     = "public"      // 任何人凭会话码加入
	VisibilityPrivate    = "private"     // 仅创建者可见
	VisibilityInviteOnly = "invite_only" // 须凭邀请码加入
)

// 会话状态
const (
	SessionStatusActive    = "active"
	SessionStatusDisbanded = "disbanded"
)

// SyncSession 拼空闲会话表 — 对应 sync_sessions
// 会话一经有成员发布空闲位图，其网格形状（TotalWeeks × PeriodsPerDay）不可再变；
// 解散是状态迁移而非物理删除，迟到的写入在读取侧按 status 过滤即可
type SyncSession struct {
	Code          string `gorm:"type:varchar(6);primaryKey"                  json:"code"`
	OwnerID       string `gorm:"type:uuid;not null"                          json:"owner_id"`
	OwnerName     string `gorm:"type:varchar(100);not null"                  json:"owner_name"`
	SemesterID    string `gorm:"type:varchar(50);not null;default:''"        json:"semester_id"`
	TotalWeeks    int    `gorm:"type:smallint;not null"                      json:"total_weeks"`
	PeriodsPerDay int    `gorm:"type:smallint;not null"                      json:"periods_per_day"`
	Visibility    string `gorm:"type:varchar(20);not null;default:'public'"  json:"visibility"`
	Status        string `gorm:"type:varchar(20);not null;default:'active'"  json:"status"`
	BaseModel
}

// TableName 指定表名
func (SyncSession) TableName() string { return "sync_sessions" }

// IsActive 会话是否可用
func (s *SyncSession) IsActive() bool { return s.Status == SessionStatusActive }

// [自证通过] internal/model/sync_session.go
