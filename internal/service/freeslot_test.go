package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/model"
)

func TestEncodeFreeSlots_Deterministic(t *testing.T) {
	shape := GridShape{TotalWeeks: 3, PeriodsPerDay: 5}
	courses := []model.CourseSchedule{
		{CourseName: "高数", DayOfWeek: 1, StartPeriod: 1, EndPeriod: 2, Weeks: model.IntArray{1, 2, 3}},
		{CourseName: "英语", DayOfWeek: 3, StartPeriod: 3, EndPeriod: 4, Weeks: model.IntArray{2}},
	}

	first, err := EncodeFreeSlots(courses, shape)
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}
	if len(first) != shape.VectorLen() {
		t.Fatalf("位图长度 = %d, 期望 %d", len(first), shape.VectorLen())
	}
	for i := 0; i < 10; i++ {
		again, err := EncodeFreeSlots(courses, shape)
		if err != nil {
			t.Fatalf("重复编码失败: %v", err)
		}
		if again != first {
			t.Fatalf("同样输入产出了不同位图")
		}
	}
}

func TestEncodeFreeSlots_MarksBusy(t *testing.T) {
	shape := GridShape{TotalWeeks: 2, PeriodsPerDay: 3}
	courses := []model.CourseSchedule{
		{DayOfWeek: 2, StartPeriod: 2, EndPeriod: 3, Weeks: model.IntArray{1}},
	}

	vector, err := EncodeFreeSlots(courses, shape)
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}

	for i := 0; i < len(vector); i++ {
		week, day, period := SlotAt(i, shape.PeriodsPerDay)
		busy := week == 1 && day == 2 && (period == 2 || period == 3)
		want := byte('1')
		if busy {
			want = '0'
		}
		if vector[i] != want {
			t.Errorf("下标 %d (周%d 星期%d 第%d节) = %c, 期望 %c", i, week, day, period, vector[i], want)
		}
	}
}

func TestEncodeFreeSlots_ClampAndSkip(t *testing.T) {
	shape := GridShape{TotalWeeks: 1, PeriodsPerDay: 4}
	courses := []model.CourseSchedule{
		// 节次越界：钳到 [1, 4]
		{DayOfWeek: 1, StartPeriod: 0, EndPeriod: 99, Weeks: model.IntArray{1}},
		// 星期非法：整条跳过
		{DayOfWeek: 8, StartPeriod: 1, EndPeriod: 2, Weeks: model.IntArray{1}},
		// 钳后区间为空：整条跳过
		{DayOfWeek: 2, StartPeriod: 5, EndPeriod: 6, Weeks: model.IntArray{1}},
		// 周次越界的部分忽略
		{DayOfWeek: 3, StartPeriod: 1, EndPeriod: 1, Weeks: model.IntArray{0, 5}},
	}

	vector, err := EncodeFreeSlots(courses, shape)
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}

	// 周一整天被钳满
	for p := 1; p <= 4; p++ {
		if vector[SlotIndex(1, 1, p, 4)] != '0' {
			t.Errorf("周一第%d节应为忙碌", p)
		}
	}
	// 其余全部空闲
	if strings.Count(vector, "0") != 4 {
		t.Errorf("忙碌格数 = %d, 期望 4", strings.Count(vector, "0"))
	}
}

func TestSlotIndex_RoundTrip(t *testing.T) {
	shape := GridShape{TotalWeeks: 4, PeriodsPerDay: 6}
	for week := 1; week <= shape.TotalWeeks; week++ {
		for day := 1; day <= 7; day++ {
			for period := 1; period <= shape.PeriodsPerDay; period++ {
				idx := SlotIndex(week, day, period, shape.PeriodsPerDay)
				w, d, p := SlotAt(idx, shape.PeriodsPerDay)
				if w != week || d != day || p != period {
					t.Fatalf("(%d,%d,%d) 经下标 %d 还原为 (%d,%d,%d)", week, day, period, idx, w, d, p)
				}
			}
		}
	}
}

func TestIntersectFreeSlots_Empty(t *testing.T) {
	if _, err := IntersectFreeSlots(nil); !errors.Is(err, ErrNoFreeSlotData) {
		t.Fatalf("空来源期望 ErrNoFreeSlotData, got %v", err)
	}
}

func TestIntersectFreeSlots_Identity(t *testing.T) {
	v := "101100"
	got, err := IntersectFreeSlots([]string{v})
	if err != nil {
		t.Fatalf("交集失败: %v", err)
	}
	if got != v {
		t.Fatalf("单来源交集 = %s, 期望 %s", got, v)
	}
}

func TestIntersectFreeSlots_LengthMismatch(t *testing.T) {
	_, err := IntersectFreeSlots([]string{"1111", "111"})
	if !errors.Is(err, ErrSlotsLengthMismatch) {
		t.Fatalf("长度不一致期望 ErrSlotsLengthMismatch, got %v", err)
	}
}

func TestIntersectFreeSlots_CommutativeAssociativeIdempotent(t *testing.T) {
	a := "110101"
	b := "011101"
	c := "111001"

	abc, err := IntersectFreeSlots([]string{a, b, c})
	if err != nil {
		t.Fatalf("交集失败: %v", err)
	}

	// 交换律：任意顺序结果一致
	perms := [][]string{
		{a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a},
	}
	for _, p := range perms {
		got, err := IntersectFreeSlots(p)
		if err != nil {
			t.Fatalf("交集失败: %v", err)
		}
		if got != abc {
			t.Fatalf("顺序 %v 结果 %s, 期望 %s", p, got, abc)
		}
	}

	// 结合律：分步计算与一步到位一致
	ab, _ := IntersectFreeSlots([]string{a, b})
	stepwise, _ := IntersectFreeSlots([]string{ab, c})
	if stepwise != abc {
		t.Fatalf("分步交集 %s, 期望 %s", stepwise, abc)
	}

	// 幂等：来源重复不改变结果
	dup, _ := IntersectFreeSlots([]string{a, b, c, a, b, c})
	if dup != abc {
		t.Fatalf("重复来源交集 %s, 期望 %s", dup, abc)
	}
}

// 2 周 × 每天 2 节（位图长 28）：A 仅下标 5 忙，B 下标 5 和 10 忙，
// 交集应恰好在 5 和 10 处为 '0'
func TestIntersectFreeSlots_TwoMemberScenario(t *testing.T) {
	shape := GridShape{TotalWeeks: 2, PeriodsPerDay: 2}
	n := shape.VectorLen()
	if n != 28 {
		t.Fatalf("网格大小 = %d, 期望 28", n)
	}

	vecA := []byte(strings.Repeat("1", n))
	vecA[5] = '0'
	vecB := []byte(strings.Repeat("1", n))
	vecB[5] = '0'
	vecB[10] = '0'

	got, err := IntersectFreeSlots([]string{string(vecA), string(vecB)})
	if err != nil {
		t.Fatalf("交集失败: %v", err)
	}
	for i := 0; i < n; i++ {
		want := byte('1')
		if i == 5 || i == 10 {
			want = '0'
		}
		if got[i] != want {
			t.Errorf("下标 %d = %c, 期望 %c", i, got[i], want)
		}
	}
}

func TestRenderWeek(t *testing.T) {
	shape := GridShape{TotalWeeks: 2, PeriodsPerDay: 2}
	vector := []byte(strings.Repeat("0", shape.VectorLen()))
	// 第 2 周周三第 1 节、周五第 2 节空闲
	vector[SlotIndex(2, 3, 1, 2)] = '1'
	vector[SlotIndex(2, 5, 2, 2)] = '1'
	// 第 1 周的空闲不应出现在第 2 周视图里
	vector[SlotIndex(1, 1, 1, 2)] = '1'

	slots, err := RenderWeek(string(vector), shape, 2)
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	want := []WeekFreeSlot{{DayOfWeek: 3, Period: 1}, {DayOfWeek: 5, Period: 2}}
	if len(slots) != len(want) {
		t.Fatalf("空闲格数 = %d, 期望 %d", len(slots), len(want))
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Errorf("第 %d 格 = %+v, 期望 %+v", i, slots[i], want[i])
		}
	}
}

func TestRenderWeek_Validation(t *testing.T) {
	shape := GridShape{TotalWeeks: 2, PeriodsPerDay: 2}
	vector := strings.Repeat("1", shape.VectorLen())

	if _, err := RenderWeek("111", shape, 1); !errors.Is(err, ErrSlotsLengthMismatch) {
		t.Errorf("长度不匹配期望 ErrSlotsLengthMismatch, got %v", err)
	}
	if _, err := RenderWeek(vector, shape, 0); !errors.Is(err, ErrWeekOutOfRange) {
		t.Errorf("周次 0 期望 ErrWeekOutOfRange, got %v", err)
	}
	if _, err := RenderWeek(vector, shape, 3); !errors.Is(err, ErrWeekOutOfRange) {
		t.Errorf("周次 3 期望 ErrWeekOutOfRange, got %v", err)
	}
}
