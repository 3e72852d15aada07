package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestIntersect_MembersAndShares(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.sessions.Resolve(ctx, "owner-1", "张三", resolveReq("ABC234")); err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if _, err := env.sessions.Resolve(ctx, "user-2", "李四", resolveReq("ABC234")); err != nil {
		t.Fatalf("加入失败: %v", err)
	}

	vecA := []byte(strings.Repeat("1", 28))
	vecA[5] = '0'
	vecB := []byte(strings.Repeat("1", 28))
	vecB[5] = '0'
	vecB[10] = '0'
	if err := env.roster.Publish(ctx, "ABC234", "owner-1", "张三", string(vecA)); err != nil {
		t.Fatalf("发布失败: %v", err)
	}
	if err := env.roster.Publish(ctx, "ABC234", "user-2", "李四", string(vecB)); err != nil {
		t.Fatalf("发布失败: %v", err)
	}

	// 外部分享在下标 20 处忙碌
	file := validShareFile()
	vecC := []byte(strings.Repeat("1", 28))
	vecC[20] = '0'
	file.FreeSlots = string(vecC)
	if _, err := env.share.ImportShare(ctx, "user-2", "李四", file); err != nil {
		t.Fatalf("导入失败: %v", err)
	}

	result, err := env.freetime.Intersect(ctx, "ABC234")
	if err != nil {
		t.Fatalf("交集失败: %v", err)
	}
	if result.SourceCount != 3 {
		t.Errorf("来源数 = %d, 期望 3（两名成员 + 一条分享）", result.SourceCount)
	}
	for i := 0; i < 28; i++ {
		want := byte('1')
		if i == 5 || i == 10 || i == 20 {
			want = '0'
		}
		if result.FreeSlots[i] != want {
			t.Errorf("下标 %d = %c, 期望 %c", i, result.FreeSlots[i], want)
		}
	}
}

func TestIntersect_SkipsUnpublishedMembers(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.sessions.Resolve(ctx, "owner-1", "张三", resolveReq("ABC234")); err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	// 只加入、未发布 → 无来源
	if _, err := env.freetime.Intersect(ctx, "ABC234"); !errors.Is(err, ErrNoFreeSlotData) {
		t.Fatalf("期望 ErrNoFreeSlotData, got %v", err)
	}

	vector := strings.Repeat("1", 28)
	if err := env.roster.Publish(ctx, "ABC234", "owner-1", "张三", vector); err != nil {
		t.Fatalf("发布失败: %v", err)
	}
	if _, err := env.sessions.Resolve(ctx, "user-2", "李四", resolveReq("ABC234")); err != nil {
		t.Fatalf("加入失败: %v", err)
	}

	result, err := env.freetime.Intersect(ctx, "ABC234")
	if err != nil {
		t.Fatalf("交集失败: %v", err)
	}
	if result.SourceCount != 1 {
		t.Errorf("来源数 = %d, 未发布成员不应计入", result.SourceCount)
	}
	if result.FreeSlots != vector {
		t.Errorf("单来源交集应等于该来源本身")
	}
}

func TestIntersect_UnknownSession(t *testing.T) {
	env := newTestEnv()
	if _, err := env.freetime.Intersect(context.Background(), "ZZZ999"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("期望 ErrSessionNotFound, got %v", err)
	}
}

func TestWeekView(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.sessions.Resolve(ctx, "owner-1", "张三", resolveReq("ABC234")); err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	vector := []byte(strings.Repeat("0", 28))
	vector[SlotIndex(1, 2, 1, 2)] = '1'
	vector[SlotIndex(2, 6, 2, 2)] = '1'
	if err := env.roster.Publish(ctx, "ABC234", "owner-1", "张三", string(vector)); err != nil {
		t.Fatalf("发布失败: %v", err)
	}

	view, err := env.freetime.WeekView(ctx, "ABC234", 1)
	if err != nil {
		t.Fatalf("周视图失败: %v", err)
	}
	if len(view.Slots) != 1 || view.Slots[0].DayOfWeek != 2 || view.Slots[0].Period != 1 {
		t.Errorf("第 1 周空闲格 = %+v, 期望 [{2 1}]", view.Slots)
	}

	if _, err := env.freetime.WeekView(ctx, "ABC234", 9); !errors.Is(err, ErrWeekOutOfRange) {
		t.Errorf("期望 ErrWeekOutOfRange, got %v", err)
	}
}

func TestExportIntersection(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.sessions.Resolve(ctx, "owner-1", "张三", resolveReq("ABC234")); err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	vector := []byte(strings.Repeat("0", 28))
	vector[SlotIndex(1, 1, 1, 2)] = '1'
	if err := env.roster.Publish(ctx, "ABC234", "owner-1", "张三", string(vector)); err != nil {
		t.Fatalf("发布失败: %v", err)
	}

	buf, filename, err := env.freetime.ExportIntersection(ctx, "ABC234")
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if !strings.Contains(filename, "ABC234") || !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("文件名 = %s", filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("产出的 Excel 无法打开: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 {
		t.Fatalf("Sheet 数 = %d, 期望每周一个共 2 个", len(sheets))
	}
	// 第 1 周周一第 1 节为共同空闲
	got, err := f.GetCellValue("第1周", "B2")
	if err != nil {
		t.Fatalf("读取单元格失败: %v", err)
	}
	if got != "✓" {
		t.Errorf("第1周!B2 = %q, 期望 ✓", got)
	}
	busy, _ := f.GetCellValue("第1周", "C2")
	if busy != "-" {
		t.Errorf("第1周!C2 = %q, 期望 -", busy)
	}
}

func TestExportIntersection_NoData(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.sessions.Resolve(ctx, "owner-1", "张三", resolveReq("ABC234")); err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if _, _, err := env.freetime.ExportIntersection(ctx, "ABC234"); !errors.Is(err, ErrNoFreeSlotData) {
		t.Fatalf("期望 ErrNoFreeSlotData, got %v", err)
	}
}
