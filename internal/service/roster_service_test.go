package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/config"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/dto"
)

// captureNotifier 记录所有加入通知
type captureNotifier struct {
	mu    sync.Mutex
	calls [][]string
}

func (n *captureNotifier) NotifyJoined(_ string, joinedNames []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, joinedNames)
}

func (n *captureNotifier) joined() [][]string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([][]string(nil), n.calls...)
}

func newNotifierEnv() (*testEnv, *captureNotifier) {
	logger := zap.NewNop()
	cfg := &config.Config{
		Sync: config.SyncConfig{InviteTTL: time.Hour, PublicListLimit: 20},
	}
	notifier := &captureNotifier{}
	repo := newMockRepository()
	hub := NewRosterHub(notifier)
	roster := NewRosterService(repo, hub, nil, logger)
	invites := NewInviteService(cfg, repo, roster, logger)
	return &testEnv{
		repo:     repo,
		hub:      hub,
		roster:   roster,
		invites:  invites,
		sessions: NewSessionService(cfg, repo, invites, roster, logger),
		share:    NewShareService(repo, roster, logger),
		freetime: NewFreeTimeService(repo, logger),
	}, notifier
}

func TestPublish_ShapeMismatch(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.sessions.Resolve(ctx, "owner-1", "张三", resolveReq("ABC234")); err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	// 网格 2×2 → 位图长 28；错误长度应被拒绝且不落库
	if err := env.roster.Publish(ctx, "ABC234", "owner-1", "张三", "1111"); !errors.Is(err, ErrSlotsLengthMismatch) {
		t.Fatalf("期望 ErrSlotsLengthMismatch, got %v", err)
	}
	member, err := env.repo.Member.Get(ctx, "ABC234", "owner-1")
	if err != nil {
		t.Fatalf("查询成员失败: %v", err)
	}
	if member.HasFreeSlots() {
		t.Errorf("被拒绝的发布不应写入位图")
	}
}

func TestPublish_LastWriteWins(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.sessions.Resolve(ctx, "owner-1", "张三", resolveReq("ABC234")); err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	first := strings.Repeat("1", 28)
	second := strings.Repeat("0", 27) + "1"
	if err := env.roster.Publish(ctx, "ABC234", "owner-1", "张三", first); err != nil {
		t.Fatalf("首次发布失败: %v", err)
	}
	if err := env.roster.Publish(ctx, "ABC234", "owner-1", "张三", second); err != nil {
		t.Fatalf("重复发布失败: %v", err)
	}

	member, err := env.repo.Member.Get(ctx, "ABC234", "owner-1")
	if err != nil {
		t.Fatalf("查询成员失败: %v", err)
	}
	if member.FreeSlots == nil || *member.FreeSlots != second {
		t.Errorf("位图未按 last-write-wins 覆盖")
	}
}

func TestPublish_EmptySlotsKeepsPublished(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.sessions.Resolve(ctx, "owner-1", "张三", resolveReq("ABC234")); err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	vector := strings.Repeat("1", 28)
	if err := env.roster.Publish(ctx, "ABC234", "owner-1", "张三", vector); err != nil {
		t.Fatalf("发布失败: %v", err)
	}
	// 空位图的重进（如重新 resolve）不得清掉已发布数据
	if err := env.roster.Publish(ctx, "ABC234", "owner-1", "张三", ""); err != nil {
		t.Fatalf("重进失败: %v", err)
	}
	member, _ := env.repo.Member.Get(ctx, "ABC234", "owner-1")
	if member.FreeSlots == nil || *member.FreeSlots != vector {
		t.Errorf("重进清掉了已发布位图")
	}
}

func TestPublish_DisbandedSessionRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.sessions.Resolve(ctx, "owner-1", "张三", resolveReq("ABC234")); err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if err := env.sessions.Disband(ctx, "ABC234", "owner-1"); err != nil {
		t.Fatalf("解散失败: %v", err)
	}
	err := env.roster.Publish(ctx, "ABC234", "owner-1", "张三", strings.Repeat("1", 28))
	if !errors.Is(err, ErrSessionDisbanded) {
		t.Errorf("期望 ErrSessionDisbanded, got %v", err)
	}
}

func TestSubscribe_DeliversSnapshots(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.sessions.Resolve(ctx, "owner-1", "张三", resolveReq("ABC234")); err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	ch, cancel, err := env.roster.Subscribe(ctx, "ABC234")
	if err != nil {
		t.Fatalf("订阅失败: %v", err)
	}
	defer cancel()

	// 订阅建立即收到当前全量快照
	snap := waitSnapshot(t, ch)
	if len(snap.Members) != 1 || snap.Members[0].DisplayName != "张三" {
		t.Fatalf("首个快照 = %+v, 期望仅张三", snap.Members)
	}

	// 新成员加入后收到替换后的全量快照
	if _, err := env.sessions.Resolve(ctx, "user-2", "李四", resolveReq("ABC234")); err != nil {
		t.Fatalf("加入失败: %v", err)
	}
	snap = waitSnapshot(t, ch)
	if len(snap.Members) != 2 {
		t.Fatalf("快照成员数 = %d, 期望 2", len(snap.Members))
	}
}

func TestSubscribe_CoalescesRapidUpdates(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.sessions.Resolve(ctx, "owner-1", "张三", resolveReq("ABC234")); err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	ch, cancel, err := env.roster.Subscribe(ctx, "ABC234")
	if err != nil {
		t.Fatalf("订阅失败: %v", err)
	}
	defer cancel()

	// 不消费期间连发多次变更：通道只保留最新快照
	for _, uid := range []string{"u2", "u3", "u4"} {
		if _, err := env.sessions.Resolve(ctx, uid, "成员"+uid, resolveReq("ABC234")); err != nil {
			t.Fatalf("加入失败: %v", err)
		}
	}
	snap := waitSnapshot(t, ch)
	if len(snap.Members) != 4 {
		t.Fatalf("合并后的快照成员数 = %d, 期望 4（最新状态）", len(snap.Members))
	}
	select {
	case extra := <-ch:
		t.Fatalf("不应再有积压快照: %+v", extra)
	default:
	}
}

func TestSubscribe_RejectsUnknownOrDisbanded(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, _, err := env.roster.Subscribe(ctx, "ZZZ999"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("期望 ErrSessionNotFound, got %v", err)
	}

	if _, err := env.sessions.Resolve(ctx, "owner-1", "张三", resolveReq("ABC234")); err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if err := env.sessions.Disband(ctx, "ABC234", "owner-1"); err != nil {
		t.Fatalf("解散失败: %v", err)
	}
	if _, _, err := env.roster.Subscribe(ctx, "ABC234"); !errors.Is(err, ErrSessionDisbanded) {
		t.Errorf("期望 ErrSessionDisbanded, got %v", err)
	}
}

func TestRosterHub_JoinDetection(t *testing.T) {
	env, notifier := newNotifierEnv()
	ctx := context.Background()

	// 首次广播只建立基线，不报"新加入"
	if _, err := env.sessions.Resolve(ctx, "owner-1", "张三", resolveReq("ABC234")); err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if calls := notifier.joined(); len(calls) != 0 {
		t.Fatalf("基线广播不应触发通知: %v", calls)
	}

	if _, err := env.sessions.Resolve(ctx, "user-2", "李四", resolveReq("ABC234")); err != nil {
		t.Fatalf("加入失败: %v", err)
	}
	calls := notifier.joined()
	if len(calls) != 1 || len(calls[0]) != 1 || calls[0][0] != "李四" {
		t.Fatalf("加入通知 = %v, 期望 [[李四]]", calls)
	}

	// 重复发布（同一批名字）不再重复通知
	if err := env.roster.Publish(ctx, "ABC234", "user-2", "李四", strings.Repeat("1", 28)); err != nil {
		t.Fatalf("发布失败: %v", err)
	}
	if calls := notifier.joined(); len(calls) != 1 {
		t.Fatalf("重复发布不应再次通知: %v", calls)
	}
}

func waitSnapshot(t *testing.T, ch <-chan dto.RosterSnapshot) dto.RosterSnapshot {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(time.Second):
		t.Fatalf("等待名单快照超时")
		return dto.RosterSnapshot{}
	}
}
