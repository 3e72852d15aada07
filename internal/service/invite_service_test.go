package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/model"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/pkg/code"
)

func TestIssueInvite(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.sessions.Resolve(ctx, "owner-1", "张三", resolveReq("ABC234")); err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	invite, err := env.invites.Issue(ctx, "ABC234", "owner-1")
	if err != nil {
		t.Fatalf("签发失败: %v", err)
	}
	if len(invite.InviteCode) != code.InviteCodeLen || !strings.HasPrefix(invite.InviteCode, code.InvitePrefix) {
		t.Errorf("邀请码 %s 不符合 IV 前缀 8 位格式", invite.InviteCode)
	}
	if !invite.ExpiresAt.After(time.Now()) {
		t.Errorf("有效期应在将来")
	}

	// 非成员不能签发
	if _, err := env.invites.Issue(ctx, "ABC234", "stranger"); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("非成员签发期望 ErrPermissionDenied, got %v", err)
	}
	// 不存在的会话
	if _, err := env.invites.Issue(ctx, "ZZZ999", "owner-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("期望 ErrSessionNotFound, got %v", err)
	}
}

func TestIssueInvite_DisbandedSession(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.sessions.Resolve(ctx, "owner-1", "张三", resolveReq("ABC234")); err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if err := env.sessions.Disband(ctx, "ABC234", "owner-1"); err != nil {
		t.Fatalf("解散失败: %v", err)
	}
	if _, err := env.invites.Issue(ctx, "ABC234", "owner-1"); !errors.Is(err, ErrSessionDisbanded) {
		t.Errorf("期望 ErrSessionDisbanded, got %v", err)
	}
}

func TestRedeemInvite(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.sessions.Resolve(ctx, "owner-1", "张三", resolveReq("ABC234")); err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	invite, err := env.invites.Issue(ctx, "ABC234", "owner-1")
	if err != nil {
		t.Fatalf("签发失败: %v", err)
	}

	session, err := env.invites.Redeem(ctx, invite.InviteCode, "user-2", "李四")
	if err != nil {
		t.Fatalf("兑换失败: %v", err)
	}
	if session.Code != "ABC234" {
		t.Errorf("兑换返回会话 %s, 期望 ABC234", session.Code)
	}
	member, err := env.repo.Member.Get(ctx, "ABC234", "user-2")
	if err != nil {
		t.Fatalf("兑换者应已入名单: %v", err)
	}
	if member.Role != model.MemberRoleMember {
		t.Errorf("兑换者角色 = %s, 期望 member", member.Role)
	}

	// 单次使用：二次兑换失败
	if _, err := env.invites.Redeem(ctx, invite.InviteCode, "user-3", "王五"); !errors.Is(err, ErrInviteAlreadyUsed) {
		t.Errorf("二次兑换期望 ErrInviteAlreadyUsed, got %v", err)
	}
}

func TestRedeemInvite_Failures(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.sessions.Resolve(ctx, "owner-1", "张三", resolveReq("ABC234")); err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	// 不存在
	if _, err := env.invites.Redeem(ctx, "IVXXXX22", "user-2", "李四"); !errors.Is(err, ErrInviteNotFound) {
		t.Errorf("期望 ErrInviteNotFound, got %v", err)
	}

	// 过期
	expired := &model.SyncInvite{
		Code:        "IVEXPR22",
		SessionCode: "ABC234",
		CreatedBy:   "owner-1",
		ExpiresAt:   time.Now().Add(-time.Minute),
	}
	if err := env.repo.Invite.Create(ctx, expired); err != nil {
		t.Fatalf("写入过期邀请码失败: %v", err)
	}
	if _, err := env.invites.Redeem(ctx, "IVEXPR22", "user-2", "李四"); !errors.Is(err, ErrInviteExpired) {
		t.Errorf("期望 ErrInviteExpired, got %v", err)
	}

	// 会话已解散
	invite, err := env.invites.Issue(ctx, "ABC234", "owner-1")
	if err != nil {
		t.Fatalf("签发失败: %v", err)
	}
	if err := env.sessions.Disband(ctx, "ABC234", "owner-1"); err != nil {
		t.Fatalf("解散失败: %v", err)
	}
	if _, err := env.invites.Redeem(ctx, invite.InviteCode, "user-2", "李四"); !errors.Is(err, ErrInviteSessionGone) {
		t.Errorf("期望 ErrInviteSessionGone, got %v", err)
	}
}

// 并发兑换同一邀请码：恰好一方成功，另一方收到已使用错误
func TestRedeemInvite_ConcurrentSingleUse(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.sessions.Resolve(ctx, "owner-1", "张三", resolveReq("ABC234")); err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	invite, err := env.invites.Issue(ctx, "ABC234", "owner-1")
	if err != nil {
		t.Fatalf("签发失败: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, uid := range []string{"user-a", "user-b"} {
		wg.Add(1)
		go func(i int, uid string) {
			defer wg.Done()
			_, errs[i] = env.invites.Redeem(ctx, invite.InviteCode, uid, "成员"+uid)
		}(i, uid)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else if !errors.Is(err, ErrInviteAlreadyUsed) {
			t.Errorf("失败方错误 = %v, 期望 ErrInviteAlreadyUsed", err)
		}
	}
	if successes != 1 {
		t.Fatalf("成功次数 = %d, 期望恰好 1", successes)
	}
}
