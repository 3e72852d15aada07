package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/model"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/repository"
	pkgerrors "github.com/ChLiQiYu/campus-schedule-buddy-sub000/pkg/errors"
)

// newMockRepository 组装全内存 Repository，亦即"本地单机存储"形态
func newMockRepository() *repository.Repository {
	return &repository.Repository{
		User:           newMockUserRepo(),
		CourseSchedule: newMockCourseScheduleRepo(),
		Session:        newMockSessionRepo(),
		Member:         newMockMemberRepo(),
		Invite:         newMockInviteRepo(),
		ExternalShare:  newMockExternalShareRepo(),
	}
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%d", len(m.users)+1)
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock CourseScheduleRepository ──

type mockCourseScheduleRepo struct {
	courses []model.CourseSchedule
}

func newMockCourseScheduleRepo() *mockCourseScheduleRepo {
	return &mockCourseScheduleRepo{}
}

func (m *mockCourseScheduleRepo) ListByUserAndSemester(_ context.Context, userID, semesterID string) ([]model.CourseSchedule, error) {
	var result []model.CourseSchedule
	for _, c := range m.courses {
		if c.UserID == userID && c.SemesterID == semesterID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *mockCourseScheduleRepo) ReplaceByUserAndSemester(_ context.Context, userID, semesterID string, courses []model.CourseSchedule) error {
	var remaining []model.CourseSchedule
	for _, c := range m.courses {
		if !(c.UserID == userID && c.SemesterID == semesterID) {
			remaining = append(remaining, c)
		}
	}
	for i := range courses {
		if courses[i].CourseScheduleID == "" {
			courses[i].CourseScheduleID = fmt.Sprintf("cs-%d", len(remaining)+i+1)
		}
	}
	m.courses = append(remaining, courses...)
	return nil
}

// ── Mock SessionRepository ──

type mockSessionRepo struct {
	sessions map[string]*model.SyncSession
	seq      int
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*model.SyncSession)}
}

func (m *mockSessionRepo) Create(_ context.Context, session *model.SyncSession) error {
	if _, exists := m.sessions[session.Code]; exists {
		return gorm.ErrDuplicatedKey
	}
	m.seq++
	// CreatedAt 单调递增，保证 ListPublic 排序稳定
	session.CreatedAt = time.Unix(int64(m.seq), 0)
	m.sessions[session.Code] = session
	return nil
}

func (m *mockSessionRepo) GetByCode(_ context.Context, code string) (*model.SyncSession, error) {
	if s, ok := m.sessions[code]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSessionRepo) ListPublic(_ context.Context, limit int) ([]model.SyncSession, error) {
	var result []model.SyncSession
	for _, s := range m.sessions {
		if s.Visibility == model.VisibilityPublic && s.Status == model.SessionStatusActive {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockSessionRepo) UpdateVisibility(_ context.Context, code, visibility string) error {
	if s, ok := m.sessions[code]; ok {
		s.Visibility = visibility
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *mockSessionRepo) UpdateStatus(_ context.Context, code, status string) error {
	if s, ok := m.sessions[code]; ok {
		s.Status = status
		return nil
	}
	return gorm.ErrRecordNotFound
}

// ── Mock MemberRepository ──

type memberKey struct {
	sessionCode string
	userID      string
}

type mockMemberRepo struct {
	members map[memberKey]*model.SyncMember
	seq     int
}

func newMockMemberRepo() *mockMemberRepo {
	return &mockMemberRepo{members: make(map[memberKey]*model.SyncMember)}
}

func (m *mockMemberRepo) Upsert(_ context.Context, member *model.SyncMember) error {
	k := memberKey{member.SessionCode, member.UserID}
	if existing, ok := m.members[k]; ok {
		existing.DisplayName = member.DisplayName
		existing.Role = member.Role
		existing.FreeSlots = member.FreeSlots
		existing.UpdatedAt = member.UpdatedAt
		return nil
	}
	m.seq++
	cp := *member
	cp.JoinedAt = time.Unix(int64(m.seq), 0)
	m.members[k] = &cp
	return nil
}

func (m *mockMemberRepo) Get(_ context.Context, sessionCode, userID string) (*model.SyncMember, error) {
	if mem, ok := m.members[memberKey{sessionCode, userID}]; ok {
		cp := *mem
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMemberRepo) ListBySession(_ context.Context, sessionCode string) ([]model.SyncMember, error) {
	var result []model.SyncMember
	for k, mem := range m.members {
		if k.sessionCode == sessionCode {
			result = append(result, *mem)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].JoinedAt.Before(result[j].JoinedAt)
	})
	return result, nil
}

func (m *mockMemberRepo) Delete(_ context.Context, sessionCode, userID string) error {
	delete(m.members, memberKey{sessionCode, userID})
	return nil
}

// ── Mock InviteRepository ──
//
// MarkUsed 以互斥锁模拟数据库的条件更新，保证并发兑换只有一方成功

type mockInviteRepo struct {
	mu      sync.Mutex
	invites map[string]*model.SyncInvite
}

func newMockInviteRepo() *mockInviteRepo {
	return &mockInviteRepo{invites: make(map[string]*model.SyncInvite)}
}

func (m *mockInviteRepo) Create(_ context.Context, invite *model.SyncInvite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.invites[invite.Code]; exists {
		return gorm.ErrDuplicatedKey
	}
	cp := *invite
	m.invites[invite.Code] = &cp
	return nil
}

func (m *mockInviteRepo) GetByCode(_ context.Context, code string) (*model.SyncInvite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inv, ok := m.invites[code]; ok {
		cp := *inv
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInviteRepo) MarkUsed(_ context.Context, code, userID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invites[code]
	if !ok || inv.UsedBy != nil {
		return pkgerrors.ErrOptimisticLock
	}
	inv.UsedBy = &userID
	inv.UsedAt = &now
	return nil
}

// ── Mock ExternalShareRepository ──

type mockExternalShareRepo struct {
	shares []model.ExternalShare
}

func newMockExternalShareRepo() *mockExternalShareRepo {
	return &mockExternalShareRepo{}
}

func (m *mockExternalShareRepo) Create(_ context.Context, share *model.ExternalShare) error {
	if share.ShareID == "" {
		share.ShareID = fmt.Sprintf("share-%d", len(m.shares)+1)
	}
	m.shares = append(m.shares, *share)
	return nil
}

func (m *mockExternalShareRepo) ListBySession(_ context.Context, sessionCode string) ([]model.ExternalShare, error) {
	var result []model.ExternalShare
	for _, s := range m.shares {
		if s.SessionCode == sessionCode {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockExternalShareRepo) CountBySession(_ context.Context, sessionCode string) (int64, error) {
	var count int64
	for _, s := range m.shares {
		if s.SessionCode == sessionCode {
			count++
		}
	}
	return count, nil
}
