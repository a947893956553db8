package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"faculty-sub/backend/internal/model"
	"faculty-sub/backend/internal/notify"
	"faculty-sub/backend/internal/repository"
	pkgerrors "faculty-sub/backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu     sync.Mutex
	users  map[uint]*model.User
	nextID uint
	reqs   *mockRequestRepo // 删除用户时联动代课申请
	err    error            // 非 nil 时所有调用返回该错误
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uint]*model.User), nextID: 1}
}

func (m *mockUserRepo) add(name, email string, token *string) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &model.User{ID: m.nextID, Name: name, Email: email, PushToken: token}
	m.users[u.ID] = u
	m.nextID++
	return u
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	user.ID = m.nextID
	m.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uint) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) List(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, id uint, fields map[string]interface{}) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		s := v.(string)
		switch k {
		case "name":
			u.Name = s
		case "department":
			u.Department = &s
		case "phone":
			u.Phone = &s
		}
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) UpdatePushToken(_ context.Context, id uint, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PushToken = &token
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id uint) error {
	m.mu.Lock()
	if _, ok := m.users[id]; !ok {
		m.mu.Unlock()
		return gorm.ErrRecordNotFound
	}
	delete(m.users, id)
	m.mu.Unlock()

	if m.reqs != nil {
		m.reqs.onUserDeleted(id)
	}
	return nil
}

func (m *mockUserRepo) ListPushTargetsExcept(_ context.Context, excludedID uint) ([]model.PushTarget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PushTarget
	for _, u := range m.users {
		if u.ID != excludedID && u.PushToken != nil && *u.PushToken != "" {
			out = append(out, model.PushTarget{UserID: u.ID, PushToken: *u.PushToken})
		}
	}
	return out, nil
}

func (m *mockUserRepo) GetPushTarget(_ context.Context, id uint) (*model.PushTarget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	t := &model.PushTarget{UserID: id}
	if u.PushToken != nil {
		t.PushToken = *u.PushToken
	}
	return t, nil
}

func (m *mockUserRepo) ClearPushToken(_ context.Context, token string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		if u.PushToken != nil && *u.PushToken == token {
			u.PushToken = nil
			n++
		}
	}
	return n, nil
}

// ── Mock RequestRepository ──

// mockRequestRepo 以互斥锁模拟存储层的原子条件更新
type mockRequestRepo struct {
	mu     sync.Mutex
	reqs   map[uint]*model.SubstituteRequest
	nextID uint
	users  *mockUserRepo
	err    error
}

func newMockRequestRepo(users *mockUserRepo) *mockRequestRepo {
	m := &mockRequestRepo{reqs: make(map[uint]*model.SubstituteRequest), nextID: 1, users: users}
	users.reqs = m
	return m
}

func (m *mockRequestRepo) withNames(r model.SubstituteRequest) model.SubstituteRequest {
	if u, ok := m.users.users[r.TeacherID]; ok {
		r.Teacher = &model.User{ID: u.ID, Name: u.Name}
	}
	if r.AcceptedBy != nil {
		if u, ok := m.users.users[*r.AcceptedBy]; ok {
			r.Acceptor = &model.User{ID: u.ID, Name: u.Name}
		}
	}
	return r
}

func (m *mockRequestRepo) Create(_ context.Context, req *model.SubstituteRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	req.ID = m.nextID
	m.nextID++
	req.CreatedAt = time.Now().Add(time.Duration(req.ID) * time.Millisecond)
	req.UpdatedAt = req.CreatedAt
	cp := *req
	m.reqs[req.ID] = &cp
	return nil
}

func (m *mockRequestRepo) GetByID(_ context.Context, id uint) (*model.SubstituteRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.reqs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := m.withNames(*r)
	return &out, nil
}

func (m *mockRequestRepo) list(match func(*model.SubstituteRequest) bool, less func(a, b *model.SubstituteRequest) bool) ([]model.SubstituteRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []model.SubstituteRequest
	for _, r := range m.reqs {
		if match(r) {
			out = append(out, m.withNames(*r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(&out[i], &out[j]) })
	return out, nil
}

func byDateTime(a, b *model.SubstituteRequest) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	return a.ID < b.ID
}

func (m *mockRequestRepo) ListPending(_ context.Context) ([]model.SubstituteRequest, error) {
	return m.list(func(r *model.SubstituteRequest) bool { return r.Status == model.StatusPending }, byDateTime)
}

func (m *mockRequestRepo) ListByTeacher(_ context.Context, teacherID uint) ([]model.SubstituteRequest, error) {
	return m.list(
		func(r *model.SubstituteRequest) bool { return r.TeacherID == teacherID },
		func(a, b *model.SubstituteRequest) bool {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		},
	)
}

func (m *mockRequestRepo) ListAcceptedBy(_ context.Context, teacherID uint) ([]model.SubstituteRequest, error) {
	return m.list(func(r *model.SubstituteRequest) bool {
		return r.Status == model.StatusAccepted && r.AcceptedBy != nil && *r.AcceptedBy == teacherID
	}, byDateTime)
}

func (m *mockRequestRepo) Accept(_ context.Context, id, acceptorID uint, now time.Time) (*model.SubstituteRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.reqs[id]
	if !ok || r.Status != model.StatusPending {
		return nil, pkgerrors.ErrStaleState
	}
	if err := r.Accept(acceptorID, now); err != nil {
		return nil, pkgerrors.ErrStaleState
	}
	cp := *r
	return &cp, nil
}

func (m *mockRequestRepo) Cancel(_ context.Context, id, ownerID uint, now time.Time) (*model.SubstituteRequest, *uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, nil, m.err
	}
	r, ok := m.reqs[id]
	if !ok || r.TeacherID != ownerID {
		return nil, nil, gorm.ErrRecordNotFound
	}
	prior, err := r.Cancel(now)
	if err != nil {
		return nil, nil, err
	}
	cp := *r
	return &cp, prior, nil
}

func (m *mockRequestRepo) Delete(_ context.Context, id, ownerID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	r, ok := m.reqs[id]
	if !ok || r.TeacherID != ownerID {
		return gorm.ErrRecordNotFound
	}
	delete(m.reqs, id)
	return nil
}

// onUserDeleted 模拟外键级联与接受人回退
func (m *mockRequestRepo) onUserDeleted(userID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.reqs {
		if r.TeacherID == userID {
			delete(m.reqs, id)
			continue
		}
		if r.AcceptedBy != nil && *r.AcceptedBy == userID {
			r.Status = model.StatusPending
			r.AcceptedBy = nil
		}
	}
}

// ── Recording Notifier ──

type sentNotification struct {
	allExcept bool
	userID    uint
	n         notify.Notification
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (r *recordingNotifier) NotifyAllExcept(excludedUserID uint, n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{allExcept: true, userID: excludedUserID, n: n})
}

func (r *recordingNotifier) NotifyUser(userID uint, n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{userID: userID, n: n})
}

func (r *recordingNotifier) all() []sentNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentNotification(nil), r.sent...)
}

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{revoked: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = ttl
	return nil
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[jti]
	return ok, nil
}

// ── 测试辅助 ──

func newTestRepository() (*repository.Repository, *mockUserRepo, *mockRequestRepo) {
	users := newMockUserRepo()
	reqs := newMockRequestRepo(users)
	return &repository.Repository{User: users, Request: reqs}, users, reqs
}

func strPtr(s string) *string { return &s }
