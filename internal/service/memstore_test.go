package service

import (
	"context"
	"sync"
	"time"

	"github.com/itas-team/itas/internal/domain"
	"github.com/itas-team/itas/internal/store"
)

// memStore is an in-memory store.Store used by the service tests.
type memStore struct {
	mu    sync.Mutex
	users    map[string]*domain.User
	tasks    map[string]*domain.Task
	taskLogs map[string]*domain.TaskLog
	logs     map[string]*domain.DailyLog
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]*domain.User),
		tasks:    make(map[string]*domain.Task),
		taskLogs: make(map[string]*domain.TaskLog),
		logs:     make(map[string]*domain.DailyLog),
	}
}

func (m *memStore) Users() store.UserRepo         { return &memUsers{m} }
func (m *memStore) Tasks() store.TaskRepo         { return &memTasks{m} }
func (m *memStore) DailyLogs() store.DailyLogRepo { return &memLogs{m} }

func (m *memStore) WithTx(_ context.Context, fn func(store.Store) error) error { return fn(m) }
func (m *memStore) Ping(context.Context) error                                 { return nil }
func (m *memStore) Close() error                                               { return nil }

type memUsers struct{ s *memStore }

func (r *memUsers) Create(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return store.ErrAlreadyExists
		}
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *memUsers) GetByResetToken(_ context.Context, token string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.ResetToken != "" && u.ResetToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *memUsers) Update(_ context.Context, id string, p domain.UserPatch) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.RequestedRole != nil {
		u.RequestedRole = *p.RequestedRole
	}
	if p.Approved != nil {
		u.Approved = *p.Approved
	}
	if p.TwoFAEnabled != nil {
		u.TwoFAEnabled = *p.TwoFAEnabled
	}
	if p.TwoFASecret != nil {
		u.TwoFASecret = *p.TwoFASecret
	}
	if p.TwoFASetupTemp != nil {
		u.TwoFASetupTemp = *p.TwoFASetupTemp
	}
	if p.TwoFASetupRequired != nil {
		u.TwoFASetupRequired = *p.TwoFASetupRequired
	}
	if p.ResetToken != nil {
		u.ResetToken = *p.ResetToken
	}
	if p.ResetTokenExp != nil {
		u.ResetTokenExp = *p.ResetTokenExp
	}
	u.UpdatedAt = time.Now().UTC()

	cp := *u
	return &cp, nil
}

func (r *memUsers) ListPendingRoleRequests(context.Context) ([]*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.User
	for _, u := range r.s.users {
		if u.PendingRoleRequest() {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memUsers) PurgeExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, u := range r.s.users {
		if u.ResetToken != "" && u.ResetTokenExp.Before(now) {
			u.ResetToken = ""
			u.ResetTokenExp = time.Time{}
			n++
		}
	}
	return n, nil
}

type memTasks struct{ s *memStore }

func (r *memTasks) Create(_ context.Context, t *domain.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *t
	r.s.tasks[t.ID] = &cp
	return nil
}

func (r *memTasks) GetByID(_ context.Context, userID, id string) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok || t.UserID != userID {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTasks) ListByUser(_ context.Context, userID string) ([]*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Task
	for _, t := range r.s.tasks {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memTasks) Update(_ context.Context, userID, id string, p domain.TaskPatch) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok || t.UserID != userID {
		return nil, store.ErrNotFound
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	t.UpdatedAt = time.Now().UTC()
	cp := *t
	return &cp, nil
}

func (r *memTasks) Delete(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok || t.UserID != userID {
		return store.ErrNotFound
	}
	delete(r.s.tasks, id)
	return nil
}

func (r *memTasks) CountByUser(_ context.Context, userID string) (domain.Summary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var s domain.Summary
	for _, t := range r.s.tasks {
		if t.UserID != userID {
			continue
		}
		s.Total++
		switch t.Status {
		case domain.TaskPending:
			s.Pending++
		case domain.TaskInReview:
			s.InReview++
		case domain.TaskDone:
			s.Done++
		}
	}
	return s.Scored(), nil
}

func (r *memTasks) owns(userID, taskID string) bool {
	t, ok := r.s.tasks[taskID]
	return ok && t.UserID == userID
}

func (r *memTasks) AddLog(_ context.Context, userID string, l *domain.TaskLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.owns(userID, l.TaskID) {
		return store.ErrNotFound
	}
	cp := *l
	r.s.taskLogs[l.ID] = &cp
	return nil
}

func (r *memTasks) ListLogs(_ context.Context, userID, taskID string) ([]*domain.TaskLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.owns(userID, taskID) {
		return nil, store.ErrNotFound
	}
	var out []*domain.TaskLog
	for _, l := range r.s.taskLogs {
		if l.TaskID == taskID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memTasks) DeleteLog(_ context.Context, userID, taskID, logID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.owns(userID, taskID) {
		return store.ErrNotFound
	}
	l, ok := r.s.taskLogs[logID]
	if !ok || l.TaskID != taskID {
		return store.ErrNotFound
	}
	delete(r.s.taskLogs, logID)
	return nil
}

type memLogs struct{ s *memStore }

func (r *memLogs) Create(_ context.Context, l *domain.DailyLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *l
	r.s.logs[l.ID] = &cp
	return nil
}

func (r *memLogs) GetByID(_ context.Context, userID, id string) (*domain.DailyLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.logs[id]
	if !ok || l.UserID != userID {
		return nil, store.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *memLogs) ListByUser(_ context.Context, userID string) ([]*domain.DailyLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.DailyLog
	for _, l := range r.s.logs {
		if l.UserID == userID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memLogs) Update(_ context.Context, userID, id string, p domain.DailyLogPatch) (*domain.DailyLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.logs[id]
	if !ok || l.UserID != userID {
		return nil, store.ErrNotFound
	}
	if p.Date != nil {
		l.Date = *p.Date
	}
	if p.Content != nil {
		l.Content = *p.Content
	}
	l.UpdatedAt = time.Now().UTC()
	cp := *l
	return &cp, nil
}

func (r *memLogs) Delete(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.logs[id]
	if !ok || l.UserID != userID {
		return store.ErrNotFound
	}
	delete(r.s.logs, id)
	return nil
}

// captureNotifier records dispatched notifications.
type captureNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (c *captureNotifier) Dispatch(n domain.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
}

func (c *captureNotifier) all() []domain.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Notification(nil), c.sent...)
}

func (c *captureNotifier) last() (domain.Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return domain.Notification{}, false
	}
	return c.sent[len(c.sent)-1], true
}
