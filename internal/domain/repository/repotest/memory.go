// Package repotest provides in-memory repositories for exercising services and handlers
// without a database.
package repotest

import (
	"context"
	"sort"
	"sync"

	"taskmanager/internal/common"
	"taskmanager/internal/domain/model"
	"taskmanager/internal/domain/repository"
)

type UserStore struct {
	mu    sync.Mutex
	users map[string]model.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]model.User)}
}

var _ repository.UserRepository = (*UserStore)(nil)

func (s *UserStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return common.ErrConflict
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return s.find(func(u model.User) bool { return u.Email == email })
}

func (s *UserStore) FindByID(_ context.Context, id string) (*model.User, error) {
	return s.find(func(u model.User) bool { return u.ID == id })
}

func (s *UserStore) FindByVerificationToken(_ context.Context, digest string) (*model.User, error) {
	return s.find(func(u model.User) bool { return u.VerificationToken != nil && *u.VerificationToken == digest })
}

func (s *UserStore) UpdateRefreshToken(_ context.Context, id string, hashed *string) error {
	return s.mutate(id, func(u *model.User) { u.RefreshToken = hashed })
}

func (s *UserStore) MarkEmailVerified(_ context.Context, id string) error {
	return s.mutate(id, func(u *model.User) {
		u.IsEmailVerified = true
		u.VerificationToken = nil
	})
}

// Get returns a copy of the stored row, for assertions.
func (s *UserStore) Get(id string) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

// Put stores user as-is, for fixtures.
func (s *UserStore) Put(user model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

func (s *UserStore) find(match func(model.User) bool) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, common.ErrNotFound
}

func (s *UserStore) mutate(id string, fn func(*model.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return common.ErrNotFound
	}
	fn(&u)
	s.users[id] = u
	return nil
}

type TaskStore struct {
	mu    sync.Mutex
	seq   int
	tasks map[string]model.Task
	order map[string]int
}

func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[string]model.Task), order: make(map[string]int)}
}

var _ repository.TaskRepository = (*TaskStore)(nil)

func (s *TaskStore) Create(_ context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[task.ID]; exists {
		return common.ErrConflict
	}
	if task.ParentID != nil {
		if _, ok := s.tasks[*task.ParentID]; !ok {
			return common.ErrNotFound
		}
	}
	s.seq++
	s.order[task.ID] = s.seq
	s.tasks[task.ID] = *task
	return nil
}

func (s *TaskStore) FindByID(_ context.Context, id string) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &t, nil
}

func (s *TaskStore) List(_ context.Context, filter repository.TaskFilter) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Task{}
	for _, t := range s.tasks {
		if filter.UserID != nil && t.UserID != *filter.UserID {
			continue
		}
		if filter.ParentID != nil && (t.ParentID == nil || *t.ParentID != *filter.ParentID) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return s.order[out[i].ID] < s.order[out[j].ID] })
	return out, nil
}

func (s *TaskStore) Update(_ context.Context, id string, patch repository.TaskPatch) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		desc := *patch.Description
		t.Description = &desc
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.UserID != nil {
		t.UserID = *patch.UserID
	}
	t.UpdatedAt = patch.UpdatedAt
	s.tasks[id] = t
	return &t, nil
}

func (s *TaskStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
	delete(s.order, id)
	for childID, child := range s.tasks {
		if child.ParentID != nil && *child.ParentID == id {
			child.ParentID = nil
			s.tasks[childID] = child
		}
	}
	return nil
}

// Put stores task as-is, for fixtures.
func (s *TaskStore) Put(task model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.order[task.ID] = s.seq
	s.tasks[task.ID] = task
}
