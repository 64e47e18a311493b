package service

import (
	"context"
	"errors"
	"sync"

	"github.com/hostedid/accounts/internal/model"
	"github.com/hostedid/accounts/internal/queue"
	"github.com/hostedid/accounts/internal/repository"
)

type renderCall struct {
	name string
	data map[string]any
}

type fakeRenderer struct {
	mu    sync.Mutex
	calls []renderCall
	html  string
	err   error
}

func (r *fakeRenderer) Render(name string, data map[string]any) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, renderCall{name: name, data: data})
	if r.err != nil {
		return "", r.err
	}
	return r.html, nil
}

type fakeDispatcher struct {
	mu    sync.Mutex
	queued []queue.Descriptor
	err    error
}

func (d *fakeDispatcher) Enqueue(_ context.Context, desc queue.Descriptor) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.queued = append(d.queued, desc)
	return nil
}

type memoryUserStore struct {
	mu    sync.Mutex
	users map[string]*model.User
	err   error
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: make(map[string]*model.User)}
}

func (s *memoryUserStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *memoryUserStore) GetByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *memoryUserStore) ExistsByEmail(_ context.Context, address string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	for _, u := range s.users {
		if u.Email == address {
			return true, nil
		}
	}
	return false, nil
}

var errStoreDown = errors.New("store down")
