// Package testutil holds builders shared by tests across packages.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hostedid/accounts/internal/database"
	"github.com/hostedid/accounts/internal/email"
	"github.com/hostedid/accounts/internal/model"
	"github.com/redis/go-redis/v9"
)

var userSeq atomic.Int64

// UserOption customizes a user built by NewUser.
type UserOption func(*model.User)

// WithEmail sets the user's email
func WithEmail(address string) UserOption {
	return func(u *model.User) { u.Email = address }
}

// WithID sets the user's primary key
func WithID(id string) UserOption {
	return func(u *model.User) { u.ID = id }
}

// NewUser returns an active user with a unique id and email.
func NewUser(opts ...UserOption) *model.User {
	n := userSeq.Add(1)
	now := time.Now().UTC().Truncate(time.Microsecond)
	u := &model.User{
		ID:         uuid.NewString(),
		Email:      fmt.Sprintf("user%d@example.com", n),
		IsActive:   true,
		DateJoined: now,
		UpdatedAt:  now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// NewTemplateRoot writes files (slash-separated name to content) into a
// per-test temporary directory and returns its path.
func NewTemplateRoot(t testing.TB, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("create template dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write template %s: %v", name, err)
		}
	}
	return root
}

// NewRedis starts an in-memory Redis server for the duration of the test.
func NewRedis(t testing.TB) (*database.Redis, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return database.WrapRedis(client), srv
}

// RecordingSender is an email.Sender that keeps every message it is given.
type RecordingSender struct {
	mu       sync.Mutex
	messages []email.Message
	errs     []error
}

// FailWith makes the next len(errs) sends return errs in order.
func (s *RecordingSender) FailWith(errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, errs...)
}

// Send records msg and returns the next queued failure, if any
func (s *RecordingSender) Send(_ context.Context, msg email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	if len(s.errs) == 0 {
		return nil
	}
	err := s.errs[0]
	s.errs = s.errs[1:]
	return err
}

// Sent returns a copy of the recorded messages
func (s *RecordingSender) Sent() []email.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]email.Message{}, s.messages...)
}
