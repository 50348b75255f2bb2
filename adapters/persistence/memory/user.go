package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/khoahotran/devconnector/internal/domain/user"
)

type UserStore struct {
	users map[uuid.UUID]user.User
	mutex sync.RWMutex
}

func NewUserStore() *UserStore {
	return &UserStore{users: map[uuid.UUID]user.User{}}
}

// Put inserts or replaces u.
func (s *UserStore) Put(u user.User) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.users[u.ID] = u
}

func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}

func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.users, id)
	return nil
}
