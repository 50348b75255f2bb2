package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/khoahotran/devconnector/internal/domain/post"
)

type PostStore struct {
	posts []post.Post
	mutex sync.RWMutex
}

func NewPostStore() *PostStore {
	return &PostStore{}
}

func (s *PostStore) Add(p post.Post) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.posts = append(s.posts, p)
}

func (s *PostStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*post.Post, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]*post.Post, 0)
	for i := range s.posts {
		if s.posts[i].OwnerID == ownerID {
			p := s.posts[i]
			out = append(out, &p)
		}
	}
	return out, nil
}

func (s *PostStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	kept := s.posts[:0]
	for _, p := range s.posts {
		if p.OwnerID != ownerID {
			kept = append(kept, p)
		}
	}
	s.posts = kept
	return nil
}
